package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/akolanti/pdfqa/internal/adapter/utils"
	"github.com/akolanti/pdfqa/internal/metrics"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Chain runs trace injection and per-IP rate limiting before every handler and records
// request metrics after it.
type Chain struct {
	limiter *IPRateLimiter
	logger  *logger_i.Logger
}

// New builds the chain. A non-positive perSecond disables rate limiting.
func New(perSecond float64, burst int) *Chain {
	c := &Chain{logger: logger_i.NewLogger("middleware")}
	if perSecond > 0 {
		c.limiter = NewIPRateLimiter(rate.Limit(perSecond), burst)
	}
	return c
}

// Wrap has the chi middleware signature, so it can be passed to Router.Use.
func (c *Chain) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := c.processRequest(requestResponseStruct{req: r, writer: rec})

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(utils.RoutePattern(re.req), strconv.Itoa(rec.Status)).Inc()
			return
		}
		next.ServeHTTP(rec, re.req)

		route := utils.RoutePattern(re.req)
		metrics.HttpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.Status)).Inc() //metrics
		re.logger.Debug("request done", "route", route, "status", rec.Status, "duration", time.Since(start))
	})
}

func (c *Chain) processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = c.logger
	re = injectTrace(re)
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	return c.rateLimiter(re)
}

package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
)

// one transport for every backend client so keep-alive connections are shared
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewClient returns a client on the pooled transport. timeout 0 means no client-level timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}

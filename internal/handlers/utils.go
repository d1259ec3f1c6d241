package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akolanti/pdfqa/internal/adapter"
	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag"
	"github.com/akolanti/pdfqa/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// the status is already written, only log
		logRH.Error("Error encoding response", "error", err)
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case rag.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, commonModels.ErrEmbeddingService), errors.Is(err, commonModels.ErrGenerationService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logRH.WithTrace(r.Context(), config.TRACE_ID_KEY)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "status", status, "error", err)
	} else {
		log.Warn("request rejected", "status", status, "error", err)
	}
	WriteErrorResponse(w, r, status, err.Error())
}

// WriteErrorResponse writes {error, code, trace_id}. The trace id comes from the request context.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, httpCode int, message string) {
	traceId, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	writeJsonResponse(w, httpCode, adapter.ToErrorResponse(message, httpCode, traceId))
}

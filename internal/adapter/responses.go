package adapter

import (
	"github.com/akolanti/pdfqa/internal/api"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag"
)

const UploadSuccessMessage = "PDF ingested successfully and index saved!"

func ToAskRequest(req api.AskRequest) rag.AskRequest {
	return rag.AskRequest{
		Question:    req.Question,
		Model:       req.Model,
		Temperature: req.Temperature.Ptr(),
		Mode:        req.Mode,
	}
}

func ToAskResponse(answer string) api.AskResponse {
	return api.AskResponse{Answer: answer}
}

func ToUploadResponse(res rag.IngestResult) api.UploadResponse {
	return api.UploadResponse{Message: UploadSuccessMessage, Chunks: res.Chunks}
}

func ToHealthResponse(st rag.Status) api.HealthResponse {
	return api.HealthResponse{
		Ollama:      st.BackendReachable,
		IndexLoaded: st.IndexLoaded,
		DocsCount:   st.Chunks,
		Document:    st.Document,
	}
}

// ToModelList always returns a non-nil slice so an empty list encodes as [].
func ToModelList(names []string) []api.ModelResponse {
	out := make([]api.ModelResponse, 0, len(names))
	for _, n := range names {
		out = append(out, api.ModelResponse{Name: n})
	}
	return out
}

func ToSearchResponse(results []commonModels.RetrievalResult) api.SearchResponse {
	return api.SearchResponse{Results: rag.FormatResults(results)}
}

func ToErrorResponse(message string, code int, traceId string) api.ErrorResponse {
	return api.ErrorResponse{Error: message, Code: code, TraceId: traceId}
}

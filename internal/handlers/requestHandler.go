package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/akolanti/pdfqa/internal/adapter"
	"github.com/akolanti/pdfqa/internal/api"
	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/rag"
	"github.com/akolanti/pdfqa/pkg/logger_i"
)

// Dependencies is everything the handlers need. Index state lives behind Service.
type Dependencies struct {
	Service        rag.Service
	UploadDir      string
	MaxUploadBytes int64
	SearchK        int
}

type Handler struct {
	deps   Dependencies
	logger *logger_i.Logger
}

func NewHandler(deps Dependencies) *Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = config.MaxUploadSize
	}
	if deps.SearchK <= 0 {
		deps.SearchK = config.DirectRetrievalK
	}
	return &Handler{deps: deps, logger: logger_i.NewLogger("RequestHandler")}
}

// HealthHandler godoc
// @Summary      Service health
// @Description  Reports whether the generation backend answers and whether a document index is loaded.
// @Tags         Status
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /api/health [get]
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToHealthResponse(h.deps.Service.Status(r.Context())))
}

// ModelsHandler godoc
// @Summary      List generation models
// @Description  Models offered by the backend, without embedding models. Empty when the backend is unreachable.
// @Tags         Status
// @Produce      json
// @Success      200  {array}  api.ModelResponse
// @Router       /api/models [get]
func (h *Handler) ModelsHandler(w http.ResponseWriter, r *http.Request) {
	names, err := h.deps.Service.Models(r.Context())
	if err != nil {
		h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY).Warn("model listing failed", "error", err)
		names = nil
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToModelList(names))
}

// UploadHandler godoc
// @Summary      Upload a PDF
// @Description  Replaces the current index with the uploaded document.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "The PDF to index"
// @Success      200  {object}  api.UploadResponse
// @Failure      400  {object}  api.ErrorResponse  "Missing file, wrong extension or unreadable PDF"
// @Failure      500  {object}  api.ErrorResponse  "Storage or ingestion failure"
// @Router       /api/upload [post]
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY)

	r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.deps.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, r, http.StatusBadRequest, "File too large")
			return
		}
		WriteErrorResponse(w, r, http.StatusBadRequest, "No file part in request")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, r, http.StatusBadRequest, "No file part in request")
		return
	}
	defer fileReader.Close()

	name := filepath.Base(strings.TrimSpace(fileMetadata.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		WriteErrorResponse(w, r, http.StatusBadRequest, "No file selected")
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	path, err := h.saveUpload(name, fileReader)
	if err != nil {
		log.Error("could not store upload", "file", name, "error", err)
		WriteErrorResponse(w, r, http.StatusInternalServerError, fmt.Sprintf("Failed to save file: %v", err))
		return
	}

	res, err := h.deps.Service.Ingest(r.Context(), path, name, nil)
	if err != nil {
		log.Error("ingestion failed", "file", name, "error", err)
		status := statusFor(err)
		if status != http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		WriteErrorResponse(w, r, status, fmt.Sprintf("Ingestion failed: %v", err))
		return
	}
	log.Info("document ingested", "file", name, "chunks", res.Chunks)
	writeJsonResponse(w, http.StatusOK, adapter.ToUploadResponse(res))
}

// saveUpload keeps the last raw upload on disk under its base name. Bytes land in a temp
// file that is renamed into place, so readers only ever see a complete upload.
func (h *Handler) saveUpload(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(h.deps.UploadDir, 0o750); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(h.deps.UploadDir, "upload-*.pdf.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	path := filepath.Join(h.deps.UploadDir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// AskHandler godoc
// @Summary      Ask a question
// @Description  Answers from the indexed document. mode "direct" (default) grounds a single prompt on retrieved chunks, "agent" lets the model call search_pdf.
// @Tags         Answering
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest  true  "Question, model and optional temperature and mode"
// @Success      200      {object}  api.AskResponse
// @Failure      400      {object}  api.ErrorResponse  "Missing fields, unknown mode or no document indexed"
// @Failure      502      {object}  api.ErrorResponse  "Embedding or generation backend failed"
// @Router       /api/ask [post]
func (h *Handler) AskHandler(w http.ResponseWriter, r *http.Request) {
	var requestData api.AskRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			h.logger.Error("Couldn't close the ask handler reader", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY).Warn("Bad ask request", "error", err)
		WriteErrorResponse(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(requestData.Question) == "" {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Question is required")
		return
	}
	if strings.TrimSpace(requestData.Model) == "" {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Model is required")
		return
	}

	answer, err := h.deps.Service.Ask(r.Context(), adapter.ToAskRequest(requestData))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAskResponse(answer))
}

// SearchHandler godoc
// @Summary      Inspect retrieval
// @Description  Returns the top k chunks for a query as citation strings, best first.
// @Tags         Answering
// @Produce      json
// @Param        q  query  string  true   "Search query"
// @Param        k  query  int     false  "Number of results"
// @Success      200  {object}  api.SearchResponse
// @Failure      400  {object}  api.ErrorResponse  "Missing query, bad k or no document indexed"
// @Router       /api/search [get]
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Query parameter q is required")
		return
	}
	k := h.deps.SearchK
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			WriteErrorResponse(w, r, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = parsed
	}

	results, err := h.deps.Service.Search(r.Context(), query, k)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(results))
}

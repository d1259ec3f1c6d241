package api

// responses---------------------

type AskResponse struct {
	Answer string `json:"answer" example:"Refunds must be requested within 30 days [p. 4]."`
}

type UploadResponse struct {
	Message string `json:"message" example:"PDF ingested successfully and index saved!"`
	Chunks  int    `json:"chunks" example:"42"`
}

type HealthResponse struct {
	Ollama      bool   `json:"ollama"`
	IndexLoaded bool   `json:"index_loaded"`
	DocsCount   int    `json:"docs_count" example:"42"`
	Document    string `json:"document,omitempty" example:"policy.pdf"`
}

type ModelResponse struct {
	Name string `json:"name" example:"llama3:latest"`
}

type SearchResponse struct {
	Results []string `json:"results"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"Question is required"`
	Code    int    `json:"code" example:"400"`
	TraceId string `json:"trace_id,omitempty"`
}

// requests---------------------

type AskRequest struct {
	Question string `json:"question" validate:"required" example:"What is the refund window?"`
	Model    string `json:"model" validate:"required" example:"llama3:latest"`
	// Temperature is optional, clamped to [0, 1]. Values that are not numbers fall back to the default.
	Temperature Temperature `json:"temperature,omitempty" swaggertype:"number" example:"0.2"`
	Mode        string      `json:"mode,omitempty" example:"direct" enums:"direct,agent"`
}

package commonModels

import (
	"fmt"
	"time"
)

type Document struct {
	Id                  string    `json:"source_doc_id"`
	Name                string    `json:"doc_name"`
	LastIngestTimestamp time.Time `json:"ingested_at"`
	ContentType         DocType   `json:"contentType"`
}

// DocChunk is a contiguous span of one page. PageNum 0 means the page is unknown.
type DocChunk struct {
	Chunk      string `json:"content"`
	PageNum    int    `json:"page_num"`
	Position   int    `json:"position"`
	PageOffset int    `json:"page_offset"`
}

func (c DocChunk) PageLabel() string {
	return PageLabel(c.PageNum)
}

func PageLabel(page int) string {
	if page <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("p. %d", page)
}

type ScoredChunk struct {
	Chunk DocChunk
	Score float64
}

type RetrievalResult struct {
	Text      string  `json:"text"`
	PageLabel string  `json:"page"`
	Rank      int     `json:"rank"`
	Score     float64 `json:"score"`
}

// Citation renders the result the way prompts and tools consume it: "[p. 4] text".
func (r RetrievalResult) Citation() string {
	return "[" + r.PageLabel + "] " + r.Text
}

type DocType string

var PDF DocType = "PDF"
var ERR DocType = "ERROR"

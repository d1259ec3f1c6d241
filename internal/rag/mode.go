package rag

import (
	"context"
	"strings"

	"github.com/akolanti/pdfqa/internal/rag/vectorDB"
)

// AnsweringMode is either DirectGeneration or ToolAugmented.
type AnsweringMode interface {
	answeringMode()
}

// DirectGeneration answers from the model alone. Used when no document is indexed.
type DirectGeneration struct{}

// ToolAugmented lets the agent call Tool before answering.
type ToolAugmented struct {
	Tool Tool
}

func (DirectGeneration) answeringMode() {}
func (ToolAugmented) answeringMode()    {}

type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (string, error)
}

// SelectMode is evaluated once per request against the index snapshot taken for it.
func SelectMode(idx vectorDB.Index, retriever *Retriever, k int) AnsweringMode {
	if idx == nil {
		return DirectGeneration{}
	}
	return ToolAugmented{Tool: SearchTool(idx, retriever, k)}
}

// SearchTool wraps the retriever: observation = citations joined by blank lines.
func SearchTool(idx vectorDB.Index, retriever *Retriever, k int) Tool {
	return Tool{
		Name:        SearchToolName,
		Description: SearchToolDescription,
		Run: func(ctx context.Context, input string) (string, error) {
			results, err := retriever.Search(ctx, idx, input, k)
			if err != nil {
				return "", err
			}
			return strings.Join(FormatResults(results), "\n\n"), nil
		},
	}
}

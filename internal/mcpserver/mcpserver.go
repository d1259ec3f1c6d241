package mcpserver

import (
	"context"
	"net/http"

	"github.com/akolanti/pdfqa/internal/rag"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = logger_i.NewLogger("MCP")

type SearchInput struct {
	Query string `json:"query" jsonschema:"a focused search query"`
	K     int    `json:"k,omitempty" jsonschema:"number of snippets to return"`
}

type SearchOutput struct {
	Results []string `json:"results"`
}

// NewServer exposes the retriever as the search_pdf tool.
func NewServer(svc rag.Service, defaultK int, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "pdfqa", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        rag.SearchToolName,
		Description: rag.SearchToolDescription,
	}, searchHandler(svc, defaultK))
	return server
}

func searchHandler(svc rag.Service, defaultK int) mcp.ToolHandlerFor[SearchInput, SearchOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		k := in.K
		if k <= 0 {
			k = defaultK
		}
		results, err := svc.Search(ctx, in.Query, k)
		if err != nil {
			logger.Warn("search_pdf failed", "error", err)
			return nil, SearchOutput{}, err
		}
		return nil, SearchOutput{Results: rag.FormatResults(results)}, nil
	}
}

// Handler serves the MCP server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

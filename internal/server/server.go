package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/akolanti/pdfqa/internal/adapter/utils"
	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/handlers"
	"github.com/akolanti/pdfqa/internal/middleware"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var _logger = logger_i.NewLogger("Server")

type Routes struct {
	Handler    *handlers.Handler
	Middleware *middleware.Chain
	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// NewRouter mounts the API routes next to swagger and /metrics.
func NewRouter(routes Routes) *chi.Mux {
	r := utils.GetRouter()

	r.Router.Group(func(api chi.Router) {
		api.Use(routes.Middleware.Wrap)
		api.Get("/api/health", routes.Handler.HealthHandler)
		api.Get("/api/models", routes.Handler.ModelsHandler)
		api.Post("/api/upload", routes.Handler.UploadHandler)
		api.Post("/api/ask", routes.Handler.AskHandler)
		api.Get("/api/search", routes.Handler.SearchHandler)
		if routes.MCP != nil {
			api.Handle("/mcp", routes.MCP)
		}
	})
	return r.Router
}

// Run serves handler on listenAddr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, listenAddr string, handler http.Handler) error {
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	return Serve(ctx, listener, handler)
}

func Serve(ctx context.Context, listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		_logger.Info("Server is listening at", "address", listener.Addr().String())
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		_logger.Error("Server crashed", "error", err)
		return err
	case <-ctx.Done():
	}

	_logger.Info("Server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	server.SetKeepAlivesEnabled(false)
	if err := server.Shutdown(shutdownCtx); err != nil {
		_logger.Error("Could not shutdown gracefully", "error", err)
		return err
	}
	_logger.Info("Server stopped gracefully")
	return nil
}

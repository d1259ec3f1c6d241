package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/akolanti/pdfqa/internal/handlers"
	"github.com/akolanti/pdfqa/internal/mcpserver"
	"github.com/akolanti/pdfqa/internal/middleware"
	"github.com/akolanti/pdfqa/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listenAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listenAddr != "" {
				opts.cfg.Server.ListenAddr = listenAddr
			}
			return runServe(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "server listen address (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg := opts.cfg
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// closing this context also closes the redis clients
	serviceContext, closeExternalServices := context.WithCancel(ctx)
	defer closeExternalServices()

	a, err := newApp(serviceContext, cfg)
	if err != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.", "error", err)
		return err
	}
	defer a.Close()

	routes := server.Routes{
		Handler: handlers.NewHandler(handlers.Dependencies{
			Service:        a.service,
			UploadDir:      cfg.Server.UploadDir,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			SearchK:        cfg.Answering.RetrievalK,
		}),
		Middleware: middleware.New(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst),
	}
	if cfg.Server.EnableMCP {
		routes.MCP = mcpserver.Handler(mcpserver.NewServer(a.service, cfg.Answering.AgentToolK, Version))
	}

	logger.Info("Starting server", "version", Version, "llm", cfg.LLM.Provider, "embedding", cfg.Embedding.Provider, "index", cfg.Index.Backend)
	return server.Run(ctx, cfg.Server.ListenAddr, server.NewRouter(routes))
}

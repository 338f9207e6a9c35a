package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/endershare/internal/command"
	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/host"
)

// Runner executes fn on the goroutine that owns the sharing state.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Config contains server configuration.
type Config struct {
	Manager       *share.Manager
	Host          *host.Memory
	Runner        Runner
	Resolver      OperatorResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "endershare",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only; auth applies to HTTP when enabled.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware("local"))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	t := &tools{
		manager:    cfg.Manager,
		host:       cfg.Host,
		runner:     cfg.Runner,
		dispatcher: command.NewDispatcher(cfg.Manager, cfg.Host, cfg.Logger),
		logger:     cfg.Logger,
	}
	t.register(server)

	return server
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/endershare/internal/config"
	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/host"
	"github.com/rpggio/endershare/internal/loop"
	"github.com/rpggio/endershare/internal/mcp"
	"github.com/spf13/cobra"
)

const loopCapacity = 256

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	closeLog := func() {}
	if cfg.Log.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("log file error: %w", err)
		}
		logWriter = fileWriter
		closeLog = func() { fileWriter.Close() }
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return logger, closeLog, nil
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	store, closeStore, err := openStore(cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		return err
	}
	defer closeStore()

	quiet, err := cfg.Share.DebounceDuration()
	if err != nil {
		return err
	}

	l := loop.New(loopCapacity)
	players := host.NewMemory()
	manager := share.NewManager(store, store, players, l, share.Config{
		InvitationTimeout: cfg.Share.InvitationTimeoutDuration(),
		QuietPeriod:       quiet,
	}, logger)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		l.Run(loopCtx)
	}()

	var startErr error
	if err := l.Do(parent, func() { startErr = manager.Start(parent) }); err != nil {
		startErr = err
	}
	if startErr != nil {
		stopLoop()
		<-loopDone
		logger.Error("failed to load state", "error", startErr)
		return startErr
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Manager:       manager,
		Host:          players,
		Runner:        l,
		Resolver:      mcp.StaticToken{Token: cfg.Auth.Token},
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Version:       version,
		Logger:        logger,
	})

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var runErr error
	if cfg.Transport.Mode == "stdio" {
		runErr = runStdioMode(ctx, logger, mcpServer)
	} else {
		runErr = runHTTPMode(ctx, logger, mcpServer, cfg.Server.Host, cfg.Server.Port)
	}

	// The loop is stopped before shutdown so nothing else touches the manager.
	stopLoop()
	<-loopDone
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown save failed", "error", err)
		runErr = errors.Join(runErr, err)
	}
	logger.Info("stopped")
	return runErr
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or context is canceled
	err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, host string, port int) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

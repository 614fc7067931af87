package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/claude/setops/internal/mcp"
	"github.com/claude/setops/internal/server"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"tailscale.com/tsnet"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (optionally on the tailnet)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g, cmd)
		},
	}
}

func runServe(ctx context.Context, g *globalFlags, cmd *cobra.Command) error {
	e, err := g.setup(ctx, cmd.OutOrStdout(), true)
	if err != nil {
		return err
	}
	defer e.Close()
	log := e.log
	log.Info("setops starting", "version", Version)

	if e.cfg.Auth.APIKey == "" {
		log.Warn("auth.api_key is not set; mutating routes will reject every request")
	}

	srv := server.New(e.app, e.renderer, e.store, e.cfg.Auth.APIKey, log)
	mcpSrv := mcp.New(mcp.Local{App: e.app}, Version, log)
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	if e.cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: e.cfg.Tailscale.Hostname,
			Dir:      e.cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			return fmt.Errorf("tsnet start: %w", err)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen: %w", err)
		}
		log.Info("tsnet server starting", "hostname", e.cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", e.cfg.Server.Host, e.cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if err := e.app.Save(shutdownCtx); err != nil {
		log.Error("saving state on shutdown", "error", err)
	}
	log.Info("server stopped")
	return nil
}

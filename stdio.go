package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/twenty48/api"
	"github.com/wricardo/mcp-training/twenty48/transport/mcp"
	"github.com/wricardo/mcp-training/twenty48/transport/websocket"
)

// mcpStdio runs an MCP stdio server. It reuses the API at --api (or the
// configured server address) when it answers /health, and otherwise starts an
// internal API on a random loopback port.
func (a *app) mcpStdio(ctx context.Context, cmd *cli.Command) error {
	baseURL := cmd.String("api")
	if baseURL == "" {
		baseURL = "http://" + a.settings.Server.Addr()
	}

	if apiAvailable(ctx, baseURL) {
		log.Info().Str("api", baseURL).Msg("using external API server for MCP")
	} else {
		internalURL, shutdown, err := a.startInternalAPI(ctx)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
	}

	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

// apiAvailable reports whether a server at baseURL answers its health check.
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the API on 127.0.0.1:0 and returns its base URL.
func (a *app) startInternalAPI(ctx context.Context) (string, func(), error) {
	svc, err := buildServices(a.settings)
	if err != nil {
		return "", nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		svc.Close()
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	svc.startMaintenance(ctx, a.settings.Sessions)
	hub := websocket.NewHub(svc.game)
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(svc.game, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()

	baseURL := "http://" + listener.Addr().String()
	log.Info().Str("api", baseURL).Msg("started internal HTTP server for MCP stdio")

	shutdown := func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		httpServer.Shutdown(shutdownCtx)
		svc.Close()
	}
	return baseURL, shutdown, nil
}

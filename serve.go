package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/twenty48/api"
	"github.com/wricardo/mcp-training/twenty48/internal/settings"
	"github.com/wricardo/mcp-training/twenty48/transport/mcp"
	"github.com/wricardo/mcp-training/twenty48/transport/websocket"
)

// serve runs the HTTP server with the REST API, the WebSocket hub and an /mcp
// endpoint until SIGINT or SIGTERM. With ngrok enabled it also serves the same
// handler through a public tunnel.
func (a *app) serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(a.settings)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()
	svc.startMaintenance(ctx, a.settings.Sessions)

	hub := websocket.NewHub(svc.game)
	go hub.Run(ctx)

	addr := a.settings.Server.Addr()
	apiServer := api.NewServer(svc.game, hub)
	apiServer.Handle("/mcp", mcp.NewClient("http://"+addr).HTTPHandler())

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errc := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", addr).
			Str("api", "http://"+addr+"/api").
			Str("ws", "ws://"+addr+"/ws?session=<id>").
			Str("mcp", "http://"+addr+"/mcp").
			Msgf("%s v%s listening", AppName, Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if a.settings.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveNgrok(ctx, a.settings.Ngrok, apiServer); err != nil {
				log.Error().Err(err).Msg("ngrok tunnel failed")
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errc:
		stop()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// serveNgrok serves handler through an ngrok tunnel until ctx is done.
func serveNgrok(ctx context.Context, cfg settings.NgrokSettings, handler http.Handler) error {
	if cfg.AuthToken == "" {
		return errors.New("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or ngrok.authtoken)")
	}

	var tunnel ngrokconfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokconfig.HTTPEndpoint(ngrokconfig.WithDomain(cfg.Domain))
	} else {
		tunnel = ngrokconfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		return fmt.Errorf("start tunnel: %w", err)
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	log.Info().Str("url", url).Str("api", url+"/api").Str("mcp", url+"/mcp").Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("ngrok tunnel closed")
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/twenty48/game/config"
	"github.com/wricardo/mcp-training/twenty48/game/service"
	"github.com/wricardo/mcp-training/twenty48/game/session"
	"github.com/wricardo/mcp-training/twenty48/internal/settings"
)

// storeSyncInterval is how often in-memory sessions are checked against the store.
const storeSyncInterval = 5 * time.Second

// services bundles the managers behind the game service.
type services struct {
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager

	persistent bool
	closer     io.Closer
}

// buildServices wires the config manager, the session store selected by
// s.Store and the game service, then loads persisted sessions.
func buildServices(s settings.Settings) (*services, error) {
	configManager, err := config.NewManager(s.Game.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	svc := &services{configs: configManager}

	path := s.Store.ResolvedPath()
	switch s.Store.Driver {
	case settings.DriverMemory:
		svc.sessions = session.NewManager()
	case settings.DriverFile:
		persistence, err := session.NewFilePersistence(path, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		svc.sessions = session.NewManagerWithPersistence(persistence)
		svc.persistent = true
	case settings.DriverSQLite:
		persistence, err := session.NewSQLitePersistence(path, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		svc.sessions = session.NewManagerWithPersistence(persistence)
		svc.persistent = true
		svc.closer = persistence
	default:
		return nil, fmt.Errorf("unknown store driver %q", s.Store.Driver)
	}

	if err := svc.sessions.LoadPersistedSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to load persisted sessions")
	}
	log.Info().Str("driver", s.Store.Driver).Str("path", path).Int("sessions", svc.sessions.Count()).
		Int("configs", configManager.Count()).Msg("services ready")

	svc.game = service.NewGameService(svc.sessions, configManager)
	return svc, nil
}

// startMaintenance evicts idle sessions and, with a persistent store, drops
// sessions whose stored record was removed. Both stop with ctx.
func (s *services) startMaintenance(ctx context.Context, cfg settings.SessionSettings) {
	go s.sessions.RunCleanup(ctx, cfg.CleanupInterval, cfg.MaxAge)
	if s.persistent {
		go s.sessions.RunStoreSync(ctx, storeSyncInterval)
	}
}

// Close flushes every session to the store and releases it.
func (s *services) Close() error {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to save sessions on shutdown")
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

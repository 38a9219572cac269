package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return sess, nil
}

// persist saves the session and logs instead of failing the request.
func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msgf("failed to persist session after %s", after)
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	log.Info().Str("session", session.ID).Str("config", configID).Msg("session created")
	return s.sessionInfo(session, configID), nil
}

// GetSession retrieves session information
//
// Touching the access time is a write, so this takes the exclusive lock.
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

// Move executes a single move for a session. Unknown directions are refused
// with an error wrapping engine.ErrInvalidDirection before the session is touched.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	moved, err := sess.Engine.Move(dir)
	if err != nil {
		return nil, err
	}
	entry := sess.Engine.GetLastMove()
	state := sess.Engine.GetState()

	result := &MoveResult{
		Moved:         moved,
		Direction:     dir,
		ScoreGained:   entry.ScoreGained,
		Merges:        entry.Merges,
		Spawned:       entry.Spawned,
		GameState:     state,
		Message:       state.Message,
		Events:        append(events, moveEvents(entry, state)...),
		PossibleMoves: possibleMoves(sess.Engine),
	}

	s.persist(sessionID, "move")
	return result, nil
}

// BulkMove executes up to engine.MaxBulkMoves moves in sequence. It stops at
// the first invalid direction or once the game is over; moves that leave the
// board unchanged are counted but do not stop the batch.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}
	result.StartScore = sess.Engine.GetScore()

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	dirs := make([]engine.Direction, 0, len(moves))
	var parseErr error
	for _, raw := range moves {
		dir, err := engine.ParseDirection(raw)
		if err != nil {
			parseErr = err
			break
		}
		dirs = append(dirs, dir)
	}

	entries, err := sess.Engine.BulkMove(dirs)
	if err != nil {
		return nil, err
	}

	endState := sess.Engine.GetState()
	for i, entry := range entries {
		result.MovesExecuted++
		if !entry.Moved {
			result.NoOpMoves++
		}

		// Only the last applied move can have ended the game.
		var after *engine.GameState
		if i == len(entries)-1 {
			after = endState
		}
		result.Events = append(result.Events, moveEvents(&entry, after)...)
		result.Steps = append(result.Steps, StepInfo{
			Idx:         i + 1,
			Dir:         string(entry.Action),
			Moved:       entry.Moved,
			ScoreGained: entry.ScoreGained,
			Merges:      entry.Merges,
			Spawned:     entry.Spawned,
			ScoreAfter:  entry.Score,
		})
	}

	switch {
	case len(entries) < len(dirs) || (parseErr != nil && endState.GameOver):
		result.StoppedReason = "game over"
		result.StopReasonCode = StopGameOver
		result.StoppedOnMove = len(entries) + 1
	case parseErr != nil:
		result.Success = false
		result.StoppedReason = fmt.Sprintf("move %d: %v", len(entries)+1, parseErr)
		result.StopReasonCode = StopInvalidDirection
		result.StoppedOnMove = len(entries) + 1
	}

	result.GameState = endState
	result.EndScore = endState.Score
	result.ScoreDelta = endState.Score - result.StartScore
	result.GameOver = endState.GameOver
	result.Message = endState.Message
	if result.GameOver && result.StopReasonCode == "" {
		result.StopReasonCode = StopGameOver
	}
	result.PossibleMoves = possibleMoves(sess.Engine)

	s.persist(sessionID, "bulk moves")
	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()

	s.persist(sessionID, "reset")
	return state, nil
}

// GetGameState retrieves a snapshot of the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// Hint suggests the greedy one-ply move for the session's board.
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*Hint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	grid := sess.Engine.GetGrid()
	hint := &Hint{
		PossibleMoves: possibleMoves(sess.Engine),
		Board:         engine.FormatGrid(grid),
	}
	dir, ok := engine.BestMove(grid)
	if !ok {
		return hint, nil
	}
	res, err := engine.Slide(grid, dir)
	if err != nil {
		return nil, err
	}
	hint.Available = true
	hint.Direction = dir
	hint.ScoreGained = res.Gained
	hint.EmptyAfter = len(res.Grid.EmptyCells())
	return hint, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      EventReset,
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
	}
}

// moveEvents describes one recorded move as a list of events. state is the
// state after the move, or nil when the move is known not to end the game.
func moveEvents(entry *engine.MoveHistoryEntry, state *engine.GameState) []GameEvent {
	now := time.Now()
	if !entry.Moved {
		return []GameEvent{{
			Type:      EventNoChange,
			Message:   fmt.Sprintf("Sliding %s changed nothing", entry.Action),
			Timestamp: now,
		}}
	}

	events := []GameEvent{{
		Type:      EventMove,
		Message:   fmt.Sprintf("Slid %s, score %d", entry.Action, entry.Score),
		Timestamp: now,
	}}
	if entry.Merges > 0 {
		events = append(events, GameEvent{
			Type:      EventMerge,
			Message:   fmt.Sprintf("%d merge(s) for +%d points", entry.Merges, entry.ScoreGained),
			Timestamp: now,
		})
	}
	if entry.Spawned != nil {
		t := *entry.Spawned
		events = append(events, GameEvent{
			Type:      EventSpawn,
			Message:   fmt.Sprintf("New %d at (%d,%d)", t.Value, t.Row, t.Col),
			Timestamp: now,
			Tile:      &t,
		})
	}
	if state != nil && state.GameOver {
		events = append(events, GameEvent{
			Type:      EventGameOver,
			Message:   state.Message,
			Timestamp: now,
		})
	}
	return events
}

func possibleMoves(e engine.Engine) []string {
	moves := []string{}
	for _, d := range e.GetPossibleMoves() {
		moves = append(moves, string(d))
	}
	return moves
}

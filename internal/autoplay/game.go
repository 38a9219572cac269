package autoplay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
	"github.com/wricardo/mcp-training/twenty48/game/service"
)

// Game is a board an automatic player can drive.
type Game interface {
	Grid() engine.Grid
	Score() int
	Over() bool
	Move(ctx context.Context, dir engine.Direction) (bool, error)
}

// LocalGame drives an in-process engine.
type LocalGame struct {
	Engine engine.Engine
}

func (g *LocalGame) Grid() engine.Grid { return g.Engine.GetGrid() }
func (g *LocalGame) Score() int        { return g.Engine.GetScore() }
func (g *LocalGame) Over() bool        { return g.Engine.IsTerminal() }

func (g *LocalGame) Move(ctx context.Context, dir engine.Direction) (bool, error) {
	return g.Engine.Move(dir)
}

// RemoteGame drives a session on a running server through the REST API.
type RemoteGame struct {
	baseURL   string
	sessionID string
	client    *http.Client
	state     *engine.GameState
}

// NewRemoteGame creates a session on the server at baseURL.
func NewRemoteGame(ctx context.Context, baseURL, configName string) (*RemoteGame, error) {
	g := &RemoteGame{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}

	body := map[string]string{}
	if configName != "" {
		body["config_id"] = configName
	}
	var info service.SessionInfo
	if err := g.post(ctx, "/api/sessions", body, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	g.sessionID = info.ID
	g.state = info.GameState
	return g, nil
}

// SessionID returns the server-side session ID.
func (g *RemoteGame) SessionID() string { return g.sessionID }

func (g *RemoteGame) Grid() engine.Grid { return g.state.Grid }
func (g *RemoteGame) Score() int        { return g.state.Score }
func (g *RemoteGame) Over() bool        { return g.state.GameOver }

func (g *RemoteGame) Move(ctx context.Context, dir engine.Direction) (bool, error) {
	var result service.MoveResult
	path := fmt.Sprintf("/api/sessions/%s/move", g.sessionID)
	if err := g.post(ctx, path, map[string]string{"direction": string(dir)}, &result); err != nil {
		return false, fmt.Errorf("move %s: %w", dir, err)
	}
	g.state = result.GameState
	return result.Moved, nil
}

func (g *RemoteGame) post(ctx context.Context, path string, body, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// Package service is the business layer between the transports (HTTP,
// WebSocket, MCP) and the 2048 engine.
//
// GameService resolves sessions, parses directions, runs moves one at a time
// and turns every call into a result carrying the new state and a list of
// events (reset, move, merge, spawn, no_change, game_over). It persists the
// session after each mutation.
//
// Usage:
//
//	configs, _ := config.NewManager("configs")
//	svc := service.NewGameService(session.NewManager(), configs)
//
//	info, err := svc.CreateSession(ctx, "classic")
//	result, err := svc.Move(ctx, info.ID, "left", false)
//	if errors.Is(err, engine.ErrInvalidDirection) {
//		// reject the request
//	}
//
// Bulk moves run at most engine.MaxBulkMoves directions. A move that leaves
// the board unchanged does not stop the batch; a finished game or an unknown
// direction does.
package service

// Package mcp exposes the 2048 game to Model Context Protocol clients.
//
// Client registers one MCP tool per game operation and forwards each call to
// the REST API, so an MCP agent and a browser can play the same session. Tool
// results are plain text with the board drawn as a 4x4 grid:
//
//	Score: 36 | Max tile: 16 | Moves: 9
//
//	   2    .    .    .
//	   4    .    .    .
//	  16    8    2    .
//	   4    2    .    .
//
// Tools: create_session, list_sessions, get_session, game_state, move,
// bulk_move, reset_game, move_history, hint, list_configs, game_instructions.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// stdio transport
//	server.ServeStdio(client.GetMCPServer())
//
//	// or JSON-RPC over HTTP
//	http.Handle("/mcp", client.HTTPHandler())
//
// API errors, such as an unknown session or a misspelled direction, come back
// as tool results flagged as errors rather than protocol errors.
package mcp

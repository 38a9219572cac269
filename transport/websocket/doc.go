// Package websocket pushes 2048 game state to browsers and accepts moves
// from them.
//
// A Hub groups connections by session ID. Every state change made through
// the REST API is broadcast to the session's clients as
//
//	{"session_id":"ab12","event":"state_update","game_state":{...}}
//
// Clients may also play over the socket by sending commands:
//
//	{"action":"move","direction":"left"}
//	{"action":"reset"}
//
// Commands are executed by the hub's CommandHandler (normally the game
// service); the new state is broadcast to the whole session and failures
// come back to the sender alone as an "error" event.
//
// Usage:
//
//	hub := websocket.NewHub(gameService)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Clients that fall behind by more than engine.WebSocketBufferSize messages
// are disconnected.
package websocket

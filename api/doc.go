// Package api exposes the 2048 game service over HTTP.
//
// Endpoints:
//
//	POST   /api/sessions                 create a session ({"config_id":"seeded"})
//	GET    /api/sessions                 list sessions (?sort=accessed|created|score&order=asc|desc&limit=N)
//	GET    /api/sessions/{id}            session details
//	DELETE /api/sessions/{id}            delete a session
//	GET    /api/sessions/{id}/state      current game state
//	POST   /api/sessions/{id}/move       {"direction":"left","reset":false}
//	POST   /api/sessions/{id}/bulk-move  {"moves":["up","left"],"reset":false}
//	POST   /api/sessions/{id}/reset      start a new game
//	GET    /api/sessions/{id}/history    move log (?page=1&limit=20&order=desc)
//	GET    /api/sessions/{id}/hint       greedy one-move suggestion
//	GET    /api/configs                  list game configurations
//	POST   /api/configs                  save a configuration
//	GET    /api/configs/{name}           load a configuration
//	GET    /health                       liveness
//	GET    /ws?session={id}              WebSocket state stream
//
// Errors are JSON objects with an "error" field. An unknown direction or a
// malformed configuration answers 400, an unknown session or configuration
// 404, anything else 500.
//
// Every state change is pushed to the session's WebSocket clients. Requests
// pass through request-ID, real-IP, logging and panic-recovery middleware.
package api

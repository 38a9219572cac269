// Package autoplay plays games without a human. A Strategy picks moves for a
// board, Play drives a Game (a local engine or a session on a running
// server) until it ends, and Run plays a batch of seeded games and reports
// score and max tile statistics.
package autoplay

package engine

// AddMoveToHistory adds a move to the game's move history
func (gs *GameState) AddMoveToHistory(entry MoveHistoryEntry) {
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current segment history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++

	gs.MoveHistory = trimHistory(gs.MoveHistory)
	gs.CurrentMoves = trimHistory(gs.CurrentMoves)
}

// trimHistory drops the oldest entries beyond MaxMoveHistory. The counters
// on GameState keep counting past the cap.
func trimHistory(h []MoveHistoryEntry) []MoveHistoryEntry {
	over := len(h) - MaxMoveHistory
	if over <= 0 {
		return h
	}
	n := copy(h, h[over:])
	clear(h[n:])
	return h[:n]
}

// Clone returns a deep copy of the state.
func (gs *GameState) Clone() *GameState {
	out := *gs
	out.MoveHistory = append([]MoveHistoryEntry(nil), gs.MoveHistory...)
	out.CurrentMoves = append([]MoveHistoryEntry(nil), gs.CurrentMoves...)
	if gs.LastSpawn != nil {
		t := *gs.LastSpawn
		out.LastSpawn = &t
	}
	return &out
}

// Package session stores 2048 game sessions.
//
// Manager keeps live sessions in memory, keyed by a case-insensitive ID, and
// mirrors them into an optional SessionPersistence backend:
//
//   - FilePersistence writes one JSON document per session
//   - SQLitePersistence keeps one row per session in a SQLite database whose
//     schema is applied from embedded migrations
//
// Callers may choose their own ID (letters, digits, '-' and '_', up to 32
// characters); otherwise a random 4-character hex ID is generated.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("data/sessions.db", configs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//
//	sess, err := manager.Create("", configs.GetDefault())
//	sess, err = manager.Get(sess.ID)
//
//	go manager.RunCleanup(ctx, 10*time.Minute, 24*time.Hour)
//
// Loading a persisted session validates its board; a file holding a value
// that is not a power of two, or a board that is not 4x4, is refused.
package session

package sqlite

import "database/sql"

// Store implements queue.Store against a SQLite database.
type Store struct {
	db *sql.DB
}

// DB returns the underlying connection, mainly for tests that want to
// inspect state the Store interface doesn't expose.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

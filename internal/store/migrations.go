package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Captures table - indexes photos and recordings written to disk
		`CREATE TABLE IF NOT EXISTS captures (
			id TEXT PRIMARY KEY,
			camera_id INTEGER NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('photo', 'video')),
			path TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_captures_kind ON captures(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_captures_created_at ON captures(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

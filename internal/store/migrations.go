package store

func (s *Store) runMigrations() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS mapping_tables (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			locale TEXT NOT NULL DEFAULT 'ko-KR',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Mappings keep their position so lookups are rebuilt in file order.
		`CREATE TABLE IF NOT EXISTS mappings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			table_id TEXT NOT NULL REFERENCES mapping_tables(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			hands TEXT NOT NULL,
			token TEXT NOT NULL,
			UNIQUE(table_id, hands)
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			sender TEXT NOT NULL CHECK(sender IN ('user', 'system')),
			source TEXT NOT NULL CHECK(source IN ('speech', 'typed')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_mappings_table_id ON mappings(table_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

package sqlite

import "database/sql"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        email TEXT NOT NULL UNIQUE,
        query_count INTEGER NOT NULL DEFAULT 0,
        subscription_tier TEXT NOT NULL DEFAULT 'free',
        last_query_at TIMESTAMP,
        created_at TIMESTAMP NOT NULL
    );`,
	`CREATE TABLE IF NOT EXISTS queries (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        keyword TEXT NOT NULL,
        results TEXT NOT NULL DEFAULT '[]',
        status TEXT NOT NULL DEFAULT 'completed',
        created_at TIMESTAMP NOT NULL
    );`,
	`CREATE INDEX IF NOT EXISTS idx_queries_user_created ON queries (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS keyword_cache (
        keyword TEXT PRIMARY KEY,
        data BLOB NOT NULL,
        data_source TEXT NOT NULL DEFAULT 'google_trends',
        created_at TIMESTAMP NOT NULL,
        expires_at TIMESTAMP NOT NULL
    );`,
	`CREATE INDEX IF NOT EXISTS idx_keyword_cache_expires ON keyword_cache (expires_at);`,
}

// EnsureSchema creates the tables when absent. SQLite is the local/dev
// driver, so schema setup happens in-process rather than via migrations.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

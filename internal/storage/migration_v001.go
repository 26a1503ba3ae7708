package storage

import "database/sql"

// migrateV001 creates the initial nooze schema: statuses with their FTS5
// index and sync triggers, topics, authors and feed watermarks. Every
// statement uses IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS statuses (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			id            TEXT NOT NULL UNIQUE,
			author        TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL,
			source        TEXT NOT NULL DEFAULT '',
			text          TEXT NOT NULL DEFAULT '',
			language_code TEXT NOT NULL DEFAULT 'U',
			inserted_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Diacritic and case insensitive text index over statuses.text.
		`CREATE VIRTUAL TABLE IF NOT EXISTS statuses_fts USING fts5(
			text,
			content='statuses',
			content_rowid='seq',
			tokenize='unicode61 remove_diacritics 2'
		)`,

		`CREATE TABLE IF NOT EXISTS topics (
			slug        TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			query       TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS authors (
			author        TEXT PRIMARY KEY,
			language_code TEXT NOT NULL DEFAULT 'U',
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS lastread (
			source     TEXT PRIMARY KEY,
			last_seen  TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Triggers ───────────────────────────────────────────

		`CREATE TRIGGER IF NOT EXISTS statuses_ai AFTER INSERT ON statuses BEGIN
			INSERT INTO statuses_fts(rowid, text) VALUES (new.seq, new.text);
		END`,

		`CREATE TRIGGER IF NOT EXISTS statuses_ad AFTER DELETE ON statuses BEGIN
			INSERT INTO statuses_fts(statuses_fts, rowid, text) VALUES ('delete', old.seq, old.text);
		END`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_statuses_created_at ON statuses(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_statuses_author     ON statuses(author)`,
		`CREATE INDEX IF NOT EXISTS idx_statuses_language   ON statuses(language_code, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_topics_category     ON topics(category)`,
		`CREATE INDEX IF NOT EXISTS idx_authors_language    ON authors(language_code)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

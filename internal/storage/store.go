package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/nooze/internal/metrics"
	"github.com/runnerr0/nooze/internal/query"
)

// tsLayout is how instants are stored. Every stored value is UTC with the
// same width, so text comparison orders them chronologically.
const tsLayout = "2006-01-02T15:04:05Z"

// Store defines the interface for nooze data operations.
type Store interface {
	AddStatus(ctx context.Context, status *Status) error
	GetStatus(ctx context.Context, id string) (*Status, error)
	Find(ctx context.Context, p query.Predicate, order Order, limit int) ([]Status, error)
	Count(ctx context.Context, p query.Predicate) (int64, error)
	CountAll(ctx context.Context) (int64, error)

	ReplaceTopics(ctx context.Context, topics []Topic) error
	ListTopics(ctx context.Context) ([]Topic, error)
	TopicQuery(ctx context.Context, slug string) (string, bool, error)

	UpsertAuthor(ctx context.Context, name, language string) error
	AuthorLanguage(ctx context.Context, name string) (string, error)
	ListAuthors(ctx context.Context) ([]Author, error)
	UnknownAuthors(ctx context.Context) ([]Author, error)

	LastRead(ctx context.Context, source string) (time.Time, error)
	StoreLastRead(ctx context.Context, source string, seen time.Time) error

	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	ownsDB bool

	// Prepared statements
	insertStatus   *sql.Stmt
	getStatus      *sql.Stmt
	topicQuery     *sql.Stmt
	authorLanguage *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStatus, err = s.db.Prepare(`
		INSERT OR IGNORE INTO statuses (id, author, created_at, source, text, language_code)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getStatus, err = s.db.Prepare(`
		SELECT id, author, created_at, source, text, language_code
		FROM statuses WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.topicQuery, err = s.db.Prepare(`SELECT query FROM topics WHERE slug = ?`)
	if err != nil {
		return err
	}

	s.authorLanguage, err = s.db.Prepare(`SELECT language_code FROM authors WHERE author = ?`)
	if err != nil {
		return err
	}

	return nil
}

// observe starts timing a store operation; the returned func records it in
// the Prometheus metrics once *errp holds the final error.
func observe(op string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		metrics.StoreOperationsTotal.WithLabelValues(op, metrics.Status(*errp)).Inc()
		metrics.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// generateID creates an ID for statuses added by hand: NZ- + 8 random hex chars.
func generateID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "NZ-" + hex.EncodeToString(b), nil
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// formatBound formats a query bound against second-precision created_at
// values. Rounding up keeps both ">= start" and "< end" exact for a bound
// with a fractional second.
func formatBound(t time.Time) string {
	if c := t.Truncate(time.Second); !c.Equal(t) {
		t = c.Add(time.Second)
	}
	return formatTS(t)
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		tsLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// AddStatus inserts a status. A missing ID is generated, a zero CreatedAt
// becomes now and an empty Language becomes UnknownLanguage. Inserting an
// ID that is already stored returns ErrDuplicateStatus.
func (s *SQLiteStore) AddStatus(ctx context.Context, status *Status) (err error) {
	defer observe("add_status")(&err)

	if status.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("generate ID: %w", err)
		}
		status.ID = id
	}
	if status.CreatedAt.IsZero() {
		status.CreatedAt = time.Now()
	}
	status.CreatedAt = status.CreatedAt.UTC().Truncate(time.Second)
	if status.Language == "" {
		status.Language = UnknownLanguage
	}

	res, err := s.insertStatus.ExecContext(ctx,
		status.ID, status.Author, formatTS(status.CreatedAt),
		status.Source, status.Text, status.Language,
	)
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("status %s: %w", status.ID, ErrDuplicateStatus)
	}

	return nil
}

// GetStatus retrieves a single status by ID.
func (s *SQLiteStore) GetStatus(ctx context.Context, id string) (*Status, error) {
	var st Status
	var tsStr string

	err := s.getStatus.QueryRowContext(ctx, id).Scan(
		&st.ID, &st.Author, &tsStr, &st.Source, &st.Text, &st.Language,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("status %s: %w", id, ErrStatusNotFound)
		}
		return nil, fmt.Errorf("get status: %w", err)
	}

	st.CreatedAt, _ = parseTimestamp(tsStr)
	return &st, nil
}

// where builds the FROM and WHERE clauses for a predicate. matchable is
// false when the text clause can match nothing.
func where(p query.Predicate) (from, clause string, args []any, matchable bool) {
	from = "statuses s"
	var clauses []string

	if p.HasText() {
		expr, ok := matchExpr(p.Text)
		if !ok {
			return "", "", nil, false
		}
		from = "statuses_fts f JOIN statuses s ON s.seq = f.rowid"
		clauses = append(clauses, "statuses_fts MATCH ?")
		args = append(args, expr)
	}
	if !p.Start.IsZero() {
		clauses = append(clauses, "s.created_at >= ?")
		args = append(args, formatBound(p.Start))
	}
	if !p.End.IsZero() {
		clauses = append(clauses, "s.created_at < ?")
		args = append(args, formatBound(p.End))
	}
	if p.Language != "" {
		clauses = append(clauses, "s.language_code = ?")
		args = append(args, p.Language)
	}

	if len(clauses) > 0 {
		clause = " WHERE " + strings.Join(clauses, " AND ")
	}
	return from, clause, args, true
}

// Find returns the statuses matching p sorted by created_at. A limit of
// zero or less means no limit.
func (s *SQLiteStore) Find(ctx context.Context, p query.Predicate, order Order, limit int) (_ []Status, err error) {
	defer observe("find")(&err)

	from, clause, args, ok := where(p)
	if !ok {
		return []Status{}, nil
	}

	dir := "DESC"
	if order == Ascending {
		dir = "ASC"
	}
	if limit <= 0 {
		limit = -1
	}

	q := `SELECT s.id, s.author, s.created_at, s.source, s.text, s.language_code FROM ` +
		from + clause + ` ORDER BY s.created_at ` + dir + `, s.seq ` + dir + ` LIMIT ?`
	args = append(args, limit)

	return s.scanStatuses(ctx, q, args...)
}

// Count returns the number of statuses matching p.
func (s *SQLiteStore) Count(ctx context.Context, p query.Predicate) (n int64, err error) {
	defer observe("count")(&err)

	from, clause, args, ok := where(p)
	if !ok {
		return 0, nil
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+from+clause, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count statuses: %w", err)
	}
	return n, nil
}

// CountAll returns the total number of stored statuses.
func (s *SQLiteStore) CountAll(ctx context.Context) (n int64, err error) {
	defer observe("count_all")(&err)

	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM statuses").Scan(&n); err != nil {
		return 0, fmt.Errorf("count statuses: %w", err)
	}
	return n, nil
}

// scanStatuses executes a query and scans results into Status slices.
func (s *SQLiteStore) scanStatuses(ctx context.Context, q string, args ...any) ([]Status, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	statuses := []Status{}
	for rows.Next() {
		var st Status
		var tsStr string
		if err := rows.Scan(&st.ID, &st.Author, &tsStr, &st.Source, &st.Text, &st.Language); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		st.CreatedAt, _ = parseTimestamp(tsStr)
		statuses = append(statuses, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// ReplaceTopics swaps the whole topic set in one transaction. When a slug
// repeats, the first occurrence wins.
func (s *SQLiteStore) ReplaceTopics(ctx context.Context, topics []Topic) (err error) {
	defer observe("replace_topics")(&err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err = tx.ExecContext(ctx, "DELETE FROM topics"); err != nil {
		return fmt.Errorf("clear topics: %w", err)
	}

	for _, t := range topics {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO topics (slug, description, category, query) VALUES (?, ?, ?, ?)",
			t.Slug, t.Description, t.Category, t.Query,
		)
		if err != nil {
			return fmt.Errorf("insert topic %s: %w", t.Slug, err)
		}
	}

	return tx.Commit()
}

// ListTopics returns all topics sorted by description.
func (s *SQLiteStore) ListTopics(ctx context.Context) (_ []Topic, err error) {
	defer observe("list_topics")(&err)

	rows, err := s.db.QueryContext(ctx,
		"SELECT slug, description, category, query FROM topics ORDER BY description, slug",
	)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := []Topic{}
	for rows.Next() {
		var t Topic
		if err = rows.Scan(&t.Slug, &t.Description, &t.Category, &t.Query); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// TopicQuery returns the stored search text for slug.
func (s *SQLiteStore) TopicQuery(ctx context.Context, slug string) (text string, found bool, err error) {
	defer observe("topic_query")(&err)

	err = s.topicQuery.QueryRowContext(ctx, slug).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("topic %s: %w", slug, err)
	}
	return text, true, nil
}

// UpsertAuthor records the language of an author.
func (s *SQLiteStore) UpsertAuthor(ctx context.Context, name, language string) (err error) {
	defer observe("upsert_author")(&err)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO authors (author, language_code) VALUES (?, ?)
		ON CONFLICT(author) DO UPDATE SET language_code = excluded.language_code, updated_at = CURRENT_TIMESTAMP
	`, name, language)
	if err != nil {
		return fmt.Errorf("upsert author %s: %w", name, err)
	}
	return nil
}

// AuthorLanguage returns the language code of an author, or
// ErrAuthorNotFound.
func (s *SQLiteStore) AuthorLanguage(ctx context.Context, name string) (lang string, err error) {
	defer observe("author_language")(&err)

	err = s.authorLanguage.QueryRowContext(ctx, name).Scan(&lang)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("author %s: %w", name, ErrAuthorNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("author %s: %w", name, err)
	}
	return lang, nil
}

// ListAuthors returns all authors sorted by name.
func (s *SQLiteStore) ListAuthors(ctx context.Context) ([]Author, error) {
	return s.queryAuthors(ctx, "list_authors",
		"SELECT author, language_code FROM authors ORDER BY author")
}

// UnknownAuthors returns the authors whose language is UnknownLanguage.
func (s *SQLiteStore) UnknownAuthors(ctx context.Context) ([]Author, error) {
	return s.queryAuthors(ctx, "unknown_authors",
		"SELECT author, language_code FROM authors WHERE language_code = ? ORDER BY author", UnknownLanguage)
}

func (s *SQLiteStore) queryAuthors(ctx context.Context, op, q string, args ...any) (_ []Author, err error) {
	defer observe(op)(&err)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	authors := []Author{}
	for rows.Next() {
		var a Author
		if err = rows.Scan(&a.Name, &a.Language); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// LastRead returns the newest item time recorded for a feed source, or the
// zero time when the source has never been read.
func (s *SQLiteStore) LastRead(ctx context.Context, source string) (seen time.Time, err error) {
	defer observe("last_read")(&err)

	var tsStr string
	err = s.db.QueryRowContext(ctx, "SELECT last_seen FROM lastread WHERE source = ?", source).Scan(&tsStr)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last read %s: %w", source, err)
	}
	return parseTimestamp(tsStr)
}

// StoreLastRead records the watermark of a feed source.
func (s *SQLiteStore) StoreLastRead(ctx context.Context, source string, seen time.Time) (err error) {
	defer observe("store_last_read")(&err)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lastread (source, last_seen) VALUES (?, ?)
		ON CONFLICT(source) DO UPDATE SET last_seen = excluded.last_seen, updated_at = CURRENT_TIMESTAMP
	`, source, formatTS(seen))
	if err != nil {
		return fmt.Errorf("store last read %s: %w", source, err)
	}
	return nil
}

// PruneBefore deletes statuses created before cutoff. The FTS index is
// kept in sync by trigger.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (n int64, err error) {
	defer observe("prune")(&err)

	res, err := s.db.ExecContext(ctx, "DELETE FROM statuses WHERE created_at < ?", formatBound(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune statuses: %w", err)
	}
	return res.RowsAffected()
}

// PurgeAll deletes every status, topic, author and watermark.
func (s *SQLiteStore) PurgeAll(ctx context.Context) (err error) {
	defer observe("purge")(&err)

	stmts := []string{
		"DELETE FROM statuses",
		"INSERT INTO statuses_fts(statuses_fts) VALUES ('rebuild')",
		"DELETE FROM topics",
		"DELETE FROM authors",
		"DELETE FROM lastread",
	}
	for _, stmt := range stmts {
		if _, err = s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return nil
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{LastRead: map[string]time.Time{}}

	counts := []struct {
		q    string
		dest *int64
	}{
		{"SELECT COUNT(*) FROM statuses", &stats.TotalStatuses},
		{"SELECT COUNT(*) FROM topics", &stats.TotalTopics},
		{"SELECT COUNT(*) FROM authors", &stats.TotalAuthors},
		{"SELECT COUNT(*) FROM authors WHERE language_code = 'U'", &stats.UnknownAuthors},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.q).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats (%s): %w", c.q, err)
		}
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalStatuses > 0 {
		var oldestStr, newestStr string
		err := s.db.QueryRowContext(ctx, "SELECT MIN(created_at), MAX(created_at) FROM statuses").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("status time range: %w", err)
		}
		stats.OldestStatus, _ = parseTimestamp(oldestStr)
		stats.NewestStatus, _ = parseTimestamp(newestStr)
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			stats.DatabaseSizeBytes = pageCount * pageSize
		}
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT author, COUNT(*) AS cnt FROM statuses GROUP BY author ORDER BY cnt DESC, author LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top authors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ac AuthorCount
		if err := rows.Scan(&ac.Author, &ac.Count); err != nil {
			return nil, err
		}
		stats.TopAuthors = append(stats.TopAuthors, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lrRows, err := s.db.QueryContext(ctx, "SELECT source, last_seen FROM lastread")
	if err != nil {
		return nil, fmt.Errorf("last read: %w", err)
	}
	defer lrRows.Close()

	for lrRows.Next() {
		var source, tsStr string
		if err := lrRows.Scan(&source, &tsStr); err != nil {
			return nil, err
		}
		stats.LastRead[source], _ = parseTimestamp(tsStr)
	}

	return stats, lrRows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is closed
// only when the store opened it itself (see Open).
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertStatus, s.getStatus, s.topicQuery, s.authorLanguage,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

package ingest

import (
	"context"
	"time"

	"github.com/runnerr0/nooze/internal/config"
	"github.com/runnerr0/nooze/internal/feeds"
	"github.com/runnerr0/nooze/internal/storage"
)

// Fetcher retrieves the current items of one feed source.
type Fetcher interface {
	Fetch(ctx context.Context, src config.FeedSource) ([]feeds.Item, error)
}

// Store persists statuses, author languages and per-source watermarks.
type Store interface {
	AddStatus(ctx context.Context, status *storage.Status) error
	AuthorLanguage(ctx context.Context, name string) (string, error)
	UpsertAuthor(ctx context.Context, name, language string) error
	LastRead(ctx context.Context, source string) (time.Time, error)
	StoreLastRead(ctx context.Context, source string, seen time.Time) error
}

// Result holds the counters of one ingestion pass.
type Result struct {
	Processed int       `json:"processed"`
	Added     int       `json:"added"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed_sources"`
	LastSeen  time.Time `json:"last_seen"`
}

func (r *Result) merge(o Result) {
	r.Processed += o.Processed
	r.Added += o.Added
	r.Skipped += o.Skipped
	r.Failed += o.Failed
	if o.LastSeen.After(r.LastSeen) {
		r.LastSeen = o.LastSeen
	}
}

package search

import (
	"context"

	"github.com/runnerr0/nooze/internal/query"
	"github.com/runnerr0/nooze/internal/series"
	"github.com/runnerr0/nooze/internal/storage"
)

// Store defines the read contract the search service needs.
type Store interface {
	Find(ctx context.Context, p query.Predicate, order storage.Order, limit int) ([]storage.Status, error)
	Count(ctx context.Context, p query.Predicate) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	ListTopics(ctx context.Context) ([]storage.Topic, error)
	TopicQuery(ctx context.Context, slug string) (string, bool, error)
}

// CountsRequest asks for one count per interval: {words, start, interval, n}.
type CountsRequest struct {
	Words    []string `json:"words"`
	Start    string   `json:"start"`
	Interval string   `json:"interval"`
	N        int      `json:"n"`
}

// CountsResult pairs each count with the interval it covers.
type CountsResult struct {
	Counts    []int64           `json:"counts"`
	Intervals []series.Interval `json:"intervals"`
}

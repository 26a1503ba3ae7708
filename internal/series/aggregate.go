package series

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/runnerr0/nooze/internal/metrics"
	"github.com/runnerr0/nooze/internal/query"
)

// Counter counts stored statuses matching a predicate.
type Counter interface {
	Count(ctx context.Context, p query.Predicate) (int64, error)
}

// Engine issues one count per (subquery, interval) pair, strictly in order.
type Engine struct {
	counter Counter
	builder *query.Builder
	logger  *zap.Logger
}

// NewEngine creates an Engine. A nil logger disables logging.
func NewEngine(counter Counter, builder *query.Builder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{counter: counter, builder: builder, logger: logger}
}

// CountSeries returns one count per interval for words. Any failure aborts
// the whole series.
func (e *Engine) CountSeries(ctx context.Context, intervals []Interval, words []string) ([]int64, error) {
	counts := make([]int64, 0, len(intervals))
	for _, iv := range intervals {
		p, err := e.builder.ForWindow(ctx, iv.Start, iv.End, words)
		if err != nil {
			return nil, err
		}

		n, err := e.counter.Count(ctx, p)
		metrics.AggregationCountsTotal.WithLabelValues(metrics.Status(err)).Inc()
		if err != nil {
			return nil, asStoreError("count", err)
		}
		counts = append(counts, n)
	}

	e.logger.Debug("count series",
		zap.String("query", strings.Join(words, " ")),
		zap.Int("intervals", len(intervals)),
		zap.Int64s("counts", counts),
	)
	return counts, nil
}

// Aggregate runs CountSeries for every subquery in input order over the
// shared interval sequence. No partial result is returned on failure.
func (e *Engine) Aggregate(ctx context.Context, intervals []Interval, subqueries [][]string) ([][]int64, error) {
	series := make([][]int64, 0, len(subqueries))
	for _, words := range subqueries {
		counts, err := e.CountSeries(ctx, intervals, words)
		if err != nil {
			return nil, err
		}
		series = append(series, counts)
	}
	return series, nil
}

func asStoreError(op string, err error) error {
	var se *query.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &query.StoreError{Op: op, Err: err}
}

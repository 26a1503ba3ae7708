package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/nooze/internal/query"
	"github.com/runnerr0/nooze/internal/series"
	"github.com/runnerr0/nooze/internal/storage"
)

// DefaultRecentWindow is the look-back of Recent.
const DefaultRecentWindow = 3 * time.Hour

// Service answers shorthand, structured, counting and graph queries.
type Service struct {
	store   Store
	builder *query.Builder
	engine  *series.Engine
	logger  *zap.Logger

	defaultWindow time.Duration
	recentWindow  time.Duration
	limit         int
	now           func() time.Time
}

// New creates a search service. A nil logger disables logging.
func New(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	builder := query.NewBuilder(store)
	return &Service{
		store:         store,
		builder:       builder,
		engine:        series.NewEngine(store, builder, logger),
		logger:        logger,
		defaultWindow: query.DefaultWindow,
		recentWindow:  DefaultRecentWindow,
		now:           time.Now,
	}
}

// WithWindows overrides the look-back used by command lines without a
// window option and the look-back of Recent. Non-positive values keep the
// current setting.
func (s *Service) WithWindows(defaultWindow, recent time.Duration) *Service {
	if defaultWindow > 0 {
		s.defaultWindow = defaultWindow
	}
	if recent > 0 {
		s.recentWindow = recent
	}
	return s
}

// WithLimit caps the number of statuses returned per store query. Zero
// means unlimited.
func (s *Service) WithLimit(limit int) *Service {
	s.limit = limit
	return s
}

// WithClock replaces the clock that anchors relative windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Search runs a shorthand query such as `-d 1 *Executive *Judicial`. Each
// subquery is resolved and run on its own; results are concatenated in
// subquery order, newest first within each. A subquery that fails is logged
// and skipped; the search fails only when the query does not parse or every
// subquery fails.
func (s *Service) Search(ctx context.Context, dsl string) ([]storage.Status, error) {
	subqueries, err := query.ParseQuery(dsl)
	if err != nil {
		s.logger.Info("parse failed", zap.String("query", dsl), zap.Error(err))
		return nil, err
	}

	now := s.now()
	var (
		statuses = []storage.Status{}
		firstErr error
		ok       int
	)
	for _, sub := range subqueries {
		sc, err := query.ParseCommandLine(sub, now, s.defaultWindow)
		if err == nil {
			var found []storage.Status
			found, err = s.SearchContext(ctx, sc, storage.Descending)
			if err == nil {
				statuses = append(statuses, found...)
				ok++
				continue
			}
		}
		s.logger.Warn("subquery failed", zap.String("subquery", sub), zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}

	if ok == 0 && firstErr != nil {
		return nil, firstErr
	}
	return statuses, nil
}

// SearchContext runs one parsed command line.
func (s *Service) SearchContext(ctx context.Context, sc query.SearchContext, order storage.Order) ([]storage.Status, error) {
	p, err := s.builder.FromContext(ctx, sc)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, p, order)
}

// XSearch runs a structured {words, start, end} query, newest first.
func (s *Service) XSearch(ctx context.Context, obj query.SearchObject) ([]storage.Status, error) {
	p, err := s.builder.FromObject(ctx, obj)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, p, storage.Descending)
}

// XCount counts the statuses matching a structured query.
func (s *Service) XCount(ctx context.Context, obj query.SearchObject) (int64, error) {
	p, err := s.builder.FromObject(ctx, obj)
	if err != nil {
		return 0, err
	}
	n, err := s.store.Count(ctx, p)
	if err != nil {
		return 0, &query.StoreError{Op: "count", Err: err}
	}
	return n, nil
}

// XCounts counts one query over n consecutive intervals.
func (s *Service) XCounts(ctx context.Context, req CountsRequest) (CountsResult, error) {
	intervals, err := series.CalcIntervalsFrom(req.Start, req.Interval, req.N)
	if err != nil {
		return CountsResult{}, err
	}
	counts, err := s.engine.CountSeries(ctx, intervals, req.Words)
	if err != nil {
		return CountsResult{}, err
	}
	return CountsResult{Counts: counts, Intervals: intervals}, nil
}

// XGraph counts every subquery over the shared intervals and returns the
// Vega-Lite chart of the result.
func (s *Service) XGraph(ctx context.Context, req series.GraphRequest) (map[string]any, error) {
	intervals, err := series.CalcIntervalsFrom(req.Start, req.Interval, req.N)
	if err != nil {
		return nil, err
	}
	counts, err := s.engine.Aggregate(ctx, intervals, req.Subqueries)
	if err != nil {
		return nil, err
	}
	items := series.AssembleGraph(req.Subqueries, counts, intervals)
	return series.Chart(req.Params(), items), nil
}

// Recent returns the statuses of the recent window, newest first.
func (s *Service) Recent(ctx context.Context) ([]storage.Status, error) {
	now := s.now().UTC()
	return s.find(ctx, query.Predicate{Start: now.Add(-s.recentWindow), End: now}, storage.Descending)
}

// ByDate returns the statuses created in [start, end), oldest first.
func (s *Service) ByDate(ctx context.Context, start, end string) ([]storage.Status, error) {
	from, err := query.ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	to, err := query.ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	return s.find(ctx, query.Predicate{Start: from, End: to}, storage.Ascending)
}

// FindTopic returns every status matching a topic, or a literal term, in
// the given language ("" for any), newest first.
func (s *Service) FindTopic(ctx context.Context, term, lang string) ([]storage.Status, error) {
	text, err := s.builder.Expander().ExpandTopic(ctx, term)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, query.Predicate{Text: text, Language: lang}, storage.Descending)
}

// Count returns the number of stored statuses.
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.store.CountAll(ctx)
	if err != nil {
		return 0, &query.StoreError{Op: "count all", Err: err}
	}
	return n, nil
}

// Categories groups the stored topics by category. Topics keep their
// description order inside a category.
func (s *Service) Categories(ctx context.Context) (map[string][]storage.Topic, error) {
	topics, err := s.store.ListTopics(ctx)
	if err != nil {
		return nil, &query.StoreError{Op: "list topics", Err: err}
	}
	cats := make(map[string][]storage.Topic)
	for _, t := range topics {
		cats[t.Category] = append(cats[t.Category], t)
	}
	return cats, nil
}

// CategoryNames returns the keys of cats in sorted order.
func CategoryNames(cats map[string][]storage.Topic) []string {
	names := make([]string, 0, len(cats))
	for name := range cats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) find(ctx context.Context, p query.Predicate, order storage.Order) ([]storage.Status, error) {
	statuses, err := s.store.Find(ctx, p, order, s.limit)
	if err != nil {
		var se *query.StoreError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &query.StoreError{Op: "find", Err: err}
	}
	return statuses, nil
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/runnerr0/nooze/internal/config"
	"github.com/runnerr0/nooze/internal/feeds"
	"github.com/runnerr0/nooze/internal/metrics"
	"github.com/runnerr0/nooze/internal/storage"
)

// DefaultInterval is the pause between daemon passes.
const DefaultInterval = 900 * time.Second

// Service reads feed sources into the status store.
type Service struct {
	fetcher Fetcher
	store   Store
	sources []config.FeedSource
	logger  *zap.Logger

	limiter  *rate.Limiter
	interval time.Duration
	onAdded  func(storage.Status)
}

// New creates an ingest service over sources. A nil logger disables logging.
func New(fetcher Fetcher, store Store, sources []config.FeedSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:  fetcher,
		store:    store,
		sources:  sources,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		interval: DefaultInterval,
	}
}

// WithRate paces fetches to perMinute requests. Zero or less removes the limit.
func (s *Service) WithRate(perMinute int) *Service {
	if perMinute <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
		return s
	}
	s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	return s
}

// WithInterval sets the pause between daemon passes.
func (s *Service) WithInterval(d time.Duration) *Service {
	if d > 0 {
		s.interval = d
	}
	return s
}

// WithObserver registers fn to be called with every added status.
func (s *Service) WithObserver(fn func(storage.Status)) *Service {
	s.onAdded = fn
	return s
}

// Run reads every source once. A source that cannot be fetched is logged,
// counted in Failed and skipped. Store failures and cancellation stop the
// pass; the counters gathered so far are returned with the error.
func (s *Service) Run(ctx context.Context) (Result, error) {
	var total Result
	for _, src := range s.sources {
		if err := s.limiter.Wait(ctx); err != nil {
			return total, err
		}
		res, err := s.RunSource(ctx, src)
		total.merge(res)
		if err != nil {
			return total, err
		}
	}

	s.logger.Info("ingest pass complete",
		zap.Int("sources", len(s.sources)),
		zap.Int("processed", total.Processed),
		zap.Int("added", total.Added),
		zap.Int("skipped", total.Skipped),
		zap.Int("failed", total.Failed),
		zap.Time("last_seen", total.LastSeen),
	)
	return total, nil
}

// RunSource reads one source. Items at or before the source's stored
// watermark are skipped, as are items whose ID is already stored. The
// watermark advances to the newest item seen.
func (s *Service) RunSource(ctx context.Context, src config.FeedSource) (Result, error) {
	var res Result
	log := s.logger.With(zap.String("source", src.Name))

	items, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		log.Warn("fetch failed", zap.Error(err))
		metrics.IngestItemsTotal.WithLabelValues(src.Name, "error").Inc()
		res.Failed++
		return res, nil
	}

	watermark, err := s.store.LastRead(ctx, src.Name)
	if err != nil {
		return res, fmt.Errorf("last read %s: %w", src.Name, err)
	}

	languages := make(map[string]string)
	newest := watermark
	for _, item := range items {
		res.Processed++
		if !item.Published.After(watermark) {
			res.Skipped++
			metrics.IngestItemsTotal.WithLabelValues(src.Name, "skipped").Inc()
			continue
		}

		lang, err := s.language(ctx, languages, item.Author)
		if err != nil {
			return res, err
		}

		status := storage.Status{
			ID:        item.ID,
			Author:    item.Author,
			CreatedAt: item.Published,
			Source:    item.Source,
			Text:      item.Text,
			Language:  lang,
		}
		err = s.store.AddStatus(ctx, &status)
		switch {
		case errors.Is(err, storage.ErrDuplicateStatus):
			res.Skipped++
			metrics.IngestItemsTotal.WithLabelValues(src.Name, "skipped").Inc()
		case err != nil:
			metrics.IngestItemsTotal.WithLabelValues(src.Name, "error").Inc()
			return res, fmt.Errorf("add status %s: %w", item.ID, err)
		default:
			res.Added++
			metrics.IngestItemsTotal.WithLabelValues(src.Name, "added").Inc()
			if s.onAdded != nil {
				s.onAdded(status)
			}
		}

		if item.Published.After(newest) {
			newest = item.Published
		}
	}

	if newest.After(watermark) {
		if err := s.store.StoreLastRead(ctx, src.Name, newest); err != nil {
			return res, fmt.Errorf("store last read %s: %w", src.Name, err)
		}
	}
	res.LastSeen = newest

	log.Debug("source read",
		zap.Int("processed", res.Processed),
		zap.Int("added", res.Added),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// language maps an author to its language code, registering unknown authors
// with storage.UnknownLanguage so they can be classified later.
func (s *Service) language(ctx context.Context, cache map[string]string, author string) (string, error) {
	if lang, ok := cache[author]; ok {
		return lang, nil
	}

	lang, err := s.store.AuthorLanguage(ctx, author)
	switch {
	case errors.Is(err, storage.ErrAuthorNotFound):
		s.logger.Info("unknown author", zap.String("author", author))
		if err := s.store.UpsertAuthor(ctx, author, storage.UnknownLanguage); err != nil {
			return "", fmt.Errorf("register author %s: %w", author, err)
		}
		lang = storage.UnknownLanguage
	case err != nil:
		return "", fmt.Errorf("author language %s: %w", author, err)
	}

	cache[author] = lang
	return lang, nil
}

// Daemon runs a pass, then another every interval, until ctx is cancelled.
// report, when set, receives the counters of each pass. A failed pass is
// logged and retried at the next tick.
func (s *Service) Daemon(ctx context.Context, report func(Result)) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("ingest daemon started",
		zap.Int("sources", len(s.sources)),
		zap.Duration("interval", s.interval),
	)
	for {
		res, err := s.Run(ctx)
		if ctx.Err() != nil {
			s.logger.Info("ingest daemon stopped")
			return nil
		}
		if err != nil {
			s.logger.Error("ingest pass failed", zap.Error(err))
		}
		if report != nil {
			report(res)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("ingest daemon stopped")
			return nil
		case <-ticker.C:
		}
	}
}

var _ Fetcher = (*feeds.Fetcher)(nil)

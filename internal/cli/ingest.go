package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/runnerr0/nooze/internal/config"
	"github.com/runnerr0/nooze/internal/feeds"
	"github.com/runnerr0/nooze/internal/storage"
	ingestuc "github.com/runnerr0/nooze/internal/usecase/ingest"
)

// Execute implements the go-flags Commander interface for IngestCommand.
func (c *IngestCommand) Execute(args []string) error {
	return withRuntime(c.globals, func(rt *runtime) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fetcher := feeds.NewFetcher(time.Duration(rt.cfg.Feeds.TimeoutSeconds) * time.Second)
		return c.executeWithStore(ctx, rt, fetcher)
	})
}

// executeWithStore reads feeds into a prepared runtime (for testing).
func (c *IngestCommand) executeWithStore(ctx context.Context, rt *runtime, fetcher ingestuc.Fetcher) error {
	sources, err := selectSources(rt.cfg.Feeds.Sources, c.Source)
	if err != nil {
		return err
	}

	svc := newIngester(rt, fetcher, sources)
	if c.Interval > 0 {
		svc.WithInterval(time.Duration(c.Interval) * time.Second)
	}
	if c.globals != nil && c.globals.Verbose {
		svc.WithObserver(func(s storage.Status) {
			fmt.Printf("+ %s  %s: %s\n", s.CreatedAt.Format("2006-01-02 15:04"), s.Author, s.Text)
		})
	}

	if c.Daemon {
		return svc.Daemon(ctx, c.report)
	}

	res, err := svc.Run(ctx)
	c.report(res)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func (c *IngestCommand) report(res ingestuc.Result) {
	if wantJSON(c.globals) {
		_ = printJSON(res)
		return
	}
	fmt.Printf("Processed %d, added %d, skipped %d", res.Processed, res.Added, res.Skipped)
	if res.Failed > 0 {
		fmt.Printf(", %d %s failed", res.Failed, plural(res.Failed, "source", "sources"))
	}
	fmt.Println()
	if !res.LastSeen.IsZero() {
		fmt.Printf("Newest item: %s\n", res.LastSeen.UTC().Format(time.RFC3339))
	}
}

// newIngester builds the ingest service from the feeds config.
func newIngester(rt *runtime, fetcher ingestuc.Fetcher, sources []config.FeedSource) *ingestuc.Service {
	return ingestuc.New(fetcher, rt.store, sources, rt.logger).
		WithRate(rt.cfg.Feeds.RatePerMinute).
		WithInterval(time.Duration(rt.cfg.Feeds.SleepSeconds) * time.Second)
}

// selectSources narrows sources to the given names, in config order.
func selectSources(all []config.FeedSource, names []string) ([]config.FeedSource, error) {
	if len(names) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var out []config.FeedSource
	for _, src := range all {
		if want[src.Name] {
			out = append(out, src)
			delete(want, src.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("unknown feed source %q", n)
	}
	return out, nil
}

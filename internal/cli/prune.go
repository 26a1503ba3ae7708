package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/nooze/internal/query"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt, time.Now())
	})
}

// executeWithStore prunes a prepared runtime relative to now (for testing).
func (c *PruneCommand) executeWithStore(rt *runtime, now time.Time) error {
	var retention time.Duration
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than value %q: %w", c.OlderThan, err)
		}
		retention = d
	} else {
		if rt.cfg.Retention.Days <= 0 {
			return fmt.Errorf("retention is disabled (retention.days = 0); pass --older-than to prune anyway")
		}
		retention = time.Duration(rt.cfg.Retention.Days) * 24 * time.Hour
	}

	ctx := context.Background()
	cutoff := now.UTC().Add(-retention)

	var (
		n   int64
		err error
	)
	if c.DryRun {
		n, err = rt.store.Count(ctx, query.Predicate{End: cutoff})
	} else {
		n, err = rt.store.PruneBefore(ctx, cutoff)
	}
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{
			"dry_run":  c.DryRun,
			"cutoff":   cutoff.Format(time.RFC3339),
			"statuses": n,
		})
	}

	verb := "Pruned"
	if c.DryRun {
		verb = "Would prune"
	}
	fmt.Printf("%s %s %s older than %s (before %s)\n",
		verb, formatNumber(n), plural(int(n), "status", "statuses"),
		formatDurationHuman(retention), cutoff.Format("2006-01-02 15:04"))
	return nil
}

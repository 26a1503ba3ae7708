package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/runnerr0/nooze/internal/query"
	"github.com/runnerr0/nooze/internal/storage"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt, args)
	})
}

// dsl rebuilds the shorthand query from flags and terms. Without any window
// option the configured default window is used.
func (c *SearchCommand) dsl(args []string, defaultHours int) string {
	if c.Query != "" {
		return c.Query
	}

	var opts []string
	for _, o := range []struct{ flag, value string }{
		{"-d", c.Days}, {"-H", c.Hours}, {"-s", c.Start}, {"-e", c.End},
	} {
		if o.value != "" {
			opts = append(opts, o.flag, o.value)
		}
	}
	if len(opts) == 0 {
		opts = []string{"-H", strconv.Itoa(defaultHours)}
	}
	return strings.Join(append(opts, args...), " ")
}

// executeWithStore runs the search against a prepared runtime (for testing).
func (c *SearchCommand) executeWithStore(rt *runtime, args []string) error {
	dsl := c.dsl(args, rt.cfg.Query.DefaultWindowHours)

	svc := rt.searchService()
	if c.Limit > 0 {
		svc.WithLimit(c.Limit)
	}

	statuses, err := svc.Search(context.Background(), dsl)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{"query": dsl, "count": len(statuses), "statuses": statuses})
	}
	return printSearchResult(dsl, statuses)
}

func printSearchResult(label string, statuses []storage.Status) error {
	if len(statuses) == 0 {
		fmt.Printf("No statuses found for %q\n", label)
		return nil
	}
	fmt.Printf("Found %d %s for %q\n\n", len(statuses), plural(len(statuses), "status", "statuses"), label)
	printStatuses(statuses)
	return nil
}

// Execute implements the go-flags Commander interface for XSearchCommand.
func (c *XSearchCommand) Execute(args []string) error {
	if c.Start == "" || c.End == "" {
		return fmt.Errorf("--start and --end are required for xsearch command")
	}
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt, args)
	})
}

// executeWithStore runs the structured search against a prepared runtime.
func (c *XSearchCommand) executeWithStore(rt *runtime, args []string) error {
	obj := query.SearchObject{Words: args, Start: c.Start, End: c.End}

	statuses, err := rt.searchService().XSearch(context.Background(), obj)
	if err != nil {
		return fmt.Errorf("xsearch failed: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{"statuses": statuses, "error": 0})
	}
	return printSearchResult(strings.Join(args, " "), statuses)
}

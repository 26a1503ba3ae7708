package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/nooze/internal/query"
	"github.com/runnerr0/nooze/internal/series"
	searchuc "github.com/runnerr0/nooze/internal/usecase/search"
)

// Execute implements the go-flags Commander interface for CountCommand.
func (c *CountCommand) Execute(args []string) error {
	if (c.Start == "") != (c.End == "") {
		return fmt.Errorf("--start and --end must be given together")
	}
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt, args)
	})
}

// executeWithStore runs the count against a prepared runtime (for testing).
func (c *CountCommand) executeWithStore(rt *runtime, args []string) error {
	ctx := context.Background()
	svc := rt.searchService()

	var (
		n   int64
		err error
	)
	if c.Start == "" {
		if len(args) > 0 {
			return fmt.Errorf("words need a --start/--end window")
		}
		n, err = svc.Count(ctx)
	} else {
		n, err = svc.XCount(ctx, query.SearchObject{Words: args, Start: c.Start, End: c.End})
	}
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{"count": n, "error": 0})
	}
	fmt.Println(formatNumber(n))
	return nil
}

// Execute implements the go-flags Commander interface for CountsCommand.
func (c *CountsCommand) Execute(args []string) error {
	if c.Start == "" {
		return fmt.Errorf("--start is required for counts command")
	}
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt, args)
	})
}

// executeWithStore runs the interval counts against a prepared runtime.
func (c *CountsCommand) executeWithStore(rt *runtime, args []string) error {
	req := searchuc.CountsRequest{Words: args, Start: c.Start, Interval: c.Interval, N: c.N}

	res, err := rt.searchService().XCounts(context.Background(), req)
	if err != nil {
		return fmt.Errorf("counts failed: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{"intervals": res, "error": 0})
	}

	label := strings.Join(args, " ")
	if label == "" {
		label = "(all statuses)"
	}
	fmt.Printf("%s per %s\n\n", label, c.Interval)
	for i, iv := range res.Intervals {
		fmt.Printf("  %s  %s\n", series.PeriodLabel(iv), formatNumber(res.Counts[i]))
	}
	return nil
}

// Execute implements the go-flags Commander interface for GraphCommand.
func (c *GraphCommand) Execute(args []string) error {
	if c.Start == "" {
		return fmt.Errorf("--start is required for graph command")
	}
	if len(args) == 0 {
		return fmt.Errorf("graph needs at least one subquery")
	}
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt, args)
	})
}

// executeWithStore builds the chart against a prepared runtime (for testing).
func (c *GraphCommand) executeWithStore(rt *runtime, args []string) error {
	req := series.GraphRequest{
		Subqueries: make([][]string, 0, len(args)),
		Start:      c.Start,
		Interval:   c.Interval,
		N:          c.N,
		Title:      c.Title,
	}
	for _, arg := range args {
		req.Subqueries = append(req.Subqueries, strings.Fields(arg))
	}

	chart, err := rt.searchService().XGraph(context.Background(), req)
	if err != nil {
		return fmt.Errorf("graph failed: %w", err)
	}

	if c.Out == "" {
		return printJSON(chart)
	}

	data, err := json.MarshalIndent(chart, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	if err := os.WriteFile(c.Out, data, 0644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	fmt.Printf("Wrote chart to %s\n", c.Out)
	return nil
}

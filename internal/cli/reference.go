package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/nooze/internal/catalog"
	"github.com/runnerr0/nooze/internal/storage"
	searchuc "github.com/runnerr0/nooze/internal/usecase/search"
)

// Execute implements the go-flags Commander interface for TopicsCommand.
func (c *TopicsCommand) Execute(args []string) error {
	if c.Load != "" && c.Reload {
		return fmt.Errorf("--load and --reload are mutually exclusive")
	}
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt)
	})
}

// executeWithStore lists or loads topics against a prepared runtime.
func (c *TopicsCommand) executeWithStore(rt *runtime) error {
	ctx := context.Background()

	path := c.Load
	if c.Reload {
		path = rt.cfg.Topics.File
	}
	if path != "" {
		topics, err := catalog.NewLoader(rt.store, rt.logger).LoadTopicsFile(ctx, path)
		if err != nil {
			return fmt.Errorf("load topics: %w", err)
		}
		if wantJSON(c.globals) {
			return printJSON(map[string]any{"loaded": len(topics), "file": path})
		}
		fmt.Printf("Loaded %d %s from %s\n", len(topics), plural(len(topics), "topic", "topics"), path)
		return nil
	}

	cats, err := rt.searchService().Categories(ctx)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if wantJSON(c.globals) {
		return printJSON(map[string]any{"cats": cats})
	}
	if len(cats) == 0 {
		fmt.Println("No topics loaded. Use `nooze topics --load FILE`.")
		return nil
	}
	for i, name := range searchuc.CategoryNames(cats) {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s\n", name)
		for _, t := range cats[name] {
			fmt.Printf("  *%-18s %-24s %s\n", t.Slug, t.Description, t.Query)
		}
	}
	return nil
}

// Execute implements the go-flags Commander interface for AuthorsCommand.
func (c *AuthorsCommand) Execute(args []string) error {
	if c.Load != "" && c.Reload {
		return fmt.Errorf("--load and --reload are mutually exclusive")
	}
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt)
	})
}

// executeWithStore lists or loads authors against a prepared runtime.
func (c *AuthorsCommand) executeWithStore(rt *runtime) error {
	ctx := context.Background()

	path := c.Load
	if c.Reload {
		path = rt.cfg.Authors.File
	}
	if path != "" {
		authors, err := catalog.NewLoader(rt.store, rt.logger).LoadAuthorsFile(ctx, path)
		if err != nil {
			return fmt.Errorf("load authors: %w", err)
		}
		if wantJSON(c.globals) {
			return printJSON(map[string]any{"loaded": len(authors), "file": path})
		}
		fmt.Printf("Loaded %d %s from %s\n", len(authors), plural(len(authors), "author", "authors"), path)
		return nil
	}

	var (
		authors []storage.Author
		err     error
	)
	if c.Unknown {
		authors, err = rt.store.UnknownAuthors(ctx)
	} else {
		authors, err = rt.store.ListAuthors(ctx)
	}
	if err != nil {
		return fmt.Errorf("list authors: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{"count": len(authors), "authors": authors})
	}
	if len(authors) == 0 {
		fmt.Println("No authors found")
		return nil
	}
	for _, a := range authors {
		fmt.Printf("%-24s %s\n", a.Name, a.Language)
	}
	return nil
}

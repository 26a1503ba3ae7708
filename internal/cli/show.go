package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/runnerr0/nooze/internal/storage"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for show command")
	}
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt)
	})
}

// executeWithStore prints the status from a prepared runtime (for testing).
func (c *ShowCommand) executeWithStore(rt *runtime) error {
	status, err := rt.store.GetStatus(context.Background(), c.ID)
	if errors.Is(err, storage.ErrStatusNotFound) {
		return fmt.Errorf("status not found: %s", c.ID)
	}
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	format := c.Format
	if wantJSON(c.globals) {
		format = "json"
	}

	switch format {
	case "json":
		return printJSON(status)
	case "text":
		fmt.Println(status.Text)
	case "full", "":
		fmt.Println(status.ID)
		fmt.Printf("Author:    %s\n", status.Author)
		fmt.Printf("Language:  %s\n", status.Language)
		fmt.Printf("Created:   %s\n", status.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		fmt.Printf("Source:    %s\n", status.Source)
		fmt.Println()
		fmt.Println(status.Text)
	default:
		return fmt.Errorf("unknown format %q (use full, text or json)", c.Format)
	}
	return nil
}

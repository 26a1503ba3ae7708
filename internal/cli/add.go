package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/nooze/internal/query"
	"github.com/runnerr0/nooze/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.Author == "" {
		return fmt.Errorf("--author is required for add command")
	}
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt, args)
	})
}

// executeWithStore runs the add logic against a prepared runtime (used by tests).
func (c *AddCommand) executeWithStore(rt *runtime, args []string) error {
	if c.Text != "" && c.TextFile != "" {
		return fmt.Errorf("--text and --text-file are mutually exclusive")
	}

	text := c.Text
	switch {
	case c.TextFile != "":
		data, err := os.ReadFile(c.TextFile)
		if err != nil {
			return fmt.Errorf("reading text file: %w", err)
		}
		text = string(data)
	case text == "":
		text = strings.Join(args, " ")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("status text is empty")
	}

	var created time.Time
	if c.Date != "" {
		t, err := query.ParseDate(c.Date)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		created = t
	}

	ctx := context.Background()

	lang := c.Language
	if lang == "" {
		known, err := rt.store.AuthorLanguage(ctx, c.Author)
		switch {
		case errors.Is(err, storage.ErrAuthorNotFound):
			lang = storage.UnknownLanguage
		case err != nil:
			return fmt.Errorf("author language: %w", err)
		default:
			lang = known
		}
	}

	status := &storage.Status{
		Author:    c.Author,
		CreatedAt: created,
		Source:    c.Source,
		Text:      text,
		Language:  lang,
	}
	if err := rt.store.AddStatus(ctx, status); err != nil {
		return fmt.Errorf("storing status: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(status)
	}

	fmt.Printf("Added status %s (%s)\n", status.ID, status.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Author: %s\n", status.Author)
	fmt.Printf("  Language: %s\n", status.Language)
	fmt.Printf("  Text: %s\n", status.Text)
	return nil
}

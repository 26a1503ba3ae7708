package query

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Predicate is a store-level filter: a half-open date window [Start, End)
// plus an optional full-text clause. Text matching is case and diacritic
// insensitive by store contract.
type Predicate struct {
	Start    time.Time
	End      time.Time
	Text     string
	Language string
}

// HasText reports whether the predicate carries a full-text clause.
func (p Predicate) HasText() bool { return p.Text != "" }

// SearchObject is the structured search request {words, start, end}.
type SearchObject struct {
	Words []string `json:"words"`
	Start string   `json:"start"`
	End   string   `json:"end"`
}

// Builder assembles Predicates, expanding topic macros on the way.
type Builder struct {
	expander *Expander
}

// NewBuilder creates a Builder that resolves topics through topics.
func NewBuilder(topics TopicSource) *Builder {
	return &Builder{expander: NewExpander(topics)}
}

// Expander exposes the builder's topic resolver.
func (b *Builder) Expander() *Expander { return b.expander }

// FromContext builds the predicate for a parsed command line.
func (b *Builder) FromContext(ctx context.Context, sc SearchContext) (Predicate, error) {
	p := Predicate{Start: sc.Start, End: sc.End, Language: sc.Language}
	if !sc.HasQuery() {
		return p, nil
	}
	text, err := b.expander.ExpandTopic(ctx, strings.TrimSpace(sc.Query))
	if err != nil {
		return Predicate{}, err
	}
	p.Text = text
	return p, nil
}

// FromObject builds the predicate for a structured search object.
func (b *Builder) FromObject(ctx context.Context, obj SearchObject) (Predicate, error) {
	start, err := ParseDate(obj.Start)
	if err != nil {
		return Predicate{}, fmt.Errorf("start: %w", err)
	}
	end, err := ParseDate(obj.End)
	if err != nil {
		return Predicate{}, fmt.Errorf("end: %w", err)
	}
	return b.ForWindow(ctx, start, end, obj.Words)
}

// ForWindow builds the predicate for explicit instants. Each non-empty word
// is expanded on its own and the results are rejoined with spaces; with no
// non-empty word the predicate is date-only.
func (b *Builder) ForWindow(ctx context.Context, start, end time.Time, words []string) (Predicate, error) {
	p := Predicate{Start: start, End: end}

	expanded := make([]string, 0, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		text, err := b.expander.ExpandTopic(ctx, word)
		if err != nil {
			return Predicate{}, err
		}
		expanded = append(expanded, text)
	}
	p.Text = strings.Join(expanded, " ")
	return p, nil
}

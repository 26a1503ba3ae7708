package query

import (
	"context"
	"strings"
)

// TopicMarker prefixes a term that names a stored topic.
const TopicMarker = "*"

// TopicSource looks up the stored search text for a topic slug.
// found is false when the slug is unknown; err is reserved for store failures.
type TopicSource interface {
	TopicQuery(ctx context.Context, slug string) (text string, found bool, err error)
}

// Expander resolves *slug terms against a TopicSource.
type Expander struct {
	topics TopicSource
}

// NewExpander creates an Expander backed by topics.
func NewExpander(topics TopicSource) *Expander {
	return &Expander{topics: topics}
}

// ExpandTopic returns term unchanged unless it starts with "*", in which case
// it returns the stored text for the slug that follows. Expansion is single
// level: the returned text is never rescanned for further markers.
func (e *Expander) ExpandTopic(ctx context.Context, term string) (string, error) {
	if !strings.HasPrefix(term, TopicMarker) {
		return term, nil
	}
	slug := strings.TrimPrefix(term, TopicMarker)

	text, found, err := e.topics.TopicQuery(ctx, slug)
	if err != nil {
		return "", &StoreError{Op: "topic lookup", Err: err}
	}
	if !found {
		return "", &TopicNotFoundError{Slug: slug}
	}
	return text, nil
}

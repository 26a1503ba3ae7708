// Package catalog loads the topic and author reference files into the store.
//
// Topic file lines are "slug:description:category:query", for example
//
//	Greece:Greece:Countries:Greece Grèce Grecia Griechenland
//
// Author file lines are "author:language". In both files blank lines and
// lines starting with '#' are ignored.
package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/runnerr0/nooze/internal/config"
	"github.com/runnerr0/nooze/internal/storage"
)

const (
	topicFields  = 4
	authorFields = 2
)

// Store is the subset of the document store the loader writes to.
type Store interface {
	ReplaceTopics(ctx context.Context, topics []storage.Topic) error
	UpsertAuthor(ctx context.Context, name, language string) error
}

// ReadTopics parses a topics file.
func ReadTopics(r io.Reader) ([]storage.Topic, error) {
	var topics []storage.Topic
	err := scanFields(r, topicFields, func(f []string) {
		topics = append(topics, storage.Topic{Slug: f[0], Description: f[1], Category: f[2], Query: f[3]})
	})
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	return topics, nil
}

// ReadAuthors parses an authors file.
func ReadAuthors(r io.Reader) ([]storage.Author, error) {
	var authors []storage.Author
	err := scanFields(r, authorFields, func(f []string) {
		authors = append(authors, storage.Author{Name: strings.TrimSpace(f[0]), Language: strings.TrimSpace(f[1])})
	})
	if err != nil {
		return nil, fmt.Errorf("authors: %w", err)
	}
	return authors, nil
}

func scanFields(r io.Reader, want int, emit func([]string)) error {
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) != want {
			return fmt.Errorf("line %d: want %d colon-separated fields, got %d", n, want, len(fields))
		}
		emit(fields)
	}
	return sc.Err()
}

// Loader writes parsed reference files to the store.
type Loader struct {
	store  Store
	logger *zap.Logger
}

// NewLoader creates a Loader. A nil logger disables logging.
func NewLoader(store Store, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, logger: logger}
}

// LoadTopicsFile replaces all stored topics with the file's content. The
// store is untouched when the file does not parse.
func (l *Loader) LoadTopicsFile(ctx context.Context, path string) ([]storage.Topic, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	topics, err := ReadTopics(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := l.store.ReplaceTopics(ctx, topics); err != nil {
		return nil, fmt.Errorf("store topics: %w", err)
	}

	l.logger.Info("topics loaded", zap.String("file", path), zap.Int("count", len(topics)))
	return topics, nil
}

// LoadAuthorsFile upserts every author of the file.
func (l *Loader) LoadAuthorsFile(ctx context.Context, path string) ([]storage.Author, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	authors, err := ReadAuthors(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, a := range authors {
		if err := l.store.UpsertAuthor(ctx, a.Name, a.Language); err != nil {
			return nil, fmt.Errorf("store author %s: %w", a.Name, err)
		}
	}

	l.logger.Info("authors loaded", zap.String("file", path), zap.Int("count", len(authors)))
	return authors, nil
}

func openFile(path string) (*os.File, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

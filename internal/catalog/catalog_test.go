package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/nooze/internal/storage"
)

const topicsFile = `# topic:desc:cat:query
Greece:Greece:Countries:Greece Grèce Grecia Griechenland

Business:Business News:Economy:economy markets
`

func TestReadTopics(t *testing.T) {
	topics, err := ReadTopics(strings.NewReader(topicsFile))
	require.NoError(t, err)
	assert.Equal(t, []storage.Topic{
		{Slug: "Greece", Description: "Greece", Category: "Countries", Query: "Greece Grèce Grecia Griechenland"},
		{Slug: "Business", Description: "Business News", Category: "Economy", Query: "economy markets"},
	}, topics)
}

func TestReadTopics_WrongFieldCount(t *testing.T) {
	_, err := ReadTopics(strings.NewReader("a:b:c:d\n\nbroken:line\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadAuthors(t *testing.T) {
	authors, err := ReadAuthors(strings.NewReader("lemondefr:fr\nBBCWorld: en \n"))
	require.NoError(t, err)
	assert.Equal(t, []storage.Author{
		{Name: "lemondefr", Language: "fr"},
		{Name: "BBCWorld", Language: "en"},
	}, authors)

	_, err = ReadAuthors(strings.NewReader("no-language\n"))
	assert.Error(t, err)
}

type fakeStore struct {
	topics  []storage.Topic
	authors map[string]string
	err     error
}

func (f *fakeStore) ReplaceTopics(_ context.Context, topics []storage.Topic) error {
	if f.err != nil {
		return f.err
	}
	f.topics = topics
	return nil
}

func (f *fakeStore) UpsertAuthor(_ context.Context, name, language string) error {
	if f.err != nil {
		return f.err
	}
	if f.authors == nil {
		f.authors = map[string]string{}
	}
	f.authors[name] = language
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_LoadTopicsFile(t *testing.T) {
	store := &fakeStore{}
	l := NewLoader(store, nil)

	topics, err := l.LoadTopicsFile(context.Background(), writeFile(t, topicsFile))
	require.NoError(t, err)
	assert.Len(t, topics, 2)
	assert.Equal(t, topics, store.topics)
}

func TestLoader_BadFileLeavesStoreUntouched(t *testing.T) {
	store := &fakeStore{topics: []storage.Topic{{Slug: "kept"}}}
	l := NewLoader(store, nil)

	_, err := l.LoadTopicsFile(context.Background(), writeFile(t, "only:three:fields\n"))
	require.Error(t, err)
	assert.Equal(t, "kept", store.topics[0].Slug)

	_, err = l.LoadTopicsFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestLoader_LoadAuthorsFile(t *testing.T) {
	store := &fakeStore{}
	l := NewLoader(store, nil)

	authors, err := l.LoadAuthorsFile(context.Background(), writeFile(t, "lemondefr:fr\nansa_it:it\n"))
	require.NoError(t, err)
	assert.Len(t, authors, 2)
	assert.Equal(t, map[string]string{"lemondefr": "fr", "ansa_it": "it"}, store.authors)
}

func TestLoader_StoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	l := NewLoader(&fakeStore{err: boom}, nil)

	_, err := l.LoadAuthorsFile(context.Background(), writeFile(t, "a:en\n"))
	assert.ErrorIs(t, err, boom)
}

package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runnerr0/nooze/internal/config"
	"github.com/runnerr0/nooze/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// newTestRuntime returns a runtime over a scratch in-memory store.
func newTestRuntime(t *testing.T) *runtime {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = config.MemoryDB

	store, err := storage.Open(cfg.Storage)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &runtime{cfg: cfg, logger: zap.NewNop(), store: store}
}

// seedStatus stores a status created ago before now.
func seedStatus(t *testing.T, rt *runtime, id, author, text string, ago time.Duration) {
	t.Helper()
	seedStatusAt(t, rt, id, author, text, time.Now().Add(-ago))
}

func seedStatusAt(t *testing.T, rt *runtime, id, author, text string, at time.Time) {
	t.Helper()
	require.NoError(t, rt.store.AddStatus(context.Background(), &storage.Status{
		ID:        id,
		Author:    author,
		CreatedAt: at,
		Source:    "test",
		Text:      text,
		Language:  "en",
	}))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := t.TempDir() + "/" + name
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

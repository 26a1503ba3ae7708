package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/nooze/internal/storage"
)

func TestAdd_PositionalText(t *testing.T) {
	rt := newTestRuntime(t)

	cmd := &AddCommand{Author: "nytimes", Source: "manual", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(rt, []string{"Jones", "wins"}))
	})
	assert.Contains(t, output, "Added status NZ-")
	assert.Contains(t, output, "Text: Jones wins")
	assert.Contains(t, output, "Language: U")
}

func TestAdd_UsesAuthorLanguage(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.store.UpsertAuthor(context.Background(), "lemondefr", "fr"))

	cmd := &AddCommand{Author: "lemondefr", Text: "Crise en Grèce", Date: "2022-02-14 10:00:00", Source: "manual", globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(rt, nil))
	})

	var got storage.Status
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "fr", got.Language)
	assert.True(t, got.CreatedAt.Equal(day0))

	stored, err := rt.store.GetStatus(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crise en Grèce", stored.Text)
	assert.Equal(t, "manual", stored.Source)
}

func TestAdd_ExplicitLanguage(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.store.UpsertAuthor(context.Background(), "lemondefr", "fr"))

	cmd := &AddCommand{Author: "lemondefr", Text: "Hello", Language: "en", globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(rt, nil))
	})

	var got storage.Status
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "en", got.Language)
}

func TestAdd_TextFile(t *testing.T) {
	rt := newTestRuntime(t)
	path := writeFile(t, "status.txt", "  From a file\n")

	cmd := &AddCommand{Author: "nytimes", TextFile: path, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(rt, nil))
	})

	var got storage.Status
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "From a file", got.Text)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestAdd_Errors(t *testing.T) {
	rt := newTestRuntime(t)

	tests := []struct {
		name string
		cmd  AddCommand
		args []string
		want string
	}{
		{"empty text", AddCommand{Author: "a"}, nil, "empty"},
		{"text and file", AddCommand{Author: "a", Text: "x", TextFile: "y"}, nil, "mutually exclusive"},
		{"missing file", AddCommand{Author: "a", TextFile: "/nonexistent/file"}, nil, "reading text file"},
		{"bad date", AddCommand{Author: "a", Text: "x", Date: "yesterday"}, nil, "invalid --date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.cmd
			cmd.globals = &GlobalFlags{}
			err := cmd.executeWithStore(rt, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAdd_RequiresAuthor(t *testing.T) {
	err := (&AddCommand{Text: "x", globals: &GlobalFlags{}}).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--author is required")
}

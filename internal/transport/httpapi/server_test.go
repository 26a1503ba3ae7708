package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/nooze/internal/config"
	"github.com/runnerr0/nooze/internal/query"
	"github.com/runnerr0/nooze/internal/series"
	"github.com/runnerr0/nooze/internal/storage"
	searchuc "github.com/runnerr0/nooze/internal/usecase/search"
)

// --- Mock ---

type mockSearcher struct {
	statuses []storage.Status
	count    int64
	cats     map[string][]storage.Topic
	counts   searchuc.CountsResult
	chart    map[string]any
	err      error
	panicMsg string

	lastDSL string
	lastObj query.SearchObject
	lastReq searchuc.CountsRequest
	lastGR  series.GraphRequest
}

func (m *mockSearcher) Search(_ context.Context, dsl string) ([]storage.Status, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.lastDSL = dsl
	return m.statuses, m.err
}

func (m *mockSearcher) XSearch(_ context.Context, obj query.SearchObject) ([]storage.Status, error) {
	m.lastObj = obj
	return m.statuses, m.err
}

func (m *mockSearcher) XCount(_ context.Context, obj query.SearchObject) (int64, error) {
	m.lastObj = obj
	return m.count, m.err
}

func (m *mockSearcher) XCounts(_ context.Context, req searchuc.CountsRequest) (searchuc.CountsResult, error) {
	m.lastReq = req
	return m.counts, m.err
}

func (m *mockSearcher) XGraph(_ context.Context, req series.GraphRequest) (map[string]any, error) {
	m.lastGR = req
	return m.chart, m.err
}

func (m *mockSearcher) Recent(context.Context) ([]storage.Status, error) { return m.statuses, m.err }

func (m *mockSearcher) Count(context.Context) (int64, error) { return m.count, m.err }

func (m *mockSearcher) Categories(context.Context) (map[string][]storage.Topic, error) {
	return m.cats, m.err
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rr.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

var sample = []storage.Status{{
	ID:        "s1",
	Author:    "lemondefr",
	CreatedAt: time.Date(2022, 2, 14, 9, 0, 0, 0, time.UTC),
	Text:      "Crise en Grèce",
	Language:  "fr",
}}

// --- Tests ---

func TestHeaders(t *testing.T) {
	h := NewServer(&mockSearcher{}, nil).WithName("Nooze Server 0.3.0").Routes()
	rr, _ := do(t, h, http.MethodGet, "/json/count", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Content-Type", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "Nooze Server 0.3.0", rr.Header().Get("Server"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCount(t *testing.T) {
	h := NewServer(&mockSearcher{count: 42}, nil).Routes()
	_, out := do(t, h, http.MethodGet, "/json/count", "")
	assert.Equal(t, float64(42), out["count"])
}

func TestCategories(t *testing.T) {
	m := &mockSearcher{
		count: 7,
		cats: map[string][]storage.Topic{
			"US":     {{Slug: "Judicial", Description: "Courts", Category: "US", Query: `"Supreme Court"`}},
			"Europe": {{Slug: "France", Category: "Europe", Query: "France"}},
		},
	}
	rr, out := do(t, NewServer(m, nil).Routes(), http.MethodGet, "/json/cats", "")

	assert.Equal(t, float64(7), out["count"])
	cats := out["cats"].(map[string]any)
	us := cats["US"].([]any)[0].(map[string]any)
	assert.Equal(t, "Judicial", us["topic"])
	assert.Equal(t, "Courts", us["desc"])
	assert.Equal(t, "US", us["cat"])
	assert.Less(t, strings.Index(rr.Body.String(), `"Europe"`), strings.Index(rr.Body.String(), `"US"`))
}

func TestQuery(t *testing.T) {
	m := &mockSearcher{statuses: sample}
	target := "/json/qry?data=" + url.QueryEscape("-d 1 *Executive Jones")
	rr, _ := do(t, NewServer(m, nil).Routes(), http.MethodGet, target, "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "-d 1 *Executive Jones", m.lastDSL)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0]["id"])
	assert.Equal(t, "fr", got[0]["language_code"])
}

func TestQuery_ParseError(t *testing.T) {
	m := &mockSearcher{err: &query.ParseError{Input: "x", Reason: "query has no options"}}
	rr, out := do(t, NewServer(m, nil).Routes(), http.MethodGet, "/json/qry?data=x", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, out["error"], "no options")
}

func TestRecent_EmptyIsArray(t *testing.T) {
	m := &mockSearcher{statuses: []storage.Status{}}
	rr, _ := do(t, NewServer(m, nil).Routes(), http.MethodGet, "/json/recent", "")
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestXQuery(t *testing.T) {
	m := &mockSearcher{statuses: sample}
	rr, out := do(t, NewServer(m, nil).Routes(), http.MethodPost, "/json/xqry",
		`{"words":["*France","Macron"],"start":"2022-02-14","end":"2022-02-15"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(0), out["error"])
	assert.Len(t, out["statuses"], 1)
	assert.Equal(t, query.SearchObject{Words: []string{"*France", "Macron"}, Start: "2022-02-14", End: "2022-02-15"}, m.lastObj)
}

func TestXQuery_TopicNotFound(t *testing.T) {
	m := &mockSearcher{err: &query.TopicNotFoundError{Slug: "Nope"}}
	rr, out := do(t, NewServer(m, nil).Routes(), http.MethodPost, "/json/xqry",
		`{"words":["*Nope"],"start":"2022-02-14","end":"2022-02-15"}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, []any{}, out["statuses"])
	assert.Contains(t, out["error"], "Nope")
}

func TestXQuery_BadBody(t *testing.T) {
	rr, out := do(t, NewServer(&mockSearcher{}, nil).Routes(), http.MethodPost, "/json/xqry", `{"words":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, out["error"], "invalid request body")
}

func TestXQuery_BodyTooLarge(t *testing.T) {
	h := NewServer(&mockSearcher{}, nil).WithMaxRequestSize(16).Routes()
	rr, _ := do(t, h, http.MethodPost, "/json/xqry",
		`{"words":["a very long word list"],"start":"2022-02-14","end":"2022-02-15"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestXCount(t *testing.T) {
	m := &mockSearcher{count: 12}
	_, out := do(t, NewServer(m, nil).Routes(), http.MethodPost, "/json/xcount",
		`{"words":["Ukraine"],"start":"2022-02-14","end":"2022-02-15"}`)

	assert.Equal(t, float64(12), out["count"])
	assert.Equal(t, float64(0), out["error"])
}

func TestXCount_StoreErrorIsHidden(t *testing.T) {
	m := &mockSearcher{err: &query.StoreError{Op: "count", Err: errors.New("database is locked")}}
	rr, out := do(t, NewServer(m, nil).Routes(), http.MethodPost, "/json/xcount",
		`{"words":[],"start":"2022-02-14","end":"2022-02-15"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "store failure", out["error"])
	assert.Equal(t, float64(0), out["count"])
}

func TestIntervalCounts(t *testing.T) {
	start := time.Date(2022, 2, 14, 0, 0, 0, 0, time.UTC)
	m := &mockSearcher{counts: searchuc.CountsResult{
		Counts:    []int64{3, 5},
		Intervals: []series.Interval{{Start: start, End: start.Add(24 * time.Hour)}, {Start: start.Add(24 * time.Hour), End: start.Add(48 * time.Hour)}},
	}}
	_, out := do(t, NewServer(m, nil).Routes(), http.MethodPost, "/json/intvlcounts",
		`{"words":["Ukraine"],"start":"2022-02-14","interval":"1d","n":2}`)

	assert.Equal(t, searchuc.CountsRequest{Words: []string{"Ukraine"}, Start: "2022-02-14", Interval: "1d", N: 2}, m.lastReq)
	intervals := out["intervals"].(map[string]any)
	assert.Equal(t, []any{float64(3), float64(5)}, intervals["counts"])
	first := intervals["intervals"].([]any)[0].([]any)
	assert.Equal(t, "2022-02-14T00:00:00Z", first[0])
	assert.Equal(t, "2022-02-15T00:00:00Z", first[1])
}

func TestIntervalCounts_BadSpec(t *testing.T) {
	m := &mockSearcher{err: &query.IntervalSpecError{Spec: "1y", Reason: "expected <integer><h|d|w>"}}
	rr, out := do(t, NewServer(m, nil).Routes(), http.MethodPost, "/json/intvlcounts",
		`{"words":[],"start":"2022-02-14","interval":"1y","n":2}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, []any{}, out["intervals"])
	assert.Contains(t, out["error"], "1y")
}

func TestXGraph(t *testing.T) {
	m := &mockSearcher{chart: map[string]any{"mark": "bar", "title": "week"}}
	_, out := do(t, NewServer(m, nil).Routes(), http.MethodPost, "/json/xgraph",
		`{"subqueries":[["Pecresse"],["Zemmour"]],"start":"2022-02-14","interval":"1d","n":7,"title":"week"}`)

	assert.Equal(t, [][]string{{"Pecresse"}, {"Zemmour"}}, m.lastGR.Subqueries)
	assert.Equal(t, 7, m.lastGR.N)
	assert.Equal(t, float64(0), out["error"])
	assert.Equal(t, "bar", out["result"].(map[string]any)["mark"])
}

func TestXGraph_Failure(t *testing.T) {
	m := &mockSearcher{err: &query.TopicNotFoundError{Slug: "x"}}
	_, out := do(t, NewServer(m, nil).Routes(), http.MethodPost, "/json/xgraph", `{"subqueries":[["*x"]]}`)
	assert.Nil(t, out["result"])
	assert.NotEmpty(t, out["error"])
}

func TestPanicIsRecovered(t *testing.T) {
	m := &mockSearcher{panicMsg: "boom"}
	rr, out := do(t, NewServer(m, nil).Routes(), http.MethodGet, "/json/qry?data=x", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal error", out["error"])
}

func TestMethodNotAllowed(t *testing.T) {
	rr, _ := do(t, NewServer(&mockSearcher{}, nil).Routes(), http.MethodGet, "/json/xqry", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rr, _ := do(t, NewServer(&mockSearcher{}, nil).Routes(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(config.StorageConfig{Driver: "sqlite", Path: config.MemoryDB})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.ReplaceTopics(ctx, []storage.Topic{{Slug: "Greece", Category: "Europe", Query: "Grèce Greece"}}))
	day := time.Date(2022, 2, 14, 0, 0, 0, 0, time.UTC)
	for i, text := range []string{"Crise en Grèce", "Greece talks", "Markets"} {
		require.NoError(t, store.AddStatus(ctx, &storage.Status{
			ID: string(rune('a' + i)), Author: "x", CreatedAt: day.Add(time.Duration(i) * 25 * time.Hour), Text: text,
		}))
	}

	h := NewServer(searchuc.New(store, nil), nil).Routes()
	_, out := do(t, h, http.MethodPost, "/json/intvlcounts",
		`{"words":["*Greece"],"start":"2022-02-14","interval":"1d","n":3}`)

	require.Equal(t, float64(0), out["error"], out)
	assert.Equal(t, []any{float64(1), float64(1), float64(0)}, out["intervals"].(map[string]any)["counts"])
}

func TestEndToEnd_IntervalCountBounded(t *testing.T) {
	store, err := storage.Open(config.StorageConfig{Driver: "sqlite", Path: config.MemoryDB})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewServer(searchuc.New(store, nil), nil).Routes()
	for _, body := range []string{
		`{"words":[],"start":"2022-02-14","interval":"1h","n":1125899906842624}`,
		`{"words":[],"start":"2022-02-14","interval":"2562048h","n":2}`,
	} {
		rr, out := do(t, h, http.MethodPost, "/json/intvlcounts", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Contains(t, out["error"], "invalid interval", body)
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/observability"
	"github.com/matzehuels/mindlayout/pkg/store"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func seedGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range []graph.Node{
		{ID: "root", Text: "Product launch", Tags: []string{"plan"}},
		{ID: "mkt", Text: "Marketing campaign", ParentID: "root", Tags: []string{"team"}},
		{ID: "eng", Text: "Engineering", ParentID: "root", Tags: []string{"team"}},
		{ID: "blog", Text: "Launch blog post", ParentID: "mkt"},
	} {
		require.NoError(t, g.AddNode(n))
	}
	require.NoError(t, g.AddEdge(graph.Edge{ID: "x1", From: "blog", To: "eng", Label: "needs"}))
	return g
}

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	cfg.Logger = quietLogger()
	s := New(seedGraph(t), cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Close()
	})
	return s, ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	resp := do(t, ts, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"nodes": 4.0, "edges": 1.0}, body["graph"])
	build, ok := body["build"].(map[string]any)
	require.True(t, ok, "healthz reports the build")
	assert.Equal(t, "dev", build["version"])
}

func TestNodeCRUD(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp := do(t, ts, http.MethodPost, "/nodes", map[string]any{"text": "Press kit", "parent_id": "mkt", "tags": []string{"asset"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[graph.Node](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "mkt", created.ParentID)
	assert.False(t, created.CreatedAt.IsZero())

	resp = do(t, ts, http.MethodGet, "/nodes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Press kit", decodeBody[graph.Node](t, resp).Text)

	resp = do(t, ts, http.MethodPut, "/nodes/"+created.ID, map[string]any{"text": "Press kit v2", "parent_id": "eng"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[graph.Node](t, resp)
	assert.Equal(t, "Press kit v2", updated.Text)
	assert.Equal(t, "eng", updated.ParentID)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	resp = do(t, ts, http.MethodGet, "/nodes/eng/children", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	children := decodeBody[[]graph.Node](t, resp)
	require.Len(t, children, 1)
	assert.Equal(t, created.ID, children[0].ID)

	resp = do(t, ts, http.MethodDelete, "/nodes/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/nodes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NODE_NOT_FOUND", decodeBody[errorResponse](t, resp).Code)
}

func TestNodeErrors(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"MissingText", http.MethodPost, "/nodes", map[string]any{"parent_id": "root"}, http.StatusBadRequest},
		{"UnknownField", http.MethodPost, "/nodes", `{"text":"a","colour":"red"}`, http.StatusBadRequest},
		{"Malformed", http.MethodPost, "/nodes", `{"text":`, http.StatusBadRequest},
		{"DuplicateID", http.MethodPost, "/nodes", map[string]any{"id": "root", "text": "again"}, http.StatusUnprocessableEntity},
		{"MissingParent", http.MethodPost, "/nodes", map[string]any{"text": "a", "parent_id": "ghost"}, http.StatusUnprocessableEntity},
		{"UpdateMissing", http.MethodPut, "/nodes/ghost", map[string]any{"text": "a"}, http.StatusNotFound},
		{"UpdateIDMismatch", http.MethodPut, "/nodes/root", map[string]any{"id": "other", "text": "a"}, http.StatusBadRequest},
		{"DeleteMissing", http.MethodDelete, "/nodes/ghost", nil, http.StatusNotFound},
		{"ChildrenMissing", http.MethodGet, "/nodes/ghost/children", nil, http.StatusNotFound},
		{"AncestorsMissing", http.MethodGet, "/nodes/ghost/ancestors", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAncestors(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	resp := do(t, ts, http.MethodGet, "/nodes/blog/ancestors", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ids []string
	for _, n := range decodeBody[[]graph.Node](t, resp) {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"mkt", "root"}, ids)
}

func TestEdges(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp := do(t, ts, http.MethodPost, "/edges", map[string]any{"from": "eng", "to": "mkt", "label": "informs"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	e := decodeBody[graph.Edge](t, resp)
	assert.NotEmpty(t, e.ID)

	assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodPost, "/edges", map[string]any{"from": "eng", "to": "ghost"}).StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, ts, http.MethodPost, "/edges", map[string]any{"from": "eng", "to": "eng"}).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPost, "/edges", map[string]any{"from": "eng"}).StatusCode)

	assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodDelete, "/edges/"+e.ID, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodDelete, "/edges/"+e.ID, nil).StatusCode)
}

func TestGraphReplace(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	resp := do(t, ts, http.MethodGet, "/graph", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeBody[graph.Snapshot](t, resp)
	assert.Len(t, snap.Nodes, 4)
	assert.Len(t, snap.Edges, 1)

	body := `{"nodes":[{"id":"a","text":"Alpha"},{"id":"b","text":"Beta","parent_id":"a"}],"edges":[]}`
	resp = do(t, ts, http.MethodPut, "/graph", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, graphStats{Nodes: 2}, decodeBody[graphStats](t, resp))
	assert.Len(t, s.Graph().Nodes, 2)

	resp = do(t, ts, http.MethodGet, "/search?q=beta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found := decodeBody[[]graph.Node](t, resp)
	require.Len(t, found, 1, "the index follows the replaced graph")
	assert.Equal(t, "b", found[0].ID)

	resp = do(t, ts, http.MethodPut, "/graph", `{"nodes":[{"id":"c","text":"C","parent_id":"missing"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Len(t, s.Graph().Nodes, 2, "a rejected graph leaves the old one in place")

	resp = do(t, ts, http.MethodPut, "/graph", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearch(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	ids := func(path string) []string {
		resp := do(t, ts, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []string
		for _, n := range decodeBody[[]graph.Node](t, resp) {
			out = append(out, n.ID)
		}
		return out
	}

	assert.Equal(t, []string{"blog", "root"}, ids("/search?q=laun"))
	assert.Equal(t, []string{"blog"}, ids("/search?q=launch+blog"))
	assert.Equal(t, []string{"eng", "mkt"}, ids("/search?tag=TEAM"))
	assert.Equal(t, []string{"eng", "mkt"}, ids("/nodes?tag=team"))

	// new nodes are searchable immediately
	resp := do(t, ts, http.MethodPost, "/nodes", map[string]any{"id": "seo", "text": "SEO audit", "parent_id": "mkt"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{"seo"}, ids("/search?q=audit"))

	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodGet, "/search", nil).StatusCode)
}

func TestLayout(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	resp := do(t, ts, http.MethodPost, "/layout/tree", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lr := decodeBody[layoutResponse](t, resp)
	assert.Equal(t, "tree", lr.Result.Algorithm)
	assert.Len(t, lr.Result.Positions, 4)
	assert.Zero(t, lr.Applied)
	for _, n := range s.Graph().Nodes {
		assert.Equal(t, graph.Position{}, n.Position, "layout without apply leaves the graph alone")
	}

	resp = do(t, ts, http.MethodPost, "/layout/radial?apply=true", map[string]any{"width": 800, "height": 600})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lr = decodeBody[layoutResponse](t, resp)
	assert.Equal(t, 4, lr.Applied)
	for _, n := range s.Graph().Nodes {
		assert.Equal(t, lr.Result.Positions[n.ID], n.Position)
	}
	for id, p := range lr.Result.Positions {
		assert.True(t, p.X >= 0 && p.X <= 800 && p.Y >= 0 && p.Y <= 600, "%s at %v is off the canvas", id, p)
	}

	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPost, "/layout/spiral", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPost, "/layout/tree?apply=maybe", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPost, "/layout/force", `{"bogus":1}`).StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity,
		do(t, ts, http.MethodPost, "/layout/force", map[string]any{"params": map[string]float64{"damping": 5}}).StatusCode)
}

func TestSave(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	assert.Equal(t, http.StatusNotImplemented, do(t, ts, http.MethodPost, "/save", nil).StatusCode)

	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, ts = newTestServer(t, Config{Store: fs, GraphName: "launch"})

	resp := do(t, ts, http.MethodPost, "/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "file", decodeBody[map[string]any](t, resp)["backend"])

	g, err := store.LoadGraph(context.Background(), fs, "launch")
	require.NoError(t, err)
	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
}

func TestMetricsRoute(t *testing.T) {
	_, ts := newTestServer(t, Config{Metrics: true})
	resp := do(t, ts, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, ts = newTestServer(t, Config{})
	assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodGet, "/metrics", nil).StatusCode)
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, method, route string, code int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
	h.codes = append(h.codes, code)
}

func TestRequestHooksUseRoutePattern(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := New(seedGraph(t), Config{Logger: quietLogger()})
	for _, path := range []string{"/nodes/root", "/nodes/ghost"} {
		s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	assert.Equal(t, []string{"GET /nodes/{id}", "GET /nodes/{id}"}, hooks.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, hooks.codes)
}

func TestRecovererReturns500(t *testing.T) {
	s := New(nil, Config{Logger: quietLogger()})
	s.router.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

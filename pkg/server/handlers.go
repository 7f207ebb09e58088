package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/mindlayout/pkg/buildinfo"
	errs "github.com/matzehuels/mindlayout/pkg/errors"
	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/graph/traverse"
	"github.com/matzehuels/mindlayout/pkg/index"
	"github.com/matzehuels/mindlayout/pkg/layout"
	"github.com/matzehuels/mindlayout/pkg/pipeline"
	"github.com/matzehuels/mindlayout/pkg/store"
)

var validate = validator.New()

// =============================================================================
// Request and response bodies
// =============================================================================

type nodeRequest struct {
	ID       string          `json:"id"`
	Text     string          `json:"text" validate:"required"`
	ParentID string          `json:"parent_id"`
	Position *graph.Position `json:"position"`
	Tags     []string        `json:"tags" validate:"omitempty,dive,required"`
	Metadata graph.Metadata  `json:"metadata"`
}

type edgeRequest struct {
	ID    string `json:"id"`
	From  string `json:"from" validate:"required"`
	To    string `json:"to" validate:"required"`
	Label string `json:"label"`
}

type layoutResponse struct {
	Result  *layout.Result `json:"result"`
	Cached  bool           `json:"cached"`
	Applied int            `json:"applied"`
}

type graphStats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// decode reads a JSON body into v and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(limitBody(w, r))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request body")
	}
	if err := validate.Struct(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func (s *Server) nodeList(ids []string) []graph.Node {
	nodes := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.graph.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// =============================================================================
// Graph
// =============================================================================

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	stats := graphStats{Nodes: s.graph.NodeCount(), Edges: s.graph.EdgeCount()}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "graph": stats, "build": buildinfo.Get()})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	data, err := graph.MarshalGraph(s.graph)
	s.mu.RUnlock()
	if err != nil {
		writeErr(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handlePutGraph(w http.ResponseWriter, r *http.Request) {
	ix := index.New()
	g, err := graph.ReadGraph(limitBody(w, r), graph.WithIndexer(ix))
	if err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.graph, s.index = g, ix
	s.mu.Unlock()

	s.logger.Info("replaced graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	writeJSON(w, http.StatusOK, graphStats{Nodes: g.NodeCount(), Edges: g.EdgeCount()})
}

// =============================================================================
// Nodes
// =============================================================================

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tag := r.URL.Query().Get("tag"); tag != "" {
		writeJSON(w, http.StatusOK, s.nodeList(s.index.SearchTag(tag)))
		return
	}
	writeJSON(w, http.StatusOK, s.graph.Nodes())
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	n := graph.NewNode(req.Text)
	if req.ID != "" {
		n.ID = req.ID
	}
	n.ParentID = req.ParentID
	n.Tags = req.Tags
	n.Metadata = req.Metadata
	if req.Position != nil {
		n.Position = *req.Position
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.graph.AddNode(n); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	created, _ := s.graph.Node(n.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.graph.Node(id)
	if !ok {
		writeErr(w, errs.NodeNotFound(id), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req nodeRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	if req.ID != "" && req.ID != id {
		writeErr(w, errs.New(errs.ErrCodeInvalidInput, "body id %q does not match path id %q", req.ID, id), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.graph.Node(id)
	if !ok {
		writeErr(w, errs.NodeNotFound(id), http.StatusNotFound)
		return
	}
	n := old
	n.Text = req.Text
	n.ParentID = req.ParentID
	n.Tags = req.Tags
	n.Metadata = req.Metadata
	if req.Position != nil {
		n.Position = *req.Position
	}
	if err := s.graph.UpdateNode(n); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	updated, _ := s.graph.Node(id)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.graph.RemoveNode(id); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.graph.HasNode(id) {
		writeErr(w, errs.NodeNotFound(id), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.nodeList(s.graph.Children(id)))
}

func (s *Server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, err := traverse.Ancestors(s.graph, id)
	if err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.nodeList(ids))
}

// =============================================================================
// Edges
// =============================================================================

func (s *Server) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	e := graph.NewEdge(req.From, req.To)
	if req.ID != "" {
		e.ID = req.ID
	}
	e.Label = req.Label

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.graph.AddEdge(e); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteEdge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.graph.RemoveEdge(id); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Layout, search, persistence
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(limitBody(w, r))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode layout options"), http.StatusBadRequest)
		return
	}
	opts.Engine = chi.URLParam(r, "engine")
	if err := pipeline.ValidateEngine(opts.Engine); err != nil {
		writeErr(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "layout"), http.StatusBadRequest)
		return
	}

	apply := false
	if v := r.URL.Query().Get("apply"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeErr(w, errs.New(errs.ErrCodeInvalidInput, "apply must be a boolean, got %q", v), http.StatusBadRequest)
			return
		}
		apply = b
	}

	if apply {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	res, hit, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), s.graph, opts)
	if err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	resp := layoutResponse{Result: res, Cached: hit}
	if apply {
		resp.Applied = layout.Apply(s.graph, res)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	tag := r.URL.Query().Get("tag")
	if q == "" && tag == "" {
		writeErr(w, errs.New(errs.ErrCodeInvalidInput, "q or tag is required"), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	if q != "" {
		ids = s.index.Search(q)
	} else {
		ids = s.index.SearchTag(tag)
	}
	writeJSON(w, http.StatusOK, s.nodeList(ids))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil || s.cfg.GraphName == "" {
		writeErr(w, errs.New(errs.ErrCodeUnsupported, "no store configured"), http.StatusNotImplemented)
		return
	}

	s.mu.RLock()
	n := s.graph.NodeCount()
	err := store.SaveGraph(r.Context(), s.cfg.Store, s.cfg.GraphName, s.graph)
	s.mu.RUnlock()
	if err != nil {
		writeErr(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": s.cfg.GraphName, "backend": s.cfg.Store.Backend(), "nodes": n})
}

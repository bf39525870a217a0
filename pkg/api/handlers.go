package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/group"
	"github.com/matzehuels/pipegraph/pkg/layout"
	"github.com/matzehuels/pipegraph/pkg/lineage"
	"github.com/matzehuels/pipegraph/pkg/render"
	"github.com/matzehuels/pipegraph/pkg/render/dot"
	"github.com/matzehuels/pipegraph/pkg/slice"
)

// =============================================================================
// Engine
// =============================================================================

type layoutRequest struct {
	graphRequest
	Strategy string        `json:"strategy"`
	Config   layout.Config `json:"config"`
	// Slot identifies the view the layout is for. A newer request for the
	// same slot cancels this one.
	Slot string `json:"slot,omitempty"`
}

type layoutResponse struct {
	layout.Result
	CacheHit bool `json:"cache_hit"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := req.prepared()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	strategy, err := layout.ParseStrategy(req.Strategy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), req.Slot, g, strategy, req.Config)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Result: res, CacheHit: hit})
}

type lineageRequest struct {
	graphRequest
	Node    string `json:"node"`
	Mode    string `json:"mode"`
	Explain bool   `json:"explain,omitempty"`
}

type lineageResponse struct {
	Nodes    []string          `json:"nodes"`
	Findings []lineage.Finding `json:"findings,omitempty"`
}

func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	var req lineageRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := req.prepared()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mode, err := lineage.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	set, err := s.runner.Lineage(r.Context(), g, req.Node, mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := lineageResponse{Nodes: set.Sorted()}
	if req.Explain {
		resp.Findings = s.runner.Explain(r.Context(), g, req.Node)
	}
	writeJSON(w, http.StatusOK, resp)
}

type relatedRequest struct {
	graphRequest
	Node string `json:"node"`
	lineage.Direction
	Depth int `json:"depth,omitempty"`
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	var req relatedRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := req.prepared()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Depth < 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "depth must not be negative"))
		return
	}
	set := s.runner.Related(r.Context(), g, req.Node, req.Direction, req.Depth)
	writeJSON(w, http.StatusOK, map[string][]string{"nodes": set.Sorted()})
}

type sliceRequest struct {
	graphRequest
	slice.Options
}

func (s *Server) handleSlice(w http.ResponseWriter, r *http.Request) {
	var req sliceRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := req.prepared()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Slice(r.Context(), g, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type renderRequest struct {
	graphRequest
	Format    string   `json:"format"`
	Highlight []string `json:"highlight,omitempty"`
	Title     string   `json:"title,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`
}

var contentTypes = map[string]string{
	render.FormatSVG: "image/svg+xml",
	render.FormatDOT: "text/vnd.graphviz",
	render.FormatPDF: "application/pdf",
	render.FormatPNG: "image/png",
}

// handleRender renders an already laid-out graph. Group fill colors come
// from the registry.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := req.prepared()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := dot.Options{
		Highlight:   graph.NewSet(req.Highlight...),
		GroupColors: s.groupColors(),
		Title:       req.Title,
		Detailed:    req.Detailed,
	}
	data, err := s.runner.Render(r.Context(), g, format, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) groupColors() map[string]string {
	groups := s.registry.List()
	colors := make(map[string]string, len(groups))
	for _, g := range groups {
		colors[g.ID] = g.Color
	}
	return colors
}

// =============================================================================
// Groups
// =============================================================================

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]group.Group{"groups": nonNil(s.registry.List())})
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.registry.Create(r.Context(), req.Name, req.Description, req.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

type validateNameRequest struct {
	Name      string `json:"name"`
	ExcludeID string `json:"excludeId,omitempty"`
}

func (s *Server) handleValidateName(w http.ResponseWriter, r *http.Request) {
	var req validateNameRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.ValidateName(req.Name, req.ExcludeID))
}

type resolveRequest struct {
	Node graph.Node `json:"node"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]group.Group{"groups": nonNil(s.registry.ResolveMembership(req.Node))})
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req group.Update
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok, err := s.registry.Update(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, groupNotFound(id))
		return
	}
	g, _ := s.registry.Get(id)
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.registry.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, groupNotFound(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.registry.Get(id); !ok {
		s.writeError(w, r, groupNotFound(id))
		return
	}
	var req graphRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := req.prepared()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	members := s.registry.Members(g, id)
	if members == nil {
		members = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"nodes": members})
}

func groupNotFound(id string) error {
	return errors.New(errors.ErrCodeGroupNotFound, "group %s not found", id)
}

func nonNil(groups []group.Group) []group.Group {
	if groups == nil {
		return []group.Group{}
	}
	return groups
}

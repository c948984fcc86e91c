package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mindmaps/canvas"
	"mindmaps/diagram"
	"mindmaps/export"
	"mindmaps/geometry"
	"mindmaps/patch"
	"mindmaps/persistence"
	"mindmaps/proposal"
	"mindmaps/validation"
)

// CreateMapRequest is the body of POST /api/maps.
type CreateMapRequest struct {
	Title       string               `json:"title" validate:"max=200"`
	Nodes       []diagram.Node       `json:"nodes" validate:"dive"`
	Connections []diagram.Connection `json:"connections" validate:"dive"`
}

// UpdateMapRequest is the body of PUT /api/maps/{id}.
type UpdateMapRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// ProposeRequest is the body of POST /api/maps/{id}/proposals.
type ProposeRequest struct {
	Instruction string   `json:"instruction" validate:"required,max=2000"`
	Selection   []string `json:"selection"`
}

// PatchResponse reports a patch or an approved proposal.
type PatchResponse struct {
	Applied  int             `json:"applied"`
	Outcomes []patch.Outcome `json:"outcomes"`
	Map      diagram.MindMap `json:"map"`
}

// HistoryResponse reports an undo or redo. Changes turns the previous graph
// into the current one, so clients can patch their copy instead of
// replacing it.
type HistoryResponse struct {
	Changed bool              `json:"changed"`
	CanUndo bool              `json:"canUndo"`
	CanRedo bool              `json:"canRedo"`
	Changes []patch.Operation `json:"changes"`
	Map     diagram.MindMap   `json:"map"`
}

// RouteView is one routed connection in screen space.
type RouteView struct {
	ID      string        `json:"id"`
	Kind    string        `json:"kind"`
	Start   diagram.Point `json:"start"`
	Control diagram.Point `json:"control"`
	End     diagram.Point `json:"end"`
	SVG     string        `json:"svg"`
	Arrows  []ArrowView   `json:"arrows,omitempty"`
}

// ArrowView is an arrow head.
type ArrowView struct {
	Tip   diagram.Point `json:"tip"`
	Angle float64       `json:"angle"`
}

// GeometryResponse is the body of GET /api/maps/{id}/geometry.
type GeometryResponse struct {
	Viewport canvas.Viewport `json:"viewport"`
	Routes   []RouteView     `json:"routes"`
	Dangling []string        `json:"dangling"`
}

func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return s.validate.Struct(v)
}

func (s *Server) listMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if maps == nil {
		maps = []persistence.Summary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"maps": maps})
}

func (s *Server) createMap(w http.ResponseWriter, r *http.Request) {
	var req CreateMapRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Mapa"
	}
	g := diagram.Graph{Nodes: req.Nodes, Connections: req.Connections}.Sanitize()
	for i := range g.Connections {
		g.Connections[i] = g.Connections[i].WithDefaults()
	}
	now := time.Now().UTC()
	m := diagram.MindMap{ID: diagram.NewID(), Title: title, CreatedAt: now, UpdatedAt: now}.WithGraph(g)
	s.create(w, r, &m)
}

// create stores a new map synchronously and opens it.
func (s *Server) create(w http.ResponseWriter, r *http.Request, m *diagram.MindMap) {
	s.mu.Lock()
	e := s.attach(m)
	s.mu.Unlock()

	saved := e.MindMap()
	if err := s.store.Save(r.Context(), &saved); err != nil {
		s.close(saved.ID)
		s.respondError(w, r, err)
		return
	}
	s.logger.Info("map created", zap.String("map_id", saved.ID))
	s.respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	e, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, e.MindMap())
}

func (s *Server) updateMap(w http.ResponseWriter, r *http.Request) {
	var req UpdateMapRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	e, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	e.SetTitle(strings.TrimSpace(req.Title))
	s.respondJSON(w, http.StatusOK, e.MindMap())
}

func (s *Server) deleteMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !persistence.ValidID(id) {
		s.respondError(w, r, persistence.ErrInvalidID)
		return
	}
	s.close(id)
	// a pending background save would bring the file back
	if s.saver != nil {
		s.saver.Flush(r.Context())
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) patchMap(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, r, badRequest("reading body: "+err.Error()))
		return
	}
	ops, err := patch.Parse(data)
	if err != nil {
		s.respondError(w, r, badRequest(err.Error()))
		return
	}
	e, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, _ := e.ApplyPatch(ops)
	s.respondJSON(w, http.StatusOK, PatchResponse{
		Applied:  res.Applied(),
		Outcomes: res.Outcomes,
		Map:      e.MindMap(),
	})
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, false)
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, true)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request, redo bool) {
	e, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	before := e.MindMap().Graph()
	var changed bool
	if redo {
		_, changed = e.Redo()
	} else {
		_, changed = e.Undo()
	}
	m := e.MindMap()
	changes := patch.Diff(before, m.Graph())
	if changes == nil {
		changes = []patch.Operation{}
	}
	s.respondJSON(w, http.StatusOK, HistoryResponse{
		Changed: changed,
		CanUndo: e.CanUndo(),
		CanRedo: e.CanRedo(),
		Changes: changes,
		Map:     m,
	})
}

// geometry routes connections for the viewport in the query string:
// width, height, scrollX, scrollY and cull. Without a scroll offset the
// world origin sits at the viewport centre.
func (s *Server) geometry(w http.ResponseWriter, r *http.Request) {
	e, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	width, err1 := floatParam(q.Get("width"), 800)
	height, err2 := floatParam(q.Get("height"), 600)
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		s.respondError(w, r, badRequest("width and height must be positive numbers"))
		return
	}
	vp := s.sys.NewViewport(width, height)
	home := s.sys.HomeOffset()
	sx, err1 := floatParam(q.Get("scrollX"), home.X)
	sy, err2 := floatParam(q.Get("scrollY"), home.Y)
	if err1 != nil || err2 != nil {
		s.respondError(w, r, badRequest("scrollX and scrollY must be numbers"))
		return
	}
	vp.ScrollOffset = s.sys.ClampScroll(diagram.Point{X: sx, Y: sy})
	cull, _ := strconv.ParseBool(q.Get("cull"))

	m := e.MindMap()
	routed, dangling := geometry.Route(m.Graph(), vp, s.sys, s.sizer, geometry.RouteOptions{
		Options:    s.geo,
		Cull:       cull,
		CullMargin: 200,
	})

	resp := GeometryResponse{Viewport: vp, Routes: make([]RouteView, 0, len(routed)), Dangling: dangling}
	if resp.Dangling == nil {
		resp.Dangling = []string{}
	}
	for _, rt := range routed {
		view := RouteView{
			ID:      rt.Connection.ID,
			Kind:    string(rt.Path.Kind),
			Start:   rt.Path.Start,
			Control: rt.Path.Control,
			End:     rt.Path.End,
			SVG:     rt.Path.SVG(),
		}
		for _, a := range rt.Arrows {
			view.Arrows = append(view.Arrows, ArrowView{Tip: a.Tip, Angle: a.Angle})
		}
		resp.Routes = append(resp.Routes, view)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func floatParam(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !diagram.IsFinite(v) {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
}

func (s *Server) exportMap(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, badRequest(err.Error()))
		return
	}
	exp, err := export.NewExporter(format)
	if err != nil {
		s.respondError(w, r, badRequest(err.Error()))
		return
	}
	e, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	m := e.MindMap()
	out, err := exp.Export(&m)
	if err != nil {
		s.respondError(w, r, &apiError{Status: http.StatusUnprocessableEntity, Code: "export_failed", Message: err.Error()})
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", m.ID+exp.GetFileExtension()))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatJSON:
		return "application/json"
	case export.FormatSVG:
		return "image/svg+xml"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (s *Server) validateMap(w http.ResponseWriter, r *http.Request) {
	e, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))
	issues := e.Validate(strict)
	if issues == nil {
		issues = []validation.ValidationError{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"valid":  !validation.HasErrors(issues),
		"issues": issues,
	})
}

// importMap creates a map from an uploaded file. The format query parameter
// is optional; without it the format is detected from the content.
func (s *Server) importMap(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, r, badRequest("reading body: "+err.Error()))
		return
	}

	format := r.URL.Query().Get("format")
	var m *diagram.MindMap
	if format == "" {
		m, err = s.imports.Import(string(data))
	} else {
		m, err = s.imports.ImportWithFormat(string(data), format)
	}
	if s.metrics != nil {
		s.metrics.Import(format, err)
	}
	if err != nil {
		apiErr := classify(err)
		if apiErr.Status == http.StatusInternalServerError {
			apiErr = &apiError{Status: http.StatusUnprocessableEntity, Code: "import_failed", Message: err.Error()}
		}
		s.respondError(w, r, apiErr)
		return
	}
	s.create(w, r, m)
}

func (s *Server) propose(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	e, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rev, err := e.Propose(r.Context(), req.Instruction, req.Selection...)
	if s.metrics != nil {
		s.metrics.Proposal(err)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rev)
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	var rev proposal.Review
	if err := json.NewDecoder(r.Body).Decode(&rev); err != nil {
		s.respondError(w, r, badRequest("invalid request body: "+err.Error()))
		return
	}
	if len(rev.Ops) == 0 {
		s.respondError(w, r, badRequest("review has no operations"))
		return
	}
	e, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, _ := e.Approve(&rev)
	s.respondJSON(w, http.StatusOK, PatchResponse{
		Applied:  res.Applied(),
		Outcomes: res.Outcomes,
		Map:      e.MindMap(),
	})
}

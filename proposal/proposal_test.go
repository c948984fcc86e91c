package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmaps/diagram"
	"mindmaps/patch"
)

func baseGraph() diagram.Graph {
	return diagram.Graph{
		Nodes: []diagram.Node{
			{ID: "root", Title: "Energía", X: 0, Y: 0},
			{ID: "solar", Title: "Solar", X: 300, Y: 0},
		},
		Connections: []diagram.Connection{
			diagram.Connection{ID: "k1", SourceID: "root", TargetID: "solar"}.WithDefaults(),
		},
	}
}

func counter() diagram.IDGenerator {
	n := 0
	return func() string {
		n++
		return "perm-" + strconv.Itoa(n)
	}
}

func decodeResponse(t *testing.T, raw string) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return resp
}

func TestNewRequestTrimsSnapshot(t *testing.T) {
	req := NewRequest("agrega ejemplos", baseGraph(), "solar")

	require.Len(t, req.Snapshot.Nodes, 2)
	assert.Equal(t, SnapshotNode{ID: "solar", Title: "Solar", X: 300}, req.Snapshot.Nodes[1])
	assert.Equal(t, "root", req.Snapshot.Connections[0].SourceID)
	assert.Equal(t, []string{"solar"}, req.Selection)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "showArrow")
}

func TestReviewRewritesTempIDs(t *testing.T) {
	resp := decodeResponse(t, `{
		"summary": " Añade eólica ",
		"patch": [
			{"op": "add", "path": "/nodes/-", "value": {"id": "tmp-wind", "title": "Eólica"}},
			{"op": "add", "path": "/connections/-", "value": {"id": "tmp-c", "sourceId": "root", "targetId": "tmp-wind", "relation": "ejemplo"}},
			{"op": "replace", "path": "/nodes/1/title", "value": "Solar fotovoltaica"}
		]
	}`)

	rev := NewReviewer(WithReviewIDs(counter())).Review(baseGraph(), resp)

	assert.Equal(t, "Añade eólica", rev.Summary)
	assert.Equal(t, map[string]string{"tmp-wind": "perm-1", "tmp-c": "perm-2"}, rev.IDs)
	assert.Equal(t, []string{"perm-1"}, rev.Unplaced)
	assert.Equal(t, 3, rev.Preview.Applied())

	g := rev.Preview.Graph
	for _, n := range g.Nodes {
		assert.False(t, diagram.IsTempID(n.ID), "node %s kept a temporary id", n.ID)
	}
	wind, ok := g.NodeByID("perm-1")
	require.True(t, ok)
	assert.NotEqual(t, diagram.Point{}, wind.Position(), "unplaced node should be moved off the origin")

	conn, ok := g.ConnectionBetween("root", "perm-1")
	require.True(t, ok)
	assert.Equal(t, diagram.RelationExample, conn.Relation)
	assert.Equal(t, diagram.ConnectionCurved, conn.Type)

	solar, _ := g.NodeByID("solar")
	assert.Equal(t, "Solar fotovoltaica", solar.Title)
}

func TestReviewKeepsGivenCoordinates(t *testing.T) {
	resp := Response{Patch: []patch.Operation{
		{Op: patch.OpAdd, Path: "/nodes/-", Value: diagram.Node{ID: "tmp-x", Title: "Fija", X: -400, Y: 120}},
	}}

	rev := NewReviewer(WithReviewIDs(counter())).Review(baseGraph(), resp)

	assert.Empty(t, rev.Unplaced)
	n, ok := rev.Preview.Graph.NodeByID("perm-1")
	require.True(t, ok)
	assert.Equal(t, diagram.Point{X: -400, Y: 120}, n.Position())
}

func TestReviewAssignsMissingIDs(t *testing.T) {
	resp := decodeResponse(t, `{"patch": [{"op": "add", "path": "/nodes/-", "value": {"title": "Sin id"}}]}`)

	rev := NewReviewer(WithReviewIDs(counter())).Review(baseGraph(), resp)

	require.Equal(t, []string{"perm-1"}, rev.Unplaced)
	_, ok := rev.Preview.Graph.NodeByID("perm-1")
	assert.True(t, ok)
}

func TestReviewApplyAgainstNewerGraph(t *testing.T) {
	resp := decodeResponse(t, `{"patch": [
		{"op": "add", "path": "/nodes/-", "value": {"id": "tmp-n", "title": "Nuevo"}},
		{"op": "remove", "path": "/nodes/5"}
	]}`)
	r := NewReviewer(WithReviewIDs(counter()))
	rev := r.Review(baseGraph(), resp)

	newer := baseGraph()
	newer.Nodes = append(newer.Nodes, diagram.Node{ID: "hydro", Title: "Hidro", X: 0, Y: 300})
	res := r.Apply(newer, rev)

	assert.Len(t, res.Graph.Nodes, 4)
	require.Len(t, res.Skipped(), 1)
	assert.Equal(t, 1, res.Skipped()[0].Index)
	assert.Len(t, newer.Nodes, 3, "approval must not mutate the current graph")
}

func TestHTTPClientPropose(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"summary": "ok", "patch": [{"op": "replace", "path": "/nodes/0/title", "value": "Raíz"}]}`))
	}))
	defer srv.Close()

	cfg := DefaultClientConfig()
	cfg.Endpoint = srv.URL
	c := NewHTTPClient(cfg, nil)

	resp, err := c.Propose(context.Background(), NewRequest("renombra", baseGraph()))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Summary)
	require.Len(t, resp.Patch, 1)
	assert.Equal(t, "renombra", got.Instruction)
	assert.Len(t, got.Snapshot.Nodes, 2)
}

func TestHTTPClientValidatesRequest(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.Endpoint = "http://127.0.0.1:1"
	c := NewHTTPClient(cfg, nil)

	_, err := c.Propose(context.Background(), NewRequest("", baseGraph()))
	assert.Error(t, err)

	_, err = NewHTTPClient(DefaultClientConfig(), nil).Propose(context.Background(), NewRequest("x", baseGraph()))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClientBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig()
	cfg.Endpoint = srv.URL
	cfg.MinRequests = 2
	cfg.FailureThreshold = 0.5
	cfg.OpenTimeout = time.Minute
	c := NewHTTPClient(cfg, nil)
	req := NewRequest("x", baseGraph())

	for i := 0; i < 2; i++ {
		_, err := c.Propose(context.Background(), req)
		var se *StatusError
		require.True(t, errors.As(err, &se), "call %d: %v", i, err)
		assert.Equal(t, http.StatusBadGateway, se.Code)
	}

	_, err := c.Propose(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the service")
}

func TestHTTPClientClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad instruction", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig()
	cfg.Endpoint = srv.URL
	cfg.MinRequests = 1
	c := NewHTTPClient(cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Propose(context.Background(), NewRequest("x", baseGraph()))
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, "closed", c.State().String())
}

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollectorCounts(t *testing.T) {
	c := NewCollector("mindmaps")

	c.Mutation("gesture")
	c.Mutation("gesture")
	c.Mutation("patch")
	c.PatchApplied(3, 1)
	c.ObserveSave("m", 20*time.Millisecond, nil)
	c.ObserveSave("m", time.Millisecond, errors.New("disk full"))
	c.Import("", errors.New("bad"))
	c.Proposal(nil)
	c.SetOpenMaps(2)

	out := scrape(t, c)
	for _, line := range []string{
		`mindmaps_graph_mutations_total{source="gesture"} 2`,
		`mindmaps_graph_mutations_total{source="patch"} 1`,
		`mindmaps_patch_operations_total{outcome="applied"} 3`,
		`mindmaps_patch_operations_total{outcome="skipped"} 1`,
		`mindmaps_saves_total{status="error"} 1`,
		`mindmaps_saves_total{status="ok"} 1`,
		`mindmaps_save_duration_seconds_count 2`,
		`mindmaps_imports_total{format="unknown",status="error"} 1`,
		`mindmaps_proposals_total{status="ok"} 1`,
		`mindmaps_open_maps 2`,
	} {
		assert.Contains(t, out, line)
	}
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("mindmaps")
	b := NewCollector("mindmaps")
	a.Mutation("gesture")
	assert.NotContains(t, scrape(t, b), `mindmaps_graph_mutations_total{source="gesture"}`)
}

func TestObserveHTTP(t *testing.T) {
	c := NewCollector("mindmaps")
	c.ObserveHTTP("GET", "/api/maps", 200, 5*time.Millisecond)

	out := scrape(t, c)
	assert.Contains(t, out, `mindmaps_http_requests_total{method="GET",route="/api/maps",status="200"} 1`)
	assert.Contains(t, out, `mindmaps_http_request_duration_seconds_count{method="GET",route="/api/maps"} 1`)
}

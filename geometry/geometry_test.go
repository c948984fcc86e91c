package geometry

import (
	"math"
	"testing"

	"mindmaps/canvas"
	"mindmaps/diagram"
	"mindmaps/sizing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sizerFunc func(string) diagram.Size

func (f sizerFunc) Size(s string) diagram.Size { return f(s) }

func rectAt(cx, cy, w, h float64) diagram.Rect {
	return diagram.Rect{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
}

func TestAnchorLiesOnBoundary(t *testing.T) {
	from := rectAt(0, 0, 120, 50)
	targets := []diagram.Rect{
		rectAt(300, 0, 80, 40),
		rectAt(0, -300, 80, 40),
		rectAt(-250, -150, 100, 50),
		rectAt(37, 400, 100, 50),
		rectAt(-61, 25, 100, 50),
		rectAt(600, 600, 10, 10),
	}

	for _, to := range targets {
		p := Anchor(from, to, 0)
		assert.True(t, OnBoundary(from, p, 1e-9), "anchor %v not on border of %+v", p, from)
	}
}

func TestAnchorPaddingStaysClose(t *testing.T) {
	from := rectAt(0, 0, 120, 50)
	to := rectAt(-250, -150, 100, 50)

	bare := Anchor(from, to, 0)
	padded := Anchor(from, to, 4)

	assert.InDelta(t, 4, bare.Dist(padded), 1e-9)
	assert.False(t, from.Contains(padded), "padded anchor must sit outside the node")
}

func TestAnchorCoincidentCentres(t *testing.T) {
	r := rectAt(10, 10, 100, 50)
	assert.Equal(t, r.Center(), Anchor(r, r, 4))
}

func TestSectorOf(t *testing.T) {
	tests := []struct {
		angle float64
		want  Sector
	}{
		{0, SectorEast},
		{22.4, SectorEast},
		{22.5, SectorSouthEast},
		{45, SectorSouthEast},
		{90, SectorSouth},
		{135, SectorSouthWest},
		{180, SectorWest},
		{225, SectorNorthWest},
		{270, SectorNorth},
		{315, SectorNorthEast},
		{337.4, SectorNorthEast},
		{337.5, SectorEast},
		{359.9, SectorEast},
		{-45, SectorNorthEast},
		{720 + 90, SectorSouth},
	}

	for _, tt := range tests {
		if got := SectorOf(tt.angle); got != tt.want {
			t.Errorf("SectorOf(%v) = %v, want %v", tt.angle, got, tt.want)
		}
	}
}

func TestAngleNormalized(t *testing.T) {
	assert.InDelta(t, 0, Angle(1, 0), 1e-9)
	assert.InDelta(t, 90, Angle(0, 1), 1e-9)
	assert.InDelta(t, 180, Angle(-1, 0), 1e-9)
	assert.InDelta(t, 270, Angle(0, -1), 1e-9)
}

func TestSectorDefaultsBalanced(t *testing.T) {
	for s := SectorEast; s <= SectorNorthEast; s++ {
		intensity, winding := SectorDefaults(s)
		assert.GreaterOrEqual(t, intensity, 0.25, s.String())
		assert.LessOrEqual(t, intensity, 0.45, s.String())

		oppIntensity, oppWinding := SectorDefaults((s + 4) % 8)
		assert.Equal(t, intensity, oppIntensity, "opposite of %v", s)
		assert.Equal(t, -winding, oppWinding, "opposite of %v", s)
	}
}

func TestResolveOverrides(t *testing.T) {
	adaptive := false
	curv := 0.1
	conn := diagram.Connection{
		AdaptiveCurvature:  &adaptive,
		Curvature:          &curv,
		CurvatureDirection: diagram.CurvatureCounterClockwise,
	}

	intensity, winding := Resolve(conn, SectorEast)
	assert.Equal(t, 0.1, intensity)
	assert.Equal(t, CounterClockwise, winding)

	conn.AdaptiveCurvature = nil
	intensity, winding = Resolve(conn, SectorEast)
	assert.Equal(t, 0.30, intensity)
	assert.Equal(t, Clockwise, winding)

	conn.AdaptiveCurvature = &adaptive
	conn.Curvature = nil
	conn.CurvatureDirection = diagram.CurvatureAuto
	intensity, winding = Resolve(conn, SectorSouth)
	assert.Equal(t, 0.25, intensity)
	assert.Equal(t, Clockwise, winding)
}

func TestComputeCurvedControlPoint(t *testing.T) {
	src := rectAt(0, 0, 100, 50)
	dst := rectAt(400, 0, 100, 50)

	p := Compute(diagram.Connection{Type: diagram.ConnectionCurved}, src, dst, Options{})

	require.False(t, p.Degenerate)
	assert.Equal(t, SectorEast, p.Sector)
	assert.Equal(t, diagram.Point{X: 50, Y: 0}, p.Start)
	assert.Equal(t, diagram.Point{X: 350, Y: 0}, p.End)

	// Clockwise eastward travel bows upward by intensity*dist*0.5.
	assert.InDelta(t, 200, p.Control.X, 1e-9)
	assert.InDelta(t, -0.30*300*0.5, p.Control.Y, 1e-9)
}

func TestComputeReverseBowsToSameSide(t *testing.T) {
	a := rectAt(0, 0, 120, 50)
	b := rectAt(-250, -150, 100, 50)
	conn := diagram.Connection{Type: diagram.ConnectionCurved}

	forward := Compute(conn, a, b, DefaultOptions())
	backward := Compute(conn, b, a, DefaultOptions())

	assert.InDelta(t, forward.Control.X, backward.Control.X, 1e-9)
	assert.InDelta(t, forward.Control.Y, backward.Control.Y, 1e-9)
}

func TestComputeZeroDistance(t *testing.T) {
	r := rectAt(5, 5, 100, 50)
	p := Compute(diagram.Connection{}, r, r, DefaultOptions())

	assert.True(t, p.Degenerate)
	assert.Equal(t, p.Start, p.End)
	assert.Len(t, p.Sample(10), 1)
	assert.Equal(t, "M 5.00 5.00", p.SVG())
	assert.Nil(t, p.ArrowHeads(diagram.ArrowBoth))
	assert.Zero(t, p.Length())
}

func TestStraightScenario(t *testing.T) {
	sys := canvas.Default()
	vp := sys.NewViewport(800, 600)
	g := diagram.Graph{
		Nodes: []diagram.Node{
			{ID: "1", Title: "Centro", X: 0, Y: 0},
			{ID: "2", Title: "Rama", X: -250, Y: -150},
		},
		Connections: []diagram.Connection{
			{ID: "c", SourceID: "1", TargetID: "2", Type: diagram.ConnectionStraight},
		},
	}
	sizer := sizerFunc(sizing.Size)

	routed, dangling := Route(g, vp, sys, sizer, RouteOptions{Options: DefaultOptions()})
	require.Len(t, routed, 1)
	assert.Empty(t, dangling)

	src := sys.NodeRect(g.Nodes[0].Position(), sizing.Size("Centro"), vp)
	dst := sys.NodeRect(g.Nodes[1].Position(), sizing.Size("Rama"), vp)
	a := Anchor(src, dst, 4)
	b := Anchor(dst, src, 4)

	p := routed[0].Path
	assert.Equal(t, diagram.ConnectionStraight, p.Kind)
	assert.Equal(t, a, p.Start)
	assert.Equal(t, b, p.End)
	assert.Contains(t, p.SVG(), " L ")

	// Every sample lies on the segment a-b.
	for _, q := range p.Sample(8) {
		assert.InDelta(t, 0, segmentDistance(a, b, q), 1e-9)
	}
}

func TestRouteSkipsDanglingAndCulls(t *testing.T) {
	sys := canvas.Default()
	vp := sys.NewViewport(800, 600)
	g := diagram.Graph{
		Nodes: []diagram.Node{
			{ID: "1", X: 0, Y: 0},
			{ID: "2", X: 100, Y: 100},
			{ID: "far1", X: 3000, Y: 3000},
			{ID: "far2", X: 3300, Y: 3000},
			{ID: "west", X: -3000, Y: 0},
			{ID: "east", X: 3000, Y: 0},
		},
		Connections: []diagram.Connection{
			{ID: "ok", SourceID: "1", TargetID: "2"},
			{ID: "dangling", SourceID: "1", TargetID: "missing"},
			{ID: "offscreen", SourceID: "far1", TargetID: "far2"},
			{ID: "crossing", SourceID: "west", TargetID: "east", Type: diagram.ConnectionStraight},
		},
	}
	sizer := sizerFunc(sizing.Size)

	routed, dangling := Route(g, vp, sys, sizer, RouteOptions{Cull: true, CullMargin: 100})
	require.Len(t, routed, 2)
	assert.Equal(t, "ok", routed[0].Connection.ID)
	assert.Equal(t, "crossing", routed[1].Connection.ID, "both ends off screen but the line crosses it")
	assert.Equal(t, []string{"dangling"}, dangling)
	assert.NotEmpty(t, routed[0].Arrows)

	routed, _ = Route(g, vp, sys, sizer, RouteOptions{})
	assert.Len(t, routed, 3)
}

func TestDistanceToAndConnectionAt(t *testing.T) {
	p := Compute(diagram.Connection{Type: diagram.ConnectionStraight},
		rectAt(0, 0, 20, 20), rectAt(200, 0, 20, 20), Options{})

	assert.InDelta(t, 0, p.DistanceTo(diagram.Point{X: 100, Y: 0}), 1e-9)
	assert.InDelta(t, 7, p.DistanceTo(diagram.Point{X: 100, Y: 7}), 1e-9)

	routed := []Routed{{Connection: diagram.Connection{ID: "c"}, Path: p}}
	hit, ok := ConnectionAt(routed, diagram.Point{X: 50, Y: 5}, 8)
	require.True(t, ok)
	assert.Equal(t, "c", hit.ID)
	_, ok = ConnectionAt(routed, diagram.Point{X: 50, Y: 50}, 8)
	assert.False(t, ok)
}

func TestArrowHeads(t *testing.T) {
	p := Compute(diagram.Connection{Type: diagram.ConnectionStraight},
		rectAt(0, 0, 20, 20), rectAt(200, 0, 20, 20), Options{})

	end := p.ArrowHeads(diagram.ArrowEnd)
	require.Len(t, end, 1)
	assert.Equal(t, p.End, end[0].Tip)
	assert.InDelta(t, 0, end[0].Angle, 1e-9)

	both := p.ArrowHeads(diagram.ArrowBoth)
	require.Len(t, both, 2)
	assert.InDelta(t, 180, both[0].Angle, 1e-9)
}

func TestBoundsEnclosesSamples(t *testing.T) {
	p := Compute(diagram.Connection{}, rectAt(0, 0, 100, 50), rectAt(-250, -150, 100, 50), DefaultOptions())
	b := p.Bounds().Expand(1e-9)
	for _, q := range p.Sample(16) {
		assert.True(t, b.Contains(q), "sample %v outside %+v", q, b)
	}
	assert.False(t, math.IsNaN(p.Length()))
}

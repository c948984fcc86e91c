package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"mindmaps/canvas"
	"mindmaps/diagram"
	"mindmaps/geometry"
	"mindmaps/sizing"
)

// SVGExporter draws the mind map the way the canvas does: sized boxes and
// the same connection geometry.
type SVGExporter struct {
	sizer  canvas.Sizer
	margin float64
	opts   geometry.Options
}

// NewSVGExporter creates a new SVG exporter
func NewSVGExporter() *SVGExporter {
	return &SVGExporter{
		sizer:  sizing.NewEngine(256),
		margin: 40,
		opts:   geometry.DefaultOptions(),
	}
}

// Export renders the mind map to a standalone SVG document.
func (e *SVGExporter) Export(m *diagram.MindMap) (string, error) {
	if err := checkMap(m); err != nil {
		return "", err
	}

	sys := canvas.Default()
	vp := e.viewport(sys, m.Nodes)
	routed, _ := geometry.Route(m.Graph(), vp, sys, e.sizer, geometry.RouteOptions{Options: e.opts})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		vp.Width, vp.Height, vp.Width, vp.Height))
	if m.Title != "" {
		sb.WriteString(fmt.Sprintf("  <title>%s</title>\n", html.EscapeString(m.Title)))
	}

	for _, r := range routed {
		c := r.Connection.WithDefaults()
		sb.WriteString(fmt.Sprintf(`  <path d="%s" fill="none" stroke="%s" stroke-width="%g"/>`+"\n",
			r.Path.SVG(), html.EscapeString(c.Color), c.Width))
		for _, a := range r.Arrows {
			sb.WriteString(fmt.Sprintf(`  <polygon points="%s" fill="%s"/>`+"\n",
				e.arrowPoints(a, 4*c.Width+2), html.EscapeString(c.Color)))
		}
	}

	for _, n := range m.Nodes {
		size := e.sizer.Size(n.Title)
		rect := sys.NodeRect(n.Position(), size, vp)
		fill, stroke := n.Color, n.BorderColor
		if fill == "" {
			fill = "#FFFFFF"
		}
		if stroke == "" {
			stroke = "#CBD5E1"
		}
		sb.WriteString(fmt.Sprintf(`  <rect x="%.2f" y="%.2f" width="%.0f" height="%.0f" rx="12" fill="%s" stroke="%s"/>`+"\n",
			rect.X, rect.Y, rect.Width, rect.Height, html.EscapeString(fill), html.EscapeString(stroke)))

		lines := sizing.Lines(n.Title, sizing.CharsPerLine, sizing.OptimalLineCount(size))
		center := rect.Center()
		top := center.Y - float64(len(lines)-1)*sizing.LineHeight/2
		for i, line := range lines {
			sb.WriteString(fmt.Sprintf(`  <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle" font-size="14">%s</text>`+"\n",
				center.X, top+float64(i)*sizing.LineHeight, html.EscapeString(line)))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

// viewport sizes and scrolls a viewport so every node fits with a margin.
func (e *SVGExporter) viewport(sys canvas.System, nodes []diagram.Node) canvas.Viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		half := e.sizer.Size(n.Title).Half()
		minX = math.Min(minX, n.X-half.Width)
		minY = math.Min(minY, n.Y-half.Height)
		maxX = math.Max(maxX, n.X+half.Width)
		maxY = math.Max(maxY, n.Y+half.Height)
	}

	vp := canvas.Viewport{
		Width:  maxX - minX + 2*e.margin,
		Height: maxY - minY + 2*e.margin,
	}
	// Solve WorldToScreen(min) == margin for the scroll offset.
	vp.ScrollOffset = diagram.Point{
		X: vp.Width/2 + minX - e.margin + sys.Center,
		Y: vp.Height/2 + minY - e.margin + sys.Center,
	}
	return vp
}

func (e *SVGExporter) arrowPoints(a geometry.Arrow, size float64) string {
	rad := a.Angle * math.Pi / 180
	back := diagram.Point{X: -math.Cos(rad), Y: -math.Sin(rad)}.Scale(size)
	side := diagram.Point{X: -math.Sin(rad), Y: math.Cos(rad)}.Scale(size / 2)
	p1 := a.Tip.Add(back).Add(side)
	p2 := a.Tip.Add(back).Sub(side)
	return fmt.Sprintf("%.2f,%.2f %.2f,%.2f %.2f,%.2f", a.Tip.X, a.Tip.Y, p1.X, p1.Y, p2.X, p2.Y)
}

// GetFileExtension returns the file extension for SVG
func (e *SVGExporter) GetFileExtension() string {
	return ".svg"
}

// GetFormatName returns the format name
func (e *SVGExporter) GetFormatName() string {
	return "SVG"
}

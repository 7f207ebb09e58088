// Package render draws a laid-out graph with Graphviz.
//
// Node positions come from a layout result (or from the nodes themselves)
// and are pinned in the generated DOT, so Graphviz only routes edges and
// draws shapes; it never moves a node. Parent links are drawn solid and
// cross links dashed.
//
//	dot := render.ToDOT(g, res.Positions, render.Options{ShowEdges: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// PNG and PDF output go through SVG and the external rsvg-convert tool
// (librsvg), see [ToPDF] and [ToPNG].
package render

// Package traverse implements graph walks over a [graph.Graph].
//
// Every function is built on the graph's public read API. Walks follow edges
// in their outgoing direction unless WithUndirected or WithHierarchy says
// otherwise, and visit neighbours in insertion order so results are stable.
package traverse

import (
	"github.com/matzehuels/mindlayout/pkg/errors"
	"github.com/matzehuels/mindlayout/pkg/graph"
)

// Options controls which links a walk follows and how deep it goes.
type Options struct {
	// MaxDepth stops expansion beyond this depth. Zero means no limit.
	MaxDepth int
	// Undirected follows links in both directions.
	Undirected bool
	// Hierarchy follows parent/child links instead of edges.
	Hierarchy bool
}

// Option configures a walk.
type Option func(*Options)

// WithMaxDepth limits the walk to nodes at most d links from the start.
// Values <= 0 disable the limit.
func WithMaxDepth(d int) Option {
	return func(o *Options) {
		if d > 0 {
			o.MaxDepth = d
		}
	}
}

// WithUndirected follows links regardless of direction.
func WithUndirected() Option {
	return func(o *Options) { o.Undirected = true }
}

// WithHierarchy walks parent/child links (children only unless combined
// with WithUndirected) instead of edges.
func WithHierarchy() Option {
	return func(o *Options) { o.Hierarchy = true }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Result is the outcome of a breadth-first walk.
type Result struct {
	Order  []string          // visit order, start first
	Depth  map[string]int    // hops from the start
	Parent map[string]string // predecessor on the BFS tree; absent for the start
}

// PathTo rebuilds the BFS tree path from the start to id. It returns nil
// when id was not reached.
func (r *Result) PathTo(id string) []string {
	if _, ok := r.Depth[id]; !ok {
		return nil
	}
	var path []string
	for cur := id; ; {
		path = append(path, cur)
		p, ok := r.Parent[cur]
		if !ok {
			break
		}
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// BFS walks g breadth-first from start.
func BFS(g *graph.Graph, start string, opts ...Option) (*Result, error) {
	if !g.HasNode(start) {
		return nil, errors.NodeNotFound(start)
	}
	o := buildOptions(opts)

	res := &Result{
		Order:  []string{start},
		Depth:  map[string]int{start: 0},
		Parent: make(map[string]string),
	}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := res.Depth[cur]
		if o.MaxDepth > 0 && d >= o.MaxDepth {
			continue
		}
		for _, next := range neighbors(g, cur, o) {
			if _, seen := res.Depth[next]; seen {
				continue
			}
			res.Depth[next] = d + 1
			res.Parent[next] = cur
			res.Order = append(res.Order, next)
			queue = append(queue, next)
		}
	}
	return res, nil
}

// DFS walks g depth-first from start and returns nodes in pre-order.
// It uses an explicit stack, so arbitrarily deep graphs are safe.
func DFS(g *graph.Graph, start string, opts ...Option) ([]string, error) {
	if !g.HasNode(start) {
		return nil, errors.NodeNotFound(start)
	}
	o := buildOptions(opts)

	type frame struct {
		id    string
		depth int
	}
	visited := make(map[string]bool)
	var order []string
	stack := []frame{{id: start}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.id] {
			continue
		}
		visited[f.id] = true
		order = append(order, f.id)
		if o.MaxDepth > 0 && f.depth >= o.MaxDepth {
			continue
		}
		next := neighbors(g, f.id, o)
		for i := len(next) - 1; i >= 0; i-- {
			if !visited[next[i]] {
				stack = append(stack, frame{id: next[i], depth: f.depth + 1})
			}
		}
	}
	return order, nil
}

// ShortestPath returns the fewest-hop path from one node to another following
// edges in their direction. It returns nil when to is unreachable.
func ShortestPath(g *graph.Graph, from, to string) ([]string, error) {
	if !g.HasNode(to) {
		return nil, errors.NodeNotFound(to)
	}
	res, err := BFS(g, from)
	if err != nil {
		return nil, err
	}
	return res.PathTo(to), nil
}

func neighbors(g *graph.Graph, id string, o Options) []string {
	var out []string
	if o.Hierarchy {
		out = g.Children(id)
		if o.Undirected {
			if p, ok := g.Parent(id); ok {
				out = append(out, p.ID)
			}
		}
		return out
	}
	for _, e := range g.OutgoingEdges(id) {
		out = append(out, e.To)
	}
	if o.Undirected {
		for _, e := range g.IncomingEdges(id) {
			out = append(out, e.From)
		}
	}
	return out
}

package board

import (
	"fmt"
	"sort"
)

// Graph is the undirected connectivity graph between electrode channels.
// An edge means two electrodes are physically adjacent and a droplet can
// move directly between them.
//
// Graph is not safe for concurrent mutation; build it fully before sharing.
// The controller never mutates the graph it is given.
type Graph struct {
	adj map[int]map[int]struct{}
}

// NewGraph creates an empty connectivity graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[int]map[int]struct{})}
}

// AddChannel registers a channel with no adjacencies yet. Adding an
// existing channel is a no-op.
func (g *Graph) AddChannel(ch int) {
	if _, ok := g.adj[ch]; !ok {
		g.adj[ch] = make(map[int]struct{})
	}
}

// AddEdge registers adjacency between two channels, adding either channel
// if missing. Self-edges are ignored.
func (g *Graph) AddEdge(a, b int) {
	if a == b {
		return
	}
	g.AddChannel(a)
	g.AddChannel(b)
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
}

// HasChannel reports whether ch is in the graph.
func (g *Graph) HasChannel(ch int) bool {
	_, ok := g.adj[ch]
	return ok
}

// ChannelCount returns the number of channels in the graph.
func (g *Graph) ChannelCount() int {
	return len(g.adj)
}

// Neighbors returns the channels adjacent to ch, sorted ascending.
func (g *Graph) Neighbors(ch int) []int {
	out := make([]int, 0, len(g.adj[ch]))
	for n := range g.adj[ch] {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ShortestPath returns a shortest route from source to target, inclusive
// of both endpoints. Among equal-length routes the lexicographically
// smallest is returned (neighbors are expanded in ascending channel
// order), keeping route planning deterministic.
//
// ShortestPath satisfies move.PathFinder.
func (g *Graph) ShortestPath(source, target int) ([]int, error) {
	if !g.HasChannel(source) {
		return nil, fmt.Errorf("%w: source %d", ErrUnknownChannel, source)
	}
	if !g.HasChannel(target) {
		return nil, fmt.Errorf("%w: target %d", ErrUnknownChannel, target)
	}
	if source == target {
		return []int{source}, nil
	}

	// Breadth-first search with parent tracking.
	parent := map[int]int{source: source}
	queue := []int{source}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.Neighbors(current) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			if next == target {
				return rebuildPath(parent, source, target), nil
			}
			queue = append(queue, next)
		}
	}

	return nil, fmt.Errorf("%w: %d to %d", ErrNoPath, source, target)
}

// rebuildPath walks parent links from target back to source.
func rebuildPath(parent map[int]int, source, target int) []int {
	var reversed []int
	for ch := target; ch != source; ch = parent[ch] {
		reversed = append(reversed, ch)
	}
	reversed = append(reversed, source)

	path := make([]int, len(reversed))
	for i, ch := range reversed {
		path[len(path)-1-i] = ch
	}
	return path
}

package hgraph

import (
	"errors"

	"gonum.org/v1/gonum/graph/simple"
)

// ErrEmptyGraph is returned when routing is attempted against a zero-node
// embedding. Embedding itself treats an empty graph as a legal degenerate
// case (see pkg/hyperbolic.Embed); only routing refuses it.
var ErrEmptyGraph = errors.New("hgraph: empty graph")

// Graph is the undirected, deduplicated adjacency built from an edge list.
// It wraps a gonum simple.UndirectedGraph keyed by dense int64 ids, with a
// string id on either side of the mapping. Immutable after Build.
type Graph struct {
	// Nodes holds distinct node ids in first-seen order.
	Nodes []string

	g        *simple.UndirectedGraph
	idToNode map[string]int64
	nodeToID map[int64]string
	degree   map[string]int
}

// Build deduplicates endpoints, inserts both directions of each edge into an
// undirected adjacency, and computes per-node degree. Self-loops are
// silently dropped. Duplicate edges collapse via set semantics (gonum's
// SetEdge is idempotent for an existing pair).
func Build(edges []Edge) *Graph {
	g := simple.NewUndirectedGraph()
	gr := &Graph{
		g:        g,
		idToNode: make(map[string]int64),
		nodeToID: make(map[int64]string),
		degree:   make(map[string]int),
	}

	ensureNode := func(id string) int64 {
		nid, ok := gr.idToNode[id]
		if ok {
			return nid
		}
		nid = int64(len(gr.Nodes))
		gr.idToNode[id] = nid
		gr.nodeToID[nid] = id
		gr.Nodes = append(gr.Nodes, id)
		gr.degree[id] = 0
		g.AddNode(simple.Node(nid))
		return nid
	}

	for _, e := range edges {
		if e.Source == e.Target {
			ensureNode(e.Source)
			continue
		}
		u := ensureNode(e.Source)
		v := ensureNode(e.Target)
		if g.HasEdgeBetween(u, v) {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
		gr.degree[e.Source]++
		gr.degree[e.Target]++
	}

	return gr
}

// N returns the node count.
func (g *Graph) N() int { return len(g.Nodes) }

// Degree returns the degree of node id, or 0 if id is not in the graph.
func (g *Graph) Degree(id string) int { return g.degree[id] }

// Neighbors returns the neighbor ids of id in no particular order.
func (g *Graph) Neighbors(id string) []string {
	nid, ok := g.idToNode[id]
	if !ok {
		return nil
	}
	it := g.g.From(nid)
	out := make([]string, 0, it.Len())
	for it.Next() {
		out = append(out, g.nodeToID[it.Node().ID()])
	}
	return out
}

// HasNode reports whether id is present in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.idToNode[id]
	return ok
}

// HasEdge reports whether u and v are adjacent.
func (g *Graph) HasEdge(u, v string) bool {
	uid, ok := g.idToNode[u]
	if !ok {
		return false
	}
	vid, ok := g.idToNode[v]
	if !ok {
		return false
	}
	return g.g.HasEdgeBetween(uid, vid)
}

// EdgeCount returns |E|.
func (g *Graph) EdgeCount() int {
	return g.g.Edges().Len()
}

package hyperbolic

import (
	"context"
	"fmt"

	"github.com/danieldanhe/hyperbolic-networks/pkg/debug"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hconfig"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hgraph"
	"github.com/danieldanhe/hyperbolic-networks/pkg/netstats"
)

// Result is the complete output of the embedding pipeline: nodes sorted by
// descending degree (the node emission order is part of the output
// contract; the router itself looks nodes up by id through Index), the
// derived NetworkStats, and the graph the embedding was built over.
type Result struct {
	Nodes []EmbeddedNode
	Stats netstats.Stats
	Graph *hgraph.Graph
}

// Embed sequences EdgeParser -> GraphBuilder -> StatsEstimator -> Kappa ->
// Radial -> AngularOptimizer and returns the full embedding.
//
// On a zero-node graph, Embed returns a Result with an empty node list and
// a Stats with N=0 (all other fields NaN), and no error: an empty graph is
// legal to embed. Only routing against an empty embedding must refuse.
func Embed(ctx context.Context, text string, cfg hconfig.EmbeddingConfig) (*Result, error) {
	defer debug.LogEnterExit("embed")()

	edges, err := hgraph.ParseEdges(text)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	g := hgraph.Build(edges)

	stats, err := netstats.Estimate(g, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	if stats.N == 0 {
		return &Result{Stats: stats, Graph: g}, nil
	}

	kappas := make(map[string]float64, g.N())
	for _, id := range g.Nodes {
		kappas[id] = AssignKappa(g.Degree(id), stats)
	}

	thetas := AssignAngles(ctx, g, kappas, stats, cfg)

	sorted := descendingByDegree(g)
	nodes := make([]EmbeddedNode, len(sorted))
	for i, id := range sorted {
		kappa := kappas[id]
		nodes[i] = EmbeddedNode{
			ID:     id,
			R:      AssignRadial(kappa, stats.Kappa0, stats.R),
			Theta:  thetas[id],
			Kappa:  kappa,
			Degree: g.Degree(id),
		}
	}

	return &Result{Nodes: nodes, Stats: stats, Graph: g}, nil
}

// Index builds an id -> EmbeddedNode lookup for routing.
func (r *Result) Index() map[string]EmbeddedNode {
	idx := make(map[string]EmbeddedNode, len(r.Nodes))
	for _, n := range r.Nodes {
		idx[n.ID] = n
	}
	return idx
}

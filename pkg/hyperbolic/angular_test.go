package hyperbolic

import (
	"context"
	"math"
	"testing"

	"github.com/danieldanhe/hyperbolic-networks/pkg/hconfig"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hgraph"
	"github.com/danieldanhe/hyperbolic-networks/pkg/netstats"
)

func TestNormalizeAngleRange(t *testing.T) {
	cases := []float64{0, math.Pi, -math.Pi, 2 * math.Pi, -2 * math.Pi, 3.5 * math.Pi, -3.5 * math.Pi}
	for _, theta := range cases {
		n := normalizeAngle(theta)
		if n <= -math.Pi || n > math.Pi {
			t.Errorf("normalizeAngle(%v) = %v, out of (-pi, pi]", theta, n)
		}
	}
}

func TestInitializeAnchorSpreadDistinctAndEven(t *testing.T) {
	k := 8
	spread := initializeAnchorSpread(k)
	if len(spread) != k {
		t.Fatalf("expected %d angles, got %d", k, len(spread))
	}
	seen := make(map[float64]bool)
	for _, theta := range spread {
		if seen[theta] {
			t.Errorf("duplicate angle %v in anchor spread", theta)
		}
		seen[theta] = true
		if theta <= -math.Pi || theta > math.Pi {
			t.Errorf("angle %v out of (-pi, pi]", theta)
		}
	}
	// Even partition: consecutive gaps, wrapped into (-pi, pi], should all
	// equal 2*pi/k. The first angle, -pi, is normalized to pi.
	want := 2 * math.Pi / float64(k)
	for i := 1; i < k; i++ {
		gap := normalizeAngle(spread[i] - spread[i-1])
		if math.Abs(gap-want) > 1e-9 {
			t.Errorf("gap between anchor %d and %d = %v, want %v", i-1, i, gap, want)
		}
	}
}

func buildModel(t *testing.T) (*hgraph.Graph, netstats.Stats, map[string]float64) {
	t.Helper()
	edges, err := hgraph.ParseEdges("s,t\nA,B\nA,C\nA,D\nA,E\nB,C\nB,D\nC,D\nD,E")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	g := hgraph.Build(edges)
	cfg := hconfig.DefaultConfig()
	stats, err := netstats.Estimate(g, cfg)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	kappas := make(map[string]float64, len(g.Nodes))
	for _, id := range g.Nodes {
		kappas[id] = float64(g.Degree(id)) - stats.Gamma/stats.Beta
		if kappas[id] < stats.Kappa0 {
			kappas[id] = stats.Kappa0
		}
	}
	return g, stats, kappas
}

func TestAscendIsMonotoneInLogLikelihood(t *testing.T) {
	g, stats, kappas := buildModel(t)
	cfg := hconfig.DefaultConfig()
	ids := descendingByDegree(g)
	m := newAnchorModel(g, kappas, stats, ids)
	copy(m.theta, initializeAnchorSpread(len(ids)))

	for i := range ids {
		start := m.theta[i]
		startL := m.logLikelihood(i, start)
		best, bestL := m.ascend(i, start, cfg)
		if bestL < startL-1e-12 {
			t.Errorf("node %d: ascended log-likelihood %v is worse than starting %v (theta %v -> %v)", i, bestL, startL, start, best)
		}
	}
}

func TestAssignAnglesNormalizesEveryNode(t *testing.T) {
	g, stats, kappas := buildModel(t)
	cfg := hconfig.DefaultConfig()
	cfg.AnchorSize = 3 // force a non-trivial phase-2 tail on this 5-node graph

	thetas := AssignAngles(context.Background(), g, kappas, stats, cfg)
	if len(thetas) != g.N() {
		t.Fatalf("expected %d angles, got %d", g.N(), len(thetas))
	}
	for id, theta := range thetas {
		if theta <= -math.Pi || theta > math.Pi {
			t.Errorf("node %s angle %v out of (-pi, pi]", id, theta)
		}
	}
}

// Package netstats derives the aggregate NetworkStats (mean degree, tail
// exponent, clustering, and the embedding's derived beta/mu/kappa0/R) from a
// built graph.
package netstats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/danieldanhe/hyperbolic-networks/pkg/hconfig"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hgraph"
)

// ErrDegenerateStats is returned when the estimator produces beta <= 1 or
// kappa0 <= 0, meaning the embedding cannot proceed.
var ErrDegenerateStats = errors.New("netstats: degenerate stats")

// Stats holds the aggregate numbers derived once per graph.
type Stats struct {
	N          int
	KBar       float64
	Gamma      float64
	Clustering float64
	Beta       float64
	Kappa0     float64
	Mu         float64
	R          float64
}

// Estimate computes Stats for g using cfg's clamps and sample cap.
//
// For N=0, Estimate returns a Stats with N=0 and every other field NaN,
// without error: an empty graph is not itself an error. Routing on the
// resulting embedding is what must refuse.
func Estimate(g *hgraph.Graph, cfg hconfig.EmbeddingConfig) (Stats, error) {
	n := g.N()
	if n == 0 {
		return Stats{N: 0, KBar: math.NaN(), Gamma: math.NaN(), Clustering: math.NaN(),
			Beta: math.NaN(), Kappa0: math.NaN(), Mu: math.NaN(), R: math.NaN()}, nil
	}

	kBar := meanDegree(g)
	gamma := hillGamma(g, cfg.GammaMin, cfg.GammaMax)
	clustering := averageClustering(g, cfg.ClusteringSampleCap)

	beta := 1 + 1.75*clustering
	kappa0 := kBar * (gamma - 2) / (gamma - 1)

	if beta <= 1 || kappa0 <= 0 {
		return Stats{}, fmt.Errorf("%w: beta=%v kappa0=%v", ErrDegenerateStats, beta, kappa0)
	}

	mu := beta / (2 * math.Pi * kBar * math.Sin(math.Pi/beta))
	r := 2 * math.Log(float64(n)/(math.Pi*mu*kappa0*kappa0))

	return Stats{
		N:          n,
		KBar:       kBar,
		Gamma:      gamma,
		Clustering: clustering,
		Beta:       beta,
		Kappa0:     kappa0,
		Mu:         mu,
		R:          r,
	}, nil
}

func meanDegree(g *hgraph.Graph) float64 {
	sum := 0
	for _, id := range g.Nodes {
		sum += g.Degree(id)
	}
	return float64(sum) / float64(g.N())
}

// hillGamma implements the Hill-style tail exponent estimator: filter zero
// degrees, sort descending, take the top 20% (floor, minimum 10, or all if
// fewer than 10 nonzero-degree nodes exist), then
// gamma = 1 + n/sum(ln(k/kMin)), clamped to [gammaMin, gammaMax]. If the sum
// is zero (all tail values equal kMin) the estimator is undefined and the
// upper clamp is returned.
func hillGamma(g *hgraph.Graph, gammaMin, gammaMax float64) float64 {
	degs := make([]int, 0, g.N())
	for _, id := range g.Nodes {
		if d := g.Degree(id); d > 0 {
			degs = append(degs, d)
		}
	}
	if len(degs) == 0 {
		return gammaMax
	}
	sort.Sort(sort.Reverse(sort.IntSlice(degs)))

	tailLen := len(degs) / 5
	if tailLen < 10 {
		tailLen = 10
	}
	if tailLen > len(degs) {
		tailLen = len(degs)
	}
	tail := degs[:tailLen]
	kMin := float64(tail[len(tail)-1])

	sum := 0.0
	for _, k := range tail {
		sum += math.Log(float64(k) / kMin)
	}
	if sum == 0 {
		return gammaMax
	}

	gamma := 1 + float64(tailLen)/sum
	return clamp(gamma, gammaMin, gammaMax)
}

// averageClustering samples up to sampleCap nodes (in first-seen order) and
// averages the local clustering coefficient over those with degree >= 2.
func averageClustering(g *hgraph.Graph, sampleCap int) float64 {
	ids := g.Nodes
	if sampleCap > 0 && sampleCap < len(ids) {
		ids = ids[:sampleCap]
	}

	total := 0.0
	count := 0
	for _, v := range ids {
		neighbors := g.Neighbors(v)
		if len(neighbors) < 2 {
			continue
		}
		triangles := 0
		possible := 0
		for i := 0; i < len(neighbors); i++ {
			for j := i + 1; j < len(neighbors); j++ {
				possible++
				if g.HasEdge(neighbors[i], neighbors[j]) {
					triangles++
				}
			}
		}
		total += float64(triangles) / float64(possible)
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

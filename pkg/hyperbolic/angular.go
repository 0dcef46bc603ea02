package hyperbolic

import (
	"context"
	"math"
	"sort"

	"github.com/danieldanhe/hyperbolic-networks/pkg/debug"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hconfig"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hgraph"
	"github.com/danieldanhe/hyperbolic-networks/pkg/netstats"
)

// normalizeAngle reduces theta to (-pi, pi].
func normalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	} else if theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

// angularDelta is the wrapped angular separation, always in [0, pi].
func angularDelta(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// descendingByDegree returns node ids sorted by descending degree, breaking
// ties by first-seen order (the order g.Nodes already provides), matching
// the emission order contract EmbeddingDriver relies on.
func descendingByDegree(g *hgraph.Graph) []string {
	ids := make([]string, len(g.Nodes))
	copy(ids, g.Nodes)
	sort.SliceStable(ids, func(i, j int) bool {
		return g.Degree(ids[i]) > g.Degree(ids[j])
	})
	return ids
}

// initializeAnchorSpread returns the even circular spread used to seed the
// first K anchor angles: theta_i = -pi + 2*pi*i/K. Exposed separately so the
// phase-1 spread invariant can be tested against the pre-optimization state.
func initializeAnchorSpread(k int) []float64 {
	out := make([]float64, k)
	for i := 0; i < k; i++ {
		out[i] = normalizeAngle(-math.Pi + 2*math.Pi*float64(i)/float64(k))
	}
	return out
}

// anchorModel holds the per-anchor state the phase-1 gradient ascent reads
// and mutates in place across sweeps.
type anchorModel struct {
	ids   []string
	theta []float64
	kappa []float64
	adj   [][]bool // adj[i][j]: true if anchor i and anchor j are neighbors in g
	stats netstats.Stats
	n     float64 // total node count N, not just len(ids)
}

func newAnchorModel(g *hgraph.Graph, kappas map[string]float64, stats netstats.Stats, ids []string) *anchorModel {
	k := len(ids)
	m := &anchorModel{
		ids:   ids,
		theta: make([]float64, k),
		kappa: make([]float64, k),
		adj:   make([][]bool, k),
		stats: stats,
		n:     float64(g.N()),
	}
	for i, id := range ids {
		m.kappa[i] = kappas[id]
		m.adj[i] = make([]bool, k)
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if g.HasEdge(ids[i], ids[j]) {
				m.adj[i][j] = true
				m.adj[j][i] = true
			}
		}
	}
	return m
}

// chi computes chi_ij at candidate angle thetaI for anchor i against
// anchor j's current angle.
func (m *anchorModel) chi(i, j int, thetaI float64) float64 {
	d := angularDelta(thetaI, m.theta[j])
	return m.n * d / (2 * math.Pi * m.stats.Mu * m.kappa[i] * m.kappa[j])
}

func clampProb(p float64) float64 {
	const eps = 1e-10
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}

// logLikelihood computes L_i(theta) summed over every other anchor in the
// active set.
func (m *anchorModel) logLikelihood(i int, thetaI float64) float64 {
	l := 0.0
	for j := range m.ids {
		if j == i {
			continue
		}
		chi := m.chi(i, j, thetaI)
		p := clampProb(1 / (math.Pow(chi, m.stats.Beta) + 1))
		if m.adj[i][j] {
			l += math.Log(p)
		} else {
			l += math.Log(1 - p)
		}
	}
	return l
}

// gradient computes dL_i/dtheta at thetaI against every other anchor in the
// active set via the chain rule through p(chi) and chi(theta).
func (m *anchorModel) gradient(i int, thetaI float64) float64 {
	g := 0.0
	for j := range m.ids {
		if j == i {
			continue
		}
		diff := normalizeAngle(thetaI - m.theta[j])
		var sign float64
		switch {
		case diff > 0:
			sign = 1
		case diff < 0:
			sign = -1
		default:
			sign = 0
		}

		chi := m.chi(i, j, thetaI)
		dChiDTheta := sign * m.n / (2 * math.Pi * m.stats.Mu * m.kappa[i] * m.kappa[j])

		denom := math.Pow(chi, m.stats.Beta) + 1
		dPdChi := -m.stats.Beta * math.Pow(chi, m.stats.Beta-1) / (denom * denom)

		p := clampProb(1 / denom)
		var dLdP float64
		if m.adj[i][j] {
			dLdP = 1 / p
		} else {
			dLdP = -1 / (1 - p)
		}

		g += dLdP * dPdChi * dChiDTheta
	}
	return g
}

// ascend runs gradient ascent on L_i starting from startTheta and returns
// the best (theta, L) pair seen during the run.
func (m *anchorModel) ascend(i int, startTheta float64, cfg hconfig.EmbeddingConfig) (float64, float64) {
	theta := startTheta
	lr := cfg.LearningRateInit

	bestTheta := theta
	bestL := m.logLikelihood(i, theta)

	var prevGrad float64
	havePrevGrad := false
	stallCount := 0

	for iter := 0; iter < cfg.MaxGradientIterations; iter++ {
		grad := m.gradient(i, theta)

		if havePrevGrad && signOf(grad) != signOf(prevGrad) && signOf(grad) != 0 && signOf(prevGrad) != 0 {
			lr /= 2
			if lr < cfg.LearningRateMin {
				lr = cfg.LearningRateMin
			}
		}
		if lr > cfg.LearningRateMax {
			lr = cfg.LearningRateMax
		}

		step := lr * grad
		if step > cfg.StepClamp {
			step = cfg.StepClamp
		} else if step < -cfg.StepClamp {
			step = -cfg.StepClamp
		}

		theta = normalizeAngle(theta + step)
		l := m.logLikelihood(i, theta)
		if l > bestL {
			bestL = l
			bestTheta = theta
		}

		if math.Abs(grad) < cfg.GradientTol {
			break
		}
		if math.Abs(step) < 0.1*cfg.GradientTol {
			stallCount++
			if stallCount > cfg.StallPatience {
				break
			}
		} else {
			stallCount = 0
		}

		prevGrad = grad
		havePrevGrad = true
	}

	return bestTheta, bestL
}

func signOf(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// runPhase1 anchors the top-K highest-degree nodes by sweeping gradient
// ascent over the active set for cfg.PhaseOneRounds rounds. Returns the
// final angle for each anchor id, in the same order as anchorIDs.
func runPhase1(ctx context.Context, g *hgraph.Graph, kappas map[string]float64, stats netstats.Stats, anchorIDs []string, cfg hconfig.EmbeddingConfig) []float64 {
	k := len(anchorIDs)
	m := newAnchorModel(g, kappas, stats, anchorIDs)

	copy(m.theta, initializeAnchorSpread(k))

	for round := 0; round < cfg.PhaseOneRounds; round++ {
		select {
		case <-ctx.Done():
			return m.theta
		default:
		}
		roundStart := debug.LogEnterExit("phase1 round")
		for i := 0; i < k; i++ {
			best, bestL := m.ascend(i, m.theta[i], cfg)
			if cfg.DualSolutionSearch {
				altStart := normalizeAngle(m.theta[i] + math.Pi)
				altBest, altL := m.ascend(i, altStart, cfg)
				if altL > bestL {
					best = altBest
				}
			}
			m.theta[i] = best
		}
		roundStart()
	}

	return m.theta
}

// runPhase2 places the remaining N-K nodes in descending-degree order by
// the circular mean of their already-placed neighbors, in batches of at
// most cfg.PhaseTwoBatchSize, honoring ctx cancellation between batches.
// placed is mutated in place with every phase-2 node's final angle.
func runPhase2(ctx context.Context, g *hgraph.Graph, tailIDs []string, placed map[string]float64, cfg hconfig.EmbeddingConfig, rng *angleSource) {
	batch := cfg.PhaseTwoBatchSize
	if batch <= 0 {
		batch = len(tailIDs)
		if batch == 0 {
			batch = 1
		}
	}

	for start := 0; start < len(tailIDs); start += batch {
		select {
		case <-ctx.Done():
			return
		default:
		}
		end := start + batch
		if end > len(tailIDs) {
			end = len(tailIDs)
		}
		batchDone := debug.LogEnterExit("phase2 batch")
		for _, id := range tailIDs[start:end] {
			var sinSum, cosSum float64
			count := 0
			for _, nb := range g.Neighbors(id) {
				theta, ok := placed[nb]
				if !ok {
					continue
				}
				sinSum += math.Sin(theta)
				cosSum += math.Cos(theta)
				count++
			}
			if count == 0 {
				placed[id] = rng.next()
				continue
			}
			placed[id] = normalizeAngle(math.Atan2(sinSum, cosSum))
		}
		batchDone()
	}
}

// AssignAngles runs the full two-phase angular optimizer and returns the
// final theta for every node in g, keyed by node id.
func AssignAngles(ctx context.Context, g *hgraph.Graph, kappas map[string]float64, stats netstats.Stats, cfg hconfig.EmbeddingConfig) map[string]float64 {
	sorted := descendingByDegree(g)

	k := cfg.AnchorSize
	if k > len(sorted) {
		k = len(sorted)
	}
	anchorIDs := sorted[:k]
	tailIDs := sorted[k:]

	rng := newAngleSource(cfg.Seed)

	defer debug.LogEnterExit("angular optimizer")()

	thetas := runPhase1(ctx, g, kappas, stats, anchorIDs, cfg)

	placed := make(map[string]float64, len(sorted))
	for i, id := range anchorIDs {
		placed[id] = thetas[i]
	}

	runPhase2(ctx, g, tailIDs, placed, cfg, rng)

	return placed
}

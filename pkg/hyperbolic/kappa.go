package hyperbolic

import "github.com/danieldanhe/hyperbolic-networks/pkg/netstats"

// AssignKappa maps each node's degree to a hidden expected-degree parameter,
// flooring it at kappa0 to keep the connection-probability model's
// likelihood away from its singularity.
func AssignKappa(degree int, stats netstats.Stats) float64 {
	k := float64(degree) - stats.Gamma/stats.Beta
	if k < stats.Kappa0 {
		return stats.Kappa0
	}
	return k
}

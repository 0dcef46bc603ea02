// Package routing implements the bidirectional greedy router: two
// simultaneous greedy walks over the embedded coordinates and the original
// adjacency, meeting in the middle and stitching a full path with distance
// and stretch metrics.
package routing

import (
	"math"

	"github.com/danieldanhe/hyperbolic-networks/pkg/hyperbolic"
)

// HyperbolicDistance computes the native-disc distance between two embedded
// nodes:
//
//	d(u,v) = acosh(max(1, cosh(r_u)*cosh(r_v) - sinh(r_u)*sinh(r_v)*cos(dtheta)))
//
// The max(1, ...) clamp absorbs numerical drift that would otherwise push
// the acosh argument fractionally below its domain.
func HyperbolicDistance(u, v hyperbolic.EmbeddedNode) float64 {
	dtheta := angularSeparation(u.Theta, v.Theta)
	arg := math.Cosh(u.R)*math.Cosh(v.R) - math.Sinh(u.R)*math.Sinh(v.R)*math.Cos(dtheta)
	if arg < 1 {
		arg = 1
	}
	return math.Acosh(arg)
}

// angularSeparation is the wrapped angular distance in [0, pi].
func angularSeparation(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

package hyperbolic

import "math"

// AssignRadial maps a hidden parameter kappa to a radial coordinate given
// the disc radius R. Given kappa >= kappa0, r <= R; r is non-negative only
// while kappa <= kappa0*exp(R/2), and no clamp is applied beyond that.
func AssignRadial(kappa, kappa0, discRadius float64) float64 {
	return discRadius - 2*math.Log(kappa/kappa0)
}

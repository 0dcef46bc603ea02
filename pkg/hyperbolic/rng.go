package hyperbolic

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// angleSource draws reproducible uniform angles in (-pi, pi], seeded once
// per embedding so that re-running the pipeline on the same input and seed
// produces byte-identical coordinates for every node whose angle is not
// otherwise determined (phase-2 nodes with no already-placed neighbor).
type angleSource struct {
	u distuv.Uniform
}

func newAngleSource(seed uint64) *angleSource {
	src := rand.New(rand.NewSource(seed))
	return &angleSource{u: distuv.Uniform{Min: -math.Pi, Max: math.Pi, Src: src}}
}

// next returns a fresh uniform sample in (-pi, pi], normalized so that the
// closed boundary matches the rest of the embedding's convention.
func (a *angleSource) next() float64 {
	return normalizeAngle(a.u.Rand())
}

// Package hyperbolic implements the hidden-parameter assignment, radial and
// angular coordinate assignment, and the embedding driver that sequences
// them into a complete hyperbolic embedding of an undirected graph.
package hyperbolic

// EmbeddedNode is a single node's position in the embedding.
type EmbeddedNode struct {
	ID     string
	R      float64
	Theta  float64
	Kappa  float64
	Degree int
}

package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/danieldanhe/hyperbolic-networks/pkg/debug"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hgraph"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hyperbolic"
)

// ErrNodeNotInEmbedding is returned when a routing query names a node id
// absent from the embedding index.
var ErrNodeNotInEmbedding = errors.New("routing: node not in embedding")

// ErrRoutingStall is not returned as an error by Route itself; a stalled
// walk is reported through RoutingResult.Success=false. BatchRouter wraps
// it for callers that want a single combined error value per query.
var ErrRoutingStall = errors.New("routing: bidirectional walk stalled without meeting")

// RoutingResult is the full outcome of one bidirectional routing query.
type RoutingResult struct {
	Success     bool
	Path        []hyperbolic.EmbeddedNode
	ForwardPath []hyperbolic.EmbeddedNode
	BackwardPath []hyperbolic.EmbeddedNode
	MeetingNode string
	Distance    float64
	Stretch     float64
	PathLength  int
}

func failureResult() RoutingResult {
	return RoutingResult{
		Success:  false,
		Distance: math.Inf(1),
		Stretch:  math.Inf(1),
	}
}

// Router holds the read-only, immutable-after-embedding state that every
// routing query shares: the graph adjacency and the id->EmbeddedNode index.
// A Router is safe for concurrent use by multiple goroutines because
// queries only read this shared state; each call keeps its own visited
// sets and paths locally.
type Router struct {
	graph *hgraph.Graph
	index map[string]hyperbolic.EmbeddedNode
}

// NewRouter builds a Router from an embedding result.
func NewRouter(graph *hgraph.Graph, index map[string]hyperbolic.EmbeddedNode) *Router {
	return &Router{graph: graph, index: index}
}

// Route runs the bidirectional greedy walk between start and end.
func (rt *Router) Route(start, end string) (RoutingResult, error) {
	defer debug.LogEnterExit(fmt.Sprintf("route %s->%s", start, end))()

	if rt.graph.N() == 0 || len(rt.index) == 0 {
		return RoutingResult{}, fmt.Errorf("routing: %w", hgraph.ErrEmptyGraph)
	}

	startNode, ok := rt.index[start]
	if !ok {
		return RoutingResult{}, fmt.Errorf("routing %s: %w", start, ErrNodeNotInEmbedding)
	}
	endNode, ok := rt.index[end]
	if !ok {
		return RoutingResult{}, fmt.Errorf("routing %s: %w", end, ErrNodeNotInEmbedding)
	}

	if start == end {
		return RoutingResult{
			Success:     true,
			Path:        []hyperbolic.EmbeddedNode{startNode},
			ForwardPath: []hyperbolic.EmbeddedNode{startNode},
			MeetingNode: start,
			Distance:    0,
			Stretch:     1,
			PathLength:  0,
		}, nil
	}

	forwardPath := []string{start}
	backwardPath := []string{end}
	forwardVisited := map[string]int{start: 0}
	backwardVisited := map[string]int{end: 0}

	for {
		forwardMoved, forwardMeet := rt.hop(&forwardPath, forwardVisited, backwardVisited, endNode)
		if forwardMeet != "" {
			full := rt.stitchForward(forwardPath, backwardPath, backwardVisited[forwardMeet])
			result := rt.finish(full, forwardMeet, startNode, endNode)
			result.ForwardPath = rt.nodesOf(forwardPath)
			result.BackwardPath = rt.nodesOf(backwardPath)
			return result, nil
		}
		backwardMoved, backwardMeet := rt.hop(&backwardPath, backwardVisited, forwardVisited, startNode)
		if backwardMeet != "" {
			full := rt.stitchBackward(forwardPath, backwardPath, forwardVisited[backwardMeet])
			result := rt.finish(full, backwardMeet, startNode, endNode)
			result.ForwardPath = rt.nodesOf(forwardPath)
			result.BackwardPath = rt.nodesOf(backwardPath)
			return result, nil
		}
		if !forwardMoved && !backwardMoved {
			return failureResult(), nil
		}
	}
}

// hop attempts one greedy step for the walk whose path/visited pair is
// given, advancing toward target. It returns whether a hop was made and,
// if the newly added node is present in otherVisited, that node's id (the
// meeting signal).
func (rt *Router) hop(path *[]string, visited map[string]int, otherVisited map[string]int, target hyperbolic.EmbeddedNode) (bool, string) {
	current := (*path)[len(*path)-1]
	var predecessor string
	if len(*path) >= 2 {
		predecessor = (*path)[len(*path)-2]
	}

	best := ""
	bestDist := math.Inf(1)
	for _, n := range rt.graph.Neighbors(current) {
		if n == predecessor {
			continue
		}
		if _, seen := visited[n]; seen {
			continue
		}
		node, ok := rt.index[n]
		if !ok {
			continue
		}
		d := HyperbolicDistance(node, target)
		if d < bestDist {
			bestDist = d
			best = n
		}
	}
	if best == "" {
		return false, ""
	}

	*path = append(*path, best)
	visited[best] = len(*path) - 1

	if _, hit := otherVisited[best]; hit {
		return true, best
	}
	return true, ""
}

// stitchForward builds the full path when the forward walk lands on a node
// already present in backwardVisited at index k of backwardPath:
// forwardPath ++ reverse(backwardPath[0..k-1]).
func (rt *Router) stitchForward(forwardPath, backwardPath []string, k int) []string {
	full := make([]string, 0, len(forwardPath)+k)
	full = append(full, forwardPath...)
	for i := k - 1; i >= 0; i-- {
		full = append(full, backwardPath[i])
	}
	return full
}

// stitchBackward builds the full path when the backward walk lands on a
// node already present in forwardVisited at index k of forwardPath:
// forwardPath[0..k] ++ reverse(backwardPath[0..len-1)), dropping the last
// backward entry since it duplicates the meeting node already included
// from forwardPath.
func (rt *Router) stitchBackward(forwardPath, backwardPath []string, k int) []string {
	full := make([]string, 0, k+1+len(backwardPath))
	full = append(full, forwardPath[:k+1]...)
	for i := len(backwardPath) - 2; i >= 0; i-- {
		full = append(full, backwardPath[i])
	}
	return full
}

func (rt *Router) nodesOf(ids []string) []hyperbolic.EmbeddedNode {
	nodes := make([]hyperbolic.EmbeddedNode, len(ids))
	for i, id := range ids {
		nodes[i] = rt.index[id]
	}
	return nodes
}

func (rt *Router) finish(pathIDs []string, meetingNode string, start, end hyperbolic.EmbeddedNode) RoutingResult {
	nodes := make([]hyperbolic.EmbeddedNode, len(pathIDs))
	for i, id := range pathIDs {
		nodes[i] = rt.index[id]
	}

	distance := 0.0
	for i := 1; i < len(nodes); i++ {
		distance += HyperbolicDistance(nodes[i-1], nodes[i])
	}

	straight := HyperbolicDistance(start, end)
	stretch := 1.0
	if straight > 0 {
		stretch = distance / straight
	}

	return RoutingResult{
		Success:     true,
		Path:        nodes,
		MeetingNode: meetingNode,
		Distance:    distance,
		Stretch:     stretch,
		PathLength:  len(nodes) - 1,
	}
}

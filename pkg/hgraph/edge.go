// Package hgraph parses edge lists and builds the undirected adjacency the
// rest of the embedding pipeline operates on.
package hgraph

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrMalformedInput is returned when the edge text cannot be read at all
// (not UTF-8, or has no lines). An empty edge list past the header is not
// an error and propagates to an empty graph.
var ErrMalformedInput = errors.New("hgraph: malformed input")

// Edge is an ordered pair of node identifiers. Undirected: (u,v) and (v,u)
// denote the same edge.
type Edge struct {
	Source string
	Target string
}

// ParseEdges splits text on newlines, discards the header line, and reads
// source/target from the first comma-separated field pair of each remaining
// non-empty line. Rows with fewer than two non-empty trimmed fields are
// silently skipped. Order is preserved.
func ParseEdges(text string) ([]Edge, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", ErrMalformedInput)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: input has no lines", ErrMalformedInput)
	}

	lines := strings.Split(text, "\n")

	// First line is the header; its content is ignored.
	body := lines[1:]

	edges := make([]Edge, 0, len(body))
	for _, line := range body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := strings.IndexByte(line, ',')
		if idx < 0 {
			continue
		}
		source := strings.TrimSpace(line[:idx])
		target := strings.TrimSpace(line[idx+1:])
		// target may carry extra comma-separated fields; only the first
		// field after the split point is read.
		if j := strings.IndexByte(target, ','); j >= 0 {
			target = target[:j]
		}
		target = strings.TrimSpace(target)
		if source == "" || target == "" {
			continue
		}
		edges = append(edges, Edge{Source: source, Target: target})
	}
	return edges, nil
}

package ingest

import "strings"

// RawNode is a structural (non-leaf) candidate produced by a source
// adapter before hierarchy resolution: its own identifier plus the level
// name/index it claims within the jurisdiction's level hierarchy.
type RawNode struct {
	Identifier string
	LevelName  string
	LevelIndex int
	NodeID     string
}

// ResolveParent finds the best parent for identifier among candidates: the
// candidate whose own identifier is the longest proper prefix of
// identifier, breaking ties by preferring the deepest LevelIndex. Returns
// ("", false) when no candidate qualifies, signalling the caller should
// attach the node directly under its unit root instead.
func ResolveParent(identifier string, candidates []RawNode) (nodeID string, ok bool) {
	best := -1
	for _, c := range candidates {
		if c.Identifier == identifier {
			continue
		}
		if !strings.HasPrefix(identifier, c.Identifier) {
			continue
		}
		if len(c.Identifier) > best {
			best = len(c.Identifier)
			nodeID = c.NodeID
			ok = true
		} else if len(c.Identifier) == best {
			// Tie on prefix length: prefer the deeper declared level, so
			// a subchapter outranks its enclosing chapter when both
			// identifiers happen to match the same prefix length.
			for _, other := range candidates {
				if other.NodeID == nodeID && c.LevelIndex > other.LevelIndex {
					nodeID = c.NodeID
				}
			}
		}
	}
	return nodeID, ok
}

// SortCandidatesByIdentifierLength orders candidates by ascending
// identifier length, the order hierarchy resolution must walk in so that
// shorter (shallower) identifiers are always resolved, and hence available
// as parent candidates, before their longer (deeper) descendants.
func SortCandidatesByIdentifierLength(nodes []RawNode) []RawNode {
	out := make([]RawNode, len(nodes))
	copy(out, nodes)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j-1].Identifier) > len(out[j].Identifier); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

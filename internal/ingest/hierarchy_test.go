package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phulin/statute-ingest/internal/ingest"
)

func TestResolveParentPicksLongestPrefix(t *testing.T) {
	candidates := []ingest.RawNode{
		{Identifier: "1", LevelName: "title", LevelIndex: 0, NodeID: "title-1"},
		{Identifier: "1-1", LevelName: "chapter", LevelIndex: 1, NodeID: "chapter-1-1"},
	}

	parent, ok := ingest.ResolveParent("1-1-5", candidates)
	require.True(t, ok)
	assert.Equal(t, "chapter-1-1", parent)
}

func TestResolveParentNoCandidateQualifies(t *testing.T) {
	candidates := []ingest.RawNode{
		{Identifier: "2", LevelName: "title", LevelIndex: 0, NodeID: "title-2"},
	}
	_, ok := ingest.ResolveParent("1-1", candidates)
	assert.False(t, ok)
}

func TestResolveParentTieBreaksOnDeeperLevel(t *testing.T) {
	candidates := []ingest.RawNode{
		{Identifier: "1-1", LevelName: "chapter", LevelIndex: 1, NodeID: "chapter"},
		{Identifier: "1-1", LevelName: "subchapter", LevelIndex: 2, NodeID: "subchapter"},
	}
	parent, ok := ingest.ResolveParent("1-1-a", candidates)
	require.True(t, ok)
	assert.Equal(t, "subchapter", parent)
}

func TestSortCandidatesByIdentifierLengthAscending(t *testing.T) {
	nodes := []ingest.RawNode{
		{Identifier: "1-1-1"},
		{Identifier: "1"},
		{Identifier: "1-1"},
	}
	sorted := ingest.SortCandidatesByIdentifierLength(nodes)
	require.Len(t, sorted, 3)
	assert.Equal(t, "1", sorted[0].Identifier)
	assert.Equal(t, "1-1", sorted[1].Identifier)
	assert.Equal(t, "1-1-1", sorted[2].Identifier)
}

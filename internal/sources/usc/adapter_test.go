package usc_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phulin/statute-ingest/internal/ingest"
	"github.com/phulin/statute-ingest/internal/sources/usc"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("../../../testdata/usc/title1_sample.xml")
	require.NoError(t, err)
	return raw
}

func TestBuildNodesProducesTitleChapterAndSections(t *testing.T) {
	raw := loadFixture(t)
	adapter := &usc.Adapter{LinkPrefix: "https://example.test/usc"}

	unit := ingest.UnitWorkItem{
		URL:      "https://example.test/source/t1.xml",
		Metadata: map[string]string{"titleNum": "1", "sourceVersionId": "v1"},
	}

	nodes, next, err := adapter.BuildNodes(context.Background(), unit, raw)
	require.NoError(t, err)
	assert.Empty(t, next)
	require.NotEmpty(t, nodes)

	var titleNode, chapterNode *ingest.NodePayload
	var sectionNodes []ingest.NodePayload
	for i := range nodes {
		switch nodes[i].Meta.LevelName {
		case "title":
			titleNode = &nodes[i]
		case "chapter":
			chapterNode = &nodes[i]
		case "section":
			sectionNodes = append(sectionNodes, nodes[i])
		}
	}

	require.NotNil(t, titleNode)
	require.NotNil(t, chapterNode)
	assert.Nil(t, titleNode.Meta.ParentID)
	require.NotNil(t, chapterNode.Meta.ParentID)
	assert.Equal(t, titleNode.Meta.ID, *chapterNode.Meta.ParentID)

	// Four section elements exist in the fixture, including one duplicate
	// designator ("3" appears twice).
	require.Len(t, sectionNodes, 4)
	for _, s := range sectionNodes {
		require.NotNil(t, s.Meta.ParentID)
		assert.Equal(t, chapterNode.Meta.ID, *s.Meta.ParentID)
		require.NotNil(t, s.Content)
	}
}

func TestBuildNodesDeduplicatesDuplicateSectionDesignators(t *testing.T) {
	raw := loadFixture(t)
	adapter := usc.New()
	unit := ingest.UnitWorkItem{URL: "https://example.test/source/t1.xml", Metadata: map[string]string{"titleNum": "1"}}

	nodes, _, err := adapter.BuildNodes(context.Background(), unit, raw)
	require.NoError(t, err)

	ids := map[string]int{}
	for _, n := range nodes {
		ids[n.Meta.ID]++
	}
	for id, count := range ids {
		assert.Equal(t, 1, count, "node id %q should be unique, got %d", id, count)
	}
}

func TestBuildNodesAssignsDocumentOrderSortOrderToLevelsAndConstantZeroToSections(t *testing.T) {
	raw := loadFixture(t)
	adapter := usc.New()
	unit := ingest.UnitWorkItem{URL: "https://example.test/source/t1.xml", Metadata: map[string]string{"titleNum": "1"}}

	nodes, _, err := adapter.BuildNodes(context.Background(), unit, raw)
	require.NoError(t, err)

	var levelOrders []int
	for _, n := range nodes {
		switch n.Meta.LevelName {
		case "title":
			assert.Equal(t, 0, n.Meta.SortOrder)
		case "section":
			assert.Equal(t, 0, n.Meta.SortOrder)
		default:
			levelOrders = append(levelOrders, n.Meta.SortOrder)
		}
	}
	require.NotEmpty(t, levelOrders)
	for i, order := range levelOrders {
		assert.Equal(t, i, order, "structural level nodes should be numbered in document-parse order")
	}
}

func TestBuildNodesStripsBracketedRepealedHeading(t *testing.T) {
	raw := loadFixture(t)
	adapter := usc.New()
	unit := ingest.UnitWorkItem{URL: "https://example.test/source/t1.xml", Metadata: map[string]string{"titleNum": "1"}}

	nodes, _, err := adapter.BuildNodes(context.Background(), unit, raw)
	require.NoError(t, err)

	var repealed *ingest.NodePayload
	for i := range nodes {
		if nodes[i].Meta.LevelName == "section" && nodes[i].Meta.Name == "Repealed." {
			repealed = &nodes[i]
		}
	}
	require.NotNil(t, repealed)
	assert.Equal(t, "Repealed.", repealed.Meta.Name)
	assert.NotContains(t, repealed.Meta.Name, "]")
}

func TestBuildNodesExtractsCrossReferencesFromAmendmentNotes(t *testing.T) {
	raw := loadFixture(t)
	adapter := &usc.Adapter{LinkPrefix: "https://example.test/usc"}
	unit := ingest.UnitWorkItem{URL: "https://example.test/source/t1.xml", Metadata: map[string]string{"titleNum": "1"}}

	nodes, _, err := adapter.BuildNodes(context.Background(), unit, raw)
	require.NoError(t, err)

	var repealed *ingest.NodePayload
	for i := range nodes {
		if nodes[i].Meta.LevelName == "section" && nodes[i].Meta.Name == "Repealed." {
			repealed = &nodes[i]
		}
	}
	require.NotNil(t, repealed)
	require.NotNil(t, repealed.Content)
	assert.NotEmpty(t, repealed.Content.Metadata.CrossReferences)
}

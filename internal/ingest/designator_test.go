package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phulin/statute-ingest/internal/ingest"
)

func TestNormalizeDesignatorFoldsDashVariants(t *testing.T) {
	assert.Equal(t, "1-1", ingest.NormalizeDesignator("1‐1"))
	assert.Equal(t, "1-1", ingest.NormalizeDesignator("1—1"))
	assert.Equal(t, "1-1", ingest.NormalizeDesignator("1–1"))
}

func TestNormalizeDesignatorStripsLeadingZeros(t *testing.T) {
	assert.Equal(t, "1", ingest.NormalizeDesignator("001"))
	assert.Equal(t, "0", ingest.NormalizeDesignator("000"))
	assert.Equal(t, "10a", ingest.NormalizeDesignator("010A"))
}

func TestNormalizeDesignatorLowersTrailingAlpha(t *testing.T) {
	assert.Equal(t, "2a", ingest.NormalizeDesignator("2A"))
	assert.Equal(t, "2-1b", ingest.NormalizeDesignator("2-1B"))
}

func TestSlugifyPathSegment(t *testing.T) {
	assert.Equal(t, "2-1b", ingest.SlugifyPathSegment("2-1B"))
	assert.Equal(t, "1a", ingest.SlugifyPathSegment("01A"))
}

func TestSlugifyPathSegmentReplacesPunctuationRatherThanDropping(t *testing.T) {
	// The colon must become a dash, not vanish — otherwise "A" and "1" merge
	// into "a1" and the slug silently loses a path component.
	assert.Equal(t, "382-a-1-101", ingest.SlugifyPathSegment("382-A:1-101"))
	assert.Equal(t, "foo-bar", ingest.SlugifyPathSegment("foo/bar"))
	assert.Equal(t, "a-b", ingest.SlugifyPathSegment("a.b"))
}

func TestSortKeyOrdersNumericallyNotLexically(t *testing.T) {
	keys := []string{
		ingest.SortKey("10"),
		ingest.SortKey("2"),
		ingest.SortKey("1a"),
		ingest.SortKey("1"),
	}
	// Expect order: 1, 1a, 2, 10
	assert.True(t, keys[3] < keys[2])
	assert.True(t, keys[2] < keys[1])
	assert.True(t, keys[1] < keys[0])
}

func TestSortKeyNonNumericSortsLast(t *testing.T) {
	numeric := ingest.SortKey("99")
	nonNumeric := ingest.SortKey("appendix")
	assert.True(t, numeric < nonNumeric)
}

package htmlwalk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/phulin/statute-ingest/internal/htmlwalk"
)

func parseFragment(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + body + "</body></html>"))
	require.NoError(t, err)
	return doc
}

func TestParseChapterCollectsSectionBody(t *testing.T) {
	doc := parseFragment(t, `
		<p class="chapter-title">Chapter 1. General Provisions</p>
		<p><span class="catchln" id="sec-1-1">Sec. 1-1.</span> Definitions.</p>
		<p class="source-first">As used in this chapter, "person" includes a corporation.</p>
		<p class="history-first">(1949 Rev., S. 1.)</p>
	`)

	result := htmlwalk.ParseChapter(doc)

	assert.Equal(t, "Chapter 1. General Provisions", result.Title)
	require.Len(t, result.Sections, 1)

	sec := result.Sections[0]
	assert.Equal(t, "sec-1-1", sec.ID)
	assert.Equal(t, "Definitions.", sec.HeadingText)
	assert.Contains(t, strings.Join(sec.Body, " "), `person" includes a corporation`)
	assert.Contains(t, strings.Join(sec.HistoryShort, " "), "1949 Rev")
}

func TestParseChapterSkipsNavTableUntilNextParagraph(t *testing.T) {
	doc := parseFragment(t, `
		<p><span class="catchln" id="sec-1-1">Sec. 1-1.</span> Title.</p>
		<table class="nav_tbl"><tr><td>Table of contents junk</td></tr></table>
		<div>Stray text between the table and the next paragraph.</div>
		<p class="source-first">Real body text.</p>
	`)

	result := htmlwalk.ParseChapter(doc)
	require.Len(t, result.Sections, 1)

	body := strings.Join(result.Sections[0].Body, " ")
	assert.NotContains(t, body, "Table of contents junk")
	assert.NotContains(t, body, "Stray text between")
	assert.Contains(t, body, "Real body text.")
}

func TestParseChapterCaptionTitleRoutesToHeadingTextNotBody(t *testing.T) {
	doc := parseFragment(t, `
		<p><span class="catchln" id="sec-2-5">Sec. 2-5.</span> Powers of the board.</p>
		<p class="source-first">The board may adopt regulations.</p>
	`)

	result := htmlwalk.ParseChapter(doc)
	require.Len(t, result.Sections, 1)

	sec := result.Sections[0]
	assert.Equal(t, "Powers of the board.", sec.HeadingText)
	body := strings.Join(sec.Body, " ")
	assert.NotContains(t, body, "Sec. 2-5")
	assert.NotContains(t, body, "Powers of the board")
	assert.Contains(t, body, "The board may adopt regulations.")
}

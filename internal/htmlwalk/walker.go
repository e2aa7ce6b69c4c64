// Package htmlwalk implements the HTML-rendered-statute counterpart to
// internal/xmlspec: a DOM walk over golang.org/x/net/html that recognizes
// section boundaries by heading markup, classifies body content by CSS
// class into the same content targets the XML path produces, and skips
// known navigation/table-of-contents subtrees so they never leak into
// section bodies.
package htmlwalk

import (
	"strings"

	"golang.org/x/net/html"
)

// ContentTarget mirrors the XML adapter's field set for one section: where
// a run of text belongs in the eventual SectionContent/NodeMeta payload.
type ContentTarget int

const (
	TargetNone ContentTarget = iota
	TargetBody
	TargetHistoryShort
	TargetHistoryLong
	TargetCitations
	TargetSeeAlso
)

// RawSection is one section-sized unit collected from a walk: a heading id
// (used as the section's identifier) plus accumulated text per target.
type RawSection struct {
	ID           string
	HeadingText  string
	Body         []string
	HistoryShort []string
	HistoryLong  []string
	Citations    []string
	SeeAlso      []string
}

func (s *RawSection) append(target ContentTarget, text string) {
	switch target {
	case TargetBody:
		s.Body = append(s.Body, text)
	case TargetHistoryShort:
		s.HistoryShort = append(s.HistoryShort, text)
	case TargetHistoryLong:
		s.HistoryLong = append(s.HistoryLong, text)
	case TargetCitations:
		s.Citations = append(s.Citations, text)
	case TargetSeeAlso:
		s.SeeAlso = append(s.SeeAlso, text)
	}
}

// blockTags are the elements whose end closes a pending section label
// (see capturingLabel) and sets lastWasBreak. No break text is inserted
// when the walk enters or leaves one of them.
var blockTags = map[string]bool{
	"p": true, "div": true, "tr": true, "li": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// ChapterResult is every section parsed from one chapter-sized HTML
// document, plus the text of its first chapter-title element if one was
// found.
type ChapterResult struct {
	Title    string
	Sections []*RawSection
}

// ParseChapter walks doc (an already-parsed golang.org/x/net/html tree)
// collecting one RawSection per heading element found, skipping any
// subtree BuildSkipMap marks, and joining text per the walk rules in
// ParseState.
func ParseChapter(doc *html.Node) *ChapterResult {
	skip := BuildSkipMap(doc)
	st := &ParseState{skip: skip, target: TargetNone}
	var result ChapterResult

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if skip[n] {
			return
		}
		switch n.Type {
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			classes := classSet(n)
			if id, ok := headingID(n, classes); ok {
				sec := &RawSection{ID: id}
				result.Sections = append(result.Sections, sec)
				st.current = sec
				st.target = TargetBody
				st.capturingLabel = true
			}
			if t, ok := classifyTarget(classes); ok {
				st.target = t
			}
			if result.Title == "" && classes["chapter-title"] {
				result.Title = strings.TrimSpace(textContent(n))
				return
			}
			brk := blockTags[n.Data]
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if brk {
				st.flushBreak()
			}
			if n.Data == "td" || n.Data == "th" {
				st.pendingCellSep = true
			}
		case html.TextNode:
			text := n.Data
			if strings.TrimSpace(text) == "" {
				return
			}
			st.emit(text)
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	walk(doc)
	return &result
}

// ParseState threads the "current content target" and "current section"
// through the walk, and handles the " | " table-cell join and the end of
// a section label at block boundaries the way rendered HTML statute
// chapters are conventionally laid out.
type ParseState struct {
	skip           map[*html.Node]bool
	current        *RawSection
	target         ContentTarget
	pendingCellSep bool
	lastWasBreak   bool
	// capturingLabel is true for the span of text immediately following a
	// catchln heading, up to the next block-level break: rendered chapter
	// HTML runs the section's title caption on directly without its own
	// wrapper element ("Sec. 1-1. Definitions."), so that text is routed
	// into HeadingText rather than Body until the enclosing block ends.
	capturingLabel bool
}

func (st *ParseState) emit(text string) {
	norm := strings.Join(strings.Fields(text), " ")
	if norm == "" {
		return
	}
	if st.capturingLabel {
		if st.current != nil {
			st.current.HeadingText = strings.TrimSpace(st.current.HeadingText + " " + norm)
		}
		return
	}
	if st.pendingCellSep {
		norm = " | " + norm
		st.pendingCellSep = false
	}
	if st.current == nil {
		return
	}
	st.current.append(st.target, norm)
	st.lastWasBreak = false
}

func (st *ParseState) flushBreak() {
	st.lastWasBreak = true
	st.capturingLabel = false
}

func classSet(n *html.Node) map[string]bool {
	set := map[string]bool{}
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				set[c] = true
			}
		}
	}
	return set
}

func headingID(n *html.Node, classes map[string]bool) (string, bool) {
	if !classes["catchln"] {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val != "" {
			return a.Val, true
		}
	}
	return "", false
}

// classifyTarget maps the CSS classes observed on rendered chapter HTML to
// a ContentTarget. Classes not recognized leave the target unchanged.
func classifyTarget(classes map[string]bool) (ContentTarget, bool) {
	switch {
	case classes["history"] || classes["history-first"]:
		return TargetHistoryShort, true
	case classes["history-long"]:
		return TargetHistoryLong, true
	case classes["annotation"] || classes["annotation-first"]:
		return TargetCitations, true
	case classes["cross-ref"] || classes["cross-ref-first"], classes["see-also"]:
		return TargetSeeAlso, true
	case classes["source"] || classes["source-first"]:
		return TargetBody, true
	}
	return TargetNone, false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

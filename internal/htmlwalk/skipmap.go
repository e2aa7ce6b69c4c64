package htmlwalk

import (
	"strings"

	"golang.org/x/net/html"
)

// BuildSkipMap marks every node that must be excluded from the walk:
//
//   - a span carrying class "catchln" is the section's own heading caption;
//     its direct text children are skipped so the heading is never
//     double-counted as body text (the heading is recorded via its id
//     attribute instead, in ParseChapter).
//   - a table carrying class "nav_tbl" is a table-of-contents block. Since
//     rendered chapter HTML does not close such tables with a distinct
//     marker before the real body resumes, every node from the table's
//     position forward is skipped until the next top-level <p> sibling is
//     reached. This is a known over-skip: content legitimately following a
//     nav_tbl before the next <p> is silently dropped along with the table.
func BuildSkipMap(doc *html.Node) map[*html.Node]bool {
	skip := make(map[*html.Node]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			classes := classSet(n)
			if classes["catchln"] {
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						skip[c] = true
					}
				}
			}
			if n.Data == "table" && classes["nav_tbl"] {
				skip[n] = true
				skipUntilNextParagraph(n, skip)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return skip
}

// skipUntilNextParagraph marks every following sibling of tbl (and their
// subtrees) as skipped, stopping once a <p> sibling is reached.
func skipUntilNextParagraph(tbl *html.Node, skip map[*html.Node]bool) {
	for sib := tbl.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode && strings.EqualFold(sib.Data, "p") {
			return
		}
		markSubtree(sib, skip)
	}
}

func markSubtree(n *html.Node, skip map[*html.Node]bool) {
	skip[n] = true
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		markSubtree(c, skip)
	}
}

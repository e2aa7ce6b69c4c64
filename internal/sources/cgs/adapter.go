// Package cgs implements the HTML source adapter for the Connecticut
// General Statutes: rendered chapter pages where each section heading is
// a "Sec. N-N." caption, used here as the spec's worked example of the
// HTML adapter variant (internal/htmlwalk).
package cgs

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/phulin/statute-ingest/internal/htmlwalk"
	"github.com/phulin/statute-ingest/internal/ingest"
	"github.com/phulin/statute-ingest/internal/ingest/crossref"
)

// Adapter implements ingest.SourceAdapter for rendered CGS chapter HTML.
type Adapter struct {
	LinkPrefix string
}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) UnitLabel(unit ingest.UnitWorkItem) string {
	return fmt.Sprintf("cgs:%s", unit.URL)
}

var labelRe = regexp.MustCompile(`(?i)^Secs?\.\s+([^.]+)\.\s*(.*)$`)

func (a *Adapter) BuildNodes(ctx context.Context, unit ingest.UnitWorkItem, raw []byte) ([]ingest.NodePayload, []ingest.UnitWorkItem, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}

	result := htmlwalk.ParseChapter(doc)
	accessedAt := time.Now().UTC()
	chapterNum := unit.Metadata["chapterNum"]
	chapterNodeID := fmt.Sprintf("cgs-chapter-%s", ingest.SlugifyPathSegment(chapterNum))

	var nodes []ingest.NodePayload
	chapterName := result.Title
	if chapterName == "" {
		chapterName = "Chapter " + chapterNum
	}
	nodes = append(nodes, ingest.NodePayload{Meta: ingest.NodeMeta{
		ID:              chapterNodeID,
		SourceVersionID: unit.Metadata["sourceVersionId"],
		ParentID:        nilIfEmpty(unit.ParentID),
		LevelName:       "chapter",
		LevelIndex:      0,
		SortOrder:       DesignatorSortOrder(chapterNum),
		Name:            chapterName,
		Path:            "/" + ingest.SlugifyPathSegment(chapterNum),
		ReadableID:      "Chapter " + chapterNum,
		HeadingCitation: chapterName,
		SourceURL:       unit.URL,
		AccessedAt:      accessedAt,
	}})

	seen := map[string]int{}
	for sortOrder, sec := range result.Sections {
		designator, title := parseLabel(sec.ID, sec.HeadingText)
		norm := ingest.NormalizeDesignator(designator)
		seen[norm]++
		nodeID := fmt.Sprintf("cgs-section-%s", slugKey(norm, seen[norm]))
		path := "/" + ingest.SlugifyPathSegment(chapterNum) + "/" + ingest.SlugifyPathSegment(norm)

		bodyText := strings.TrimSpace(strings.Join(sec.Body, " "))
		refs := crossref.Extract(bodyText, "", a.LinkPrefix)
		crossRefs := make([]ingest.SectionCrossReference, 0, len(refs))
		for _, ref := range refs {
			crossRefs = append(crossRefs, ingest.SectionCrossReference{
				Section: ref.Section, Offset: ref.Offset, Length: ref.Length,
			})
		}

		var blocks []ingest.ContentBlock
		if bodyText != "" {
			blocks = append(blocks, ingest.ContentBlock{Type: "body", Content: bodyText})
		}
		if v := strings.TrimSpace(strings.Join(sec.HistoryShort, " ")); v != "" {
			blocks = append(blocks, ingest.ContentBlock{Type: "history_short", Content: v})
		}
		if v := strings.TrimSpace(strings.Join(sec.HistoryLong, " ")); v != "" {
			blocks = append(blocks, ingest.ContentBlock{Type: "history_long", Content: v})
		}
		if v := strings.TrimSpace(strings.Join(sec.Citations, " ")); v != "" {
			blocks = append(blocks, ingest.ContentBlock{Type: "citations", Content: v})
		}
		if v := strings.TrimSpace(strings.Join(sec.SeeAlso, " ")); v != "" {
			blocks = append(blocks, ingest.ContentBlock{Type: "see_also", Content: v})
		}

		parentID := chapterNodeID
		nodes = append(nodes, ingest.NodePayload{
			Meta: ingest.NodeMeta{
				ID:              nodeID,
				SourceVersionID: unit.Metadata["sourceVersionId"],
				ParentID:        &parentID,
				LevelName:       "section",
				LevelIndex:      1,
				SortOrder:       sortOrder,
				Name:            title,
				Path:            path,
				ReadableID:      "Sec. " + norm,
				HeadingCitation: title,
				SourceURL:       unit.URL,
				AccessedAt:      accessedAt,
			},
			Content: &ingest.SectionContent{
				Blocks: blocks,
				Metadata: ingest.SectionMetadata{CrossReferences: crossRefs},
			},
		})
	}

	return nodes, nil, nil
}

var idPrefixRe = regexp.MustCompile(`(?i)^sec(tion)?[-_]`)

// parseLabel extracts a designator and heading title from a section's id
// attribute and caption text. The catchln span's own caption ("Sec. N-N.")
// is excluded from the walked text (internal/htmlwalk routes it out of
// HeadingText), so the designator ordinarily comes from the id attribute
// with its "sec-"/"section-" prefix stripped, and the title from whatever
// text immediately follows the caption; a caption-prefixed heading (e.g. a
// title built by a caller that retains it) is still honored first.
func parseLabel(id, heading string) (designator, title string) {
	if m := labelRe.FindStringSubmatch(heading); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(strings.TrimSuffix(m[2], "."))
	}
	return idPrefixRe.ReplaceAllString(id, ""), strings.TrimSpace(heading)
}

// DesignatorSortOrder mirrors the original container's designator_sort_
// order for a bare chapter number (e.g. "1", "10a"): numeric value first,
// letter suffix breaking ties, non-numeric designators sorting last. This
// is a chapter-level concern only — section siblings within a chapter are
// ordered by document position instead (see BuildNodes), matching the
// original, which always assigns section sort_order 0-based on index
// rather than by parsing the dash-joined "chapter-section" designator.
func DesignatorSortOrder(value string) int {
	return ingest.NumericSortOrder(value)
}

func slugKey(identifier string, occurrence int) string {
	s := ingest.SlugifyPathSegment(identifier)
	if occurrence <= 1 {
		return s
	}
	return fmt.Sprintf("%s-dup%d", s, occurrence)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package usc

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phulin/statute-ingest/internal/ingest"
	"github.com/phulin/statute-ingest/internal/ingest/crossref"
	"github.com/phulin/statute-ingest/internal/xmlspec"
)

// Adapter implements ingest.SourceAdapter for USLM XML title documents.
type Adapter struct {
	// LinkPrefix, when non-empty, is used to build cross-reference links
	// ("{LinkPrefix}/{title}/{section}"). Left empty by default since the
	// link scheme belongs to the downstream site, not this adapter.
	LinkPrefix string
}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) UnitLabel(unit ingest.UnitWorkItem) string {
	return fmt.Sprintf("usc:%s", unit.URL)
}

// BuildNodes parses raw as a USLM XML title document and resolves it into
// a title node, one structural node per organizational level, and one
// leaf node per section. The title node comes first; the rest are
// ordered by identifier length, shortest first, keeping document order
// among identifiers of equal length.
func (a *Adapter) BuildNodes(ctx context.Context, unit ingest.UnitWorkItem, raw []byte) ([]ingest.NodePayload, []ingest.UnitWorkItem, error) {
	interner := xmlspec.NewInterner()
	schema, err := buildSchema(interner)
	if err != nil {
		return nil, nil, err
	}
	engine := &xmlspec.Engine{Interner: interner, Schema: schema}

	records, err := engine.Parse(ctx, bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}

	var titleHeading, metaTitle string
	var levels []xmlspec.Record
	var sections []xmlspec.Record
	for _, r := range records {
		switch r.RecordName {
		case "MainTitle":
			titleHeading = r.Fields["heading"]
		case "MetaTitle":
			metaTitle = r.Fields["title"]
		case "SectionBase":
			sections = append(sections, r)
		default:
			levels = append(levels, r)
		}
	}

	titleName := metaTitle
	if titleName == "" {
		titleName = titleHeading
	}

	accessedAt := time.Now().UTC()
	titleIdentifier := ingest.NormalizeDesignator(firstNonEmpty(unit.Metadata["titleNum"], "0"))
	titleNodeID := fmt.Sprintf("usc-title-%s", titleIdentifier)

	var nodes []ingest.NodePayload
	nodes = append(nodes, ingest.NodePayload{Meta: ingest.NodeMeta{
		ID:              titleNodeID,
		SourceVersionID: unit.Metadata["sourceVersionId"],
		ParentID:        nilIfEmpty(unit.ParentID),
		LevelName:       "title",
		LevelIndex:      0,
		SortOrder:       0,
		Name:            titleName,
		Path:            "/" + ingest.SlugifyPathSegment(titleIdentifier),
		ReadableID:      "Title " + titleIdentifier,
		HeadingCitation: titleName,
		SourceURL:       unit.URL,
		AccessedAt:      accessedAt,
	}})

	type raw2 struct {
		ingest.RawNode
		heading   string
		sortOrder int
	}

	var candidates []raw2
	seenIdentifier := map[string]int{}

	addCandidate := func(identifier, levelName string, levelIndex int, heading string, sortOrder int) string {
		norm := ingest.NormalizeDesignator(identifier)
		key := levelName + ":" + norm
		seenIdentifier[key]++
		nodeID := fmt.Sprintf("usc-%s-%s", levelName, slugKey(norm, seenIdentifier[key]))
		candidates = append(candidates, raw2{
			RawNode:   ingest.RawNode{Identifier: norm, LevelName: levelName, LevelIndex: levelIndex, NodeID: nodeID},
			heading:   heading,
			sortOrder: sortOrder,
		})
		return nodeID
	}

	// Structural (non-title, non-section) nodes get a monotonic sort order
	// in document-parse order, matching the original container's
	// level_sort_order counter; section nodes always get 0, since their
	// relative order is carried by their identifier/path instead.
	levelSortOrder := 0
	for _, r := range levels {
		levelName, ok := recordLevelName(r.RecordName)
		if !ok {
			continue
		}
		levelIndex := levelOrder(levelName)
		identifier := r.Fields["identifier"]
		if identifier == "" {
			continue
		}
		heading := cleanHeading(r.Fields["num"], r.Fields["heading"])
		addCandidate(identifier, levelName, levelIndex, heading, levelSortOrder)
		levelSortOrder++
	}

	// Sections sit one level below the deepest organizational level
	// present (directly below the title when there is none).
	sectionLevelIndex := 1
	for _, c := range candidates {
		if c.LevelIndex+1 > sectionLevelIndex {
			sectionLevelIndex = c.LevelIndex + 1
		}
	}
	for _, r := range sections {
		identifier := r.Fields["identifier"]
		if identifier == "" {
			continue
		}
		heading := cleanHeading(r.Fields["num"], r.Fields["heading"])
		addCandidate(identifier, "section", sectionLevelIndex, heading, 0)
	}

	// Resolve shallower identifiers first so they are available as parent
	// candidates for every deeper one.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && len(candidates[order[j-1]].Identifier) > len(candidates[order[j]].Identifier); j-- {
			order[j-1], order[j] = order[j], order[j-1]
		}
	}

	resolved := make([]ingest.RawNode, 0, len(candidates))
	parentOf := make(map[string]string, len(candidates))
	for _, idx := range order {
		c := candidates[idx]
		parentID, ok := ingest.ResolveParent(c.Identifier, resolved)
		if !ok {
			parentID = titleNodeID
		}
		parentOf[c.NodeID] = parentID
		resolved = append(resolved, c.RawNode)
	}

	sectionI := 0
	for _, idx := range order {
		c := candidates[idx]
		parentID := parentOf[c.NodeID]
		path := "/" + ingest.SlugifyPathSegment(titleIdentifier) + "/" + ingest.SlugifyPathSegment(c.Identifier)
		meta := ingest.NodeMeta{
			ID:              c.NodeID,
			SourceVersionID: unit.Metadata["sourceVersionId"],
			ParentID:        &parentID,
			LevelName:       c.LevelName,
			LevelIndex:      c.LevelIndex,
			SortOrder:       c.sortOrder,
			Name:            c.heading,
			Path:            path,
			ReadableID:      readableID(c.LevelName, c.Identifier),
			HeadingCitation: c.heading,
			SourceURL:       unit.URL,
			AccessedAt:      accessedAt,
		}

		if c.LevelName != "section" {
			nodes = append(nodes, ingest.NodePayload{Meta: meta})
			continue
		}

		r := sections[sectionI]
		sectionI++

		bodyText := strings.TrimSpace(r.Fields["body_blocks"] + " " + r.Fields["body_headings"])
		refs := crossref.Extract(bodyText, titleIdentifier, a.LinkPrefix)
		// References found in the amendment notes follow those of the
		// body; their offsets are positions within the notes text.
		refs = append(refs, crossref.Extract(r.Fields["amendment_notes"], titleIdentifier, a.LinkPrefix)...)
		crossRefs := make([]ingest.SectionCrossReference, 0, len(refs))
		for _, ref := range refs {
			cr := ingest.SectionCrossReference{Section: ref.Section, Offset: ref.Offset, Length: ref.Length}
			if ref.TitleNum != "" {
				cr.Title = &ref.TitleNum
			}
			if ref.Link != "" {
				cr.Link = &ref.Link
			}
			crossRefs = append(crossRefs, cr)
		}

		var blocks []ingest.ContentBlock
		if v := r.Fields["body_blocks"]; v != "" {
			blocks = append(blocks, ingest.ContentBlock{Type: "body", Content: v})
		}
		if v := r.Fields["body_headings"]; v != "" {
			blocks = append(blocks, ingest.ContentBlock{Type: "heading", Content: v})
		}
		if v := r.Fields["source_credit"]; v != "" {
			blocks = append(blocks, ingest.ContentBlock{Type: "source_credit", Content: v})
		}

		var amendments []string
		if v := r.Fields["amendment_notes"]; v != "" {
			amendments = append(amendments, v)
		}

		nodes = append(nodes, ingest.NodePayload{
			Meta: meta,
			Content: &ingest.SectionContent{
				Blocks: blocks,
				Metadata: ingest.SectionMetadata{
					CrossReferences: crossRefs,
					Amendments:      amendments,
				},
			},
		})
	}

	return nodes, nil, nil
}

func recordLevelName(recordName string) (string, bool) {
	for name, rn := range levelRecordNames {
		if rn == recordName {
			return name, true
		}
	}
	return "", false
}

func levelOrder(levelName string) int {
	for i, n := range LevelHierarchy {
		if n == levelName {
			return i + 1
		}
	}
	return len(LevelHierarchy)
}

// cleanHeading strips the trailing "]" that a repealed section's heading
// otherwise carries when the section's own number is bracketed, e.g.
// num "[§ 2]" paired with heading "Repealed.]" becomes "Repealed.".
func cleanHeading(num, heading string) string {
	if strings.HasPrefix(strings.TrimSpace(num), "[") && strings.HasSuffix(heading, "]") {
		return strings.TrimSuffix(heading, "]")
	}
	return heading
}

func readableID(levelName, identifier string) string {
	if levelName == "section" {
		return "§ " + identifier
	}
	return strings.ToUpper(levelName[:1]) + levelName[1:] + " " + identifier
}

func slugKey(identifier string, occurrence int) string {
	s := ingest.SlugifyPathSegment(identifier)
	if occurrence <= 1 {
		return s
	}
	return fmt.Sprintf("%s-dup%d", s, occurrence)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

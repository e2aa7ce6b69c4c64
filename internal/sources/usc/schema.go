// Package usc implements the XML source adapter for the United States
// Code (USLM XML), the spec's primary worked example: a MainTitle/meta
// title record, one record per organizational level in the USC hierarchy,
// and a SectionBase record carrying body text, source credits, and notes.
package usc

import "github.com/phulin/statute-ingest/internal/xmlspec"

// LevelHierarchy is the fixed, ordered USC organizational level sequence;
// every section sits one level deeper than the deepest level actually
// present in a given title.
var LevelHierarchy = []string{
	"title", "subtitle", "part", "subpart",
	"chapter", "subchapter", "division", "subdivision",
}

// levelRecordNames maps a USC level name to its schema record name.
var levelRecordNames = map[string]string{
	"subtitle":    "SubtitleLevel",
	"part":        "PartLevel",
	"subpart":     "SubpartLevel",
	"chapter":     "ChapterLevel",
	"subchapter":  "SubchapterLevel",
	"division":    "DivisionLevel",
	"subdivision": "SubdivisionLevel",
}

// buildSchema compiles the USC record set against in, interning every tag
// name the schema references.
func buildSchema(in *xmlspec.Interner) (*xmlspec.Schema, error) {
	t := func(name string) xmlspec.Tag { return in.Intern(name) }

	main, title, meta := t("main"), t("title"), t("meta")
	heading, num := t("heading"), t("num")
	note, quotedContent, sourceCredit := t("note"), t("quotedContent"), t("sourceCredit")
	section := t("section")

	levelTag := map[string]xmlspec.Tag{
		"subtitle":    t("subtitle"),
		"part":        t("part"),
		"subpart":     t("subpart"),
		"chapter":     t("chapter"),
		"subchapter":  t("subchapter"),
		"division":    t("division"),
		"subdivision": t("subdivision"),
	}

	bodyTags := []xmlspec.Tag{
		t("chapeau"), t("p"), t("subsection"), t("paragraph"),
		t("subparagraph"), t("clause"), t("subclause"), t("item"), t("subitem"),
	}

	var records []xmlspec.RecordSpec

	records = append(records, xmlspec.RecordSpec{
		Name: "MainTitle",
		Root: xmlspec.RootSpec{Tag: title, Guard: xmlspec.ParentTag(main)},
		Fields: []xmlspec.FieldSpec{
			{Name: "heading", Kind: xmlspec.FieldFirstText, Sels: []xmlspec.Selector{xmlspec.Child(heading)}},
		},
	})

	records = append(records, xmlspec.RecordSpec{
		Name: "MetaTitle",
		Root: xmlspec.RootSpec{Tag: meta, Guard: xmlspec.True()},
		Fields: []xmlspec.FieldSpec{
			{Name: "title", Kind: xmlspec.FieldFirstText, Sels: []xmlspec.Selector{xmlspec.Child(title)}},
		},
	})

	for _, name := range []string{"subtitle", "part", "subpart", "chapter", "subchapter", "division", "subdivision"} {
		tag := levelTag[name]
		records = append(records, xmlspec.RecordSpec{
			Name: levelRecordNames[name],
			Root: xmlspec.RootSpec{Tag: tag, Guard: xmlspec.True()},
			Fields: []xmlspec.FieldSpec{
				{Name: "identifier", Kind: xmlspec.FieldRootAttr, AttrName: "identifier"},
				{Name: "num", Kind: xmlspec.FieldFirstText, Sels: []xmlspec.Selector{xmlspec.Child(num)}},
				{Name: "heading", Kind: xmlspec.FieldFirstText, Sels: []xmlspec.Selector{xmlspec.Child(heading)}},
			},
		})
	}

	records = append(records, xmlspec.RecordSpec{
		Name: "SectionBase",
		Root: xmlspec.RootSpec{
			Tag: section,
			Guard: xmlspec.AndG(
				xmlspec.NotG(xmlspec.AncestorTag(note)),
				xmlspec.NotG(xmlspec.AncestorTag(quotedContent)),
			),
		},
		Fields: []xmlspec.FieldSpec{
			{Name: "identifier", Kind: xmlspec.FieldRootAttr, AttrName: "identifier"},
			{Name: "num", Kind: xmlspec.FieldFirstText, Sels: []xmlspec.Selector{xmlspec.Child(num)}},
			{Name: "num_value", Kind: xmlspec.FieldAttr, AttrName: "value", Sels: []xmlspec.Selector{xmlspec.Child(num)}},
			{Name: "heading", Kind: xmlspec.FieldFirstText, Sels: []xmlspec.Selector{xmlspec.Child(heading)}},
			{Name: "source_credit", Kind: xmlspec.FieldFirstText, Sels: []xmlspec.Selector{xmlspec.Child(sourceCredit)}},
			{
				Name:   "body_blocks",
				Kind:   xmlspec.FieldTextExcept,
				Sels:   descAll(bodyTags),
				Except: []xmlspec.Tag{note, sourceCredit, quotedContent},
			},
			{
				Name:   "body_headings",
				Kind:   xmlspec.FieldTextExcept,
				Sels:   []xmlspec.Selector{xmlspec.Desc(heading)},
				Except: []xmlspec.Tag{note, sourceCredit, quotedContent},
				// Desc matches every heading below the section, the
				// section's own direct-child heading included, so this
				// field starts with the section's heading (also captured
				// separately as "heading") followed by any sub-unit
				// headings.
			},
			{
				Name:   "amendment_notes",
				Kind:   xmlspec.FieldTextExcept,
				Sels:   []xmlspec.Selector{xmlspec.Desc(note)},
				Except: []xmlspec.Tag{quotedContent},
			},
			{
				Name:   "general_notes",
				Kind:   xmlspec.FieldTextExcept,
				Sels:   []xmlspec.Selector{xmlspec.Desc(note)},
				Except: []xmlspec.Tag{quotedContent},
			},
		},
	})

	return xmlspec.CompileRoots(records)
}

func descAll(tags []xmlspec.Tag) []xmlspec.Selector {
	sels := make([]xmlspec.Selector, len(tags))
	for i, t := range tags {
		sels[i] = xmlspec.Desc(t)
	}
	return sels
}

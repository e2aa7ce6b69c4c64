// Package crossref recognizes cross-references to other sections,
// optionally qualified by title, within rendered section body text: "section 1234",
// "sections 1, 2, and 3", "sections 10 to 20, inclusive", "section 5 of
// title 18", and "42 U.S.C. 1234".
package crossref

import (
	"regexp"
	"strings"
)

type tokenKind int

const (
	tokSectionNumber tokenKind = iota
	tokTitleNumber
	tokDesignator
	tokWord
	tokPunct
)

type token struct {
	kind       tokenKind
	value      string
	start, end int
}

var (
	sectionNumberRe = regexp.MustCompile(`^\d+[a-zA-Z]*(?:-\d+)?$`)
	titleNumberRe   = regexp.MustCompile(`^\d+$`)
	designatorRe    = regexp.MustCompile(`^\(([A-Za-z0-9ivxIVX]+)\)$`)
	tokenRe         = regexp.MustCompile(`\d+[a-zA-Z]*(?:-\d+)?|\([A-Za-z0-9ivxIVX]+\)|U\.?S\.?C\.?|[A-Za-z]+(?:/[A-Za-z]+)?|[,.;:§]`)
)

var qualifierKeywords = map[string]bool{
	"subsection": true, "subsections": true,
	"subdivision": true, "subdivisions": true,
	"paragraph": true, "paragraphs": true,
	"subparagraph": true, "subparagraphs": true,
	"clause": true, "clauses": true,
}

var sectionKeywords = map[string]bool{"section": true, "sections": true, "sec": true, "secs": true}
var titleKeywords = map[string]bool{"title": true}
var uscKeywords = map[string]bool{"usc": true, "u.s.c.": true, "u.s.c": true}
var separatorWords = map[string]bool{"and": true, "or": true, "and/or": true}

func tokenize(text string) []token {
	var tokens []token
	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		start, end := loc[0], loc[1]

		if raw == "§" {
			tokens = append(tokens, token{kind: tokWord, value: "section"})
			continue
		}

		lowerStripped := strings.ReplaceAll(strings.ToLower(raw), ".", "")
		if uscKeywords[lowerStripped] {
			tokens = append(tokens, token{kind: tokWord, value: "usc"})
			continue
		}

		if titleNumberRe.MatchString(raw) {
			tokens = append(tokens, token{kind: tokTitleNumber, value: raw, start: start, end: end})
			continue
		}

		if sectionNumberRe.MatchString(raw) {
			tokens = append(tokens, token{kind: tokSectionNumber, value: strings.ToLower(raw), start: start, end: end})
			continue
		}

		if m := designatorRe.FindStringSubmatch(raw); m != nil {
			tokens = append(tokens, token{kind: tokDesignator, value: m[1]})
			continue
		}

		if len(raw) == 1 {
			switch raw[0] {
			case ',', ';', '.', ':':
				tokens = append(tokens, token{kind: tokPunct, value: raw})
				continue
			}
		}

		tokens = append(tokens, token{kind: tokWord, value: strings.ToLower(raw)})
	}
	return tokens
}

func isQualifierKeyword(t token) bool { return t.kind == tokWord && qualifierKeywords[t.value] }
func isSectionKeyword(t token) bool   { return t.kind == tokWord && sectionKeywords[t.value] }
func isTitleKeyword(t token) bool     { return t.kind == tokWord && titleKeywords[t.value] }
func isUSCKeyword(t token) bool       { return t.kind == tokWord && t.value == "usc" }
func isWord(t token, expected string) bool { return t.kind == tokWord && t.value == expected }
func isDesignator(t token) bool       { return t.kind == tokDesignator }
func isTitleNumber(t token) bool      { return t.kind == tokTitleNumber }
func isSeparator(t token) bool {
	switch t.kind {
	case tokPunct:
		return t.value == "," || t.value == ";"
	case tokWord:
		return separatorWords[t.value]
	}
	return false
}

package crossref

import "fmt"

// Reference is one recognized mention of a section, located by byte
// offset within the text that was scanned.
type Reference struct {
	Section  string
	TitleNum string // empty when no title context applies
	Offset   int
	Length   int
	Link     string // empty when no link could be built
}

type mention struct {
	section  string
	titleNum string
	offset   int
	length   int
}

type sectionTarget struct {
	isRange  bool
	single   mention
	start    mention
	end      mention
}

// Extract scans text for cross-reference patterns, using defaultTitleNum
// as the title context for bare "section N" mentions (an adapter passes
// its own unit's title number here) and linkPrefix to build Link values
// ("" disables link construction, e.g. for sources with no stable section
// URL scheme).
func Extract(text, defaultTitleNum, linkPrefix string) []Reference {
	tokens := tokenize(text)
	var targets []sectionTarget
	index := 0

	for index < len(tokens) {
		t := tokens[index]

		if isTitleNumber(t) {
			if items, next, ok := parseTitleUSCReference(tokens, index); ok {
				targets = append(targets, items...)
				index = next
				continue
			}
		}

		if isQualifierKeyword(t) || isSectionKeyword(t) {
			if items, next, ok := parseReference(tokens, index, defaultTitleNum); ok {
				targets = append(targets, items...)
				index = next
				continue
			}
		}

		index++
	}

	return dedupe(buildReferences(targets, linkPrefix))
}

func parseTitleUSCReference(tokens []token, start int) ([]sectionTarget, int, bool) {
	if start >= len(tokens) || tokens[start].kind != tokTitleNumber {
		return nil, 0, false
	}
	titleValue := tokens[start].value
	if start+1 >= len(tokens) || !isUSCKeyword(tokens[start+1]) {
		return nil, 0, false
	}
	items, next, ok := parseSectionList(tokens, start+2, true, titleValue)
	if !ok {
		return nil, 0, false
	}
	return items, next, true
}

func parseReference(tokens []token, start int, defaultTitleNum string) ([]sectionTarget, int, bool) {
	if start >= len(tokens) {
		return nil, 0, false
	}
	t := tokens[start]

	if isQualifierKeyword(t) {
		next, ok := parseQualifierChainList(tokens, start)
		if !ok {
			return nil, 0, false
		}
		index := next
		if index >= len(tokens) || !isWord(tokens[index], "of") {
			return nil, 0, false
		}
		index++
		if index >= len(tokens) || !isSectionKeyword(tokens[index]) {
			return nil, 0, false
		}
		allowMultiple := tokens[index].value == "sections" || tokens[index].value == "secs"
		items, next2, ok := parseSectionListWithTitle(tokens, index+1, allowMultiple, defaultTitleNum)
		if !ok {
			return nil, 0, false
		}
		return items, next2, true
	}

	if isSectionKeyword(t) {
		items, next, ok := parseSectionListWithTitle(tokens, start+1, true, defaultTitleNum)
		if !ok {
			return nil, 0, false
		}
		return items, next, true
	}

	return nil, 0, false
}

func parseQualifierChainList(tokens []token, start int) (int, bool) {
	index, ok := parseQualifierChain(tokens, start)
	if !ok {
		return 0, false
	}
	for {
		sepIndex, consumed := consumeSeparators(tokens, index)
		if !consumed {
			break
		}
		if sepIndex >= len(tokens) || !isQualifierKeyword(tokens[sepIndex]) {
			break
		}
		next, ok := parseQualifierChain(tokens, sepIndex)
		if !ok {
			break
		}
		index = next
	}
	return index, true
}

func parseQualifierChain(tokens []token, start int) (int, bool) {
	index, ok := parseQualifier(tokens, start)
	if !ok {
		return 0, false
	}
	for index < len(tokens) && isWord(tokens[index], "of") {
		if index+1 >= len(tokens) || !isQualifierKeyword(tokens[index+1]) {
			break
		}
		next, ok := parseQualifier(tokens, index+1)
		if !ok {
			break
		}
		index = next
	}
	return index, true
}

func parseQualifier(tokens []token, start int) (int, bool) {
	if start >= len(tokens) || !isQualifierKeyword(tokens[start]) {
		return 0, false
	}
	return parseDesignatorList(tokens, start+1)
}

func parseDesignatorList(tokens []token, start int) (int, bool) {
	if start >= len(tokens) || !isDesignator(tokens[start]) {
		return 0, false
	}
	index := start + 1
	for {
		sepIndex, consumed := consumeSeparators(tokens, index)
		if !consumed {
			break
		}
		if sepIndex >= len(tokens) || !isDesignator(tokens[sepIndex]) {
			break
		}
		index = sepIndex + 1
	}
	return index, true
}

func parseSectionListWithTitle(tokens []token, start int, allowMultiple bool, defaultTitleNum string) ([]sectionTarget, int, bool) {
	items, next, ok := parseSectionList(tokens, start, allowMultiple, defaultTitleNum)
	if !ok {
		return nil, 0, false
	}
	index := next

	if index < len(tokens) && isWord(tokens[index], "of") &&
		index+1 < len(tokens) && isTitleKeyword(tokens[index+1]) &&
		index+2 < len(tokens) && isTitleNumber(tokens[index+2]) {
		titleNum := tokens[index+2].value
		index += 3
		for i := range items {
			if items[i].isRange {
				items[i].start.titleNum = titleNum
				items[i].end.titleNum = titleNum
			} else {
				items[i].single.titleNum = titleNum
			}
		}
	}

	return items, index, true
}

func parseSectionList(tokens []token, start int, allowMultiple bool, defaultTitleNum string) ([]sectionTarget, int, bool) {
	item, next, ok := parseSectionItem(tokens, start, defaultTitleNum)
	if !ok {
		return nil, 0, false
	}
	items := []sectionTarget{item}
	index := next

	if !allowMultiple {
		return items, index, true
	}

	for {
		sepIndex, consumed := consumeSeparators(tokens, index)
		if !consumed {
			break
		}
		nextIndex := sepIndex
		if nextIndex < len(tokens) && isSectionKeyword(tokens[nextIndex]) {
			nextIndex++
		}
		if nextIndex < len(tokens) && isTitleNumber(tokens[nextIndex]) &&
			nextIndex+1 < len(tokens) && isUSCKeyword(tokens[nextIndex+1]) {
			break
		}
		item, next, ok := parseSectionItem(tokens, nextIndex, defaultTitleNum)
		if !ok {
			break
		}
		items = append(items, item)
		index = next
	}

	return items, index, true
}

func parseSectionItem(tokens []token, start int, defaultTitleNum string) (sectionTarget, int, bool) {
	if start >= len(tokens) {
		return sectionTarget{}, 0, false
	}
	t := tokens[start]
	if t.kind != tokTitleNumber && t.kind != tokSectionNumber {
		return sectionTarget{}, 0, false
	}

	index := start + 1
	startMention := mention{section: t.value, titleNum: defaultTitleNum, offset: t.start, length: t.end - t.start}

	if index < len(tokens) && (isWord(tokens[index], "to") || isWord(tokens[index], "through")) {
		if index+1 >= len(tokens) {
			return sectionTarget{}, 0, false
		}
		endTok := tokens[index+1]
		if endTok.kind != tokTitleNumber && endTok.kind != tokSectionNumber {
			return sectionTarget{}, 0, false
		}
		index += 2

		if index < len(tokens) && tokens[index].kind == tokPunct && tokens[index].value == "," &&
			index+1 < len(tokens) && isWord(tokens[index+1], "inclusive") {
			index += 2
		} else if index < len(tokens) && isWord(tokens[index], "inclusive") {
			index++
		}

		endMention := mention{section: endTok.value, titleNum: defaultTitleNum, offset: endTok.start, length: endTok.end - endTok.start}
		return sectionTarget{isRange: true, start: startMention, end: endMention}, index, true
	}

	return sectionTarget{single: startMention}, index, true
}

func consumeSeparators(tokens []token, start int) (int, bool) {
	index := start
	consumed := false
	for index < len(tokens) && isSeparator(tokens[index]) {
		consumed = true
		index++
	}
	return index, consumed
}

func buildReferences(targets []sectionTarget, linkPrefix string) []Reference {
	var refs []Reference
	for _, t := range targets {
		if t.isRange {
			refs = append(refs, buildReference(t.start, linkPrefix), buildReference(t.end, linkPrefix))
		} else {
			refs = append(refs, buildReference(t.single, linkPrefix))
		}
	}
	return refs
}

func buildReference(m mention, linkPrefix string) Reference {
	r := Reference{Section: m.section, TitleNum: m.titleNum, Offset: m.offset, Length: m.length}
	if linkPrefix != "" && m.titleNum != "" {
		r.Link = fmt.Sprintf("%s/%s/%s", linkPrefix, m.titleNum, m.section)
	}
	return r
}

func dedupe(refs []Reference) []Reference {
	seen := make(map[string]bool, len(refs))
	out := make([]Reference, 0, len(refs))
	for _, r := range refs {
		key := fmt.Sprintf("%s:%s:%d:%d:%s", r.Section, r.TitleNum, r.Offset, r.Length, r.Link)
		if !seen[key] {
			seen[key] = true
			out = append(out, r)
		}
	}
	return out
}

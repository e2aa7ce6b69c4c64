package xmlspec

import "fmt"

// RootSpec names the element tag and guard that opens a scope for one
// record kind. Guard may be static (checked at element-open, before the
// scope exists) or dynamic (checked at scope-close, once attributes and
// first-text state have been captured) — never a mix of both, enforced by
// CompileRoots.
type RootSpec struct {
	Tag        Tag
	Guard      Guard
	RecordKind int // index into Schema.Records
}

// FieldKind identifies which reducer a FieldSpec instantiates per scope.
type FieldKind int

const (
	FieldFirstText FieldKind = iota
	FieldAllText
	FieldTextExcept
	FieldRootAttr
	FieldAttr
)

// FieldSpec declares one output field of a record: how its reducer is
// built, and the Selector (and, for FieldTextExcept, the exclusion tags)
// it is scoped to.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Sels     []Selector
	Except   []Tag
	AttrName string
}

// RecordSpec is one schema record: the RootSpec that opens its scope and
// the ordered fields populated while the scope is open.
type RecordSpec struct {
	Name   string
	Root   RootSpec
	Fields []FieldSpec
}

// Schema is a compiled, table-driven description of every record kind an
// Engine should extract from a document. Build one with CompileRoots once
// per source adapter (typically in an init func) and reuse it across
// parses; Schema carries no per-parse state.
type Schema struct {
	Records []RecordSpec
	// rootsByTag indexes Records by their RootSpec.Tag for O(1) dispatch
	// on element-open.
	rootsByTag map[Tag][]int
}

// CompileRoots validates records (guard trees must not mix static and
// dynamic leaves) and returns a ready-to-use Schema, or a SchemaViolation
// describing the first problem found.
func CompileRoots(records []RecordSpec) (*Schema, error) {
	s := &Schema{Records: records, rootsByTag: make(map[Tag][]int)}
	for i := range records {
		r := &records[i]
		r.Root.RecordKind = i
		g := r.Root.Guard
		if g.IsStatic() && g.IsDynamic() {
			return nil, &SchemaViolation{
				Record: r.Name,
				Reason: "guard mixes static (ancestor/parent) and dynamic (attr/first-text) predicates",
			}
		}
		s.rootsByTag[r.Root.Tag] = append(s.rootsByTag[r.Root.Tag], i)
	}
	return s, nil
}

// RootsForTag returns the record indices whose RootSpec.Tag equals tag.
func (s *Schema) RootsForTag(tag Tag) []int { return s.rootsByTag[tag] }

func (s *Schema) recordName(i int) string {
	if i < 0 || i >= len(s.Records) {
		return fmt.Sprintf("<record %d>", i)
	}
	return s.Records[i].Name
}

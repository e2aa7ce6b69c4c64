package xmlspec

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
)

// htmlSniffWindow bounds how many leading bytes Run peeks at before
// assuming the document is genuine XML and committing to the decoder.
const htmlSniffWindow = 4096

// Record is one emitted instance of a RecordSpec: the tag its scope was
// rooted at, and every field's reduced value in the order the schema
// declared them.
type Record struct {
	RecordName string
	RootTag    Tag
	Fields     map[string]string
	Present    map[string]bool
}

// fieldState is the common shape every reducer kind is adapted to so the
// engine can drive them uniformly without a type switch per event.
type fieldState interface {
	onStart(tag Tag, elemDepth, rootDepth int, attrs map[string]string)
	onText(data string)
	onEnd(tag Tag, elemDepth int)
	value() (string, bool)
}

type firstTextField struct{ r *FirstTextReducer }

func (f firstTextField) onStart(tag Tag, elemDepth, rootDepth int, _ map[string]string) {
	f.r.OnStart(tag, elemDepth, rootDepth)
}
func (f firstTextField) onText(data string)         { f.r.OnText(data) }
func (f firstTextField) onEnd(_ Tag, elemDepth int) { f.r.OnEnd(elemDepth) }
func (f firstTextField) value() (string, bool)      { return f.r.Take(), true }

type allTextField struct{ r *AllTextReducer }

func (f allTextField) onStart(tag Tag, elemDepth, rootDepth int, _ map[string]string) {
	f.r.OnStart(tag, elemDepth, rootDepth)
}
func (f allTextField) onText(data string)         { f.r.OnText(data) }
func (f allTextField) onEnd(_ Tag, elemDepth int) { f.r.OnEnd(elemDepth) }
func (f allTextField) value() (string, bool)      { return f.r.Take(), true }

type textExceptField struct{ r *TextExceptReducer }

func (f textExceptField) onStart(tag Tag, elemDepth, rootDepth int, _ map[string]string) {
	f.r.OnStart(tag, elemDepth, rootDepth)
}
func (f textExceptField) onText(data string)          { f.r.OnText(data) }
func (f textExceptField) onEnd(tag Tag, elemDepth int) { f.r.OnEnd(tag, elemDepth) }
func (f textExceptField) value() (string, bool)       { return f.r.Take(), true }

type attrField struct{ r *AttrReducer }

func (f attrField) onStart(tag Tag, elemDepth, rootDepth int, attrs map[string]string) {
	f.r.Capture(tag, elemDepth, rootDepth, attrs)
}
func (f attrField) onText(string)          {}
func (f attrField) onEnd(Tag, int)         {}
func (f attrField) value() (string, bool)  { return f.r.Take() }

func newFieldState(spec FieldSpec) fieldState {
	switch spec.Kind {
	case FieldFirstText:
		return firstTextField{NewFirstTextReducer(spec.Sels...)}
	case FieldAllText:
		return allTextField{NewAllTextReducer(spec.Sels...)}
	case FieldTextExcept:
		return textExceptField{NewTextExceptReducer(spec.Except, spec.Sels...)}
	case FieldRootAttr:
		return attrField{NewRootAttrReducer(spec.AttrName)}
	case FieldAttr:
		return attrField{NewAttrReducer(spec.AttrName, spec.Sels...)}
	default:
		panic(fmt.Sprintf("xmlspec: unknown field kind %d", spec.Kind))
	}
}

// collectFirstTextSelectors walks a guard tree collecting every Selector
// used by a FirstTextContainsCI leaf, so a scope can build the matching
// capture reducers up front.
func collectFirstTextSelectors(g Guard, out map[Selector]struct{}) {
	switch g.Kind {
	case GuardFirstTextContainsCI:
		out[g.Sel] = struct{}{}
	case GuardNot, GuardAnd, GuardOr:
		for _, c := range g.Children {
			collectFirstTextSelectors(c, out)
		}
	}
}

// activeScope is one currently-open record instance.
type activeScope struct {
	spec      *RecordSpec
	rootTag   Tag
	rootDepth int
	fields    map[string]fieldState
	rootAttrs map[string]string
	guardText map[Selector]*FirstTextReducer
}

func newActiveScope(spec *RecordSpec, rootTag Tag, rootDepth int, attrs map[string]string) *activeScope {
	s := &activeScope{
		spec:      spec,
		rootTag:   rootTag,
		rootDepth: rootDepth,
		fields:    make(map[string]fieldState, len(spec.Fields)),
		rootAttrs: attrs,
	}
	for _, f := range spec.Fields {
		s.fields[f.Name] = newFieldState(f)
	}
	if spec.Root.Guard.IsDynamic() {
		sels := make(map[Selector]struct{})
		collectFirstTextSelectors(spec.Root.Guard, sels)
		if len(sels) > 0 {
			s.guardText = make(map[Selector]*FirstTextReducer, len(sels))
			for sel := range sels {
				s.guardText[sel] = NewFirstTextReducer(sel)
			}
		}
	}
	return s
}

func (s *activeScope) onStart(tag Tag, elemDepth int, attrs map[string]string) {
	for _, f := range s.fields {
		f.onStart(tag, elemDepth, s.rootDepth, attrs)
	}
	for sel, r := range s.guardText {
		_ = sel
		r.OnStart(tag, elemDepth, s.rootDepth)
	}
}

func (s *activeScope) onText(data string) {
	for _, f := range s.fields {
		f.onText(data)
	}
	for _, r := range s.guardText {
		r.OnText(data)
	}
}

func (s *activeScope) onEnd(tag Tag, elemDepth int) {
	for _, f := range s.fields {
		f.onEnd(tag, elemDepth)
	}
	for _, r := range s.guardText {
		r.OnEnd(elemDepth)
	}
}

// shouldEmit evaluates the scope's root guard (which must be purely
// dynamic, purely static, or True — CompileRoots forbids a mix) now that
// the scope is closing and every dynamic leaf has captured state.
func (s *activeScope) shouldEmit() bool {
	g := s.spec.Root.Guard
	if !g.IsDynamic() {
		// Static guards were already checked at open time; True or a
		// satisfied static tree both mean "emit".
		return true
	}
	cap := &dynamicCapture{rootAttrs: s.rootAttrs, firstTextBySel: make(map[Selector]string, len(s.guardText))}
	for sel, r := range s.guardText {
		cap.firstTextBySel[sel] = r.Take()
	}
	return g.evalDynamic(cap)
}

func (s *activeScope) toRecord() Record {
	rec := Record{
		RecordName: s.spec.Name,
		RootTag:    s.rootTag,
		Fields:     make(map[string]string, len(s.fields)),
		Present:    make(map[string]bool, len(s.fields)),
	}
	for name, f := range s.fields {
		v, ok := f.value()
		rec.Fields[name] = v
		rec.Present[name] = ok
	}
	return rec
}

// Engine drives one parse of an XML document against a Schema, emitting
// one Record per closed scope whose root guard holds, in the order their
// root elements close (document order).
type Engine struct {
	Interner *Interner
	Schema   *Schema
}

// NewEngine returns an Engine bound to schema that dispatches through in,
// the Interner the schema's tags were interned with, so the Tags of
// document elements match the schema's Tags.
func NewEngine(in *Interner, schema *Schema) *Engine {
	return &Engine{Interner: in, Schema: schema}
}

// EmitFunc receives each Record as its scope closes, in document order.
// Returning a non-nil error aborts the parse; Run returns that error
// unchanged.
type EmitFunc func(Record) error

// Run streams r token by token, opening and closing scopes per the
// Schema, and calling emit for each record whose scope closes with its
// guard satisfied. The context is checked between tokens so a long parse
// can be cancelled promptly.
func (e *Engine) Run(ctx context.Context, r io.Reader, emit EmitFunc) error {
	br := bufio.NewReaderSize(r, htmlSniffWindow)
	if head, err := br.Peek(htmlSniffWindow); err == nil || err == io.EOF {
		if detail, ok := sniffHTML(head); ok {
			return &HTMLWhenXMLExpected{Detail: detail}
		}
	}
	dec := xml.NewDecoder(br)

	var stack []Tag
	ancestorCnt := make([]int32, max(e.Schema.tagUpperBound(), 64))
	var scopes []*activeScope
	depth := 0

	growAncestor := func(t Tag) {
		if int(t) >= len(ancestorCnt) {
			grown := make([]int32, int(t)+1)
			copy(grown, ancestorCnt)
			ancestorCnt = grown
		}
	}

	for {
		select {
		case <-ctx.Done():
			return &CancellationRequested{Err: ctx.Err()}
		default:
		}

		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if se, ok := err.(*xml.SyntaxError); ok {
				return &ParseError{Line: se.Line, Err: se}
			}
			return &ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			tag := e.Interner.Intern(t.Name.Local)
			growAncestor(tag)
			attrs := attrMap(t.Attr)

			depth++
			elemDepth := depth

			view := &stackView{stack: stack, ancestorCnt: ancestorCnt}
			for _, idx := range e.Schema.RootsForTag(tag) {
				spec := &e.Schema.Records[idx]
				g := spec.Root.Guard
				open := true
				if !g.IsDynamic() {
					open = g.evalStatic(view)
				}
				if open {
					scopes = append(scopes, newActiveScope(spec, tag, elemDepth, attrs))
				}
			}

			for _, sc := range scopes {
				sc.onStart(tag, elemDepth, attrs)
			}

			stack = append(stack, tag)
			ancestorCnt[tag]++

		case xml.EndElement:
			tag := e.Interner.Intern(t.Name.Local)
			elemDepth := depth

			for _, sc := range scopes {
				sc.onEnd(tag, elemDepth)
			}

			// Close every scope rooted at this exact element. Several
			// record kinds may share a root element, each with its own
			// scope; all of them sit at the tail of `scopes` because
			// they were the most recently opened unclosed ones.
			for len(scopes) > 0 {
				top := scopes[len(scopes)-1]
				if top.rootDepth != elemDepth || top.rootTag != tag {
					break
				}
				scopes = scopes[:len(scopes)-1]
				if top.shouldEmit() {
					if err := emit(top.toRecord()); err != nil {
						return err
					}
				}
			}

			if len(stack) > 0 {
				ancestorCnt[stack[len(stack)-1]]--
				stack = stack[:len(stack)-1]
			}
			depth--

		case xml.CharData:
			if len(scopes) == 0 {
				continue
			}
			text := string(t)
			for _, sc := range scopes {
				sc.onText(text)
			}
		}
	}

	return nil
}

// Parse is a convenience wrapper over Run that collects every emitted
// Record into a slice, for callers that do not need streaming output.
func (e *Engine) Parse(ctx context.Context, r io.Reader) ([]Record, error) {
	var out []Record
	err := e.Run(ctx, r, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

func (s *Schema) tagUpperBound() int {
	bound := 0
	for _, r := range s.Records {
		if int(r.Root.Tag) > bound {
			bound = int(r.Root.Tag)
		}
	}
	return bound + 1
}

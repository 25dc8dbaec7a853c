package redispb

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one navigation move inside a record: a field name, optionally
// followed by an index into a repeated field.
type Step struct {
	Field string
	Index int // -1 when absent
}

func (s Step) HasIndex() bool {
	return s.Index >= 0
}

func (s Step) String() string {
	if s.HasIndex() {
		return fmt.Sprintf("%s[%d]", s.Field, s.Index)
	}
	return s.Field
}

// Path addresses one sub-value of a record of a given message type.
// Zero steps address the whole record. A Path is parsed once per command
// and never re-parsed mid-resolution.
type Path struct {
	Type  string // fully-qualified message type name
	Steps []Step
	raw   string
}

func (p Path) IsRoot() bool {
	return len(p.Steps) == 0
}

func (p Path) String() string {
	return p.raw
}

// ParsePath parses a textual field path against the given type name.
//
// Grammar: path = segment ('.' segment)*; segment = name ('[' index ']')?.
// Empty text is the whole-record path and always valid. The parser is
// purely syntactic; schema-aware checks happen during resolution.
func ParsePath(typeName, text string) (Path, error) {
	p := Path{Type: typeName, raw: text}
	if text == "" {
		return p, nil
	}
	segs := strings.Split(text, ".")
	p.Steps = make([]Step, 0, len(segs))
	for _, seg := range segs {
		step, err := parseStep(text, seg)
		if err != nil {
			return Path{}, err
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

func parseStep(path, seg string) (Step, error) {
	if seg == "" {
		return Step{}, pathErrf(path, seg, ErrMalformedPath, "empty segment")
	}
	name, idx := seg, -1
	if i := strings.IndexByte(seg, '['); i >= 0 {
		if seg[len(seg)-1] != ']' {
			return Step{}, pathErrf(path, seg, ErrMalformedPath, "missing ']'")
		}
		name = seg[:i]
		if name == "" {
			return Step{}, pathErrf(path, seg, ErrMalformedPath, "missing field name")
		}
		n, err := strconv.ParseUint(seg[i+1:len(seg)-1], 10, 31)
		if err != nil {
			return Step{}, pathErrf(path, seg, ErrMalformedPath, "bad array index")
		}
		idx = int(n)
	}
	if strings.IndexByte(name, ']') >= 0 {
		return Step{}, pathErrf(path, seg, ErrMalformedPath, "stray ']'")
	}
	return Step{Field: name, Index: idx}, nil
}

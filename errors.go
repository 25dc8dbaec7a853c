package redispb

import (
	"errors"
	"fmt"
	"strings"
)

// Command failure kinds. Every error that crosses the dispatch boundary
// wraps exactly one of these, so the boundary can map each kind to its
// reply shape with errors.Is.
var (
	ErrWrongArity      = errors.New("wrong number of arguments")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrMalformedPath   = errors.New("malformed path")
	ErrInvalidPathStep = errors.New("invalid path step")
	ErrNoSuchField     = errors.New("no such field")
	ErrIndexOutOfRange = errors.New("array index out of range")
	ErrUnsupported     = errors.New("unsupported operation")
	ErrUnknownType     = errors.New("unknown message type")
)

// PathError reports a failure to parse a path or to walk it against a
// record, with enough context to tell the client which segment is at fault.
type PathError struct {
	Path string
	Seg  string
	Err  error
	Msg  string
}

func pathErrf(path, seg string, err error, format string, args ...any) error {
	return &PathError{path, seg, err, fmt.Sprintf(format, args...)}
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func (e *PathError) Error() string {
	var buf strings.Builder
	if e.Err != nil {
		buf.WriteString(e.Err.Error())
	}
	if e.Msg != "" {
		if buf.Len() > 0 {
			buf.WriteString(": ")
		}
		buf.WriteString(e.Msg)
	}
	if e.Seg != "" {
		fmt.Fprintf(&buf, ": %q", e.Seg)
	}
	if e.Path != "" && e.Path != e.Seg {
		fmt.Fprintf(&buf, " in path %q", e.Path)
	}
	return buf.String()
}

// ValueError reports a SET/APPEND value that does not fit the declared kind
// of its target field.
type ValueError struct {
	Field string
	Kind  string
	Err   error
	Msg   string
}

func valueErrf(field, kind string, err error, format string, args ...any) error {
	return &ValueError{field, kind, err, fmt.Sprintf(format, args...)}
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

func (e *ValueError) Error() string {
	var buf strings.Builder
	if e.Err != nil {
		buf.WriteString(e.Err.Error())
	}
	if e.Msg != "" {
		if buf.Len() > 0 {
			buf.WriteString(": ")
		}
		buf.WriteString(e.Msg)
	}
	if e.Field != "" {
		fmt.Fprintf(&buf, " for %s field %q", e.Kind, e.Field)
	}
	return buf.String()
}

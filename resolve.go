package redispb

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// FieldRef is the resolved result of walking a Path against a record: the
// owning sub-message plus the field descriptor of the addressed slot, with
// an element index when one element of a repeated field is addressed.
//
// A FieldRef is valid only for the command invocation that resolved it. It
// holds a position, not ownership; never retain one across a re-decode of
// the record.
type FieldRef struct {
	Parent protoreflect.Message
	Field  protoreflect.FieldDescriptor
	Index  int // -1 unless addressing one repeated element
}

// IsRecord reports whether the reference addresses the whole record (or a
// whole sub-message record when Field is nil after a zero-step path).
func (r FieldRef) IsRecord() bool {
	return r.Field == nil
}

func (r FieldRef) HasIndex() bool {
	return r.Index >= 0
}

// Kind returns the declared kind of the addressed field. Only valid for
// non-record references.
func (r FieldRef) Kind() protoreflect.Kind {
	return r.Field.Kind()
}

// Value reads the current value at the referenced slot.
func (r FieldRef) Value() protoreflect.Value {
	if r.Field == nil {
		return protoreflect.ValueOfMessage(r.Parent)
	}
	v := r.Parent.Get(r.Field)
	if r.HasIndex() {
		return v.List().Get(r.Index)
	}
	return v
}

type resolveMode struct {
	mutable      bool // create intermediate sub-messages while descending
	bareRepeated bool // allow a terminal repeated field without an index
}

// Resolve walks a parsed path against a record, read-only. The returned
// reference addresses the whole record for a zero-step path, otherwise a
// single field slot or repeated element.
func Resolve(msg protoreflect.Message, path Path) (FieldRef, error) {
	return resolvePath(msg, path, resolveMode{})
}

// ResolveMutable walks a parsed path for writing, creating intermediate
// sub-messages as needed so the returned slot can be assigned.
func ResolveMutable(msg protoreflect.Message, path Path) (FieldRef, error) {
	return resolvePath(msg, path, resolveMode{mutable: true})
}

func resolvePath(msg protoreflect.Message, path Path, mode resolveMode) (FieldRef, error) {
	if path.Type != "" {
		if actual := string(msg.Descriptor().FullName()); path.Type != actual {
			return FieldRef{}, pathErrf(path.String(), "", ErrTypeMismatch,
				"path type %q does not match record type %q", path.Type, actual)
		}
	}
	cur := msg
	for i, step := range path.Steps {
		fd := cur.Descriptor().Fields().ByName(protoreflect.Name(step.Field))
		if fd == nil {
			return FieldRef{}, pathErrf(path.String(), step.String(), ErrNoSuchField,
				"message %s has no field %q", cur.Descriptor().FullName(), step.Field)
		}
		if fd.IsMap() {
			return FieldRef{}, pathErrf(path.String(), step.String(), ErrUnsupported,
				"map fields cannot be addressed")
		}

		if i < len(path.Steps)-1 {
			next, err := descend(cur, fd, step, path, mode)
			if err != nil {
				return FieldRef{}, err
			}
			cur = next
			continue
		}

		return terminalRef(cur, fd, step, path, mode)
	}
	return FieldRef{Parent: cur, Index: -1}, nil
}

// descend moves from cur into the sub-message named by an intermediate
// step. Only message-kind fields can be descended into, and repeated ones
// only through an explicit index.
func descend(cur protoreflect.Message, fd protoreflect.FieldDescriptor, step Step, path Path, mode resolveMode) (protoreflect.Message, error) {
	if fd.Message() == nil {
		return nil, pathErrf(path.String(), step.String(), ErrInvalidPathStep,
			"cannot descend into %s field %q", fd.Kind(), step.Field)
	}
	if fd.IsList() {
		if !step.HasIndex() {
			return nil, pathErrf(path.String(), step.String(), ErrInvalidPathStep,
				"repeated field %q needs an index to descend", step.Field)
		}
		list := listOf(cur, fd, mode.mutable)
		if step.Index >= list.Len() {
			return nil, pathErrf(path.String(), step.String(), ErrIndexOutOfRange,
				"index %d out of range, %q has %d elements", step.Index, step.Field, list.Len())
		}
		return list.Get(step.Index).Message(), nil
	}
	if step.HasIndex() {
		return nil, pathErrf(path.String(), step.String(), ErrInvalidPathStep,
			"field %q is not repeated", step.Field)
	}
	if mode.mutable {
		return cur.Mutable(fd).Message(), nil
	}
	return cur.Get(fd).Message(), nil
}

func terminalRef(cur protoreflect.Message, fd protoreflect.FieldDescriptor, step Step, path Path, mode resolveMode) (FieldRef, error) {
	if step.HasIndex() {
		if !fd.IsList() {
			return FieldRef{}, pathErrf(path.String(), step.String(), ErrInvalidPathStep,
				"field %q is not repeated", step.Field)
		}
		list := listOf(cur, fd, mode.mutable)
		if step.Index >= list.Len() {
			return FieldRef{}, pathErrf(path.String(), step.String(), ErrIndexOutOfRange,
				"index %d out of range, %q has %d elements", step.Index, step.Field, list.Len())
		}
		return FieldRef{Parent: cur, Field: fd, Index: step.Index}, nil
	}
	if fd.IsList() {
		if !mode.bareRepeated {
			return FieldRef{}, pathErrf(path.String(), step.String(), ErrUnsupported,
				"cannot address whole repeated field %q, use an index", step.Field)
		}
		return FieldRef{Parent: cur, Field: fd, Index: -1}, nil
	}
	if fd.Kind() == protoreflect.EnumKind {
		return FieldRef{}, pathErrf(path.String(), step.String(), ErrUnsupported,
			"enum field %q cannot be addressed", step.Field)
	}
	return FieldRef{Parent: cur, Field: fd, Index: -1}, nil
}

func listOf(m protoreflect.Message, fd protoreflect.FieldDescriptor, mutable bool) protoreflect.List {
	if mutable {
		return m.Mutable(fd).List()
	}
	return m.Get(fd).List()
}

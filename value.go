package redispb

import (
	"strconv"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// parseFieldValue converts a client-supplied textual value into the typed
// value the referenced slot requires. Numeric kinds parse as decimal text,
// bool accepts the strconv forms, message kinds parse as JSON. A value that
// does not fit the declared kind fails with ErrTypeMismatch.
func parseFieldValue(cat *Catalog, fd protoreflect.FieldDescriptor, raw []byte) (protoreflect.Value, error) {
	s := string(raw)
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrTypeMismatch, "%q is not a 32-bit integer", s)
		}
		return protoreflect.ValueOfInt32(int32(n)), nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrTypeMismatch, "%q is not a 64-bit integer", s)
		}
		return protoreflect.ValueOfInt64(n), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrTypeMismatch, "%q is not an unsigned 32-bit integer", s)
		}
		return protoreflect.ValueOfUint32(uint32(n)), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrTypeMismatch, "%q is not an unsigned 64-bit integer", s)
		}
		return protoreflect.ValueOfUint64(n), nil
	case protoreflect.DoubleKind:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrTypeMismatch, "%q is not a number", s)
		}
		return protoreflect.ValueOfFloat64(f), nil
	case protoreflect.FloatKind:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrTypeMismatch, "%q is not a number", s)
		}
		return protoreflect.ValueOfFloat32(float32(f)), nil
	case protoreflect.BoolKind:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrTypeMismatch, "%q is not a bool", s)
		}
		return protoreflect.ValueOfBool(b), nil
	case protoreflect.StringKind:
		if !utf8.Valid(raw) {
			return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrTypeMismatch, "value is not valid UTF-8")
		}
		return protoreflect.ValueOfString(s), nil
	case protoreflect.BytesKind:
		return protoreflect.ValueOfBytes(raw), nil
	case protoreflect.MessageKind, protoreflect.GroupKind:
		msg := dynamicpb.NewMessage(fd.Message())
		opts := protojson.UnmarshalOptions{Resolver: cat.Types()}
		if err := opts.Unmarshal(raw, msg); err != nil {
			return protoreflect.Value{}, valueErrf(string(fd.Name()), "message", ErrTypeMismatch, "bad JSON for %s: %v", fd.Message().FullName(), err)
		}
		return protoreflect.ValueOfMessage(msg), nil
	case protoreflect.EnumKind:
		return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrUnsupported, "enum fields cannot be written")
	default:
		return protoreflect.Value{}, valueErrf(string(fd.Name()), fd.Kind().String(), ErrUnsupported, "unsupported field kind")
	}
}

// Assign writes a typed value into the referenced slot.
func (r FieldRef) Assign(v protoreflect.Value) {
	if r.Field == nil {
		panic("cannot assign to a whole-record reference")
	}
	if r.HasIndex() {
		r.Parent.Mutable(r.Field).List().Set(r.Index, v)
		return
	}
	r.Parent.Set(r.Field, v)
}

// AppendElem appends a typed value to the referenced repeated field.
func (r FieldRef) AppendElem(v protoreflect.Value) int {
	list := r.Parent.Mutable(r.Field).List()
	list.Append(v)
	return list.Len()
}

// Clear removes whatever the reference addresses: a field is cleared on its
// parent, a single repeated element is removed with the tail shifted down.
func (r FieldRef) Clear() {
	if r.Field == nil {
		panic("cannot clear a whole-record reference")
	}
	if !r.HasIndex() {
		r.Parent.Clear(r.Field)
		return
	}
	list := r.Parent.Mutable(r.Field).List()
	for j := r.Index; j+1 < list.Len(); j++ {
		list.Set(j, list.Get(j+1))
	}
	list.Truncate(list.Len() - 1)
}

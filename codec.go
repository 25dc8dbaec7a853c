package redispb

import (
	"strconv"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// EncodeReply renders the value at a resolved reference as a store reply.
//
// Whole records and message-kind fields become their JSON form; integral
// kinds and bool become integer replies; floating kinds become a plain
// decimal status line; string and bytes become binary-safe bulk strings.
// The switch is exhaustive over protoreflect kinds so a new kind cannot
// slip through silently.
func EncodeReply(ref FieldRef) (Reply, error) {
	if ref.IsRecord() {
		return BulkReply(EncodeJSON(ref.Parent)), nil
	}
	fd := ref.Field
	if fd.IsList() && !ref.HasIndex() {
		return Reply{}, pathErrf("", string(fd.Name()), ErrUnsupported,
			"cannot encode whole repeated field %q", fd.Name())
	}

	v := ref.Value()
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return IntReply(v.Int()), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return IntReply(int64(v.Uint())), nil
	case protoreflect.BoolKind:
		if v.Bool() {
			return IntReply(1), nil
		}
		return IntReply(0), nil
	case protoreflect.DoubleKind:
		return StatusReply(strconv.FormatFloat(v.Float(), 'g', -1, 64)), nil
	case protoreflect.FloatKind:
		return StatusReply(strconv.FormatFloat(v.Float(), 'g', -1, 32)), nil
	case protoreflect.StringKind:
		return BulkString(v.String()), nil
	case protoreflect.BytesKind:
		return BulkReply(v.Bytes()), nil
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return BulkReply(EncodeJSON(v.Message())), nil
	case protoreflect.EnumKind:
		return Reply{}, pathErrf("", string(fd.Name()), ErrUnsupported,
			"enum field %q cannot be encoded", fd.Name())
	default:
		return Reply{}, pathErrf("", string(fd.Name()), ErrUnsupported,
			"field %q has unsupported kind %s", fd.Name(), fd.Kind())
	}
}

package redispb

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Len reports the length of what pathText addresses: element count for a
// repeated field, byte length for string and bytes fields, populated field
// count for a message or the whole record. Absent keys and non-record
// values reply nil, mirroring Get.
func (tx *Tx) Len(key []byte, pathText string) (Reply, error) {
	data := tx.stx.Get(key)
	if data == nil || !isRecord(data) {
		return NilReply(), nil
	}
	msg, err := unmarshalRecord(tx.db.cat, data)
	if err != nil {
		return Reply{}, err
	}
	path, err := ParsePath("", pathText)
	if err != nil {
		return Reply{}, err
	}
	ref, err := resolvePath(msg, path, resolveMode{bareRepeated: true})
	if err != nil {
		return Reply{}, err
	}

	if ref.IsRecord() {
		return IntReply(populatedCount(ref.Parent)), nil
	}
	fd := ref.Field
	if fd.IsList() && !ref.HasIndex() {
		return IntReply(int64(ref.Parent.Get(fd).List().Len())), nil
	}
	switch fd.Kind() {
	case protoreflect.StringKind:
		return IntReply(int64(len(ref.Value().String()))), nil
	case protoreflect.BytesKind:
		return IntReply(int64(len(ref.Value().Bytes()))), nil
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return IntReply(populatedCount(ref.Value().Message())), nil
	default:
		return Reply{}, pathErrf(pathText, string(fd.Name()), ErrUnsupported,
			"%s field %q has no length", fd.Kind(), fd.Name())
	}
}

func populatedCount(msg protoreflect.Message) int64 {
	var n int64
	msg.Range(func(protoreflect.FieldDescriptor, protoreflect.Value) bool {
		n++
		return true
	})
	return n
}

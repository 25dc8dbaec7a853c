package redispb

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// DescribeSchema renders a registered message type as proto-style text, one
// field per line in declaration order, the way protoc prints a definition.
func DescribeSchema(cat *Catalog, typeName string) (Reply, error) {
	md, err := cat.Lookup(typeName)
	if err != nil {
		return Reply{}, err
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "message %s {\n", md.Name())
	fields := md.Fields()
	for i := 0; i < fields.Len(); i++ {
		appendFieldDef(&buf, fields.Get(i))
	}
	buf.WriteString("}\n")
	return BulkString(buf.String()), nil
}

func appendFieldDef(buf *strings.Builder, fd protoreflect.FieldDescriptor) {
	buf.WriteString("  ")
	switch {
	case fd.IsMap():
		fmt.Fprintf(buf, "map<%s, %s>", typeLabel(fd.MapKey()), typeLabel(fd.MapValue()))
	case fd.IsList():
		buf.WriteString("repeated ")
		buf.WriteString(typeLabel(fd))
	default:
		buf.WriteString(typeLabel(fd))
	}
	fmt.Fprintf(buf, " %s = %d;\n", fd.Name(), fd.Number())
}

// typeLabel names a field's type the way a proto source would: full names
// for messages and enums, the kind keyword for scalars.
func typeLabel(fd protoreflect.FieldDescriptor) string {
	switch {
	case fd.Message() != nil:
		return string(fd.Message().FullName())
	case fd.Enum() != nil:
		return string(fd.Enum().FullName())
	default:
		return fd.Kind().String()
	}
}

// ListSchemas replies with every registered type name, sorted.
func ListSchemas(cat *Catalog) Reply {
	names := cat.TypeNames()
	items := make([]Reply, len(names))
	for i, n := range names {
		items[i] = BulkString(n)
	}
	return ArrayReply(items...)
}

package redispb

import (
	"encoding/base64"
	"math"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// EncodeJSON renders a message as compact JSON. Output is deterministic:
// populated fields only, in descriptor declaration order, map entries
// sorted by key. Two encodings of equal record contents are byte-identical.
//
// Field names are the proto names, matching the names path expressions use.
// 64-bit integers are emitted as JSON numbers, bytes as std base64 strings,
// enums as their value names.
func EncodeJSON(msg protoreflect.Message) []byte {
	return appendJSONMessage(nil, msg)
}

func appendJSONMessage(buf []byte, msg protoreflect.Message) []byte {
	buf = append(buf, '{')
	fields := msg.Descriptor().Fields()
	first := true
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if !msg.Has(fd) {
			continue
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = appendJSONString(buf, string(fd.Name()))
		buf = append(buf, ':')
		buf = appendJSONField(buf, msg.Get(fd), fd)
	}
	return append(buf, '}')
}

func appendJSONField(buf []byte, v protoreflect.Value, fd protoreflect.FieldDescriptor) []byte {
	switch {
	case fd.IsMap():
		return appendJSONMap(buf, v.Map(), fd)
	case fd.IsList():
		list := v.List()
		buf = append(buf, '[')
		for i := 0; i < list.Len(); i++ {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendJSONSingular(buf, list.Get(i), fd)
		}
		return append(buf, ']')
	default:
		return appendJSONSingular(buf, v, fd)
	}
}

func appendJSONSingular(buf []byte, v protoreflect.Value, fd protoreflect.FieldDescriptor) []byte {
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return strconv.AppendInt(buf, v.Int(), 10)
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return strconv.AppendUint(buf, v.Uint(), 10)
	case protoreflect.BoolKind:
		return strconv.AppendBool(buf, v.Bool())
	case protoreflect.DoubleKind:
		return appendJSONFloat(buf, v.Float(), 64)
	case protoreflect.FloatKind:
		return appendJSONFloat(buf, v.Float(), 32)
	case protoreflect.StringKind:
		return appendJSONString(buf, v.String())
	case protoreflect.BytesKind:
		return appendJSONString(buf, base64.StdEncoding.EncodeToString(v.Bytes()))
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return appendJSONString(buf, string(ev.Name()))
		}
		return strconv.AppendInt(buf, int64(v.Enum()), 10)
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return appendJSONMessage(buf, v.Message())
	default:
		panic("unhandled field kind " + fd.Kind().String())
	}
}

func appendJSONFloat(buf []byte, f float64, bits int) []byte {
	switch {
	case math.IsNaN(f):
		return append(buf, `"NaN"`...)
	case math.IsInf(f, 1):
		return append(buf, `"Infinity"`...)
	case math.IsInf(f, -1):
		return append(buf, `"-Infinity"`...)
	}
	return strconv.AppendFloat(buf, f, 'g', -1, bits)
}

func appendJSONString(buf []byte, s string) []byte {
	quoted, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return append(buf, quoted...)
}

func appendJSONMap(buf []byte, m protoreflect.Map, fd protoreflect.FieldDescriptor) []byte {
	keyFd, valFd := fd.MapKey(), fd.MapValue()
	keys := make([]protoreflect.MapKey, 0, m.Len())
	m.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		keys = append(keys, k)
		return true
	})
	sortMapKeys(keyFd, keys)

	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONMapKey(buf, k, keyFd)
		buf = append(buf, ':')
		buf = appendJSONSingular(buf, m.Get(k), valFd)
	}
	return append(buf, '}')
}

func appendJSONMapKey(buf []byte, k protoreflect.MapKey, keyFd protoreflect.FieldDescriptor) []byte {
	switch keyFd.Kind() {
	case protoreflect.StringKind:
		return appendJSONString(buf, k.String())
	case protoreflect.BoolKind:
		if k.Bool() {
			return append(buf, `"true"`...)
		}
		return append(buf, `"false"`...)
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		buf = append(buf, '"')
		buf = strconv.AppendUint(buf, k.Uint(), 10)
		return append(buf, '"')
	default:
		buf = append(buf, '"')
		buf = strconv.AppendInt(buf, k.Int(), 10)
		return append(buf, '"')
	}
}

func sortMapKeys(keyFd protoreflect.FieldDescriptor, keys []protoreflect.MapKey) {
	switch keyFd.Kind() {
	case protoreflect.StringKind:
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	case protoreflect.BoolKind:
		sort.Slice(keys, func(i, j int) bool { return !keys[i].Bool() && keys[j].Bool() })
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Uint() < keys[j].Uint() })
	default:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	}
}

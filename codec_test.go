package redispb

import (
	"errors"
	"math"
	"testing"

	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestEncodeJSONScenario(t *testing.T) {
	cat := testCatalog(t)
	msg := must(cat.NewRecord("test.Person"))
	fset(msg, "name", "Ann")
	fset(msg, "age", int32(30))
	fappend(msg, "tags", "x", "y")

	deepEqual(t, string(EncodeJSON(msg)), `{"name":"Ann","age":30,"tags":["x","y"]}`)
}

func TestEncodeJSONAllKinds(t *testing.T) {
	cat := testCatalog(t)
	msg := must(cat.NewRecord("test.Person"))
	fset(msg, "name", "Ann")
	fset(msg, "age", int32(30))
	fappend(msg, "tags", "x", "y")
	fset(fmut(msg, "address"), "city", "L")
	ph := fappendMsg(msg, "phones")
	fset(ph, "number", "1")
	fset(ph, "color", protoreflect.EnumNumber(2))
	sc := msg.Mutable(msg.Descriptor().Fields().ByName("scores")).Map()
	sc.Set(protoreflect.ValueOfString("b").MapKey(), protoreflect.ValueOfInt32(2))
	sc.Set(protoreflect.ValueOfString("a").MapKey(), protoreflect.ValueOfInt32(1))
	fset(msg, "active", true)
	fset(msg, "rating", 3.5)
	fset(msg, "ratio", float32(0.25))
	fset(msg, "big", int64(-7))
	fset(msg, "count", uint32(3))
	fset(msg, "total", uint64(42))
	fset(msg, "blob", []byte{0x01, 0x02})
	fset(msg, "color", protoreflect.EnumNumber(1))
	fset(msg, "delta", int32(-5))
	fset(msg, "stamp", uint64(7))

	want := `{"name":"Ann","age":30,"tags":["x","y"],"address":{"city":"L"},` +
		`"phones":[{"number":"1","color":"GREEN"}],"scores":{"a":1,"b":2},` +
		`"active":true,"rating":3.5,"ratio":0.25,"big":-7,"count":3,"total":42,` +
		`"blob":"AQI=","color":"RED","delta":-5,"stamp":7}`
	deepEqual(t, string(EncodeJSON(msg)), want)
}

func TestEncodeJSONDeterministic(t *testing.T) {
	cat := testCatalog(t)

	build := func(reverse bool) protoreflect.Message {
		msg := must(cat.NewRecord("test.Person"))
		sc := msg.Mutable(msg.Descriptor().Fields().ByName("scores")).Map()
		keys := []string{"alpha", "beta", "gamma", "delta"}
		if reverse {
			for i := len(keys) - 1; i >= 0; i-- {
				sc.Set(protoreflect.ValueOfString(keys[i]).MapKey(), protoreflect.ValueOfInt32(int32(i)))
			}
			fset(msg, "age", int32(30))
			fset(msg, "name", "Ann")
		} else {
			fset(msg, "name", "Ann")
			fset(msg, "age", int32(30))
			for i, k := range keys {
				sc.Set(protoreflect.ValueOfString(k).MapKey(), protoreflect.ValueOfInt32(int32(i)))
			}
		}
		return msg
	}

	a := EncodeJSON(build(false))
	b := EncodeJSON(build(true))
	deepEqual(t, string(a), string(b))
	deepEqual(t, string(EncodeJSON(build(false))), string(a))
}

func TestEncodeJSONEmptyAndUnset(t *testing.T) {
	cat := testCatalog(t)
	msg := must(cat.NewRecord("test.Person"))
	deepEqual(t, string(EncodeJSON(msg)), `{}`)

	// proto3 zero values are unpopulated and stay omitted
	fset(msg, "age", int32(0))
	fset(msg, "name", "")
	deepEqual(t, string(EncodeJSON(msg)), `{}`)

	// a present but empty sub-message renders as an empty object
	fmut(msg, "address")
	deepEqual(t, string(EncodeJSON(msg)), `{"address":{}}`)
}

func TestEncodeJSONFloatSpecials(t *testing.T) {
	cat := testCatalog(t)
	msg := must(cat.NewRecord("test.Person"))
	fset(msg, "rating", math.NaN())
	deepEqual(t, string(EncodeJSON(msg)), `{"rating":"NaN"}`)

	fset(msg, "rating", math.Inf(1))
	deepEqual(t, string(EncodeJSON(msg)), `{"rating":"Infinity"}`)

	fset(msg, "rating", math.Inf(-1))
	deepEqual(t, string(EncodeJSON(msg)), `{"rating":"-Infinity"}`)
}

func TestEncodeJSONStringEscaping(t *testing.T) {
	cat := testCatalog(t)
	msg := must(cat.NewRecord("test.Person"))
	fset(msg, "name", "a\"b\\c\nd")
	deepEqual(t, string(EncodeJSON(msg)), `{"name":"a\"b\\c\nd"}`)
}

func TestEncodeReplyScalars(t *testing.T) {
	cat := testCatalog(t)
	msg := testPerson(t, cat)
	fset(msg, "active", true)
	fset(msg, "rating", 3.5)
	fset(msg, "ratio", float32(0.25))
	fset(msg, "big", int64(-7))
	fset(msg, "total", uint64(42))
	fset(msg, "blob", []byte{0xDE, 0xAD})

	tests := []struct {
		path string
		want Reply
	}{
		{"age", IntReply(30)},
		{"big", IntReply(-7)},
		{"total", IntReply(42)},
		{"active", IntReply(1)},
		{"rating", StatusReply("3.5")},
		{"ratio", StatusReply("0.25")},
		{"name", BulkString("alice")},
		{"blob", BulkReply([]byte{0xDE, 0xAD})},
		{"tags[0]", BulkString("admin")},
	}
	for _, tt := range tests {
		ref := must(Resolve(msg, must(ParsePath("", tt.path))))
		got := must(EncodeReply(ref))
		if !replyEqual(got, tt.want) {
			t.Errorf("** EncodeReply(%q) = %v, wanted %v", tt.path, got, tt.want)
		}
	}
}

func TestEncodeReplyUnsetScalarIsZero(t *testing.T) {
	cat := testCatalog(t)
	msg := must(cat.NewRecord("test.Person"))
	ref := must(Resolve(msg, must(ParsePath("", "age"))))
	deepEqual(t, must(EncodeReply(ref)), IntReply(0))
}

func TestEncodeReplyMessage(t *testing.T) {
	cat := testCatalog(t)
	msg := testPerson(t, cat)
	fset(fmut(msg, "address"), "city", "Lisbon")

	ref := must(Resolve(msg, must(ParsePath("", "address"))))
	deepEqual(t, must(EncodeReply(ref)), BulkString(`{"city":"Lisbon"}`))

	ref = must(Resolve(msg, must(ParsePath("", ""))))
	deepEqual(t, must(EncodeReply(ref)),
		BulkString(`{"name":"alice","age":30,"tags":["admin","staff"],"address":{"city":"Lisbon"}}`))
}

func TestEncodeReplyUnsupported(t *testing.T) {
	cat := testCatalog(t)
	msg := testPerson(t, cat)
	fields := msg.Descriptor().Fields()

	ref := FieldRef{Parent: msg, Field: fields.ByName("color"), Index: -1}
	_, err := EncodeReply(ref)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("** enum reply err = %v, wanted ErrUnsupported", err)
	}

	ref = FieldRef{Parent: msg, Field: fields.ByName("tags"), Index: -1}
	_, err = EncodeReply(ref)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("** bare repeated reply err = %v, wanted ErrUnsupported", err)
	}
}

func replyEqual(a, b Reply) bool {
	if a.Kind != b.Kind || a.Int != b.Int || string(a.Str) != string(b.Str) {
		return false
	}
	if len(a.Array) != len(b.Array) {
		return false
	}
	for i := range a.Array {
		if !replyEqual(a.Array[i], b.Array[i]) {
			return false
		}
	}
	return true
}

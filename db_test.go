package redispb

import (
	"context"
	"encoding/hex"
	"os"
	"reflect"
	"strings"
	"testing"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const testSchemaSource = `
syntax = "proto3";
package test;

enum Color {
  COLOR_UNSPECIFIED = 0;
  RED = 1;
  GREEN = 2;
  BLUE = 3;
}

message Address {
  string city = 1;
  string street = 2;
  int32 zip = 3;
  repeated string lines = 4;
}

message Phone {
  string number = 1;
  Color color = 2;
}

message Person {
  string name = 1;
  int32 age = 2;
  repeated string tags = 3;
  Address address = 4;
  repeated Phone phones = 5;
  map<string, int32> scores = 6;
  bool active = 7;
  double rating = 8;
  float ratio = 9;
  int64 big = 10;
  uint32 count = 11;
  uint64 total = 12;
  bytes blob = 13;
  Color color = 14;
  sint32 delta = 15;
  fixed64 stamp = 16;
}
`

func testCatalog(t testing.TB) *Catalog {
	t.Helper()
	cat := NewCatalog()
	ensure(cat.RegisterSource(context.Background(), "test.proto", testSchemaSource))
	cat.Seal()
	return cat
}

func setup(t testing.TB) *DB {
	t.Helper()

	dbFile := must(os.CreateTemp("", "pb_test_*.db"))
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db := must(Open(dbFile.Name(), testCatalog(t), Options{
		IsTesting: true,
	}))
	t.Cleanup(db.Close)
	return db
}

func setupMem(t testing.TB) *DB {
	t.Helper()
	db := must(Open("", testCatalog(t), Options{IsTesting: true}))
	t.Cleanup(db.Close)
	return db
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

func isnil[T any, P ~*T](t testing.TB, a P) {
	if a != nil {
		t.Helper()
		t.Errorf("** got &%v, wanted nil", *a)
	}
}

func isnonnil[T any](t testing.TB, a *T) {
	if a == nil {
		t.Helper()
		t.Errorf("** got nil %T, wanted non-nil", a)
	}
}

func x(data string) []byte {
	data = strings.ReplaceAll(data, " ", "")
	return must(hex.DecodeString(data))
}

func fset(m protoreflect.Message, name string, v any) {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("no field " + name)
	}
	m.Set(fd, protoreflect.ValueOf(v))
}

func fappend(m protoreflect.Message, name string, vals ...any) {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("no field " + name)
	}
	list := m.Mutable(fd).List()
	for _, v := range vals {
		list.Append(protoreflect.ValueOf(v))
	}
}

func fmut(m protoreflect.Message, name string) protoreflect.Message {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("no field " + name)
	}
	return m.Mutable(fd).Message()
}

func fappendMsg(m protoreflect.Message, name string) protoreflect.Message {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("no field " + name)
	}
	list := m.Mutable(fd).List()
	v := list.NewElement()
	list.Append(v)
	return v.Message()
}

func testPerson(t testing.TB, cat *Catalog) *dynamicpb.Message {
	t.Helper()
	msg := must(cat.NewRecord("test.Person"))
	fset(msg, "name", "alice")
	fset(msg, "age", int32(30))
	fappend(msg, "tags", "admin", "staff")
	return msg
}

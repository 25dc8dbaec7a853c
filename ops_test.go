package redispb

import (
	"errors"
	"testing"
)

func txGet(db *DB, key, path string) (Reply, error) {
	var rep Reply
	err := db.Tx(false, func(tx *Tx) error {
		var e error
		rep, e = tx.Get([]byte(key), path)
		return e
	})
	return rep, err
}

func txSet(db *DB, key, typeName, path, value string) error {
	return db.Tx(true, func(tx *Tx) error {
		return tx.Set([]byte(key), typeName, path, []byte(value))
	})
}

func txDel(db *DB, key, path string) (int64, error) {
	var n int64
	err := db.Tx(true, func(tx *Tx) error {
		var e error
		n, e = tx.Del([]byte(key), path)
		return e
	})
	return n, err
}

func txLen(db *DB, key, path string) (Reply, error) {
	var rep Reply
	err := db.Tx(false, func(tx *Tx) error {
		var e error
		rep, e = tx.Len([]byte(key), path)
		return e
	})
	return rep, err
}

func txAppend(db *DB, key, typeName, path, value string) (int64, error) {
	var n int64
	err := db.Tx(true, func(tx *Tx) error {
		var e error
		n, e = tx.Append([]byte(key), typeName, path, []byte(value))
		return e
	})
	return n, err
}

func txType(db *DB, key string) (string, bool) {
	var name string
	var ok bool
	ensure(db.Tx(false, func(tx *Tx) error {
		var e error
		name, ok, e = tx.RecordType([]byte(key))
		return e
	}))
	return name, ok
}

func TestOpScenario(t *testing.T) {
	db := setupMem(t)

	ensure(txSet(db, "k", "test.Person", "", `{"name":"Ann","age":30,"tags":["x","y"]}`))

	rep, err := txGet(db, "k", "")
	ensure(err)
	deepEqual(t, rep, BulkString(`{"name":"Ann","age":30,"tags":["x","y"]}`))

	rep, err = txGet(db, "k", "age")
	ensure(err)
	deepEqual(t, rep, IntReply(30))

	rep, err = txGet(db, "k", "tags[1]")
	ensure(err)
	deepEqual(t, rep, BulkString("y"))

	_, err = txGet(db, "k", "tags[9]")
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("** tags[9] err = %v, wanted ErrIndexOutOfRange", err)
	}

	name, ok := txType(db, "k")
	deepEqual(t, ok, true)
	deepEqual(t, name, "test.Person")
}

func TestOpGetIdempotent(t *testing.T) {
	db := setupMem(t)
	ensure(txSet(db, "k", "test.Person", "", `{"name":"Ann","age":30}`))

	a, err := txGet(db, "k", "")
	ensure(err)
	b, err := txGet(db, "k", "")
	ensure(err)
	deepEqual(t, string(a.Str), string(b.Str))
}

func TestOpGetNilBoundaries(t *testing.T) {
	db := setupMem(t)

	rep, err := txGet(db, "missing", "")
	ensure(err)
	deepEqual(t, rep, NilReply())

	ensure(db.Tx(true, func(tx *Tx) error { return tx.RawPut([]byte("raw"), []byte("hello")) }))
	rep, err = txGet(db, "raw", "age")
	ensure(err)
	deepEqual(t, rep, NilReply())

	name, ok := txType(db, "raw")
	deepEqual(t, ok, false)
	deepEqual(t, name, "")
}

func TestOpSetField(t *testing.T) {
	db := setupMem(t)

	// creates the record from scratch
	ensure(txSet(db, "p", "test.Person", "name", "Ann"))
	rep, err := txGet(db, "p", "name")
	ensure(err)
	deepEqual(t, rep, BulkString("Ann"))

	// nested path materializes intermediate messages
	ensure(txSet(db, "p", "test.Person", "address.city", "Lisbon"))
	rep, err = txGet(db, "p", "address.city")
	ensure(err)
	deepEqual(t, rep, BulkString("Lisbon"))

	// numeric and float kinds parse from text
	ensure(txSet(db, "p", "test.Person", "age", "41"))
	ensure(txSet(db, "p", "test.Person", "rating", "4.5"))
	rep, err = txGet(db, "p", "age")
	ensure(err)
	deepEqual(t, rep, IntReply(41))
	rep, err = txGet(db, "p", "rating")
	ensure(err)
	deepEqual(t, rep, StatusReply("4.5"))
}

func TestOpSetRepeatedElement(t *testing.T) {
	db := setupMem(t)
	ensure(txSet(db, "p", "test.Person", "", `{"tags":["a","b","c"]}`))

	ensure(txSet(db, "p", "test.Person", "tags[1]", "B"))
	rep, err := txGet(db, "p", "")
	ensure(err)
	deepEqual(t, rep, BulkString(`{"tags":["a","B","c"]}`))

	err = txSet(db, "p", "test.Person", "tags[9]", "X")
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("** tags[9] err = %v, wanted ErrIndexOutOfRange", err)
	}
}

func TestOpSetAllOrNothing(t *testing.T) {
	db := setupMem(t)
	ensure(txSet(db, "p", "test.Person", "", `{"name":"Ann","age":30}`))
	before, err := txGet(db, "p", "")
	ensure(err)

	for _, tt := range []struct {
		path, value string
		want        error
	}{
		{"age", "not a number", ErrTypeMismatch},
		{"nope", "x", ErrNoSuchField},
		{"tags[5]", "x", ErrIndexOutOfRange},
		{"color", "RED", ErrUnsupported},
	} {
		err := txSet(db, "p", "test.Person", tt.path, tt.value)
		if !errors.Is(err, tt.want) {
			t.Errorf("** Set(%q) err = %v, wanted %v", tt.path, err, tt.want)
		}
	}

	after, err := txGet(db, "p", "")
	ensure(err)
	deepEqual(t, string(after.Str), string(before.Str))
}

func TestOpSetTypeMismatch(t *testing.T) {
	db := setupMem(t)
	ensure(txSet(db, "p", "test.Person", "", `{"name":"Ann"}`))

	err := txSet(db, "p", "test.Address", "city", "Lisbon")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("** err = %v, wanted ErrTypeMismatch", err)
	}

	// raw values are never written through
	ensure(db.Tx(true, func(tx *Tx) error { return tx.RawPut([]byte("raw"), []byte("hello")) }))
	err = txSet(db, "raw", "test.Person", "name", "Ann")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("** err = %v, wanted ErrTypeMismatch", err)
	}
}

func TestOpSetUnknownType(t *testing.T) {
	db := setupMem(t)
	err := txSet(db, "p", "test.Nobody", "name", "x")
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("** err = %v, wanted ErrUnknownType", err)
	}
}

func TestOpSetEmptyType(t *testing.T) {
	db := setupMem(t)
	ensure(txSet(db, "p", "test.Person", "", `{"name":"Ann"}`))

	// an empty type token never rides on the stored record's own type
	err := txSet(db, "p", "", "name", "Bob")
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("** Set err = %v, wanted ErrUnknownType", err)
	}
	_, err = txAppend(db, "p", "", "tags", "x")
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("** Append err = %v, wanted ErrUnknownType", err)
	}

	rep, err := txGet(db, "p", "name")
	ensure(err)
	deepEqual(t, rep, BulkString("Ann"))
}

func TestOpDel(t *testing.T) {
	db := setupMem(t)
	ensure(txSet(db, "p", "test.Person", "", `{"name":"Ann","age":30,"tags":["a","b","c"]}`))

	// clearing an unpopulated field is a no-op
	n, err := txDel(db, "p", "active")
	ensure(err)
	deepEqual(t, n, int64(0))

	n, err = txDel(db, "p", "age")
	ensure(err)
	deepEqual(t, n, int64(1))

	n, err = txDel(db, "p", "tags[1]")
	ensure(err)
	deepEqual(t, n, int64(1))

	rep, err := txGet(db, "p", "")
	ensure(err)
	deepEqual(t, rep, BulkString(`{"name":"Ann","tags":["a","c"]}`))

	n, err = txDel(db, "p", "")
	ensure(err)
	deepEqual(t, n, int64(1))
	rep, err = txGet(db, "p", "")
	ensure(err)
	deepEqual(t, rep, NilReply())

	n, err = txDel(db, "missing", "")
	ensure(err)
	deepEqual(t, n, int64(0))
}

func TestOpLen(t *testing.T) {
	db := setupMem(t)
	ensure(txSet(db, "p", "test.Person", "", `{"name":"Ann","age":30,"tags":["a","b","c"]}`))

	rep, err := txLen(db, "p", "")
	ensure(err)
	deepEqual(t, rep, IntReply(3)) // name, age, tags

	rep, err = txLen(db, "p", "tags")
	ensure(err)
	deepEqual(t, rep, IntReply(3))

	rep, err = txLen(db, "p", "name")
	ensure(err)
	deepEqual(t, rep, IntReply(3))

	rep, err = txLen(db, "p", "tags[0]")
	ensure(err)
	deepEqual(t, rep, IntReply(1))

	_, err = txLen(db, "p", "age")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("** len(age) err = %v, wanted ErrUnsupported", err)
	}

	rep, err = txLen(db, "missing", "")
	ensure(err)
	deepEqual(t, rep, NilReply())
}

func TestOpAppend(t *testing.T) {
	db := setupMem(t)

	// creates the record when the key is empty
	n, err := txAppend(db, "p", "test.Person", "tags", "a")
	ensure(err)
	deepEqual(t, n, int64(1))
	n, err = txAppend(db, "p", "test.Person", "tags", "b")
	ensure(err)
	deepEqual(t, n, int64(2))

	// message elements are supplied as JSON
	n, err = txAppend(db, "p", "test.Person", "phones", `{"number":"555"}`)
	ensure(err)
	deepEqual(t, n, int64(1))

	rep, err := txGet(db, "p", "phones[0].number")
	ensure(err)
	deepEqual(t, rep, BulkString("555"))

	_, err = txAppend(db, "p", "test.Person", "tags[0]", "x")
	if !errors.Is(err, ErrInvalidPathStep) {
		t.Errorf("** append to tags[0] err = %v, wanted ErrInvalidPathStep", err)
	}
	_, err = txAppend(db, "p", "test.Person", "name", "x")
	if !errors.Is(err, ErrInvalidPathStep) {
		t.Errorf("** append to name err = %v, wanted ErrInvalidPathStep", err)
	}
}

func TestOpReopenKeepsRecords(t *testing.T) {
	cat := testCatalog(t)
	dir := t.TempDir()
	path := dir + "/keyspace.db"

	db := must(Open(path, cat, Options{IsTesting: true}))
	ensure(txSet(db, "k", "test.Person", "", `{"name":"Ann","age":30}`))
	db.Close()

	db = must(Open(path, cat, Options{IsTesting: true}))
	defer db.Close()
	rep, err := txGet(db, "k", "")
	ensure(err)
	deepEqual(t, rep, BulkString(`{"name":"Ann","age":30}`))
}

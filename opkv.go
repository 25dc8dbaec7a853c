package redispb

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Raw keyspace access. The plain string commands operate on these directly;
// the PB commands go through the record envelope on top.

// RawGet returns the value stored at key, or nil. The slice aliases storage
// memory and is only valid while the transaction is open.
func (tx *Tx) RawGet(key []byte) []byte {
	return tx.stx.Get(key)
}

func (tx *Tx) RawPut(key, value []byte) error {
	return tx.stx.Put(key, value)
}

// RawDelete removes a key, reporting whether it existed.
func (tx *Tx) RawDelete(key []byte) (bool, error) {
	if tx.stx.Get(key) == nil {
		return false, nil
	}
	return true, tx.stx.Delete(key)
}

func (tx *Tx) Exists(key []byte) bool {
	return tx.stx.Get(key) != nil
}

func (tx *Tx) KeyCount() int {
	return tx.stx.KeyCount()
}

// ScanKeys walks every key in order until fn returns false.
func (tx *Tx) ScanKeys(fn func(key []byte) bool) {
	c := tx.stx.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if !fn(k) {
			return
		}
	}
}

// FlushAll removes every key in the keyspace.
func (tx *Tx) FlushAll() error {
	var keys [][]byte
	tx.ScanKeys(func(key []byte) bool {
		keys = append(keys, append([]byte(nil), key...))
		return true
	})
	for _, key := range keys {
		if err := tx.stx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Tx) putRecord(key []byte, msg protoreflect.Message) error {
	data, err := marshalRecord(msg)
	if err != nil {
		return err
	}
	return tx.stx.Put(key, data)
}

package redispb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Set writes value into the record stored at key. With an empty pathText
// the value is the whole record as JSON and replaces whatever was stored;
// otherwise the value is written into the single addressed field slot. A
// missing record is created from typeName.
//
// The write is all-or-nothing: the stored key changes only after parsing,
// resolution and value validation have all succeeded.
func (tx *Tx) Set(key []byte, typeName, pathText string, value []byte) error {
	// An empty type name would skip the stored-type check entirely.
	if typeName == "" {
		return fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	path, err := ParsePath(typeName, pathText)
	if err != nil {
		return err
	}

	var msg *dynamicpb.Message
	if data := tx.stx.Get(key); data != nil {
		msg, err = unmarshalRecord(tx.db.cat, data)
	} else {
		msg, err = tx.db.cat.NewRecord(typeName)
	}
	if err != nil {
		return err
	}

	if path.IsRoot() {
		// Whole-record replacement still type-checks against what is stored.
		if _, err := resolvePath(msg, path, resolveMode{}); err != nil {
			return err
		}
		fresh, err := tx.db.cat.NewRecord(typeName)
		if err != nil {
			return err
		}
		opts := protojson.UnmarshalOptions{Resolver: tx.db.cat.Types()}
		if err := opts.Unmarshal(value, fresh); err != nil {
			return valueErrf("", "message", ErrTypeMismatch, "bad JSON for %s: %v", typeName, err)
		}
		return tx.putRecord(key, fresh)
	}

	ref, err := resolvePath(msg, path, resolveMode{mutable: true})
	if err != nil {
		return err
	}
	val, err := parseFieldValue(tx.db.cat, ref.Field, value)
	if err != nil {
		return err
	}
	ref.Assign(val)
	return tx.putRecord(key, msg)
}

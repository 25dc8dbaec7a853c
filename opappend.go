package redispb

import (
	"fmt"

	"google.golang.org/protobuf/types/dynamicpb"
)

// Append appends value to the repeated field addressed by pathText and
// returns the new element count. The path must end on a repeated field
// without an index; a missing record is created from typeName first.
// Message-kind elements are supplied as JSON, scalar kinds as plain text.
func (tx *Tx) Append(key []byte, typeName, pathText string, value []byte) (int64, error) {
	if typeName == "" {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	path, err := ParsePath(typeName, pathText)
	if err != nil {
		return 0, err
	}

	var msg *dynamicpb.Message
	if data := tx.stx.Get(key); data != nil {
		msg, err = unmarshalRecord(tx.db.cat, data)
	} else {
		msg, err = tx.db.cat.NewRecord(typeName)
	}
	if err != nil {
		return 0, err
	}

	ref, err := resolvePath(msg, path, resolveMode{mutable: true, bareRepeated: true})
	if err != nil {
		return 0, err
	}
	if ref.IsRecord() || !ref.Field.IsList() || ref.HasIndex() {
		return 0, pathErrf(pathText, "", ErrInvalidPathStep,
			"append needs a repeated field without an index")
	}
	val, err := parseFieldValue(tx.db.cat, ref.Field, value)
	if err != nil {
		return 0, err
	}
	n := int64(ref.AppendElem(val))
	if err := tx.putRecord(key, msg); err != nil {
		return 0, err
	}
	return n, nil
}

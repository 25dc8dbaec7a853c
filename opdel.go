package redispb

// Del removes what pathText addresses and reports how many targets were
// removed (0 or 1). With an empty pathText the whole record key is deleted.
// With a path, the addressed field is cleared from the record, or a single
// repeated element is removed with the tail shifting down; clearing a field
// that is not populated counts as 0 and leaves the record untouched.
func (tx *Tx) Del(key []byte, pathText string) (int64, error) {
	data := tx.stx.Get(key)
	if data == nil {
		return 0, nil
	}

	if pathText == "" {
		if !isRecord(data) {
			return 0, pathErrf("", "", ErrTypeMismatch, "key holds a non-record value")
		}
		if err := tx.stx.Delete(key); err != nil {
			return 0, err
		}
		return 1, nil
	}

	msg, err := unmarshalRecord(tx.db.cat, data)
	if err != nil {
		return 0, err
	}
	path, err := ParsePath("", pathText)
	if err != nil {
		return 0, err
	}
	ref, err := resolvePath(msg, path, resolveMode{mutable: true, bareRepeated: true})
	if err != nil {
		return 0, err
	}
	if !ref.HasIndex() && !ref.Parent.Has(ref.Field) {
		return 0, nil
	}
	ref.Clear()
	if err := tx.putRecord(key, msg); err != nil {
		return 0, err
	}
	return 1, nil
}

package redispb

// RecordType returns the fully-qualified type name of the record stored at
// key. ok is false when the key is absent or holds a non-record value, which
// the TYPE command reports as nil rather than an error.
func (tx *Tx) RecordType(key []byte) (name string, ok bool, err error) {
	data := tx.stx.Get(key)
	if data == nil || !isRecord(data) {
		return "", false, nil
	}
	name, _, err = decodeEnvelope(data)
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

package redispb

// Get reads the value addressed by pathText inside the record stored at key
// and encodes it as a reply. An absent key or a key holding a non-record
// value replies nil; everything else that goes wrong is an error.
//
// The path carries no type name: the record's own decoded type is trusted,
// and pathText addresses fields relative to it. An empty pathText addresses
// the whole record, replied as its JSON form.
func (tx *Tx) Get(key []byte, pathText string) (Reply, error) {
	data := tx.stx.Get(key)
	if data == nil || !isRecord(data) {
		return NilReply(), nil
	}
	msg, err := unmarshalRecord(tx.db.cat, data)
	if err != nil {
		return Reply{}, err
	}
	path, err := ParsePath("", pathText)
	if err != nil {
		return Reply{}, err
	}
	ref, err := Resolve(msg, path)
	if err != nil {
		return Reply{}, err
	}
	return EncodeReply(ref)
}

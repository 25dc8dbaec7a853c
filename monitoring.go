package redispb

import "strconv"

// KeyspaceStats summarizes the stored keyspace: how many keys hold record
// envelopes vs raw string values, and how many value bytes they occupy.
type KeyspaceStats struct {
	Keys       int
	Records    int
	Raw        int
	ValueBytes int
}

func (tx *Tx) Stats() KeyspaceStats {
	var st KeyspaceStats
	c := tx.stx.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		st.Keys++
		st.ValueBytes += len(v)
		if isRecord(v) {
			st.Records++
		} else {
			st.Raw++
		}
	}
	return st
}

// loggableValue renders a stored value for dumps and logs: records as their
// type name plus JSON body, anything else as a quoted string.
func loggableValue(cat *Catalog, v []byte) string {
	if !isRecord(v) {
		return strconv.Quote(string(v))
	}
	typeName, _, err := decodeEnvelope(v)
	if err != nil {
		return "<corrupt record: " + err.Error() + ">"
	}
	msg, err := unmarshalRecord(cat, v)
	if err != nil {
		return "<" + typeName + ": " + err.Error() + ">"
	}
	return typeName + " " + string(EncodeJSON(msg))
}

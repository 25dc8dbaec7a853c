package redispb

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpKeys = DumpFlags(1 << iota)
	DumpValues
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the keyspace for debugging: one line per key in key order,
// records shown with their type name and JSON body, raw values quoted.
func (tx *Tx) Dump(f DumpFlags) string {
	var buf strings.Builder
	if f.Contains(DumpStats) {
		st := tx.Stats()
		fmt.Fprintf(&buf, "keys = %d, records = %d, raw = %d, value_bytes = %d\n",
			st.Keys, st.Records, st.Raw, st.ValueBytes)
	}
	if f.Contains(DumpKeys) {
		c := tx.stx.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if f.Contains(DumpValues) {
				fmt.Fprintf(&buf, "%q = %s\n", k, loggableValue(tx.db.cat, v))
			} else {
				fmt.Fprintf(&buf, "%q\n", k)
			}
		}
	}
	return buf.String()
}

/*
Package redispb implements a protobuf record store on top of a key-value
keyspace (in this case, on top of Bolt, with a transient in-memory backend
for tests and throwaway servers).

We implement:

1. Records, protobuf messages stored under arbitrary keys as typed
envelopes, created and edited through textual field paths (PB.SET, PB.GET,
PB.DEL, PB.LEN, PB.APPEND).

2. A descriptor catalog, registering message types at startup from .proto
sources or compiled descriptor sets, sealed before serving begins.

3. Field paths, dotted field names with optional element indexes
("address.city", "phones[2].number"), resolved against a record's own
descriptor.

4. Raw string keys, plain values stored next to records (SET/GET/DEL and
friends), so one keyspace holds both kinds.

# Technical Details

**Stored values.**
A record value is a 4-byte magic (C1 50 42 01) followed by a msgpack
envelope {type name, payload}, the payload being the protobuf wire form.
0xC1 is the one byte the msgpack spec never emits, so the magic cleanly
separates records from the raw values the string commands write. Values
without the magic are raw strings. The tag is in-band, so a raw value
deliberately written to begin with these four bytes is treated as a record
from then on; values PB.SET writes can never collide the other way.

**Transactions.**
Every command runs inside one storage transaction. A write decodes the
record, edits the in-memory message, re-encodes and stores it; a failure
anywhere before the final put rolls the transaction back, so a stored
record never changes halfway.

**Replies.**
Terminal fields map onto replies by kind group: the integer kinds and bool
become integer replies, float and double their shortest decimal text,
string and bytes binary-safe bulk replies, and messages deterministic JSON.
Map fields and enum terminals are reachable only through whole-record JSON,
never as path terminals.

**JSON determinism.**
The JSON encoder walks descriptors in declaration order and renders only
populated fields, so equal record contents always produce byte-identical
documents.
*/
package redispb

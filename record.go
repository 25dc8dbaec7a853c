package redispb

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// recordMagic prefixes every stored record envelope. 0xC1 is the one byte
// the msgpack spec never emits, so an envelope cannot be confused with the
// raw values the plain string commands store.
var recordMagic = []byte{0xC1, 'P', 'B', 0x01}

type recordEnvelope struct {
	Type    string `msgpack:"t"`
	Payload []byte `msgpack:"p"`
}

// encodeRecord wraps a marshaled protobuf payload into a storable envelope.
func encodeRecord(typeName string, payload []byte) ([]byte, error) {
	body, err := msgpack.Marshal(&recordEnvelope{Type: typeName, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode record envelope: %w", err)
	}
	buf := make([]byte, 0, len(recordMagic)+len(body))
	buf = append(buf, recordMagic...)
	buf = append(buf, body...)
	return buf, nil
}

// isRecord reports whether a stored value carries a record envelope.
func isRecord(data []byte) bool {
	return bytes.HasPrefix(data, recordMagic)
}

// decodeEnvelope splits a stored value into its type name and protobuf
// payload. Values without the envelope magic belong to the plain string
// commands and fail with ErrTypeMismatch.
func decodeEnvelope(data []byte) (string, []byte, error) {
	if !isRecord(data) {
		return "", nil, fmt.Errorf("%w: key holds a non-record value", ErrTypeMismatch)
	}
	var env recordEnvelope
	if err := msgpack.Unmarshal(data[len(recordMagic):], &env); err != nil {
		return "", nil, fmt.Errorf("corrupt record envelope: %w", err)
	}
	if env.Type == "" {
		return "", nil, fmt.Errorf("corrupt record envelope: missing type name")
	}
	return env.Type, env.Payload, nil
}

// marshalRecord serializes a record message into a storable envelope.
func marshalRecord(msg protoreflect.Message) ([]byte, error) {
	payload, err := proto.Marshal(msg.Interface())
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", msg.Descriptor().FullName(), err)
	}
	return encodeRecord(string(msg.Descriptor().FullName()), payload)
}

// unmarshalRecord decodes a stored envelope back into a dynamic message,
// resolving the embedded type name against the catalog.
func unmarshalRecord(cat *Catalog, data []byte) (*dynamicpb.Message, error) {
	typeName, payload, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	msg, err := cat.NewRecord(typeName)
	if err != nil {
		return nil, err
	}
	if err := proto.Unmarshal(payload, msg); err != nil {
		return nil, fmt.Errorf("corrupt %s record: %w", typeName, err)
	}
	return msg, nil
}

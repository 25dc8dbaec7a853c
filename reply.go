package redispb

import "fmt"

// ReplyKind discriminates the store reply shapes a command can produce.
type ReplyKind uint8

const (
	ReplyNil ReplyKind = iota
	ReplyInt
	ReplyStatus // simple status line, no binary content
	ReplyBulk   // binary-safe string
	ReplyArray
	ReplyError
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyNil:
		return "nil"
	case ReplyInt:
		return "int"
	case ReplyStatus:
		return "status"
	case ReplyBulk:
		return "bulk"
	case ReplyArray:
		return "array"
	case ReplyError:
		return "error"
	default:
		return fmt.Sprintf("ReplyKind(%d)", uint8(k))
	}
}

// Reply is the protocol-neutral result of a command. The server layer maps
// it onto the wire protocol; tests can assert on it directly.
type Reply struct {
	Kind  ReplyKind
	Int   int64
	Str   []byte
	Array []Reply
}

func NilReply() Reply {
	return Reply{Kind: ReplyNil}
}

func IntReply(n int64) Reply {
	return Reply{Kind: ReplyInt, Int: n}
}

func StatusReply(s string) Reply {
	return Reply{Kind: ReplyStatus, Str: []byte(s)}
}

func BulkReply(b []byte) Reply {
	return Reply{Kind: ReplyBulk, Str: b}
}

func BulkString(s string) Reply {
	return Reply{Kind: ReplyBulk, Str: []byte(s)}
}

func ArrayReply(items ...Reply) Reply {
	return Reply{Kind: ReplyArray, Array: items}
}

// ErrorReply carries a protocol error line, code word first ("ERR ...").
func ErrorReply(msg string) Reply {
	return Reply{Kind: ReplyError, Str: []byte(msg)}
}

func (r Reply) IsNil() bool {
	return r.Kind == ReplyNil
}

func (r Reply) IsError() bool {
	return r.Kind == ReplyError
}

// String renders a reply for logs and test failure messages, not for the
// wire.
func (r Reply) String() string {
	switch r.Kind {
	case ReplyNil:
		return "(nil)"
	case ReplyInt:
		return fmt.Sprintf("(int) %d", r.Int)
	case ReplyStatus:
		return fmt.Sprintf("(status) %s", r.Str)
	case ReplyBulk:
		return fmt.Sprintf("(bulk) %s", r.Str)
	case ReplyArray:
		return fmt.Sprintf("(array) %v", r.Array)
	case ReplyError:
		return fmt.Sprintf("(error) %s", r.Str)
	default:
		return fmt.Sprintf("(%s)", r.Kind)
	}
}

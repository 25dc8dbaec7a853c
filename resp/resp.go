// Package resp implements the server side of the RESP2 wire protocol:
// reading client commands (multibulk and inline forms) and writing replies.
//
// Encoding is append-style: every Append* function extends a caller-owned
// buffer and returns it, so callers control allocation. The Writer wraps
// these over a buffered connection for the common case.
package resp

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// maxInlineSize bounds a single protocol line, covering inline commands
	// and all length headers.
	maxInlineSize = 64 * 1024

	// maxBulkSize bounds a single command argument.
	maxBulkSize = 512 * 1024 * 1024

	// maxMultibulkLen bounds the token count of one command.
	maxMultibulkLen = 1024 * 1024
)

// ErrProtocol is wrapped by every error caused by malformed client input.
// Connection handlers check for it to decide between replying and closing.
var ErrProtocol = errors.New("protocol error")

func protoErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

// AppendSimple appends a simple string reply (+OK style). CR and LF in s
// are replaced with spaces, they would break the frame.
func AppendSimple(buf []byte, s string) []byte {
	buf = append(buf, '+')
	return appendLine(buf, s)
}

// AppendError appends an error reply (-ERR style), sanitized like
// AppendSimple.
func AppendError(buf []byte, msg string) []byte {
	buf = append(buf, '-')
	return appendLine(buf, msg)
}

// AppendInt appends an integer reply.
func AppendInt(buf []byte, n int64) []byte {
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, n, 10)
	return append(buf, '\r', '\n')
}

// AppendBulk appends a binary-safe bulk string reply.
func AppendBulk(buf []byte, b []byte) []byte {
	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(b)), 10)
	buf = append(buf, '\r', '\n')
	buf = append(buf, b...)
	return append(buf, '\r', '\n')
}

// AppendNil appends the null bulk reply.
func AppendNil(buf []byte) []byte {
	return append(buf, '$', '-', '1', '\r', '\n')
}

// AppendArrayHeader appends an array header; the caller appends the n
// elements afterwards.
func AppendArrayHeader(buf []byte, n int) []byte {
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(n), 10)
	return append(buf, '\r', '\n')
}

// AppendCommand appends a command frame as an array of bulk strings, the
// form clients send.
func AppendCommand(buf []byte, args ...[]byte) []byte {
	buf = AppendArrayHeader(buf, len(args))
	for _, a := range args {
		buf = AppendBulk(buf, a)
	}
	return buf
}

func appendLine(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\r' || c == '\n' {
			c = ' '
		}
		buf = append(buf, c)
	}
	return append(buf, '\r', '\n')
}

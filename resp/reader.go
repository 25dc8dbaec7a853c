package resp

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
)

// Reader parses client command frames from a connection.
type Reader struct {
	br *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, maxInlineSize)}
}

// ReadCommand reads one command as a token list, command name first. It
// accepts the multibulk form (*N followed by N bulk strings) and the inline
// form (one line of whitespace-separated tokens). An empty token list with a
// nil error is a blank line or *0 frame; callers skip those.
//
// io.EOF means the client closed the connection between commands. Any error
// wrapping ErrProtocol leaves the stream unusable.
func (r *Reader) ReadCommand() ([][]byte, error) {
	c, err := r.br.ReadByte()
	if err != nil {
		return nil, err
	}
	if c != '*' {
		if err := r.br.UnreadByte(); err != nil {
			return nil, err
		}
		return r.readInline()
	}

	n, err := r.readLen()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > maxMultibulkLen {
		return nil, protoErrf("invalid multibulk length %d", n)
	}
	argv := make([][]byte, 0, n)
	for i := int64(0); i < n; i++ {
		arg, err := r.readBulk()
		if err != nil {
			return nil, err
		}
		argv = append(argv, arg)
	}
	return argv, nil
}

func (r *Reader) readInline() ([][]byte, error) {
	line, err := r.readLine()
	if err != nil {
		return nil, err
	}
	fields := bytes.Fields(line)
	argv := make([][]byte, 0, len(fields))
	for _, f := range fields {
		// line aliases the read buffer, tokens must be copied out
		argv = append(argv, append([]byte(nil), f...))
	}
	return argv, nil
}

func (r *Reader) readBulk() ([]byte, error) {
	c, err := r.br.ReadByte()
	if err != nil {
		return nil, eofToUnexpected(err)
	}
	if c != '$' {
		return nil, protoErrf("expected '$', got %q", c)
	}
	n, err := r.readLen()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > maxBulkSize {
		return nil, protoErrf("invalid bulk length %d", n)
	}
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, eofToUnexpected(err)
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, protoErrf("bulk string not terminated with CRLF")
	}
	return buf[:n:n], nil
}

func (r *Reader) readLen() (int64, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, eofToUnexpected(err)
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, protoErrf("invalid length %q", line)
	}
	return n, nil
}

func (r *Reader) readLine() ([]byte, error) {
	line, err := r.br.ReadSlice('\n')
	if err != nil {
		if err == bufio.ErrBufferFull {
			return nil, protoErrf("line exceeds %d bytes", maxInlineSize)
		}
		if err == io.EOF && len(line) > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, protoErrf("line not terminated with CRLF")
	}
	return line[:len(line)-2], nil
}

func eofToUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

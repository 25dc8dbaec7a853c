package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	redispb "github.com/yssource/redis-protobuf"
	"github.com/yssource/redis-protobuf/resp"
)

func (s *Server) handleConn(nc net.Conn) {
	defer s.wg.Done()
	defer s.removeConn(nc)
	defer nc.Close()

	log := s.log.With("conn", uuid.NewString(), "remote", nc.RemoteAddr().String())
	s.metrics.connections.Inc()
	defer s.metrics.connections.Dec()
	log.Debug("client connected")

	r := resp.NewReader(nc)
	w := resp.NewWriter(nc)
	for {
		argv, err := r.ReadCommand()
		if err != nil {
			s.logDisconnect(log, w, err)
			return
		}
		if len(argv) == 0 {
			continue
		}
		if strings.EqualFold(string(argv[0]), "QUIT") {
			w.WriteSimple("OK")
			w.Flush()
			log.Debug("client quit")
			return
		}

		start := time.Now()
		rep := s.disp.Dispatch(argv)
		s.metrics.observe(commandLabel(argv[0]), rep, time.Since(start))

		if err := writeReply(w, rep); err == nil {
			err = w.Flush()
		} else {
			w.Flush()
		}
		if err != nil {
			log.Warn("reply write failed", "err", err)
			return
		}
	}
}

// logDisconnect records why a read loop ended, answering malformed input
// with one final error reply. A protocol error leaves the stream
// unparseable, so the connection closes either way.
func (s *Server) logDisconnect(log *slog.Logger, w *resp.Writer, err error) {
	switch {
	case err == io.EOF:
		log.Debug("client disconnected")
	case errors.Is(err, resp.ErrProtocol):
		w.WriteError("ERR " + err.Error())
		w.Flush()
		log.Warn("protocol error", "err", err)
	case errors.Is(err, net.ErrClosed):
		log.Debug("connection closed")
	default:
		log.Warn("read failed", "err", err)
	}
}

// writeReply encodes one reply onto the wire, arrays recursively.
func writeReply(w *resp.Writer, rep redispb.Reply) error {
	switch rep.Kind {
	case redispb.ReplyNil:
		return w.WriteNil()
	case redispb.ReplyInt:
		return w.WriteInt(rep.Int)
	case redispb.ReplyStatus:
		return w.WriteSimple(string(rep.Str))
	case redispb.ReplyBulk:
		return w.WriteBulk(rep.Str)
	case redispb.ReplyArray:
		if err := w.WriteArrayHeader(len(rep.Array)); err != nil {
			return err
		}
		for _, item := range rep.Array {
			if err := writeReply(w, item); err != nil {
				return err
			}
		}
		return nil
	case redispb.ReplyError:
		return w.WriteError(string(rep.Str))
	default:
		return w.WriteError("ERR internal error")
	}
}

// commandLabel keeps the metric label space bounded: every command outside
// the table shares one label.
func commandLabel(name []byte) string {
	s := strings.ToUpper(string(name))
	if !redispb.KnownCommand(s) {
		return "unknown"
	}
	return s
}

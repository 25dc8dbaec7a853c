package redispb

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Dispatcher executes parsed commands against the keyspace. It is the
// single error boundary: every failure, arity problems included, becomes an
// error reply here, and no panic escapes to the caller.
type Dispatcher struct {
	db  *DB
	log *slog.Logger
}

func NewDispatcher(db *DB) *Dispatcher {
	return &Dispatcher{db: db, log: db.log}
}

type commandDef struct {
	minArgs int // total tokens including the command name
	maxArgs int // -1 for unlimited
	write   bool
	noTx    bool
	run     func(d *Dispatcher, tx *Tx, args [][]byte) (Reply, error)
}

var commandTable = map[string]*commandDef{
	"PB.TYPE":   {minArgs: 2, maxArgs: 2, run: (*Dispatcher).cmdPBType},
	"PB.GET":    {minArgs: 2, maxArgs: 3, run: (*Dispatcher).cmdPBGet},
	"PB.SET":    {minArgs: 4, maxArgs: 5, write: true, run: (*Dispatcher).cmdPBSet},
	"PB.DEL":    {minArgs: 2, maxArgs: 3, write: true, run: (*Dispatcher).cmdPBDel},
	"PB.LEN":    {minArgs: 2, maxArgs: 3, run: (*Dispatcher).cmdPBLen},
	"PB.APPEND": {minArgs: 5, maxArgs: 5, write: true, run: (*Dispatcher).cmdPBAppend},
	"PB.SCHEMA": {minArgs: 1, maxArgs: 2, noTx: true, run: (*Dispatcher).cmdPBSchema},

	"PING":    {minArgs: 1, maxArgs: 2, noTx: true, run: (*Dispatcher).cmdPing},
	"ECHO":    {minArgs: 2, maxArgs: 2, noTx: true, run: (*Dispatcher).cmdEcho},
	"SET":     {minArgs: 3, maxArgs: 3, write: true, run: (*Dispatcher).cmdSet},
	"GET":     {minArgs: 2, maxArgs: 2, run: (*Dispatcher).cmdGet},
	"DEL":     {minArgs: 2, maxArgs: -1, write: true, run: (*Dispatcher).cmdDel},
	"EXISTS":  {minArgs: 2, maxArgs: -1, run: (*Dispatcher).cmdExists},
	"KEYS":    {minArgs: 2, maxArgs: 2, run: (*Dispatcher).cmdKeys},
	"DBSIZE":  {minArgs: 1, maxArgs: 1, run: (*Dispatcher).cmdDBSize},
	"FLUSHDB": {minArgs: 1, maxArgs: 1, write: true, run: (*Dispatcher).cmdFlushDB},
}

// KnownCommand reports whether name, in any case, is in the command table.
func KnownCommand(name string) bool {
	_, ok := commandTable[strings.ToUpper(name)]
	return ok
}

// Dispatch runs one command. argv holds the full token list, command name
// first. The returned reply is always safe to hand to the protocol writer.
func (d *Dispatcher) Dispatch(argv [][]byte) (reply Reply) {
	defer func() {
		if p := recover(); p != nil {
			name := "?"
			if len(argv) > 0 {
				name = string(argv[0])
			}
			d.log.Error("command panic", "cmd", name, "panic", p)
			reply = ErrorReply("ERR internal error")
		}
	}()

	if len(argv) == 0 {
		return ErrorReply("ERR empty command")
	}
	name := strings.ToUpper(string(argv[0]))
	def, ok := commandTable[name]
	if !ok {
		return ErrorReply(fmt.Sprintf("ERR unknown command '%s'", argv[0]))
	}
	if len(argv) < def.minArgs || (def.maxArgs >= 0 && len(argv) > def.maxArgs) {
		return d.errorReply(name, fmt.Errorf("%w for command", ErrWrongArity))
	}

	var rep Reply
	var err error
	if def.noTx {
		rep, err = def.run(d, nil, argv[1:])
	} else {
		err = d.db.Tx(def.write, func(tx *Tx) error {
			var ferr error
			rep, ferr = def.run(d, tx, argv[1:])
			return ferr
		})
	}
	if err != nil {
		return d.errorReply(name, err)
	}
	return rep
}

// errorReply maps each error kind to its external reply shape. Arity
// problems keep the standard wording clients parse for; type conflicts get
// the WRONGTYPE code; internal panics are logged and never leak details.
func (d *Dispatcher) errorReply(name string, err error) Reply {
	var pan panicked
	if errors.As(err, &pan) {
		d.log.Error("command failed", "cmd", name, "err", err)
		return ErrorReply("ERR internal error")
	}
	switch {
	case errors.Is(err, ErrWrongArity):
		return ErrorReply(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
	case errors.Is(err, ErrTypeMismatch):
		return ErrorReply("WRONGTYPE " + err.Error())
	default:
		return ErrorReply("ERR " + err.Error())
	}
}

func (d *Dispatcher) cmdPBType(tx *Tx, args [][]byte) (Reply, error) {
	name, ok, err := tx.RecordType(args[0])
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return NilReply(), nil
	}
	return StatusReply(name), nil
}

func (d *Dispatcher) cmdPBGet(tx *Tx, args [][]byte) (Reply, error) {
	var pathText string
	if len(args) == 2 {
		pathText = string(args[1])
	}
	return tx.Get(args[0], pathText)
}

func (d *Dispatcher) cmdPBSet(tx *Tx, args [][]byte) (Reply, error) {
	// PB.SET key type value | PB.SET key type path value
	var pathText string
	var value []byte
	if len(args) == 3 {
		value = args[2]
	} else {
		pathText = string(args[2])
		value = args[3]
	}
	if err := tx.Set(args[0], string(args[1]), pathText, value); err != nil {
		return Reply{}, err
	}
	return StatusReply("OK"), nil
}

func (d *Dispatcher) cmdPBDel(tx *Tx, args [][]byte) (Reply, error) {
	var pathText string
	if len(args) == 2 {
		pathText = string(args[1])
	}
	n, err := tx.Del(args[0], pathText)
	if err != nil {
		return Reply{}, err
	}
	return IntReply(n), nil
}

func (d *Dispatcher) cmdPBLen(tx *Tx, args [][]byte) (Reply, error) {
	var pathText string
	if len(args) == 2 {
		pathText = string(args[1])
	}
	return tx.Len(args[0], pathText)
}

func (d *Dispatcher) cmdPBAppend(tx *Tx, args [][]byte) (Reply, error) {
	n, err := tx.Append(args[0], string(args[1]), string(args[2]), args[3])
	if err != nil {
		return Reply{}, err
	}
	return IntReply(n), nil
}

func (d *Dispatcher) cmdPBSchema(_ *Tx, args [][]byte) (Reply, error) {
	if len(args) == 0 {
		return ListSchemas(d.db.cat), nil
	}
	return DescribeSchema(d.db.cat, string(args[0]))
}

func (d *Dispatcher) cmdPing(_ *Tx, args [][]byte) (Reply, error) {
	if len(args) == 1 {
		return BulkReply(args[0]), nil
	}
	return StatusReply("PONG"), nil
}

func (d *Dispatcher) cmdEcho(_ *Tx, args [][]byte) (Reply, error) {
	return BulkReply(args[0]), nil
}

func (d *Dispatcher) cmdSet(tx *Tx, args [][]byte) (Reply, error) {
	if err := tx.RawPut(args[0], args[1]); err != nil {
		return Reply{}, err
	}
	return StatusReply("OK"), nil
}

func (d *Dispatcher) cmdGet(tx *Tx, args [][]byte) (Reply, error) {
	v := tx.RawGet(args[0])
	if v == nil {
		return NilReply(), nil
	}
	if isRecord(v) {
		return Reply{}, fmt.Errorf("%w: key holds a record, use PB.GET", ErrTypeMismatch)
	}
	// The reply outlives the transaction; storage memory does not.
	return BulkReply(append([]byte(nil), v...)), nil
}

func (d *Dispatcher) cmdDel(tx *Tx, args [][]byte) (Reply, error) {
	var n int64
	for _, key := range args {
		existed, err := tx.RawDelete(key)
		if err != nil {
			return Reply{}, err
		}
		if existed {
			n++
		}
	}
	return IntReply(n), nil
}

func (d *Dispatcher) cmdExists(tx *Tx, args [][]byte) (Reply, error) {
	var n int64
	for _, key := range args {
		if tx.Exists(key) {
			n++
		}
	}
	return IntReply(n), nil
}

func (d *Dispatcher) cmdKeys(tx *Tx, args [][]byte) (Reply, error) {
	pattern := string(args[0])
	var items []Reply
	tx.ScanKeys(func(key []byte) bool {
		if matchGlob(pattern, string(key)) {
			items = append(items, BulkReply(append([]byte(nil), key...)))
		}
		return true
	})
	return ArrayReply(items...), nil
}

func (d *Dispatcher) cmdDBSize(tx *Tx, args [][]byte) (Reply, error) {
	return IntReply(int64(tx.KeyCount())), nil
}

func (d *Dispatcher) cmdFlushDB(tx *Tx, args [][]byte) (Reply, error) {
	if err := tx.FlushAll(); err != nil {
		return Reply{}, err
	}
	return StatusReply("OK"), nil
}

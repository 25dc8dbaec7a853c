package redispb

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

// DB is the record keyspace: a flat key-value store whose values are either
// record envelopes written by the PB commands or raw strings written by the
// plain string commands.
type DB struct {
	store storage
	cat   *Catalog
	log   *slog.Logger

	ReadCount  atomic.Uint64
	WriteCount atomic.Uint64
}

type Options struct {
	Logger    *slog.Logger
	IsTesting bool
	MmapSize  int
}

// Open opens the keyspace at path, or a transient in-memory keyspace when
// path is empty. The catalog must be fully registered and sealed before the
// first command runs.
func Open(path string, cat *Catalog, opt Options) (*DB, error) {
	if cat == nil {
		panic("nil catalog")
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}

	var store storage
	if path == "" {
		store = newMemStorage()
	} else {
		bopt := new(bbolt.Options)
		*bopt = *bbolt.DefaultOptions
		bopt.Timeout = 10 * time.Second
		if opt.IsTesting {
			bopt.NoSync = true
			bopt.NoFreelistSync = true
			bopt.InitialMmapSize = 1024 * 1024 * 5
		} else {
			bopt.InitialMmapSize = 1024 * 1024 * 1024
			bopt.FreelistType = bbolt.FreelistMapType
		}
		if opt.MmapSize != 0 {
			bopt.InitialMmapSize = opt.MmapSize
		}

		bdb, err := bbolt.Open(path, 0o666, bopt)
		if err != nil {
			return nil, fmt.Errorf("keyspace: %w", err)
		}
		store, err = newBoltStorage(bdb)
		if err != nil {
			bdb.Close()
			return nil, fmt.Errorf("keyspace: %w", err)
		}
	}

	return &DB{store: store, cat: cat, log: log}, nil
}

func (db *DB) Catalog() *Catalog {
	return db.cat
}

func (db *DB) Close() {
	if err := db.store.Close(); err != nil {
		panic(fmt.Errorf("keyspace: closing: %w", err))
	}
}

// Tx is a transaction over the keyspace. Commands run entirely inside one
// Tx, so a failed write never leaves a partial update behind.
type Tx struct {
	db     *DB
	stx    storageTx
	closed bool
}

func (tx *Tx) DB() *DB {
	return tx.db
}

func (tx *Tx) Catalog() *Catalog {
	return tx.db.cat
}

func (tx *Tx) IsWritable() bool {
	return tx.stx.Writable()
}

// Close rolls the transaction back unless it has been committed. Safe to
// call multiple times.
func (tx *Tx) Close() {
	if tx.closed {
		return
	}
	tx.closed = true
	if err := tx.stx.Rollback(); err != nil {
		tx.db.log.Error("tx rollback failed", "err", err)
	}
}

func (tx *Tx) Commit() error {
	if tx.closed {
		return fmt.Errorf("tx already closed")
	}
	tx.closed = true
	return tx.stx.Commit()
}

func (db *DB) BeginRead() *Tx {
	stx, err := db.store.BeginTx(false)
	if err != nil {
		panic(fmt.Errorf("failed to start reading: %w", err))
	}
	db.ReadCount.Add(1)
	return &Tx{db: db, stx: stx}
}

func (db *DB) BeginUpdate() *Tx {
	stx, err := db.store.BeginTx(true)
	if err != nil {
		panic(fmt.Errorf("failed to start writing: %w", err))
	}
	db.WriteCount.Add(1)
	return &Tx{db: db, stx: stx}
}

func (db *DB) Read(f func(tx *Tx)) {
	tx := db.BeginRead()
	defer tx.Close()
	f(tx)
}

func (db *DB) ReadErr(f func(tx *Tx) error) error {
	tx := db.BeginRead()
	defer tx.Close()
	return f(tx)
}

func (db *DB) Write(f func(tx *Tx)) {
	tx := db.BeginUpdate()
	defer tx.Close()
	f(tx)
	if err := tx.Commit(); err != nil {
		panic(fmt.Errorf("commit: %w", err))
	}
}

// Tx runs f inside a transaction, recovering panics into errors. A
// writable transaction commits only when f returns nil; any error rolls
// the whole transaction back.
func (db *DB) Tx(writable bool, f func(tx *Tx) error) error {
	var tx *Tx
	if writable {
		tx = db.BeginUpdate()
	} else {
		tx = db.BeginRead()
	}
	defer tx.Close()
	if err := safelyCall(f, tx); err != nil {
		return err
	}
	if writable {
		return tx.Commit()
	}
	return nil
}

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func safelyCall(fn func(*Tx) error, tx *Tx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}

// Package server hosts the record keyspace behind a RESP listener: a TCP
// accept loop with one goroutine per connection, a prometheus endpoint, and
// a drain-then-force shutdown sequence.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	redispb "github.com/yssource/redis-protobuf"
)

// Options configure a Server.
type Options struct {
	// Addr is the RESP listen address, ":6390" when empty.
	Addr string

	// MetricsAddr enables an HTTP listener serving prometheus metrics at
	// /metrics. Empty disables it.
	MetricsAddr string

	Logger *slog.Logger
}

// Server accepts RESP connections and runs their commands against one DB.
type Server struct {
	db      *redispb.DB
	disp    *redispb.Dispatcher
	log     *slog.Logger
	opts    Options
	metrics *metrics

	mu       sync.Mutex
	ln       net.Listener
	mln      net.Listener
	msrv     *http.Server
	conns    map[net.Conn]struct{}
	started  bool
	stopping bool

	wg sync.WaitGroup
}

func New(db *redispb.DB, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":6390"
	}
	return &Server{
		db:      db,
		disp:    redispb.NewDispatcher(db),
		log:     opts.Logger,
		opts:    opts,
		metrics: newMetrics(),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start binds the listeners and begins accepting connections. The catalog
// must be sealed first: the schema set is immutable while serving. A failed
// Start leaves the server unstarted and may be retried.
func (s *Server) Start(ctx context.Context) error {
	if !s.db.Catalog().Sealed() {
		return errors.New("catalog is not sealed, finish schema registration before serving")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("server already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}

	if s.opts.MetricsAddr != "" {
		if err := s.startMetrics(ctx); err != nil {
			ln.Close()
			return err
		}
	}

	// Both listeners are bound; nothing past this point can fail.
	s.ln = ln
	s.started = true

	s.log.Info("server listening", "addr", ln.Addr().String(), "types", s.db.Catalog().Len())
	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// startMetrics runs with s.mu held.
func (s *Server) startMetrics(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.MetricsAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.MetricsAddr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.handler())
	s.mln = ln
	s.msrv = &http.Server{Handler: mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.msrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server failed", "err", err)
		}
	}()
	s.log.Info("metrics listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound RESP listen address, nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// MetricsAddr returns the bound metrics listen address, nil when disabled.
func (s *Server) MetricsAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mln == nil {
		return nil
	}
	return s.mln.Addr()
}

// Stop closes the listeners and waits for connections to finish their
// current command. Connections still open when ctx expires are closed hard.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	ln, msrv := s.ln, s.msrv
	s.mu.Unlock()

	err := ln.Close()
	if msrv != nil {
		if serr := msrv.Shutdown(ctx); serr != nil && err == nil {
			err = serr
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("shutdown deadline reached, closing connections")
		s.closeConns()
		<-done
	}

	s.log.Info("server stopped")
	return err
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.isStopping() && !errors.Is(err, net.ErrClosed) {
				s.log.Error("accept failed", "err", err)
			}
			return
		}
		if !s.addConn(nc) {
			nc.Close()
			return
		}
		s.wg.Add(1)
		go s.handleConn(nc)
	}
}

func (s *Server) addConn(nc net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.conns[nc] = struct{}{}
	return true
}

func (s *Server) removeConn(nc net.Conn) {
	s.mu.Lock()
	delete(s.conns, nc)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for nc := range s.conns {
		nc.Close()
	}
}

func (s *Server) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

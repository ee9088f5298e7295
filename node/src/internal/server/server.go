package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrServerClosed is returned by Serve after Shutdown has been called.
var ErrServerClosed = errors.New("tuplespace: server closed")

// Config controls the connection workers.
type Config struct {
	// Zero disables the deadline.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxConnections bounds concurrent workers; zero is unbounded.
	MaxConnections int
}

// Recorder receives per-request and per-connection observations.
type Recorder interface {
	ObserveRequest(op, status string, duration time.Duration)
	ConnectionOpened()
	ConnectionClosed()
	ConnectionFailed()
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, time.Duration) {}
func (nopRecorder) ConnectionOpened()                            {}
func (nopRecorder) ConnectionClosed()                            {}
func (nopRecorder) ConnectionFailed()                            {}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger *shared.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Server) { s.recorder = recorder }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) { s.tracer = tracer }
}

// Server accepts tuple space connections and runs one worker per connection.
type Server struct {
	store    *storage.Store
	cfg      Config
	pool     Pool
	logger   *shared.Logger
	recorder Recorder
	tracer   trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	listener     net.Listener
	conns        map[net.Conn]struct{}
	shuttingDown bool
}

func NewServer(store *storage.Store, cfg Config, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store:    store,
		cfg:      cfg,
		pool:     NewPool(cfg.MaxConnections),
		logger:   shared.DefaultLogger,
		recorder: nopRecorder{},
		tracer:   otel.Tracer("tuplespace"),
		ctx:      ctx,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown. It always returns a
// non-nil error; after Shutdown that error is ErrServerClosed.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()

	s.logger.Info("Tuple space server is running on %s", l.Addr())

	var delay time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.closing() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				delay = backoff(delay)
				s.logger.Warn("accept error: %v; retrying in %v", err, delay)
				time.Sleep(delay)
				continue
			}
			return err
		}
		delay = 0

		if !s.track(conn) {
			conn.Close()
			return ErrServerClosed
		}
		sess := newSession(s, conn)
		if err := s.pool.Go(s.ctx, func() { sess.serve(s.ctx) }); err != nil {
			s.untrack(conn)
			conn.Close()
			return ErrServerClosed
		}
	}
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting, closes open connections and waits for their
// workers to finish or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shuttingDown = true
	l := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.cancel()
	if l != nil {
		l.Close()
	}

	done := make(chan struct{})
	go func() {
		s.pool.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Tuple space server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shuttingDown {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func backoff(delay time.Duration) time.Duration {
	if delay == 0 {
		return 5 * time.Millisecond
	}
	delay *= 2
	if delay > time.Second {
		return time.Second
	}
	return delay
}

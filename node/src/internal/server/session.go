package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"time"

	tsErr "github.com/sajjad-MoBe/TupleSpace/node/src/internal/errors"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/protocol"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"

	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Connection states.
const (
	StateConnected    = "connected"
	StateIdle         = "idle"
	StateProcessing   = "processing"
	StateDisconnected = "disconnected"
)

const (
	eventReady  = "ready"
	eventFrame  = "frame"
	eventReply  = "reply"
	eventHangup = "hangup"
)

// session is the worker for one connection. Requests are answered one at
// a time in arrival order.
type session struct {
	srv    *Server
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	logger *shared.Logger
	fsm    *fsm.FSM
}

func newSession(srv *Server, conn net.Conn) *session {
	s := &session{
		srv:    srv,
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
		logger: srv.logger.WithFields(map[string]interface{}{"remote": conn.RemoteAddr().String()}),
	}
	s.fsm = fsm.NewFSM(
		StateConnected,
		fsm.Events{
			{Name: eventReady, Src: []string{StateConnected}, Dst: StateIdle},
			{Name: eventFrame, Src: []string{StateIdle}, Dst: StateProcessing},
			{Name: eventReply, Src: []string{StateProcessing}, Dst: StateIdle},
			{Name: eventHangup, Src: []string{StateConnected, StateIdle, StateProcessing}, Dst: StateDisconnected},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.logger.Debug("connection %s -> %s", e.Src, e.Dst)
			},
		},
	)
	return s
}

// State returns the current connection state.
func (s *session) State() string {
	return s.fsm.Current()
}

func (s *session) serve(ctx context.Context) {
	s.srv.store.ClientConnected()
	s.srv.recorder.ConnectionOpened()
	s.logger.Info("client connected")

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithError(tsErr.RecoverError(r)).Error("connection worker aborted")
			s.srv.recorder.ConnectionFailed()
		}
		s.close()
	}()

	s.transition(eventReady)
	for {
		if err := s.deadline(s.conn.SetReadDeadline, s.srv.cfg.ReadTimeout); err != nil {
			s.fail(err)
			return
		}
		payload, err := protocol.ReadFrame(s.reader)
		if err == io.EOF {
			return
		}
		if err != nil {
			if tsErr.IsFraming(err) {
				s.srv.store.Reject()
				s.srv.recorder.ObserveRequest("INVALID", string(protocol.StatusErr), 0)
				s.logger.WithError(err).Warn("closing connection after malformed frame")
				s.send(protocol.MalformedFrame())
				return
			}
			s.fail(err)
			return
		}

		s.transition(eventFrame)
		resp := s.handle(ctx, payload)
		if err := s.send(resp); err != nil {
			s.fail(err)
			return
		}
		s.transition(eventReply)
	}
}

// handle decodes one payload and applies it to the store.
func (s *session) handle(ctx context.Context, payload string) protocol.Response {
	start := time.Now()

	req, err := protocol.DecodeRequest(payload)
	if err != nil {
		_, span := s.srv.tracer.Start(ctx, "tuplespace.INVALID")
		defer span.End()

		s.srv.store.Reject()
		resp := protocol.Rejection(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, resp.Message)
		s.srv.recorder.ObserveRequest("INVALID", string(resp.Status), time.Since(start))
		s.logger.Debug("rejected %q: %v", payload, err)
		return resp
	}

	_, span := s.srv.tracer.Start(ctx, "tuplespace."+req.Kind.String())
	defer span.End()

	res := s.srv.store.Apply(req)
	resp := res.Response()
	span.SetAttributes(
		attribute.String("tuplespace.key", req.Key),
		attribute.String("tuplespace.status", string(resp.Status)),
	)
	s.srv.recorder.ObserveRequest(req.Kind.String(), string(resp.Status), time.Since(start))
	return resp
}

func (s *session) send(resp protocol.Response) error {
	if err := s.deadline(s.conn.SetWriteDeadline, s.srv.cfg.WriteTimeout); err != nil {
		return err
	}
	if err := protocol.WriteFrame(s.writer, resp.Text()); err != nil {
		return err
	}
	if err := s.writer.Flush(); err != nil {
		return tsErr.New(tsErr.ErrorTypeConnection, "flush response", err)
	}
	return nil
}

func (s *session) deadline(set func(time.Time) error, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	if err := set(time.Now().Add(timeout)); err != nil {
		return tsErr.New(tsErr.ErrorTypeConnection, "set deadline", err)
	}
	return nil
}

// fail logs a transport error. Errors caused by Shutdown closing the
// connection are not counted as failures.
func (s *session) fail(err error) {
	if s.srv.closing() {
		s.logger.Debug("connection closed by shutdown: %v", err)
		return
	}
	s.srv.recorder.ConnectionFailed()
	s.logger.WithError(err).Warn("connection error")
}

func (s *session) transition(event string) {
	if err := s.fsm.Event(context.Background(), event); err != nil {
		s.logger.Debug("transition %s from %s: %v", event, s.fsm.Current(), err)
	}
}

func (s *session) close() {
	s.transition(eventHangup)
	s.conn.Close()
	s.srv.untrack(s.conn)
	s.srv.store.ClientDisconnected()
	s.srv.recorder.ConnectionClosed()
	s.logger.Info("client disconnected")
}

package storage

import (
	"fmt"
	"sync"

	tsErr "github.com/sajjad-MoBe/TupleSpace/node/src/internal/errors"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/protocol"
	"golang.org/x/exp/maps"
)

// Op names an operation counter.
type Op string

const (
	OpPut  Op = "PUT"
	OpGet  Op = "GET"
	OpRead Op = "READ"
	OpErr  Op = "ERR"
)

// Ops lists every counter in display order.
var Ops = []Op{OpPut, OpGet, OpRead, OpErr}

// Result is the outcome of one store operation. Err is a KEY_EXISTS or
// KEY_MISSING TSError for the expected failures.
type Result struct {
	Op    Op
	Key   string
	Value string
	Err   error
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Response renders the result as a wire response.
func (r Result) Response() protocol.Response {
	switch {
	case tsErr.IsKeyExists(r.Err):
		return protocol.AlreadyExists(r.Key)
	case tsErr.IsProtocol(r.Err):
		return protocol.Rejection(r.Err)
	case r.Err != nil:
		return protocol.DoesNotExist(r.Key)
	case r.Op == OpPut:
		return protocol.Added(r.Key, r.Value)
	case r.Op == OpGet:
		return protocol.Removed(r.Key, r.Value)
	default:
		return protocol.Read(r.Key, r.Value)
	}
}

// Store is the shared tuple space. A single mutex guards the tuples,
// the operation counters and the client counters, so every operation
// and every snapshot observes them consistently.
type Store struct {
	mutex         sync.Mutex
	tuples        map[string]string
	ops           map[Op]uint64
	clientsTotal  int
	clientsActive int
}

func NewStore() *Store {
	s := &Store{
		tuples: make(map[string]string),
		ops:    make(map[Op]uint64, len(Ops)),
	}
	for _, op := range Ops {
		s.ops[op] = 0
	}
	return s
}

// Put inserts key with value if key is absent.
func (s *Store) Put(key, value string) Result {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.tuples[key]; exists {
		s.ops[OpErr]++
		return Result{Op: OpPut, Key: key, Err: keyExists(key)}
	}
	s.tuples[key] = value
	s.ops[OpPut]++
	return Result{Op: OpPut, Key: key, Value: value}
}

// Get removes key and returns its value.
func (s *Store) Get(key string) Result {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	value, exists := s.tuples[key]
	if !exists {
		s.ops[OpErr]++
		return Result{Op: OpGet, Key: key, Err: keyMissing(key)}
	}
	delete(s.tuples, key)
	s.ops[OpGet]++
	return Result{Op: OpGet, Key: key, Value: value}
}

// Read returns the value of key without removing it.
func (s *Store) Read(key string) Result {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	value, exists := s.tuples[key]
	if !exists {
		s.ops[OpErr]++
		return Result{Op: OpRead, Key: key, Err: keyMissing(key)}
	}
	s.ops[OpRead]++
	return Result{Op: OpRead, Key: key, Value: value}
}

// Apply dispatches a decoded request to Put, Get or Read.
func (s *Store) Apply(req protocol.Request) Result {
	switch req.Kind {
	case protocol.KindPut:
		return s.Put(req.Key, req.Value)
	case protocol.KindGet:
		return s.Get(req.Key)
	case protocol.KindRead:
		return s.Read(req.Key)
	default:
		s.Reject()
		return Result{Op: OpErr, Key: req.Key,
			Err: tsErr.New(tsErr.ErrorTypeProtocol, protocol.MsgUnknownCommand, nil)}
	}
}

// Reject counts a request that was answered with ERR before reaching the
// tuples, such as an undecodable command.
func (s *Store) Reject() {
	s.mutex.Lock()
	s.ops[OpErr]++
	s.mutex.Unlock()
}

// ClientConnected records a newly accepted connection.
func (s *Store) ClientConnected() {
	s.mutex.Lock()
	s.clientsTotal++
	s.clientsActive++
	s.mutex.Unlock()
}

// ClientDisconnected records a closed connection. The total accepted
// count is left untouched.
func (s *Store) ClientDisconnected() {
	s.mutex.Lock()
	if s.clientsActive > 0 {
		s.clientsActive--
	}
	s.mutex.Unlock()
}

// Len returns the number of tuples.
func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.tuples)
}

// Snapshot computes the store statistics in one critical section.
func (s *Store) Snapshot() Stats {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats := Stats{
		Tuples:           len(s.tuples),
		ClientsConnected: s.clientsTotal,
		ClientsActive:    s.clientsActive,
		Ops:              maps.Clone(s.ops),
	}
	if stats.Tuples == 0 {
		return stats
	}

	var keyBytes, valueBytes int
	for k, v := range s.tuples {
		keyBytes += len(k)
		valueBytes += len(v)
	}
	stats.AvgKeyLen = float64(keyBytes) / float64(stats.Tuples)
	stats.AvgValueLen = float64(valueBytes) / float64(stats.Tuples)
	return stats
}

func keyExists(key string) error {
	return tsErr.New(tsErr.ErrorTypeKeyExists, fmt.Sprintf("%s already exists", key), nil)
}

func keyMissing(key string) error {
	return tsErr.New(tsErr.ErrorTypeKeyMissing, fmt.Sprintf("%s does not exist", key), nil)
}

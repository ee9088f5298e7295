package protocol

import (
	"fmt"
	"strings"

	tsErr "github.com/sajjad-MoBe/TupleSpace/node/src/internal/errors"
)

// Kind is the one letter command code of a request.
type Kind byte

const (
	KindPut  Kind = 'P'
	KindGet  Kind = 'G'
	KindRead Kind = 'R'
)

// String returns the operation name used by counters and the batch client.
func (k Kind) String() string {
	switch k {
	case KindPut:
		return "PUT"
	case KindGet:
		return "GET"
	case KindRead:
		return "READ"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Valid reports whether k is one of the known command codes.
func (k Kind) Valid() bool {
	return k == KindPut || k == KindGet || k == KindRead
}

// Request is one decoded command. Value is only meaningful for PUT.
type Request struct {
	Kind  Kind
	Key   string
	Value string
}

// Rejection messages carried by protocol errors and echoed to the client.
const (
	MsgUnknownCommand = "unknown command"
	MsgMalformed      = "malformed command"
	MsgMalformedFrame = "malformed frame"
	MsgTooLong        = "request too long"
)

// Size limits that keep every possible reply to a request inside one frame.
// The longest replies are "ERR <key> does not exist" and
// "OK (<key>, <value>) removed".
const (
	MaxKeySize   = MaxPayloadSize - len("ERR  does not exist")
	MaxTupleSize = MaxPayloadSize - len("OK (, ) removed")
)

func (r Request) checkSize() error {
	if len(r.Key) > MaxKeySize || len(r.Key)+len(r.Value) > MaxTupleSize {
		return tsErr.New(tsErr.ErrorTypeProtocol, MsgTooLong, nil)
	}
	return nil
}

// Payload renders the request as "<code> <key>[ <value>]".
func (r Request) Payload() (string, error) {
	if !r.Kind.Valid() {
		return "", tsErr.New(tsErr.ErrorTypeProtocol, MsgUnknownCommand, nil)
	}
	if r.Key == "" || strings.Contains(r.Key, " ") {
		return "", tsErr.New(tsErr.ErrorTypeProtocol, fmt.Sprintf("invalid key %q", r.Key), nil)
	}
	if err := r.checkSize(); err != nil {
		return "", err
	}
	if r.Kind == KindPut {
		return fmt.Sprintf("%c %s %s", r.Kind, r.Key, r.Value), nil
	}
	return fmt.Sprintf("%c %s", r.Kind, r.Key), nil
}

// EncodeRequest returns the wire frame for r.
func EncodeRequest(r Request) ([]byte, error) {
	payload, err := r.Payload()
	if err != nil {
		return nil, err
	}
	return EncodeFrame(payload)
}

// DecodeRequest parses a frame payload. The command code must be a single
// known letter followed by exactly one space; PUT values are everything
// after the first space following the key. Requests whose reply could not
// fit in a frame are rejected with MsgTooLong.
func DecodeRequest(payload string) (Request, error) {
	code, rest, found := strings.Cut(payload, " ")
	if len(code) != 1 || !Kind(code[0]).Valid() {
		return Request{}, tsErr.New(tsErr.ErrorTypeProtocol, MsgUnknownCommand, nil)
	}
	if !found {
		return Request{}, tsErr.New(tsErr.ErrorTypeProtocol, MsgMalformed, nil)
	}

	req := Request{Kind: Kind(code[0])}
	switch req.Kind {
	case KindPut:
		key, value, ok := strings.Cut(rest, " ")
		if !ok || key == "" {
			return Request{}, tsErr.New(tsErr.ErrorTypeProtocol, MsgMalformed, nil)
		}
		req.Key, req.Value = key, value
	default:
		if rest == "" || strings.Contains(rest, " ") {
			return Request{}, tsErr.New(tsErr.ErrorTypeProtocol, MsgMalformed, nil)
		}
		req.Key = rest
	}
	if err := req.checkSize(); err != nil {
		return Request{}, err
	}
	return req, nil
}

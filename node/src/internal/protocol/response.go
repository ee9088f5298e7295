package protocol

import (
	"fmt"
	"strings"

	tsErr "github.com/sajjad-MoBe/TupleSpace/node/src/internal/errors"
)

// Status is the leading word of every response.
type Status string

const (
	StatusOK  Status = "OK"
	StatusErr Status = "ERR"
)

// Response is one reply line before framing.
type Response struct {
	Status  Status
	Message string
}

// Text renders the response payload, e.g. "OK (a, 1) added".
func (r Response) Text() string {
	return string(r.Status) + " " + r.Message
}

func Added(key, value string) Response {
	return Response{StatusOK, fmt.Sprintf("(%s, %s) added", key, value)}
}

func Removed(key, value string) Response {
	return Response{StatusOK, fmt.Sprintf("(%s, %s) removed", key, value)}
}

func Read(key, value string) Response {
	return Response{StatusOK, fmt.Sprintf("(%s, %s) read", key, value)}
}

func AlreadyExists(key string) Response {
	return Response{StatusErr, key + " already exists"}
}

func DoesNotExist(key string) Response {
	return Response{StatusErr, key + " does not exist"}
}

func UnknownCommand() Response {
	return Response{StatusErr, MsgUnknownCommand}
}

func Malformed() Response {
	return Response{StatusErr, MsgMalformed}
}

func MalformedFrame() Response {
	return Response{StatusErr, MsgMalformedFrame}
}

func TooLong() Response {
	return Response{StatusErr, MsgTooLong}
}

// Rejection maps a decode failure to the ERR response sent back to the peer.
func Rejection(err error) Response {
	switch {
	case tsErr.IsFraming(err):
		return MalformedFrame()
	case tsErr.IsProtocol(err) && strings.Contains(err.Error(), MsgUnknownCommand):
		return UnknownCommand()
	case tsErr.IsProtocol(err) && strings.Contains(err.Error(), MsgTooLong):
		return TooLong()
	default:
		return Malformed()
	}
}

// EncodeResponse returns the wire frame for r.
func EncodeResponse(r Response) ([]byte, error) {
	return EncodeFrame(r.Text())
}

// ParseResponse splits a response payload back into status and message.
func ParseResponse(text string) (Response, error) {
	status, message, _ := strings.Cut(text, " ")
	switch Status(status) {
	case StatusOK, StatusErr:
		return Response{Status: Status(status), Message: message}, nil
	default:
		return Response{}, tsErr.New(tsErr.ErrorTypeProtocol, fmt.Sprintf("unknown status %q", status), nil)
	}
}

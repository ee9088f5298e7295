// Package protocol implements the tuple space wire format.
//
// A frame is a three digit, zero padded decimal length, a single space and
// a payload. The declared length counts the whole frame, header included:
//
//	009 P x 1
//
// Requests and responses share the same framing; only the payload grammar
// differs.
package protocol

import (
	"bufio"
	"fmt"
	"io"

	tsErr "github.com/sajjad-MoBe/TupleSpace/node/src/internal/errors"
)

const (
	// HeaderSize is the length of the "NNN " prefix.
	HeaderSize = 4
	// MaxFrameSize is the largest length a three digit prefix can declare.
	MaxFrameSize = 999
	// MaxPayloadSize is the largest payload that fits in one frame.
	MaxPayloadSize = MaxFrameSize - HeaderSize
)

// EncodeFrame prefixes text with its frame header.
func EncodeFrame(text string) ([]byte, error) {
	total := len(text) + HeaderSize
	if total > MaxFrameSize {
		return nil, tsErr.New(tsErr.ErrorTypeFraming,
			fmt.Sprintf("payload of %d bytes exceeds %d", len(text), MaxPayloadSize), nil)
	}
	return []byte(fmt.Sprintf("%03d %s", total, text)), nil
}

// WriteFrame encodes text and writes it to w.
func WriteFrame(w io.Writer, text string) error {
	frame, err := EncodeFrame(text)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return tsErr.New(tsErr.ErrorTypeConnection, "write frame", err)
	}
	return nil
}

// ReadFrame reads exactly one frame from r and returns its payload.
// It returns io.EOF unchanged when the stream ends on a frame boundary.
func ReadFrame(r *bufio.Reader) (string, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return "", io.EOF
		}
		return "", tsErr.New(tsErr.ErrorTypeConnection, "read frame header", err)
	}

	total, err := parseHeader(header[:])
	if err != nil {
		return "", err
	}

	payload := make([]byte, total-HeaderSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", tsErr.New(tsErr.ErrorTypeConnection, "read frame payload", err)
	}
	return string(payload), nil
}

// decodeFrame returns the payload of a complete frame held in data.
func decodeFrame(data []byte) (string, error) {
	if len(data) < HeaderSize {
		return "", tsErr.New(tsErr.ErrorTypeFraming,
			fmt.Sprintf("frame of %d bytes is shorter than its header", len(data)), nil)
	}
	total, err := parseHeader(data[:HeaderSize])
	if err != nil {
		return "", err
	}
	if total != len(data) {
		return "", tsErr.New(tsErr.ErrorTypeFraming,
			fmt.Sprintf("declared length %d, got %d bytes", total, len(data)), nil)
	}
	return string(data[HeaderSize:]), nil
}

func parseHeader(header []byte) (int, error) {
	if header[3] != ' ' {
		return 0, tsErr.New(tsErr.ErrorTypeFraming, fmt.Sprintf("bad header %q", header), nil)
	}
	total := 0
	for _, c := range header[:3] {
		if c < '0' || c > '9' {
			return 0, tsErr.New(tsErr.ErrorTypeFraming, fmt.Sprintf("bad header %q", header), nil)
		}
		total = total*10 + int(c-'0')
	}
	if total < HeaderSize {
		return 0, tsErr.New(tsErr.ErrorTypeFraming, fmt.Sprintf("declared length %d below header size", total), nil)
	}
	return total, nil
}

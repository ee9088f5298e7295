package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	tsErr "github.com/sajjad-MoBe/TupleSpace/node/src/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"put", Request{Kind: KindPut, Key: "x", Value: "1"}, "009 P x 1"},
		{"get", Request{Kind: KindGet, Key: "x"}, "007 G x"},
		{"read", Request{Kind: KindRead, Key: "key"}, "009 R key"},
		{"put value with spaces", Request{Kind: KindPut, Key: "k", Value: "hello world"}, "019 P k hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeRequest(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestEncodeRequestRejectsInvalid(t *testing.T) {
	_, err := EncodeRequest(Request{Kind: 'X', Key: "a"})
	assert.True(t, tsErr.IsProtocol(err))

	_, err = EncodeRequest(Request{Kind: KindGet, Key: ""})
	assert.True(t, tsErr.IsProtocol(err))

	_, err = EncodeRequest(Request{Kind: KindGet, Key: "a b"})
	assert.True(t, tsErr.IsProtocol(err))

	_, err = EncodeRequest(Request{Kind: KindPut, Key: "a", Value: strings.Repeat("v", MaxPayloadSize)})
	assert.True(t, tsErr.IsProtocol(err))
	assert.Equal(t, TooLong(), Rejection(err))
}

func TestEncodeFrameLimit(t *testing.T) {
	frame, err := EncodeFrame(strings.Repeat("x", MaxPayloadSize))
	require.NoError(t, err)
	assert.Len(t, frame, MaxFrameSize)
	assert.Equal(t, "999 ", string(frame[:HeaderSize]))

	_, err = EncodeFrame(strings.Repeat("x", MaxPayloadSize+1))
	assert.True(t, tsErr.IsFraming(err))
}

// Every reply to an accepted request must still fit in one frame.
func TestRequestSizeLimits(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		tooLong bool
	}{
		{"largest put", Request{Kind: KindPut, Key: "k", Value: strings.Repeat("v", MaxTupleSize-1)}, false},
		{"put one byte over", Request{Kind: KindPut, Key: "k", Value: strings.Repeat("v", MaxTupleSize)}, true},
		{"put long key", Request{Kind: KindPut, Key: strings.Repeat("k", MaxKeySize+1), Value: ""}, true},
		{"largest get key", Request{Kind: KindGet, Key: strings.Repeat("k", MaxKeySize)}, false},
		{"get key one byte over", Request{Kind: KindGet, Key: strings.Repeat("k", MaxKeySize+1)}, true},
		{"read key one byte over", Request{Kind: KindRead, Key: strings.Repeat("k", MaxKeySize+1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := fmt.Sprintf("%c %s", tt.req.Kind, tt.req.Key)
			if tt.req.Kind == KindPut {
				payload += " " + tt.req.Value
			}
			require.LessOrEqual(t, len(payload), MaxPayloadSize, "request itself must fit a frame")

			got, err := DecodeRequest(payload)
			if tt.tooLong {
				assert.True(t, tsErr.IsProtocol(err))
				assert.Equal(t, TooLong(), Rejection(err))
				_, err = EncodeRequest(tt.req)
				assert.True(t, tsErr.IsProtocol(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req, got)

			for _, resp := range []Response{
				Added(got.Key, got.Value), Removed(got.Key, got.Value), Read(got.Key, got.Value),
				AlreadyExists(got.Key), DoesNotExist(got.Key),
			} {
				_, err := EncodeResponse(resp)
				assert.NoError(t, err, resp.Text()[:20])
			}
		})
	}
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Request
		wantMsg string
	}{
		{name: "put", payload: "P x 1", want: Request{Kind: KindPut, Key: "x", Value: "1"}},
		{name: "put splits on first space", payload: "P k a b c", want: Request{Kind: KindPut, Key: "k", Value: "a b c"}},
		{name: "put empty value", payload: "P k ", want: Request{Kind: KindPut, Key: "k", Value: ""}},
		{name: "get", payload: "G x", want: Request{Kind: KindGet, Key: "x"}},
		{name: "read", payload: "R x", want: Request{Kind: KindRead, Key: "x"}},
		{name: "unknown code", payload: "X x", wantMsg: MsgUnknownCommand},
		{name: "long code", payload: "PUT x 1", wantMsg: MsgUnknownCommand},
		{name: "empty payload", payload: "", wantMsg: MsgUnknownCommand},
		{name: "code only", payload: "G", wantMsg: MsgMalformed},
		{name: "double space", payload: "G  x", wantMsg: MsgMalformed},
		{name: "get key with space", payload: "G a b", wantMsg: MsgMalformed},
		{name: "put without value", payload: "P x", wantMsg: MsgMalformed},
		{name: "put empty key", payload: "P  v", wantMsg: MsgMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRequest(tt.payload)
			if tt.wantMsg != "" {
				require.Error(t, err)
				assert.True(t, tsErr.IsProtocol(err))
				assert.Contains(t, err.Error(), tt.wantMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestRoundTrip(t *testing.T) {
	reqs := []Request{
		{Kind: KindPut, Key: "alpha", Value: "some value"},
		{Kind: KindGet, Key: "alpha"},
		{Kind: KindRead, Key: "beta"},
	}
	for _, req := range reqs {
		frame, err := EncodeRequest(req)
		require.NoError(t, err)

		payload, err := decodeFrame(frame)
		require.NoError(t, err)

		got, err := DecodeRequest(payload)
		require.NoError(t, err)
		assert.Equal(t, req, got)
	}
}

func TestResponses(t *testing.T) {
	assert.Equal(t, "OK (a, 1) added", Added("a", "1").Text())
	assert.Equal(t, "OK (a, 1) removed", Removed("a", "1").Text())
	assert.Equal(t, "OK (a, 1) read", Read("a", "1").Text())
	assert.Equal(t, "ERR a already exists", AlreadyExists("a").Text())
	assert.Equal(t, "ERR a does not exist", DoesNotExist("a").Text())
	assert.Equal(t, "ERR unknown command", UnknownCommand().Text())

	frame, err := EncodeResponse(Read("a", "1"))
	require.NoError(t, err)
	assert.Equal(t, "018 OK (a, 1) read", string(frame))
}

func TestResponseRoundTrip(t *testing.T) {
	for _, resp := range []Response{Added("k", "v v"), DoesNotExist("k"), Malformed()} {
		frame, err := EncodeResponse(resp)
		require.NoError(t, err)

		text, err := decodeFrame(frame)
		require.NoError(t, err)
		assert.Equal(t, resp.Text(), text)

		parsed, err := ParseResponse(text)
		require.NoError(t, err)
		assert.Equal(t, resp, parsed)
	}

	_, err := ParseResponse("MAYBE x")
	assert.True(t, tsErr.IsProtocol(err))
}

func TestRejection(t *testing.T) {
	_, err := DecodeRequest("Z a")
	assert.Equal(t, UnknownCommand(), Rejection(err))

	_, err = DecodeRequest("P a")
	assert.Equal(t, Malformed(), Rejection(err))

	_, err = decodeFrame([]byte("abc P"))
	assert.Equal(t, MalformedFrame(), Rejection(err))
}

func TestDecodeFrameLengthMismatch(t *testing.T) {
	_, err := decodeFrame([]byte("010 P x 1"))
	assert.True(t, tsErr.IsFraming(err))

	_, err = decodeFrame([]byte("00"))
	assert.True(t, tsErr.IsFraming(err))

	_, err = decodeFrame([]byte("002 "))
	assert.True(t, tsErr.IsFraming(err))
}

func TestReadFrame(t *testing.T) {
	t.Run("consecutive frames", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("009 P x 1007 G x"))

		payload, err := ReadFrame(r)
		require.NoError(t, err)
		assert.Equal(t, "P x 1", payload)

		payload, err = ReadFrame(r)
		require.NoError(t, err)
		assert.Equal(t, "G x", payload)

		_, err = ReadFrame(r)
		assert.Equal(t, io.EOF, err)
	})

	t.Run("partial reads are joined", func(t *testing.T) {
		r := bufio.NewReader(io.MultiReader(
			strings.NewReader("00"),
			strings.NewReader("9 P x"),
			strings.NewReader(" 1"),
		))
		payload, err := ReadFrame(r)
		require.NoError(t, err)
		assert.Equal(t, "P x 1", payload)
	})

	t.Run("truncated payload", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("009 P x"))
		_, err := ReadFrame(r)
		assert.True(t, tsErr.IsConnection(err))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("truncated header", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("00"))
		_, err := ReadFrame(r)
		assert.True(t, tsErr.IsConnection(err))
	})

	t.Run("bad header", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("x09 P x 1"))
		_, err := ReadFrame(r)
		assert.True(t, tsErr.IsFraming(err))
	})
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, "OK (a, 1) added"))
	assert.Equal(t, "019 OK (a, 1) added", buf.String())
}

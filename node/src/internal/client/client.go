package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	tsErr "github.com/sajjad-MoBe/TupleSpace/node/src/internal/errors"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/protocol"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"
)

// Client holds one connection to a tuple space server
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	logger *shared.Logger
	// One request in flight per connection
	mu sync.Mutex
}

// Dial connects to addr
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, tsErr.New(tsErr.ErrorTypeConnection, fmt.Sprintf("dial %s", addr), err)
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		logger: shared.DefaultLogger,
	}, nil
}

// SetLogger replaces the client's logger
func (c *Client) SetLogger(logger *shared.Logger) {
	c.logger = logger
}

// Do sends req and blocks until its response arrives. The returned string is
// the response text without the frame header.
func (c *Client) Do(ctx context.Context, req protocol.Request) (string, error) {
	frame, err := protocol.EncodeRequest(req)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", tsErr.New(tsErr.ErrorTypeConnection, "set deadline", err)
	}

	if _, err := c.conn.Write(frame); err != nil {
		return "", tsErr.New(tsErr.ErrorTypeConnection, "write request", err)
	}

	text, err := protocol.ReadFrame(c.reader)
	if err != nil {
		if err == io.EOF {
			return "", tsErr.New(tsErr.ErrorTypeConnection, "server closed connection", err)
		}
		return "", err
	}
	c.logger.Debug("%s %s -> %s", req.Kind, req.Key, text)
	return text, nil
}

// Close closes the underlying connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// ParseLine turns one request file line into a request. Lines look like
// "PUT <key> <value>", "GET <key>" or "READ <key>"; the value keeps any
// spaces and anything after a GET or READ key is ignored.
func ParseLine(line string) (protocol.Request, error) {
	line = strings.TrimSpace(line)
	parts := strings.SplitN(line, " ", 3)

	switch {
	case parts[0] == "PUT" && len(parts) >= 3:
		return protocol.Request{Kind: protocol.KindPut, Key: parts[1], Value: parts[2]}, nil
	case parts[0] == "GET" && len(parts) >= 2:
		return protocol.Request{Kind: protocol.KindGet, Key: parts[1]}, nil
	case parts[0] == "READ" && len(parts) >= 2:
		return protocol.Request{Kind: protocol.KindRead, Key: parts[1]}, nil
	}
	return protocol.Request{}, tsErr.New(tsErr.ErrorTypeProtocol, "Invalid line: "+line, nil)
}

// RunBatch issues one blocking request per non-blank line of in and writes
// "<line>: <response>" for each to out. Invalid lines are reported and
// skipped; a transport failure stops the batch.
func (c *Client) RunBatch(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		req, err := ParseLine(line)
		if err == nil {
			// Empty keys ("GET  k") and oversized requests fail encoding.
			_, err = protocol.EncodeRequest(req)
		}
		if err != nil {
			fmt.Fprintln(out, "Invalid line: "+line)
			continue
		}

		text, err := c.Do(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", line, text)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request file: %w", err)
	}
	return nil
}

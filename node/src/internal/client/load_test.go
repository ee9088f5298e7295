package client

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/protocol"

	"github.com/stretchr/testify/assert"
)

// runLoadTest runs numOperations calls of operation, at most numConcurrent at
// a time, each on one of numConcurrent dedicated connections.
func runLoadTest(t *testing.T, addr string, numOperations, numConcurrent int, operation func(*Client) error) time.Duration {
	clients := make(chan *Client, numConcurrent)
	for i := 0; i < numConcurrent; i++ {
		clients <- dialClient(t, addr)
	}

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < numOperations; i++ {
		wg.Add(1)
		c := <-clients // Acquire a connection

		go func() {
			defer wg.Done()
			defer func() { clients <- c }() // Release

			if err := operation(c); err != nil {
				t.Errorf("Operation failed: %v", err)
			}
		}()
	}

	wg.Wait()
	return time.Since(start)
}

func TestLoadMixed(t *testing.T) {
	testCases := []struct {
		name          string
		numOperations int
		numConcurrent int
	}{
		{name: "Low Load", numOperations: 100, numConcurrent: 10},
		{name: "Medium Load", numOperations: 500, numConcurrent: 50},
		{name: "High Load", numOperations: 1000, numConcurrent: 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, store := startServer(t)
			kinds := []protocol.Kind{protocol.KindPut, protocol.KindGet, protocol.KindRead}

			duration := runLoadTest(t, addr, tc.numOperations, tc.numConcurrent, func(c *Client) error {
				req := protocol.Request{
					Kind:  kinds[rand.Intn(len(kinds))],
					Key:   fmt.Sprintf("key-%d", rand.Intn(50)),
					Value: "value",
				}
				resp, err := c.Do(context.Background(), req)
				if err != nil {
					return err
				}
				if !strings.HasPrefix(resp, "OK ") && !strings.HasPrefix(resp, "ERR ") {
					return fmt.Errorf("unexpected response %q", resp)
				}
				return nil
			})

			rps := float64(tc.numOperations) / duration.Seconds()
			t.Logf("Operations: %d, Concurrent: %d, Duration: %v, RPS: %.2f",
				tc.numOperations, tc.numConcurrent, duration, rps)

			snap := store.Snapshot()
			assert.Equal(t, uint64(tc.numOperations), snap.TotalOps())
			assert.Eventually(t, func() bool {
				return store.Snapshot().ClientsConnected == tc.numConcurrent
			}, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func BenchmarkPutGet(b *testing.B) {
	addr, _ := startServer(b)
	c := dialClient(b, addr)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("key-%d", i)
		if _, err := c.Do(context.Background(), protocol.Request{Kind: protocol.KindPut, Key: key, Value: "v"}); err != nil {
			b.Fatal(err)
		}
		if _, err := c.Do(context.Background(), protocol.Request{Kind: protocol.KindGet, Key: key}); err != nil {
			b.Fatal(err)
		}
	}
}

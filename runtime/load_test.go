package runtime

import (
	"context"
	"log/slog"
	"nextext/domain"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistry_LoadTest(t *testing.T) {
	if testing.Short() {
		t.Skip("load test skipped in short mode")
	}
	req := require.New(t)
	registry := NewRegistry(slog.New(slog.DiscardHandler), 100*time.Millisecond)
	ctx := context.Background()

	// 1. 500 users online with two connections each
	const (
		numUsers          = 500
		messagesPerClient = 200
	)
	conns := make([]*fakeConn, 0, numUsers*2)
	for u := 1; u <= numUsers; u++ {
		for range 2 {
			conn := newFakeConn(domain.UserID(u))
			registry.Connect(conn.UserID(), conn)
			conns = append(conns, conn)
		}
	}

	// 2. Every user sends to its neighbour while others join and leave
	var delivered atomic.Uint64
	var wg sync.WaitGroup
	start := time.Now()
	for u := 1; u <= numUsers; u++ {
		wg.Add(1)
		go func(sender domain.UserID) {
			defer wg.Done()
			recipient := sender%numUsers + 1
			for j := range messagesPerClient {
				msg := domain.Message{ID: int64(j), SenderID: sender, RecipientID: recipient, Content: "load"}
				delivered.Add(uint64(registry.SendTo(ctx, recipient, msg)))
				delivered.Add(uint64(registry.SendTo(ctx, sender, msg)))
			}
		}(domain.UserID(u))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 1000 {
			transient := newFakeConn(domain.UserID(numUsers + 1))
			registry.Connect(transient.UserID(), transient)
			registry.ListOnline()
			registry.Disconnect(transient.UserID(), transient)
		}
	}()
	wg.Wait()
	duration := time.Since(start)

	// 3. Every send reached both connections of both parties
	expected := uint64(numUsers * messagesPerClient * 4)
	req.Equal(expected, delivered.Load())
	req.Equal(numUsers, registry.Stats().Users)
	for _, conn := range conns {
		req.Len(conn.messages(), messagesPerClient*2)
	}
	t.Logf("Delivered %d messages in %v (%.0f deliveries/sec)", expected, duration, float64(expected)/duration.Seconds())
}

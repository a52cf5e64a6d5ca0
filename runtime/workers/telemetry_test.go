package workers

import (
	"bytes"
	"context"
	"log/slog"
	"nextext/observability"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTelemetryWorker_Reports_Periodically(t *testing.T) {
	req := require.New(t)
	// Given a monitor with one persisted message
	var out syncBuffer
	log := slog.New(slog.NewJSONHandler(&out, nil))
	monitor := observability.NewMonitor(log, func() (int, int) { return 1, 2 })
	monitor.IncrMessagesPersisted()
	worker := NewTelemetryWorker(log, 10*time.Millisecond, monitor)

	// When the worker runs for a while
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Then snapshots are logged and the worker stops cleanly
	req.Eventually(func() bool {
		return strings.Contains(out.String(), `"messages_persisted":1`)
	}, time.Second, 10*time.Millisecond)
	req.Contains(out.String(), `"connections":2`)

	cancel()
	req.NoError(<-done)
}

package workers

import (
	"context"
	"log/slog"
	"nextext/observability"
	"time"
)

// TelemetryWorker logs a snapshot of the messaging pipeline every metricInterval.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	monitor        *observability.Monitor
}

func NewTelemetryWorker(log *slog.Logger, metricInterval time.Duration, monitor *observability.Monitor) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metricInterval: metricInterval,
		monitor:        monitor,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.report(ctx)
		}
	}
}

func (w *TelemetryWorker) report(ctx context.Context) {
	stats := w.monitor.Snapshot()
	w.log.LogAttrs(ctx, slog.LevelInfo, "Telemetry",
		slog.Int("online_users", stats.OnlineUsers),
		slog.Int("connections", stats.Connections),
		slog.Uint64("frames_received", stats.FramesReceived),
		slog.Uint64("frames_rejected", stats.FramesRejected),
		slog.Uint64("messages_persisted", stats.MessagesPersisted),
		slog.Uint64("persist_failures", stats.PersistFailures),
		slog.Uint64("deliveries", stats.Deliveries),
		slog.Uint64("handshakes_rejected", stats.HandshakesRejected),
		slog.Int("goroutines", stats.Goroutines),
		slog.Float64("rss_mb", stats.RSSMb),
		slog.Float64("cpu_percent", stats.CPUPercent),
	)
}

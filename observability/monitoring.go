package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is a point-in-time view of the messaging pipeline and of the process hosting it.
type Stats struct {
	// --- SESSIONS ---
	OnlineUsers        int    `json:"online_users"`
	Connections        int    `json:"connections"`
	ConnectionsOpened  uint64 `json:"connections_opened"`
	HandshakesRejected uint64 `json:"handshakes_rejected"`

	// --- PIPELINE ---
	FramesReceived    uint64 `json:"frames_received"`
	FramesRejected    uint64 `json:"frames_rejected"`
	MessagesPersisted uint64 `json:"messages_persisted"`
	PersistFailures   uint64 `json:"persist_failures"`
	Deliveries        uint64 `json:"deliveries"`

	// --- SYSTEM ---
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	RSSMb         float64 `json:"rss_mb"`
	CPUPercent    float64 `json:"cpu_percent"`
}

// SessionCounter reports how many users and connections are currently registered.
type SessionCounter func() (users int, connections int)

// Monitor aggregates pipeline counters. A nil *Monitor ignores every increment.
type Monitor struct {
	log      *slog.Logger
	started  time.Time
	sessions SessionCounter
	proc     *process.Process

	connectionsOpened  atomic.Uint64
	handshakesRejected atomic.Uint64
	framesReceived     atomic.Uint64
	framesRejected     atomic.Uint64
	messagesPersisted  atomic.Uint64
	persistFailures    atomic.Uint64
	deliveries         atomic.Uint64
}

func NewMonitor(log *slog.Logger, sessions SessionCounter) *Monitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process metrics unavailable", "error", err)
	}
	return &Monitor{log: log, started: time.Now(), sessions: sessions, proc: proc}
}

func (m *Monitor) IncrConnectionsOpened() {
	if m != nil {
		m.connectionsOpened.Add(1)
	}
}

func (m *Monitor) IncrHandshakesRejected() {
	if m != nil {
		m.handshakesRejected.Add(1)
	}
}

func (m *Monitor) IncrFramesReceived() {
	if m != nil {
		m.framesReceived.Add(1)
	}
}

func (m *Monitor) IncrFramesRejected() {
	if m != nil {
		m.framesRejected.Add(1)
	}
}

func (m *Monitor) IncrMessagesPersisted() {
	if m != nil {
		m.messagesPersisted.Add(1)
	}
}

func (m *Monitor) IncrPersistFailures() {
	if m != nil {
		m.persistFailures.Add(1)
	}
}

func (m *Monitor) AddDeliveries(n int) {
	if m != nil && n > 0 {
		m.deliveries.Add(uint64(n))
	}
}

// Snapshot reads every counter plus Go runtime and process metrics.
func (m *Monitor) Snapshot() Stats {
	stats := Stats{
		ConnectionsOpened:  m.connectionsOpened.Load(),
		HandshakesRejected: m.handshakesRejected.Load(),
		FramesReceived:     m.framesReceived.Load(),
		FramesRejected:     m.framesRejected.Load(),
		MessagesPersisted:  m.messagesPersisted.Load(),
		PersistFailures:    m.persistFailures.Load(),
		Deliveries:         m.deliveries.Load(),
		UptimeSeconds:      time.Since(m.started).Seconds(),
		Goroutines:         runtime.NumGoroutine(),
	}
	if m.sessions != nil {
		stats.OnlineUsers, stats.Connections = m.sessions()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stats.AllocMemMb = mem.Alloc / 1024 / 1024
	stats.NumGC = mem.NumGC

	if m.proc != nil {
		if info, err := m.proc.MemoryInfo(); err == nil {
			stats.RSSMb = float64(info.RSS) / 1024 / 1024
		} else {
			m.log.Debug("Error while reading process memory", "error", err)
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		} else {
			m.log.Debug("Error while reading process cpu usage", "error", err)
		}
	}
	return stats
}

// Package shutdown signals when the server has gone idle, so scale-to-zero
// hosts (Fly.io machines) can stop the process between user sessions.
package shutdown

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// BackgroundWorkChecker reports whether background work is in progress;
// the monitor will not signal shutdown while it returns true.
type BackgroundWorkChecker func() bool

// IdleMonitorConfig configures an IdleMonitor.
type IdleMonitorConfig struct {
	Timeout             time.Duration // idle period before signaling; 0 disables
	Logger              *slog.Logger
	ExcludePaths        []string // path prefixes that never count as activity
	BackgroundWorkCheck BackgroundWorkChecker
}

// IdleMonitor watches request traffic and closes its shutdown channel once
// the server has seen no countable activity for the configured timeout.
// Probe paths are excluded so orchestrator health checks don't keep the
// machine alive forever.
type IdleMonitor struct {
	cfg IdleMonitorConfig

	inflight atomic.Int64
	lastSeen atomic.Int64 // unix nanos of last countable activity

	shutdown chan struct{}
	stop     chan struct{}
}

// NewIdleMonitor creates an idle monitor. A zero timeout disables it.
func NewIdleMonitor(cfg IdleMonitorConfig) *IdleMonitor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	m := &IdleMonitor{
		cfg:      cfg,
		shutdown: make(chan struct{}),
		stop:     make(chan struct{}),
	}
	m.touch()
	return m
}

// Start launches the watch loop.
func (m *IdleMonitor) Start() {
	if m.cfg.Timeout <= 0 {
		m.cfg.Logger.Debug("idle monitoring disabled")
		return
	}
	m.cfg.Logger.Info("idle monitoring started",
		"timeout", m.cfg.Timeout,
		"exclude_paths", m.cfg.ExcludePaths,
	)
	go m.watch()
}

// Stop terminates the watch loop.
func (m *IdleMonitor) Stop() {
	if m.cfg.Timeout <= 0 {
		return
	}
	close(m.stop)
}

// ShutdownChan is closed when the idle timeout elapses.
func (m *IdleMonitor) ShutdownChan() <-chan struct{} {
	return m.shutdown
}

// Middleware records request activity for every non-excluded path.
func (m *IdleMonitor) Middleware(next http.Handler) http.Handler {
	if m.cfg.Timeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.excluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		m.inflight.Add(1)
		m.touch()
		defer func() {
			m.inflight.Add(-1)
			m.touch()
		}()
		next.ServeHTTP(w, r)
	})
}

func (m *IdleMonitor) excluded(path string) bool {
	for _, p := range m.cfg.ExcludePaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (m *IdleMonitor) touch() {
	m.lastSeen.Store(time.Now().UnixNano())
}

func (m *IdleMonitor) watch() {
	// Poll well inside the timeout so the signal lands promptly.
	interval := min(max(m.cfg.Timeout/6, 5*time.Second), 30*time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			busy := m.inflight.Load() > 0
			if !busy && m.cfg.BackgroundWorkCheck != nil {
				busy = m.cfg.BackgroundWorkCheck()
			}
			if busy {
				// Reset so finished work gets a full grace period.
				m.touch()
				continue
			}

			idle := time.Since(time.Unix(0, m.lastSeen.Load()))
			if idle < m.cfg.Timeout {
				m.cfg.Logger.Debug("idle check", "idle", idle, "timeout", m.cfg.Timeout)
				continue
			}

			m.cfg.Logger.Info("idle timeout reached, signaling graceful shutdown",
				"idle", idle,
				"timeout", m.cfg.Timeout,
			)
			close(m.shutdown)
			return
		}
	}
}

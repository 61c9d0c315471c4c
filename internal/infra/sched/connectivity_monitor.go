package sched

import (
	"context"
	"sync"
	"time"

	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var (
	_ adapter.ConnectivityObserver = (*ConnectivityMonitor)(nil)
	_ adapter.ConnectivityObserver = Static(true)
)

// Probe checks one backend the finalize sequence depends on.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// ConnectivityMonitor probes the backends on a ticker and keeps the latest
// verdict. It starts optimistic: Connected is true until a probe fails.
type ConnectivityMonitor struct {
	interval time.Duration
	timeout  time.Duration
	probes   []Probe
	log      *zerolog.Logger

	mu        sync.RWMutex
	connected bool
	subs      map[int]func(bool)
	nextSub   int
}

func NewConnectivityMonitor(interval time.Duration, probes []Probe, logger *zerolog.Logger) *ConnectivityMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	l := logger.With().Str("component", "ConnectivityMonitor").Logger()
	return &ConnectivityMonitor{
		interval:  interval,
		timeout:   5 * time.Second,
		probes:    probes,
		log:       &l,
		connected: true,
		subs:      make(map[int]func(bool)),
	}
}

func (m *ConnectivityMonitor) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *ConnectivityMonitor) Subscribe(fn func(bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *ConnectivityMonitor) Run(ctx context.Context) error {
	m.log.Info().Dur("interval", m.interval).Int("probes", len(m.probes)).Msg("Starting connectivity monitor")
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("Stopping connectivity monitor")
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs every probe once and publishes the combined result.
func (m *ConnectivityMonitor) Check(ctx context.Context) bool {
	up := true
	for _, p := range m.probes {
		pctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := p.Check(pctx)
		cancel()
		metrics.SetBackendUp(p.Name, err == nil)
		if err != nil {
			up = false
			m.log.Warn().Err(err).Str("backend", p.Name).Msg("probe failed")
		}
	}
	m.set(up)
	return up
}

func (m *ConnectivityMonitor) set(up bool) {
	m.mu.Lock()
	if m.connected == up {
		m.mu.Unlock()
		return
	}
	m.connected = up
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	m.log.Info().Bool("connected", up).Msg("connectivity changed")
	for _, fn := range subs {
		fn(up)
	}
}

// Static is a fixed connectivity answer for dev runs and tests.
type Static bool

func (s Static) Connected() bool { return bool(s) }

func (s Static) Subscribe(func(bool)) func() { return func() {} }

// internal/admin/manager.go
//
// Session registry and lifecycle.
//
// Context
// -------
// The Manager owns every live admin session, keyed by administrator id.
// Each inbound event locks its session for the whole step, so the FSM sees
// strictly sequential input per admin.  A background sweeper drops sessions
// abandoned mid-wizard: the protocol has no other timeout, so without it a
// half-finished wizard would pin its pending data forever.
//
// Notes
// -----
// • The admin id set is static for the process lifetime, supplied at
//   construction from startup configuration.
// • Oxford commas, two spaces after periods.
package admin

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/topicrelay/internal/debuglog"
	"github.com/yanizio/topicrelay/internal/metrics"
	"github.com/yanizio/topicrelay/internal/routing"
	"github.com/yanizio/topicrelay/internal/store"
)

// SweepInterval is how often the idle sweeper scans sessions.
const SweepInterval = 5 * time.Minute

// Manager drives admin sessions against the store and routing table.
type Manager struct {
	store   *store.Store
	table   *routing.Table
	debug   *debuglog.Recorder
	log     *zap.SugaredLogger
	admins  map[int64]struct{}
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[int64]*Session

	sweepTicker *time.Ticker
	sweepDone   chan struct{}
}

// NewManager constructs the Manager and starts the idle sweeper when
// idleTTL > 0.
func NewManager(
	st *store.Store,
	table *routing.Table,
	debug *debuglog.Recorder,
	adminIDs []int64,
	idleTTL time.Duration,
	log *zap.SugaredLogger,
) *Manager {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	m := &Manager{
		store:    st,
		table:    table,
		debug:    debug,
		log:      log,
		admins:   admins,
		idleTTL:  idleTTL,
		sessions: make(map[int64]*Session),
	}
	if idleTTL > 0 {
		m.sweepTicker = time.NewTicker(SweepInterval)
		m.sweepDone = make(chan struct{})
		go m.sweepLoop()
	}
	log.Infow("admin manager online", "admins", len(admins), "idle_ttl", idleTTL)
	return m
}

// Close stops the idle sweeper.
func (m *Manager) Close() {
	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
		close(m.sweepDone)
	}
}

// IsAdmin reports whether id belongs to the static administrator set.
func (m *Manager) IsAdmin(id int64) bool {
	_, ok := m.admins[id]
	return ok
}

// openSession returns the admin's session, creating one at the main menu
// when none exists.
func (m *Manager) openSession(adminID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[adminID]; ok {
		return s
	}
	s := newSession(adminID)
	m.sessions[adminID] = s
	metrics.ActiveAdminSessions.Inc()
	return s
}

// lookupSession returns the live session for adminID, if any.
func (m *Manager) lookupSession(adminID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[adminID]
	return s, ok
}

// endSession removes the session from the registry.  Callers hold s.mu.
func (m *Manager) endSession(s *Session) {
	s.state = StateEnded
	clear(s.pending)
	m.mu.Lock()
	if cur, ok := m.sessions[s.adminID]; ok && cur == s {
		delete(m.sessions, s.adminID)
		metrics.ActiveAdminSessions.Dec()
	}
	m.mu.Unlock()
}

// sweepLoop evicts sessions idle longer than idleTTL.
func (m *Manager) sweepLoop() {
	for {
		select {
		case <-m.sweepDone:
			return
		case <-m.sweepTicker.C:
		}
		cutoff := time.Now().Add(-m.idleTTL)

		m.mu.Lock()
		var stale []*Session
		for _, s := range m.sessions {
			stale = append(stale, s)
		}
		m.mu.Unlock()

		for _, s := range stale {
			s.mu.Lock()
			if s.state != StateEnded && s.lastSeen.Before(cutoff) {
				idle := time.Since(s.lastSeen)
				m.endSession(s)
				m.log.Infow("admin session evicted",
					"admin", s.adminID,
					"idle", idle.Truncate(time.Second),
				)
			}
			s.mu.Unlock()
		}
	}
}

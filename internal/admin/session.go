// internal/admin/session.go
//
// Per-administrator session state.
//
// Context
// -------
// One logical session exists per interacting administrator.  The Manager
// holds the session under the admin's id and locks it for the duration of
// each step, so steps of one session never overlap or reorder.  Sessions
// across different administrators are fully independent; the store's
// uniqueness constraints are the only cross-session guard.
package admin

import (
	"sync"
	"time"
)

// State is the session position in the wizard graph.
type State int

const (
	StateEnded State = iota
	StateMainMenu
	StateTopicsMenu
	StateSourceChannelsMenu
	StateAddTopic
	StateDeleteTopicSelect
	StateEditTopicSelect
	StateEditTopicData
	StateAddSourceChannel
	StateDeleteSourceChannelSelect
	StateSetTarget
)

// waiting reports whether s expects free-text input.
func (s State) waiting() bool {
	switch s {
	case StateAddTopic, StateDeleteTopicSelect, StateEditTopicSelect,
		StateEditTopicData, StateAddSourceChannel,
		StateDeleteSourceChannelSelect, StateSetTarget:
		return true
	}
	return false
}

const pendingEditPrefix = "edit_prefix"

// Session is one administrator's in-progress dialogue.
type Session struct {
	mu sync.Mutex

	adminID  int64
	state    State
	pending  map[string]string // transient wizard fields
	lastSeen time.Time         // idle-sweeper input
}

func newSession(adminID int64) *Session {
	return &Session{
		adminID:  adminID,
		state:    StateMainMenu,
		pending:  make(map[string]string),
		lastSeen: time.Now(),
	}
}

// reset returns the session to the main menu, discarding pending data.
func (s *Session) reset() {
	s.state = StateMainMenu
	clear(s.pending)
}

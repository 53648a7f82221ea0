// internal/admin/fsm.go
//
// Session state machine.
//
// Context
// -------
// Three event kinds arrive from the transport: entry/cancel commands, menu
// actions (tokens from keyboards), and free-text replies for waiting
// states.  Each handler runs under the session lock, validates input before
// touching the store, treats store constraint violations as the
// authoritative duplicate signal, and reloads the routing snapshot before
// reporting any mutation as successful.
//
// Failure policy (per record kind of trouble):
//   - malformed input        → re-prompt, same state, store untouched
//   - duplicate / not-found  → reported, back to the owning menu
//   - store unavailable      → reported; reads keep the session in place,
//     failed writes end it rather than leave a wizard claiming progress
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yanizio/topicrelay/internal/store"
)

const nonAdminGreeting = "Hi!  I relay prefixed messages into topics.\n\n" +
	"Send a message like:\n/prefix data\n\nFor example: /1 27.5"

// HandleCommand processes an entry command ("start", "admin", "cancel", or
// anything else the platform delivered as a command).
func (m *Manager) HandleCommand(ctx context.Context, userID int64, command string) []Reply {
	switch command {
	case "start":
		if !m.IsAdmin(userID) {
			return []Reply{textReply(nonAdminGreeting)}
		}
	case "admin":
		if !m.IsAdmin(userID) {
			return []Reply{textReply("You do not have access to the admin panel.")}
		}
	case "cancel":
		if !m.IsAdmin(userID) {
			return nil
		}
		if s, ok := m.lookupSession(userID); ok {
			s.mu.Lock()
			m.endSession(s)
			s.mu.Unlock()
			return []Reply{textReply("Operation cancelled.")}
		}
		// Nothing to cancel: treat like any unrecognized admin command.
	default:
		// Unrecognized commands: silent end for non-admins, main-menu
		// fallback for admins.
		if !m.IsAdmin(userID) {
			return nil
		}
	}

	s := m.openSession(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	s.reset()
	return []Reply{mainMenuReply(m.debug.Enabled())}
}

// HandleAction processes one menu selection.
func (m *Manager) HandleAction(ctx context.Context, userID int64, token string) []Reply {
	if !m.IsAdmin(userID) {
		return nil
	}
	s, ok := m.lookupSession(userID)
	if !ok {
		// Stale keyboard from an ended session: behave like the fallback.
		s = m.openSession(userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	action := ParseAction(token)
	switch s.state {
	case StateMainMenu:
		return m.mainMenuAction(ctx, s, action)
	case StateTopicsMenu:
		return m.topicsMenuAction(ctx, s, action)
	case StateSourceChannelsMenu:
		return m.sourceChannelsMenuAction(ctx, s, action)
	default:
		// Waiting states expect free text, not menu actions.
		return m.fallback(s)
	}
}

// HandleText processes one free-text reply.
func (m *Manager) HandleText(ctx context.Context, userID int64, text string) []Reply {
	if !m.IsAdmin(userID) {
		return nil
	}
	s, ok := m.lookupSession(userID)
	if !ok {
		s = m.openSession(userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	if !s.state.waiting() {
		return m.fallback(s)
	}

	text = strings.TrimSpace(text)
	switch s.state {
	case StateAddTopic:
		return m.stepAddTopic(ctx, s, text)
	case StateDeleteTopicSelect:
		return m.stepDeleteTopic(ctx, s, text)
	case StateEditTopicSelect:
		return m.stepEditTopicSelect(ctx, s, text)
	case StateEditTopicData:
		return m.stepEditTopicData(ctx, s, text)
	case StateAddSourceChannel:
		return m.stepAddSourceChannel(ctx, s, text)
	case StateDeleteSourceChannelSelect:
		return m.stepDeleteSourceChannel(ctx, s, text)
	case StateSetTarget:
		return m.stepSetTarget(ctx, s, text)
	}
	return m.fallback(s)
}

/*───────────────────────────── menu actions ───────────────────────────────*/

func (m *Manager) mainMenuAction(ctx context.Context, s *Session, action Action) []Reply {
	switch action {
	case ActionTopicsMenu:
		return m.showTopicsMenu(ctx, s)
	case ActionSourceChannelsMenu:
		return m.showSourceChannelsMenu(ctx, s)
	case ActionSetTarget:
		return m.promptSetTarget(ctx, s)
	case ActionShowStats:
		return m.showStats(ctx, s)
	case ActionToggleDebug:
		return m.toggleDebug(s)
	case ActionClose:
		m.endSession(s)
		return []Reply{textReply("Admin panel closed.")}
	case ActionBack:
		return m.fallback(s)
	default:
		return m.fallback(s)
	}
}

func (m *Manager) topicsMenuAction(ctx context.Context, s *Session, action Action) []Reply {
	switch action {
	case ActionAddTopic:
		s.state = StateAddTopic
		return []Reply{textReply("Add topic\n\nSend: prefix:name:topic_id\n" +
			"Example: 1:Sky:289" + cancelHint)}
	case ActionEditTopic:
		return m.promptTopicSelect(ctx, s, StateEditTopicSelect,
			"Edit topic\n\nSend the prefix of the topic to edit:")
	case ActionDeleteTopic:
		return m.promptTopicSelect(ctx, s, StateDeleteTopicSelect,
			"Delete topic\n\nSend the prefix of the topic to delete:")
	case ActionBack:
		return m.fallback(s)
	default:
		return m.fallback(s)
	}
}

func (m *Manager) sourceChannelsMenuAction(ctx context.Context, s *Session, action Action) []Reply {
	switch action {
	case ActionAddSourceChannel:
		s.state = StateAddSourceChannel
		return []Reply{textReply("Add source channel\n\nSend: channel_id:name\n" +
			"Example: -1001234567890:My channel" + cancelHint)}
	case ActionDeleteSourceChannel:
		return m.promptChannelSelect(ctx, s)
	case ActionBack:
		return m.fallback(s)
	default:
		return m.fallback(s)
	}
}

/*──────────────────────────── menu rendering ──────────────────────────────*/

func (m *Manager) showTopicsMenu(ctx context.Context, s *Session) []Reply {
	topics, err := m.store.Topics(ctx)
	if err != nil {
		return []Reply{m.storeTrouble("list topics", err)}
	}
	s.state = StateTopicsMenu
	return []Reply{topicsMenuReply(topics)}
}

func (m *Manager) showSourceChannelsMenu(ctx context.Context, s *Session) []Reply {
	channels, err := m.store.SourceChannels(ctx)
	if err != nil {
		return []Reply{m.storeTrouble("list source channels", err)}
	}
	s.state = StateSourceChannelsMenu
	return []Reply{sourceChannelsMenuReply(channels)}
}

func (m *Manager) promptTopicSelect(ctx context.Context, s *Session, next State, header string) []Reply {
	topics, err := m.store.Topics(ctx)
	if err != nil {
		return []Reply{m.storeTrouble("list topics", err)}
	}
	if len(topics) == 0 {
		return []Reply{textReply("There are no topics yet.")}
	}
	s.state = next
	return []Reply{textReply(header + "\n\n" + topicListing(topics) + cancelHint)}
}

func (m *Manager) promptChannelSelect(ctx context.Context, s *Session) []Reply {
	channels, err := m.store.SourceChannels(ctx)
	if err != nil {
		return []Reply{m.storeTrouble("list source channels", err)}
	}
	if len(channels) == 0 {
		return []Reply{textReply("There are no source channels yet.")}
	}
	s.state = StateDeleteSourceChannelSelect
	return []Reply{textReply("Delete source channel\n\nSend the channel id to delete:\n\n" +
		channelListing(channels) + cancelHint)}
}

func (m *Manager) promptSetTarget(ctx context.Context, s *Session) []Reply {
	current, err := m.store.ConfigValue(ctx, store.KeyTargetChatID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return []Reply{m.storeTrouble("read target channel", err)}
	}
	if current == "" {
		current = "not set"
	}
	s.state = StateSetTarget
	return []Reply{textReply(fmt.Sprintf(
		"Set target channel\n\nCurrent: %s\n\nSend the new channel id.%s",
		current, cancelHint))}
}

func (m *Manager) showStats(ctx context.Context, s *Session) []Reply {
	topics, err := m.store.Topics(ctx)
	if err != nil {
		return []Reply{m.storeTrouble("list topics", err)}
	}
	channels, err := m.store.ActiveSourceChannelIDs(ctx)
	if err != nil {
		return []Reply{m.storeTrouble("list source channels", err)}
	}
	target, err := m.store.ConfigValue(ctx, store.KeyTargetChatID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return []Reply{m.storeTrouble("read target channel", err)}
	}
	if target == "" {
		target = "not set"
	}
	return []Reply{{
		Text: fmt.Sprintf("Stats\n\nTopics: %d\nActive source channels: %d\nTarget channel: %s",
			len(topics), len(channels), target),
		Keyboard: [][]Button{row("Back", ActionBack)},
	}}
}

func (m *Manager) toggleDebug(s *Session) []Reply {
	enabled, dump, err := m.debug.Toggle()
	if err != nil {
		m.log.Errorw("debug toggle failed", "err", err)
		return []Reply{textReply(fmt.Sprintf("Debug toggle failed: %v", err)),
			mainMenuReply(m.debug.Enabled())}
	}
	if enabled {
		return []Reply{
			textReply("Debug mode enabled.  Every update is now recorded; toggle again to stop."),
			mainMenuReply(true),
		}
	}
	if len(dump) == 0 {
		return []Reply{
			textReply("Debug mode disabled.  No updates were recorded."),
			mainMenuReply(false),
		}
	}
	return []Reply{
		{
			Text: "Debug mode disabled.  The collected log is attached.",
			Attachment: &Attachment{
				Name:    "debug_updates_" + time.Now().Format("20060102_150405") + ".txt",
				Data:    dump,
				Caption: "Debug update log",
			},
		},
		mainMenuReply(false),
	}
}

/*──────────────────────────── wizard steps ────────────────────────────────*/

func (m *Manager) stepAddTopic(ctx context.Context, s *Session, text string) []Reply {
	prefix, name, topicID, err := parseAddTopic(text)
	if err != nil {
		return []Reply{textReply(err.Error())} // re-prompt, same state
	}
	prefix = store.NormalizePrefix(prefix)

	switch err := m.store.CreateTopic(ctx, prefix, name, topicID); {
	case errors.Is(err, store.ErrDuplicate):
		return m.backToTopicsMenu(ctx, s,
			fmt.Sprintf("A topic with prefix '%s' already exists.", prefix))
	case err != nil:
		m.endSession(s)
		return []Reply{m.storeTrouble("create topic", err)}
	}
	return m.mutationDone(ctx, s,
		fmt.Sprintf("Topic added: /%s → %s (ID: %d)", prefix, name, topicID),
		m.backToTopicsMenu)
}

func (m *Manager) stepDeleteTopic(ctx context.Context, s *Session, text string) []Reply {
	prefix := store.NormalizePrefix(text)

	switch err := m.store.DeleteTopic(ctx, prefix); {
	case errors.Is(err, store.ErrNotFound):
		return m.backToTopicsMenu(ctx, s, fmt.Sprintf("Topic /%s not found.", prefix))
	case err != nil:
		m.endSession(s)
		return []Reply{m.storeTrouble("delete topic", err)}
	}
	return m.mutationDone(ctx, s,
		fmt.Sprintf("Topic /%s deleted.", prefix),
		m.backToTopicsMenu)
}

func (m *Manager) stepEditTopicSelect(ctx context.Context, s *Session, text string) []Reply {
	prefix := store.NormalizePrefix(text)

	topics, err := m.store.Topics(ctx)
	if err != nil {
		return []Reply{m.storeTrouble("list topics", err)}
	}
	for _, t := range topics {
		if t.Prefix == prefix {
			s.pending[pendingEditPrefix] = prefix
			s.state = StateEditTopicData
			return []Reply{textReply(fmt.Sprintf(
				"Editing /%s\n\nCurrent: %s (ID: %d)\n\nSend: name:topic_id%s",
				prefix, t.Name, t.TopicID, cancelHint))}
		}
	}
	// Re-prompt until a known prefix arrives or the admin cancels.
	return []Reply{textReply(fmt.Sprintf(
		"Topic /%s not found.  Try again or send /cancel.", prefix))}
}

func (m *Manager) stepEditTopicData(ctx context.Context, s *Session, text string) []Reply {
	prefix := s.pending[pendingEditPrefix]
	if prefix == "" {
		m.endSession(s)
		return []Reply{textReply("The edit context was lost.  Start again with /admin.")}
	}
	name, topicID, err := parseEditTopicData(text)
	if err != nil {
		return []Reply{textReply(err.Error())}
	}

	switch err := m.store.UpdateTopic(ctx, prefix, name, topicID); {
	case errors.Is(err, store.ErrNotFound):
		return m.backToTopicsMenu(ctx, s, fmt.Sprintf("Topic /%s not found.", prefix))
	case err != nil:
		m.endSession(s)
		return []Reply{m.storeTrouble("update topic", err)}
	}
	return m.mutationDone(ctx, s,
		fmt.Sprintf("Topic updated: /%s → %s (ID: %d)", prefix, name, topicID),
		m.backToTopicsMenu)
}

func (m *Manager) stepAddSourceChannel(ctx context.Context, s *Session, text string) []Reply {
	channelID, name, err := parseAddSourceChannel(text)
	if err != nil {
		return []Reply{textReply(err.Error())}
	}

	switch err := m.store.CreateSourceChannel(ctx, channelID, name); {
	case errors.Is(err, store.ErrDuplicate):
		return m.backToSourceChannelsMenu(ctx, s,
			fmt.Sprintf("A channel with id '%s' already exists.", channelID))
	case err != nil:
		m.endSession(s)
		return []Reply{m.storeTrouble("create source channel", err)}
	}
	return m.mutationDone(ctx, s,
		fmt.Sprintf("Source channel added: %s (%s)", name, channelID),
		m.backToSourceChannelsMenu)
}

func (m *Manager) stepDeleteSourceChannel(ctx context.Context, s *Session, text string) []Reply {
	channelID := strings.TrimSpace(text)

	switch err := m.store.DeleteSourceChannel(ctx, channelID); {
	case errors.Is(err, store.ErrNotFound):
		return m.backToSourceChannelsMenu(ctx, s,
			fmt.Sprintf("Channel %s not found.", channelID))
	case err != nil:
		m.endSession(s)
		return []Reply{m.storeTrouble("delete source channel", err)}
	}
	return m.mutationDone(ctx, s,
		fmt.Sprintf("Channel %s removed.", channelID),
		m.backToSourceChannelsMenu)
}

func (m *Manager) stepSetTarget(ctx context.Context, s *Session, text string) []Reply {
	channelID := strings.TrimSpace(text)

	if err := m.store.SetConfig(ctx, store.KeyTargetChatID, channelID); err != nil {
		m.endSession(s)
		return []Reply{m.storeTrouble("set target channel", err)}
	}
	return m.mutationDone(ctx, s,
		fmt.Sprintf("Target channel set: %s", channelID),
		m.backToMainMenu)
}

/*──────────────────────────── shared helpers ──────────────────────────────*/

// mutationDone publishes the new snapshot, then reports.  A failed reload
// must not be reported as success: the stored change is not live yet.
func (m *Manager) mutationDone(
	ctx context.Context,
	s *Session,
	successText string,
	menu func(context.Context, *Session, string) []Reply,
) []Reply {
	if _, err := m.table.Reload(ctx); err != nil {
		m.log.Errorw("snapshot reload failed after mutation", "err", err)
		return menu(ctx, s, fmt.Sprintf(
			"Stored, but reloading the routing table failed: %v.  The change is not live yet.", err))
	}
	return menu(ctx, s, successText)
}

func (m *Manager) backToTopicsMenu(ctx context.Context, s *Session, note string) []Reply {
	s.state = StateTopicsMenu
	clear(s.pending)
	topics, err := m.store.Topics(ctx)
	if err != nil {
		return []Reply{textReply(note), m.storeTrouble("list topics", err)}
	}
	return []Reply{textReply(note), topicsMenuReply(topics)}
}

func (m *Manager) backToSourceChannelsMenu(ctx context.Context, s *Session, note string) []Reply {
	s.state = StateSourceChannelsMenu
	clear(s.pending)
	channels, err := m.store.SourceChannels(ctx)
	if err != nil {
		return []Reply{textReply(note), m.storeTrouble("list source channels", err)}
	}
	return []Reply{textReply(note), sourceChannelsMenuReply(channels)}
}

func (m *Manager) backToMainMenu(_ context.Context, s *Session, note string) []Reply {
	s.reset()
	return []Reply{textReply(note), mainMenuReply(m.debug.Enabled())}
}

// fallback re-displays the main menu, discarding any wizard progress.
func (m *Manager) fallback(s *Session) []Reply {
	s.reset()
	return []Reply{mainMenuReply(m.debug.Enabled())}
}

func (m *Manager) storeTrouble(op string, err error) Reply {
	m.log.Errorw("store operation failed", "op", op, "err", err)
	return textReply(fmt.Sprintf("Storage error: %v", err))
}

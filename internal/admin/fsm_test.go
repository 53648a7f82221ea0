// internal/admin/fsm_test.go
//
// Session state-machine tests.
//
// Context
// -------
// Each test wires a Manager against sqlmock, a throwaway debug recorder,
// and a real routing.Table, then drives the FSM through the same event
// sequence the transport would deliver.  sqlmock expectations double as the
// transition script: a step that touches the store out of order fails the
// test.

package admin

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/topicrelay/internal/debuglog"
	"github.com/yanizio/topicrelay/internal/routing"
	"github.com/yanizio/topicrelay/internal/store"
)

const (
	adminID    = int64(7)
	strangerID = int64(99)
)

func newTestManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.New(sqlx.NewDb(db, "mysql"))
	log := zap.NewNop().Sugar()
	table := routing.NewTable(st, log)
	rec := debuglog.New(filepath.Join(t.TempDir(), "debug.jsonl"), log)

	m := NewManager(st, table, rec, []int64{adminID}, 0, log)
	t.Cleanup(m.Close)
	return m, mock
}

func expectTopicsSelect(mock sqlmock.Sqlmock, topics ...store.Topic) {
	rows := sqlmock.NewRows([]string{"id", "prefix", "name", "topic_id", "created_at", "updated_at"})
	now := time.Now()
	for i, tp := range topics {
		rows.AddRow(i+1, tp.Prefix, tp.Name, tp.TopicID, now, now)
	}
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, prefix, name, topic_id, created_at, updated_at FROM topics ORDER BY prefix ASC`,
	)).WillReturnRows(rows)
}

func expectReload(mock sqlmock.Sqlmock, topics ...store.Topic) {
	expectTopicsSelect(mock, topics...)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT channel_id FROM source_channels WHERE active = TRUE`,
	)).WillReturnRows(sqlmock.NewRows([]string{"channel_id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `key`, value FROM config")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))
}

func allText(replies []Reply) string {
	var b strings.Builder
	for _, r := range replies {
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	return b.String()
}

/*────────────────────────────── entry paths ───────────────────────────────*/

func TestStart_NonAdminGetsGreetingOnly(t *testing.T) {
	m, _ := newTestManager(t)

	replies := m.HandleCommand(context.Background(), strangerID, "start")
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "/prefix data") {
		t.Fatalf("unexpected replies: %#v", replies)
	}
	if _, ok := m.lookupSession(strangerID); ok {
		t.Fatal("non-admin must not get a session")
	}
}

func TestAdmin_NonAdminIsRefused(t *testing.T) {
	m, _ := newTestManager(t)

	replies := m.HandleCommand(context.Background(), strangerID, "admin")
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "do not have access") {
		t.Fatalf("unexpected replies: %#v", replies)
	}
}

func TestStart_AdminGetsMainMenu(t *testing.T) {
	m, _ := newTestManager(t)

	replies := m.HandleCommand(context.Background(), adminID, "start")
	if len(replies) != 1 || len(replies[0].Keyboard) == 0 {
		t.Fatalf("want main menu with keyboard, got %#v", replies)
	}
	s, ok := m.lookupSession(adminID)
	if !ok || s.state != StateMainMenu {
		t.Fatalf("session not at main menu: %v %v", ok, s)
	}
}

func TestUnknownCommand_SilentForStrangers(t *testing.T) {
	m, _ := newTestManager(t)

	if replies := m.HandleCommand(context.Background(), strangerID, "frobnicate"); replies != nil {
		t.Fatalf("stranger should get nothing, got %#v", replies)
	}
}

func TestUnknownCommand_FallsBackToMainMenuForAdmins(t *testing.T) {
	m, _ := newTestManager(t)

	replies := m.HandleCommand(context.Background(), adminID, "frobnicate")
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "Admin panel") {
		t.Fatalf("want main menu fallback, got %#v", replies)
	}
}

func TestCancel_EndsSessionUnconditionally(t *testing.T) {
	m, mock := newTestManager(t)
	ctx := context.Background()

	m.HandleCommand(ctx, adminID, "start")
	expectTopicsSelect(mock)
	m.HandleAction(ctx, adminID, "menu_topics")

	replies := m.HandleCommand(ctx, adminID, "cancel")
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "cancelled") {
		t.Fatalf("unexpected cancel replies: %#v", replies)
	}
	if _, ok := m.lookupSession(adminID); ok {
		t.Fatal("cancel must destroy the session")
	}
}

/*────────────────────────────── topic wizard ──────────────────────────────*/

func startTopicsWizard(t *testing.T, m *Manager, mock sqlmock.Sqlmock) {
	t.Helper()
	ctx := context.Background()
	m.HandleCommand(ctx, adminID, "admin")
	expectTopicsSelect(mock)
	m.HandleAction(ctx, adminID, "menu_topics")
	m.HandleAction(ctx, adminID, "add_topic")
}

func TestAddTopic_Success(t *testing.T) {
	m, mock := newTestManager(t)
	startTopicsWizard(t, m, mock)

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO topics (prefix, name, topic_id) VALUES (?, ?, ?)`,
	)).
		WithArgs("1", "Sky", int64(289)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectReload(mock, store.Topic{Prefix: "1", Name: "Sky", TopicID: 289})
	expectTopicsSelect(mock, store.Topic{Prefix: "1", Name: "Sky", TopicID: 289})

	replies := m.HandleText(context.Background(), adminID, "1:Sky:289")
	text := allText(replies)
	if !strings.Contains(text, "Topic added: /1 → Sky (ID: 289)") {
		t.Fatalf("missing success text: %q", text)
	}
	s, _ := m.lookupSession(adminID)
	if s.state != StateTopicsMenu {
		t.Fatalf("want topics menu, got state %d", s.state)
	}
	// The confirmation is only sent after the new snapshot is live.
	if m.table.Current().Topics["1"] != 289 {
		t.Fatal("snapshot not reloaded before success report")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestAddTopic_DuplicateLeavesOriginalAndReturnsToMenu(t *testing.T) {
	m, mock := newTestManager(t)
	startTopicsWizard(t, m, mock)

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO topics (prefix, name, topic_id) VALUES (?, ?, ?)`,
	)).
		WithArgs("1", "Other", int64(999)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1'"})
	expectTopicsSelect(mock, store.Topic{Prefix: "1", Name: "Sky", TopicID: 289})

	replies := m.HandleText(context.Background(), adminID, "1:Other:999")
	text := allText(replies)
	if !strings.Contains(text, "already exists") {
		t.Fatalf("missing conflict text: %q", text)
	}
	if !strings.Contains(text, "/1 → Sky (ID: 289)") {
		t.Fatalf("menu listing should still show the original topic: %q", text)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestAddTopic_MalformedInputReprompts(t *testing.T) {
	m, mock := newTestManager(t)
	startTopicsWizard(t, m, mock)
	ctx := context.Background()

	for _, input := range []string{"no-colons", "a:b", "1:Sky:abc", "a:b:c:d"} {
		replies := m.HandleText(ctx, adminID, input)
		if len(replies) != 1 {
			t.Fatalf("%q: want one re-prompt reply, got %#v", input, replies)
		}
		s, _ := m.lookupSession(adminID)
		if s.state != StateAddTopic {
			t.Fatalf("%q: validation failure must not advance the state", input)
		}
	}
	// No store call happened for any of the malformed inputs.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("store touched by invalid input: %v", err)
	}
}

func TestAddTopic_ReloadFailureIsNotSuccess(t *testing.T) {
	m, mock := newTestManager(t)
	startTopicsWizard(t, m, mock)

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO topics (prefix, name, topic_id) VALUES (?, ?, ?)`,
	)).
		WithArgs("1", "Sky", int64(289)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, prefix, name, topic_id, created_at, updated_at FROM topics ORDER BY prefix ASC`,
	)).WillReturnError(fmt.Errorf("connection refused"))
	expectTopicsSelect(mock, store.Topic{Prefix: "1", Name: "Sky", TopicID: 289})

	replies := m.HandleText(context.Background(), adminID, "1:Sky:289")
	text := allText(replies)
	if strings.Contains(text, "Topic added") {
		t.Fatalf("must not claim success when the reload failed: %q", text)
	}
	if !strings.Contains(text, "not live yet") {
		t.Fatalf("missing reload-failure notice: %q", text)
	}
}

func TestEditTopic_UnknownPrefixReprompts(t *testing.T) {
	m, mock := newTestManager(t)
	ctx := context.Background()
	m.HandleCommand(ctx, adminID, "admin")
	expectTopicsSelect(mock, store.Topic{Prefix: "sky", Name: "Sky", TopicID: 289})
	m.HandleAction(ctx, adminID, "menu_topics")
	expectTopicsSelect(mock, store.Topic{Prefix: "sky", Name: "Sky", TopicID: 289})
	m.HandleAction(ctx, adminID, "edit_topic")

	expectTopicsSelect(mock, store.Topic{Prefix: "sky", Name: "Sky", TopicID: 289})
	replies := m.HandleText(ctx, adminID, "nope")
	if !strings.Contains(allText(replies), "not found") {
		t.Fatalf("want not-found re-prompt, got %q", allText(replies))
	}
	s, _ := m.lookupSession(adminID)
	if s.state != StateEditTopicSelect {
		t.Fatal("unknown prefix must keep the select state")
	}

	// A valid prefix advances to the data state and remembers the prefix.
	expectTopicsSelect(mock, store.Topic{Prefix: "sky", Name: "Sky", TopicID: 289})
	m.HandleText(ctx, adminID, "/SKY")
	if s.state != StateEditTopicData || s.pending[pendingEditPrefix] != "sky" {
		t.Fatalf("prefix selection wrong: state=%d pending=%v", s.state, s.pending)
	}
}

/*──────────────────────────── source channels ─────────────────────────────*/

func TestDeleteSourceChannel_NotFound(t *testing.T) {
	m, mock := newTestManager(t)
	ctx := context.Background()
	m.HandleCommand(ctx, adminID, "admin")

	channelRows := func() *sqlmock.Rows {
		return sqlmock.NewRows(
			[]string{"id", "channel_id", "name", "active", "created_at", "updated_at"},
		).AddRow(1, "-100123", "Main", true, time.Now(), time.Now())
	}
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, channel_id, name, active, created_at, updated_at FROM source_channels ORDER BY name ASC`,
	)).WillReturnRows(channelRows())
	m.HandleAction(ctx, adminID, "menu_source_channels")

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, channel_id, name, active, created_at, updated_at FROM source_channels ORDER BY name ASC`,
	)).WillReturnRows(channelRows())
	m.HandleAction(ctx, adminID, "delete_source_channel")

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM source_channels WHERE channel_id = ?`)).
		WithArgs("-200999").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, channel_id, name, active, created_at, updated_at FROM source_channels ORDER BY name ASC`,
	)).WillReturnRows(channelRows())

	replies := m.HandleText(ctx, adminID, "-200999")
	text := allText(replies)
	if !strings.Contains(text, "not found") {
		t.Fatalf("want not-found notice, got %q", text)
	}
	// Whitelist unchanged: the menu still lists exactly the original row.
	if !strings.Contains(text, "-100123") {
		t.Fatalf("original channel missing from listing: %q", text)
	}
}

/*────────────────────────────── set target ────────────────────────────────*/

func TestSetTarget_UpsertsAndReturnsToMainMenu(t *testing.T) {
	m, mock := newTestManager(t)
	ctx := context.Background()
	m.HandleCommand(ctx, adminID, "admin")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM config WHERE `key` = ? LIMIT 1")).
		WithArgs("target_chat_id").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(""))
	m.HandleAction(ctx, adminID, "set_target")

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO config (`key`, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)",
	)).
		WithArgs("target_chat_id", "-100555").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectReload(mock)

	replies := m.HandleText(ctx, adminID, "-100555")
	if !strings.Contains(allText(replies), "Target channel set: -100555") {
		t.Fatalf("missing confirmation: %q", allText(replies))
	}
	s, _ := m.lookupSession(adminID)
	if s.state != StateMainMenu {
		t.Fatalf("want main menu, got state %d", s.state)
	}
}

/*────────────────────────────── debug toggle ──────────────────────────────*/

func TestToggleDebug_FlipsAndShipsDump(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	m.HandleCommand(ctx, adminID, "admin")

	replies := m.HandleAction(ctx, adminID, "toggle_debug")
	if !strings.Contains(allText(replies), "Debug mode enabled") {
		t.Fatalf("first toggle should enable: %q", allText(replies))
	}
	if !m.debug.Enabled() {
		t.Fatal("recorder should be on")
	}

	m.debug.Record("message", map[string]string{"text": "/sky 27.5"})

	replies = m.HandleAction(ctx, adminID, "toggle_debug")
	if m.debug.Enabled() {
		t.Fatal("second toggle should disable")
	}
	var att *Attachment
	for _, r := range replies {
		if r.Attachment != nil {
			att = r.Attachment
		}
	}
	if att == nil {
		t.Fatalf("dump attachment missing: %#v", replies)
	}
	if !strings.Contains(string(att.Data), "/sky 27.5") {
		t.Fatalf("attachment lost the recorded update: %q", att.Data)
	}
}

/*────────────────────────────── fallbacks ─────────────────────────────────*/

func TestFreeTextOutsideWaitingState_FallsBackToMainMenu(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	m.HandleCommand(ctx, adminID, "admin")

	replies := m.HandleText(ctx, adminID, "what do I do here")
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "Admin panel") {
		t.Fatalf("want main menu fallback, got %#v", replies)
	}
}

func TestUnknownActionToken_FallsBackToMainMenu(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	m.HandleCommand(ctx, adminID, "admin")

	replies := m.HandleAction(ctx, adminID, "not_a_real_action")
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "Admin panel") {
		t.Fatalf("want main menu fallback, got %#v", replies)
	}
}

func TestActions_IgnoredForStrangers(t *testing.T) {
	m, _ := newTestManager(t)

	if replies := m.HandleAction(context.Background(), strangerID, "menu_topics"); replies != nil {
		t.Fatalf("stranger should get nothing, got %#v", replies)
	}
	if replies := m.HandleText(context.Background(), strangerID, "1:Sky:289"); replies != nil {
		t.Fatalf("stranger should get nothing, got %#v", replies)
	}
}

// internal/store/store.go
//
// Query helpers for the relay's three record kinds.
//
// Context
// -------
// All persistent state lives in three small tables:
//
//	topics          (prefix UNIQUE, name, topic_id)
//	source_channels (channel_id UNIQUE, name, active)
//	config          (key UNIQUE, value, description)
//
// The routing table rebuilds its snapshot from the read helpers; the admin
// session mutates rows through the write helpers.  Uniqueness is enforced by
// the UNIQUE keys, never by in-memory pre-checks: a duplicate insert comes
// back from MySQL as error 1062 and is mapped to ErrDuplicate, so concurrent
// admins cannot race past each other.
//
// Notes
// -----
// • Prefixes are normalized (trimmed, leading "/" stripped, lowercased)
//   before they touch SQL, so `Sky` and `sky` are the same key.
// • Oxford commas, two spaces after periods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Sentinel outcomes.  Callers branch with errors.Is.
var (
	ErrDuplicate = errors.New("store: duplicate key")
	ErrNotFound  = errors.New("store: not found")
)

const mysqlDupEntry = 1062

// Store wraps a sqlx pool with typed helpers for the relay schema.
type Store struct {
	db *sqlx.DB
}

// New returns a Store over db.  The pool is owned by the caller.
func New(db *sqlx.DB) *Store { return &Store{db: db} }

// NormalizePrefix maps user-supplied prefix spellings onto the stored form.
func NormalizePrefix(p string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p), "/"))
}

func isDupEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}

/*──────────────────────────────── topics ──────────────────────────────────*/

// Topics returns every topic mapping, ordered by prefix.
func (s *Store) Topics(ctx context.Context) ([]Topic, error) {
	const q = `
	    SELECT id, prefix, name, topic_id, created_at, updated_at
	    FROM   topics
	    ORDER  BY prefix ASC`
	var rows []Topic
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("select topics: %w", err)
	}
	return rows, nil
}

// CreateTopic inserts a new prefix mapping.  A prefix that already exists
// (case-insensitively) returns ErrDuplicate and leaves the original row
// untouched.
func (s *Store) CreateTopic(ctx context.Context, prefix, name string, topicID int64) error {
	const q = `INSERT INTO topics (prefix, name, topic_id) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, NormalizePrefix(prefix), strings.TrimSpace(name), topicID)
	if isDupEntry(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

// UpdateTopic replaces name and topic_id for an existing prefix.
func (s *Store) UpdateTopic(ctx context.Context, prefix, name string, topicID int64) error {
	const q = `UPDATE topics SET name = ?, topic_id = ? WHERE prefix = ?`
	res, err := s.db.ExecContext(ctx, q, strings.TrimSpace(name), topicID, NormalizePrefix(prefix))
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows for a no-op update, so distinguish
		// "row unchanged" from "row missing" before declaring not-found.
		return s.topicExists(ctx, prefix)
	}
	return nil
}

// DeleteTopic removes one prefix mapping.
func (s *Store) DeleteTopic(ctx context.Context, prefix string) error {
	const q = `DELETE FROM topics WHERE prefix = ?`
	res, err := s.db.ExecContext(ctx, q, NormalizePrefix(prefix))
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) topicExists(ctx context.Context, prefix string) error {
	const q = `SELECT 1 FROM topics WHERE prefix = ? LIMIT 1`
	var dummy int
	err := s.db.GetContext(ctx, &dummy, q, NormalizePrefix(prefix))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

/*──────────────────────────── source channels ─────────────────────────────*/

// SourceChannels returns every whitelist row, active or not, ordered by name
// for stable menu listings.
func (s *Store) SourceChannels(ctx context.Context) ([]SourceChannel, error) {
	const q = `
	    SELECT id, channel_id, name, active, created_at, updated_at
	    FROM   source_channels
	    ORDER  BY name ASC`
	var rows []SourceChannel
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("select source channels: %w", err)
	}
	return rows, nil
}

// ActiveSourceChannelIDs returns the channel ids permitted to originate
// routable messages.
func (s *Store) ActiveSourceChannelIDs(ctx context.Context) ([]string, error) {
	const q = `SELECT channel_id FROM source_channels WHERE active = TRUE`
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, q); err != nil {
		return nil, fmt.Errorf("select active source channels: %w", err)
	}
	return ids, nil
}

// CreateSourceChannel whitelists a channel.  A duplicate channel id returns
// ErrDuplicate.
func (s *Store) CreateSourceChannel(ctx context.Context, channelID, name string) error {
	const q = `INSERT INTO source_channels (channel_id, name) VALUES (?, ?)`
	_, err := s.db.ExecContext(ctx, q, strings.TrimSpace(channelID), strings.TrimSpace(name))
	if isDupEntry(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert source channel: %w", err)
	}
	return nil
}

// DeleteSourceChannel removes a channel from the whitelist.
func (s *Store) DeleteSourceChannel(ctx context.Context, channelID string) error {
	const q = `DELETE FROM source_channels WHERE channel_id = ?`
	res, err := s.db.ExecContext(ctx, q, strings.TrimSpace(channelID))
	if err != nil {
		return fmt.Errorf("delete source channel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSourceChannelActive flips the active flag without dropping the row, so
// a channel can be paused and resumed with its name intact.
func (s *Store) SetSourceChannelActive(ctx context.Context, channelID string, active bool) error {
	const q = `UPDATE source_channels SET active = ? WHERE channel_id = ?`
	res, err := s.db.ExecContext(ctx, q, active, strings.TrimSpace(channelID))
	if err != nil {
		return fmt.Errorf("toggle source channel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.sourceChannelExists(ctx, channelID)
	}
	return nil
}

func (s *Store) sourceChannelExists(ctx context.Context, channelID string) error {
	const q = `SELECT 1 FROM source_channels WHERE channel_id = ? LIMIT 1`
	var dummy int
	err := s.db.GetContext(ctx, &dummy, q, strings.TrimSpace(channelID))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

/*─────────────────────────────── config ───────────────────────────────────*/

// Config returns every key-value setting as a map.
func (s *Store) Config(ctx context.Context) (map[string]string, error) {
	const q = "SELECT `key`, value FROM config"
	rows := make([]struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}, 0, 8)
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("select config: %w", err)
	}
	cfg := make(map[string]string, len(rows))
	for _, r := range rows {
		cfg[r.Key] = r.Value
	}
	return cfg, nil
}

// ConfigValue fetches one setting.  Missing keys are ErrNotFound.
func (s *Store) ConfigValue(ctx context.Context, key string) (string, error) {
	const q = "SELECT value FROM config WHERE `key` = ? LIMIT 1"
	var v string
	err := s.db.GetContext(ctx, &v, q, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select config value: %w", err)
	}
	return v, nil
}

// SetConfig upserts one setting.  It always succeeds for a reachable store.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	const q = "INSERT INTO config (`key`, value) VALUES (?, ?)" +
		" ON DUPLICATE KEY UPDATE value = VALUES(value)"
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set config: %w", err)
	}
	return nil
}

package store

import (
	"database/sql"
	"time"
)

// Topic mirrors one row in the `topics` table: a routable prefix bound to a
// message-thread id inside the target channel.  Prefixes are stored
// lowercased, so uniqueness is case-insensitive.
type Topic struct {
	ID        uint64    `db:"id"`
	Prefix    string    `db:"prefix"`
	Name      string    `db:"name"`
	TopicID   int64     `db:"topic_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SourceChannel mirrors one row in `source_channels`.  Inactive rows are
// retained but excluded from routing.
type SourceChannel struct {
	ID        uint64         `db:"id"`
	ChannelID string         `db:"channel_id"`
	Name      sql.NullString `db:"name"`
	Active    bool           `db:"active"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// ConfigEntry mirrors one row in `config`: a scalar setting such as the
// target channel id or the sender-info template.
type ConfigEntry struct {
	ID          uint64         `db:"id"`
	Key         string         `db:"key"`
	Value       string         `db:"value"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// Well-known config keys.  Seeded by Migrate.
const (
	KeyTargetChatID      = "target_chat_id"
	KeyIncludeSenderInfo = "include_sender_info"
	KeySenderFormat      = "sender_format"
)

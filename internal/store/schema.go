// internal/store/schema.go
//
// Relay schema DDL and seed rows.
//
// Migrate is idempotent (CREATE TABLE IF NOT EXISTS, INSERT IGNORE) and runs
// once during bootstrap, so a fresh database comes up without a separate
// migration job.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS topics (
	    id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	    prefix     VARCHAR(50)  NOT NULL,
	    name       VARCHAR(255) NOT NULL,
	    topic_id   INT          NOT NULL,
	    created_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
	               ON UPDATE CURRENT_TIMESTAMP,
	    UNIQUE KEY uq_topics_prefix (prefix)
	)`,

	`CREATE TABLE IF NOT EXISTS source_channels (
	    id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	    channel_id VARCHAR(100) NOT NULL,
	    name       VARCHAR(255) NULL,
	    active     BOOLEAN      NOT NULL DEFAULT TRUE,
	    created_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
	               ON UPDATE CURRENT_TIMESTAMP,
	    UNIQUE KEY uq_source_channels_channel_id (channel_id),
	    KEY idx_source_channels_active (active)
	)`,

	"CREATE TABLE IF NOT EXISTS config (" +
		" id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY," +
		" `key`       VARCHAR(100) NOT NULL," +
		" value       TEXT         NOT NULL," +
		" description TEXT         NULL," +
		" created_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP," +
		" updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP" +
		"             ON UPDATE CURRENT_TIMESTAMP," +
		" UNIQUE KEY uq_config_key (`key`)" +
		")",

	"INSERT IGNORE INTO config (`key`, value, description) VALUES " +
		"('target_chat_id', '', 'Channel that receives forwarded messages')," +
		"('include_sender_info', 'true', 'Annotate forwarded text with sender info')," +
		"('sender_format', '{message}\nSent by: {sender_name} ({sender_username})'," +
		" 'Template for sender-annotated messages')",
}

// Migrate applies the schema and seed rows.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

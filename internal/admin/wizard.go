// internal/admin/wizard.go
//
// Free-text wizard input parsing.
//
// Validation failures never reach the store: the FSM re-prompts the same
// state with the returned message.  Formats are part of the message
// surface (see the admin prompts) and mirror what operators already type.
package admin

import (
	"strconv"
	"strings"
)

// inputError carries the re-prompt message for malformed wizard input.
// The FSM replies with the message and stays in the same state.
type inputError struct{ msg string }

func (e *inputError) Error() string { return e.msg }

func badInput(msg string) error { return &inputError{msg: msg} }

// parseAddTopic expects `prefix:name:topic_id` with exactly two delimiters.
func parseAddTopic(text string) (prefix, name string, topicID int64, err error) {
	text = strings.TrimSpace(text)
	if strings.Count(text, ":") != 2 {
		return "", "", 0, badInput("Wrong format.  Use: prefix:name:topic_id")
	}
	parts := strings.SplitN(text, ":", 3)
	prefix = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])
	if prefix == "" || name == "" {
		return "", "", 0, badInput("prefix and name must not be empty.")
	}
	topicID, perr := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if perr != nil {
		return "", "", 0, badInput("topic_id must be a number.")
	}
	return prefix, name, topicID, nil
}

// parseEditTopicData expects `name:topic_id`.
func parseEditTopicData(text string) (name string, topicID int64, err error) {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, ":") {
		return "", 0, badInput("Wrong format.  Use: name:topic_id")
	}
	parts := strings.SplitN(text, ":", 2)
	topicID, perr := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if perr != nil {
		return "", 0, badInput("topic_id must be a number.")
	}
	return strings.TrimSpace(parts[0]), topicID, nil
}

// parseAddSourceChannel expects `channel_id:name`.  The name keeps any
// further colons verbatim.
func parseAddSourceChannel(text string) (channelID, name string, err error) {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, ":") {
		return "", "", badInput("Wrong format.  Use: channel_id:name")
	}
	parts := strings.SplitN(text, ":", 2)
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

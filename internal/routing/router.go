// internal/routing/router.go
//
// Message router: turns one inbound message into a routing decision.
//
// Context
// -------
// Route is a pure function over the current snapshot.  It never talks to
// the store or the transport; the caller executes the decision (send,
// reply, or nothing).  The leading token must match `/<word-chars>`
// followed by optional whitespace and the payload, mirroring the message
// shape senders already use.
package routing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var prefixRe = regexp.MustCompile(`^/(\w+)\s*(.*)$`)

// Fallbacks substituted into the sender template when the platform gives us
// no username or id.
const (
	FallbackUsername = "no username"
	FallbackSenderID = "unknown"
)

// Message is the platform-agnostic inbound unit of work.
type Message struct {
	ChannelID      string
	Text           string
	SenderName     string
	SenderUsername string // bare username, without "@"
	SenderID       int64  // 0 when unknown
}

// DecisionKind discriminates the Route outcome.
type DecisionKind int

const (
	Ignore DecisionKind = iota
	Forward
	Reject
)

// Decision is the routing outcome.  Forward carries the rendered text and
// destination; Reject carries the reply for the sender; Ignore carries only
// a reason for logging.
type Decision struct {
	Kind         DecisionKind
	TargetChatID string // Forward
	ThreadID     int64  // Forward
	Text         string // Forward: rendered text; Reject: reply text
	Reason       string // Ignore: why the message was dropped
}

// Router resolves inbound messages against the table's current snapshot.
type Router struct {
	table *Table
}

// NewRouter binds a Router to its table.
func NewRouter(t *Table) *Router { return &Router{table: t} }

// Route decides what to do with m.  It has no side effects.
func (r *Router) Route(m Message) Decision {
	snap := r.table.Current()

	if strings.TrimSpace(m.Text) == "" {
		return Decision{Kind: Ignore, Reason: "empty text"}
	}
	if !snap.HasSource(m.ChannelID) {
		return Decision{Kind: Ignore, Reason: "channel not whitelisted"}
	}

	match := prefixRe.FindStringSubmatch(m.Text)
	if match == nil {
		return Decision{Kind: Ignore, Reason: "no routable prefix"}
	}
	prefix := strings.ToLower(match[1])
	content := strings.TrimSpace(match[2])

	threadID, ok := snap.Topics[prefix]
	if !ok {
		return Decision{Kind: Reject, Text: rejectText(snap)}
	}
	if snap.TargetChatID == "" {
		return Decision{Kind: Ignore, Reason: "target channel not configured"}
	}

	text := content
	if snap.IncludeSenderInfo {
		text = renderSender(snap.SenderFormat, m, content)
	}
	return Decision{
		Kind:         Forward,
		TargetChatID: snap.TargetChatID,
		ThreadID:     threadID,
		Text:         text,
	}
}

// rejectText enumerates every known prefix in lexicographic order, paired
// with its topic name when one exists.
func rejectText(snap *Snapshot) string {
	prefixes := snap.SortedPrefixes()
	if len(prefixes) == 0 {
		return "No topics are configured yet."
	}
	items := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if name := snap.TopicNames[p]; name != "" {
			items = append(items, fmt.Sprintf("/%s → %s", p, name))
		} else {
			items = append(items, "/"+p)
		}
	}
	return "No such topic.  Available: " + strings.Join(items, ", ")
}

// renderSender fills the sender template.  Placeholders match the persisted
// sender_format config value.
func renderSender(format string, m Message, content string) string {
	username := FallbackUsername
	if m.SenderUsername != "" {
		username = "@" + m.SenderUsername
	}
	senderID := FallbackSenderID
	if m.SenderID != 0 {
		senderID = strconv.FormatInt(m.SenderID, 10)
	}
	return strings.NewReplacer(
		"{sender_name}", m.SenderName,
		"{sender_username}", username,
		"{sender_id}", senderID,
		"{message}", content,
	).Replace(format)
}

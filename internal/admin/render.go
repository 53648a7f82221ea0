// internal/admin/render.go
//
// Menu and prompt rendering.  Pure text assembly; all store reads happen in
// the FSM so these helpers stay trivially testable.
package admin

import (
	"fmt"
	"strings"

	"github.com/yanizio/topicrelay/internal/store"
)

func mainMenuReply(debugEnabled bool) Reply {
	debugLabel := "Enable debug"
	if debugEnabled {
		debugLabel = "Disable debug"
	}
	return Reply{
		Text: "Admin panel\n\nChoose an action:",
		Keyboard: [][]Button{
			row("Topics", ActionTopicsMenu),
			row("Source channels", ActionSourceChannelsMenu),
			row("Set target channel", ActionSetTarget),
			row("Stats", ActionShowStats),
			row(debugLabel, ActionToggleDebug),
			row("Close", ActionClose),
		},
	}
}

func topicsMenuReply(topics []store.Topic) Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "Topics\n\nTotal: %d\n", len(topics))
	if len(topics) > 0 {
		b.WriteString("\n")
		for _, t := range topics {
			fmt.Fprintf(&b, "/%s → %s (ID: %d)\n", t.Prefix, t.Name, t.TopicID)
		}
	}
	return Reply{
		Text: b.String(),
		Keyboard: [][]Button{
			row("Add topic", ActionAddTopic),
			row("Edit topic", ActionEditTopic),
			row("Delete topic", ActionDeleteTopic),
			row("Back", ActionBack),
		},
	}
}

func sourceChannelsMenuReply(channels []store.SourceChannel) Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "Source channels\n\nTotal: %d\n", len(channels))
	if len(channels) > 0 {
		b.WriteString("\n")
		for _, c := range channels {
			status := "[off]"
			if c.Active {
				status = "[on]"
			}
			name := c.Name.String
			if name == "" {
				name = "unnamed"
			}
			fmt.Fprintf(&b, "%s %s: %s\n", status, name, c.ChannelID)
		}
	}
	return Reply{
		Text: b.String(),
		Keyboard: [][]Button{
			row("Add channel", ActionAddSourceChannel),
			row("Delete channel", ActionDeleteSourceChannel),
			row("Back", ActionBack),
		},
	}
}

func topicListing(topics []store.Topic) string {
	var b strings.Builder
	for _, t := range topics {
		fmt.Fprintf(&b, "/%s → %s (ID: %d)\n", t.Prefix, t.Name, t.TopicID)
	}
	return b.String()
}

func channelListing(channels []store.SourceChannel) string {
	var b strings.Builder
	for _, c := range channels {
		name := c.Name.String
		if name == "" {
			name = "unnamed"
		}
		fmt.Fprintf(&b, "%s: %s\n", name, c.ChannelID)
	}
	return b.String()
}

const cancelHint = "\nSend /cancel to abort."

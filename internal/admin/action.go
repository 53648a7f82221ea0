// internal/admin/action.go
//
// Closed set of menu actions.
//
// Every button the admin surface shows maps 1:1 onto one Action variant,
// and every transition switch over Action is exhaustive with an explicit
// ActionUnknown fallback.  Adding a button therefore starts here and is
// visible at compile time in every switch that has to learn about it.
package admin

// Action identifies one menu selection.
type Action int

const (
	ActionUnknown Action = iota
	ActionTopicsMenu
	ActionSourceChannelsMenu
	ActionSetTarget
	ActionShowStats
	ActionToggleDebug
	ActionBack
	ActionClose
	ActionAddTopic
	ActionEditTopic
	ActionDeleteTopic
	ActionAddSourceChannel
	ActionDeleteSourceChannel
)

// Wire tokens carried in callback payloads.  These are part of the message
// surface: changing one invalidates keyboards already displayed to admins.
var actionTokens = map[Action]string{
	ActionTopicsMenu:          "menu_topics",
	ActionSourceChannelsMenu:  "menu_source_channels",
	ActionSetTarget:           "set_target",
	ActionShowStats:           "show_stats",
	ActionToggleDebug:         "toggle_debug",
	ActionBack:                "back_to_main",
	ActionClose:               "close",
	ActionAddTopic:            "add_topic",
	ActionEditTopic:           "edit_topic",
	ActionDeleteTopic:         "delete_topic",
	ActionAddSourceChannel:    "add_source_channel",
	ActionDeleteSourceChannel: "delete_source_channel",
}

var tokenActions = func() map[string]Action {
	m := make(map[string]Action, len(actionTokens))
	for a, tok := range actionTokens {
		m[tok] = a
	}
	return m
}()

// ParseAction maps a wire token onto its Action.  Unrecognized tokens are
// ActionUnknown, which every caller treats as the explicit fallback case.
func ParseAction(token string) Action { return tokenActions[token] }

// Token returns the wire form of a.  ActionUnknown has no token.
func (a Action) Token() string { return actionTokens[a] }

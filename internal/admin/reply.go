package admin

// Button is one keyboard entry: a label shown to the admin and the action
// token sent back when pressed.
type Button struct {
	Label string
	Token string
}

// Attachment is a file shipped alongside a reply (the debug-log dump).
type Attachment struct {
	Name    string
	Data    []byte
	Caption string
}

// Reply is one transport-agnostic response unit.  The transport renders
// Text and Keyboard into whatever the platform supports and uploads the
// Attachment when present.
type Reply struct {
	Text       string
	Keyboard   [][]Button
	Attachment *Attachment
}

func textReply(text string) Reply { return Reply{Text: text} }

func row(label string, a Action) []Button {
	return []Button{{Label: label, Token: a.Token()}}
}

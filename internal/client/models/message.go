package models

// MessageKind classifies a user-visible server message.
type MessageKind string

const (
	MessageNone    MessageKind = ""
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is the banner shown above a form after a submission.
type Message struct {
	Kind MessageKind
	Text string
}

// IsZero reports whether there is nothing to show.
func (m Message) IsZero() bool {
	return m.Text == ""
}

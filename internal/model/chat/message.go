package chat

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Label is the display prefix used by the presentation layers.
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "Bot"
}

// Message is a single displayed turn. It is never mutated after creation.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

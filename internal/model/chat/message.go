package chat

// Sender values carried in Message.Type. The wire format predates this
// backend, so assistant turns are tagged "ai".
const (
	SenderUser      = "user"
	SenderAssistant = "ai"
)

// Message is a single turn of a chat. Messages have no identity of their
// own: they are addressed by index within their chat, and indices stay
// stable for the lifetime of the chat. While a response streams, the message
// is mutated in place and IsStreaming stays true; it is terminal once
// IsStreaming flips to false.
type Message struct {
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	Timestamp   string    `json:"timestamp"`
	IsStreaming bool      `json:"isStreaming"`
	Sections    []Section `json:"sections,omitempty"`
}

package generation

import "github.com/synpt/backend/internal/model/chat"

// Generation statuses carried on outbound events.
const (
	StatusStreaming = "streaming"
	StatusComplete  = "complete"
	StatusError     = "error"
)

// Event is the single outbound payload shape for every transport. A
// streaming event carries the new fragment plus the full accumulated text
// and its sections; the terminal event carries an empty content with
// status "complete"; an error event carries the error text and whatever
// accumulated before the failure.
type Event struct {
	Content            string         `json:"content"`
	AccumulatedContent string         `json:"accumulated_content"`
	Sections           []chat.Section `json:"sections,omitempty"`
	Status             string         `json:"status"`
	Time               string         `json:"time,omitempty"`
	Error              string         `json:"error,omitempty"`
}

// Name returns the wire event name for this payload.
func (e Event) Name() string {
	if e.Status == StatusError {
		return "error"
	}
	return "message"
}

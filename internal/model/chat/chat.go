package chat

import "time"

// ModelInfo identifies the locally installed model a chat generates with.
type ModelInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Chat is a persisted conversation: ordered messages plus model metadata.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Model     ModelInfo `json:"model"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// Now returns the wire-format timestamp used for chats and messages.
func Now() string {
	return time.Now().Format(time.RFC3339)
}

package domain

import "time"

// Sender identifies who authored a chat turn.
type Sender string

const (
	SenderRequester Sender = "user"
	SenderAssistant Sender = "bot"
)

// ChatTurn is one entry of a conversation transcript.
type ChatTurn struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Sender    Sender          `json:"sender"`
	Timestamp time.Time       `json:"timestamp"`
	Sources   []ContentSource `json:"sources,omitempty"`
	// Failed marks a bot-styled turn that reports an error instead of a reply.
	Failed bool `json:"failed,omitempty"`
}

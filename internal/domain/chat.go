package domain

import "time"

// Message is a single chat message about a listing.
//
// The JSON field names match the persisted conversation record format, which
// predates the rest of the API surface; they are deliberately camelCase.
type Message struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// Conversation is the full ordered message history between two users about
// one listing. Messages are append-only and kept in chronological order.
type Conversation struct {
	BookID      string    `json:"bookId"`
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"lastUpdated"`
}

package core

import "time"

// ChatSummary is an entry of the chat list.
type ChatSummary struct {
	ID          int      `json:"chat_id"`
	Name        string   `json:"name"`
	Creator     *User    `json:"creator,omitempty"`
	LastMessage *Message `json:"last_message,omitempty"`
}

// Conversation is the full snapshot of a chat as returned by the backend.
// It is replaced as a whole on every reload and never merged.
type Conversation struct {
	ID      int    `json:"-"`
	Name    string `json:"name"`
	Creator *User  `json:"creator,omitempty"`
	// Members are the users currently in the chat.
	Members []User `json:"members"`
	// Messages are in server order, newest first.
	Messages []Message `json:"messages"`
}

// Message is a chat message. The client never changes a message without a round trip.
type Message struct {
	ID int `json:"message_id"`
	// Timestamp is the send time in milliseconds since the Unix epoch.
	Timestamp int64  `json:"timestamp"`
	Body      string `json:"message"`
	Author    User   `json:"author"`
}

// Time returns the send time of the message.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// Page is passed through to list endpoints untouched.
// Zero values are omitted from the request so the backend applies its defaults.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) Validate() error {
	if p.Limit < 0 || p.Offset < 0 {
		return NewValidationError("Limit and offset must not be negative.")
	}
	return nil
}

package models

import "time"

// DefaultRoom is the only room the relay serves.
const DefaultRoom = "default_room"

// FeedSize is the most recent messages a joiner is sent.
const FeedSize = 25

// TimestampLayout is the layout used when rendering message lines.
const TimestampLayout = "Jan 02 2006 15:04:05"

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID         string    `json:"id,omitempty"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// Line renders the message as "<timestamp>\t<author> : <text>".
func (m ChatMessage) Line() string {
	return m.Timestamp.Format(TimestampLayout) + "\t" + m.AuthorName + " : " + m.Text
}

package models

import "encoding/json"

type EventType string

const (
	// inbound
	EventJoin EventType = "join"
	EventText EventType = "text"
	EventLeft EventType = "left"

	// outbound
	EventStatus  EventType = "status"
	EventFeed    EventType = "feed"
	EventMessage EventType = "message"
)

// Frame is an inbound websocket frame. The payload is decoded by the
// handler for its type.
type Frame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound websocket frame.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type TextPayload struct {
	Msg string `json:"msg"`
}

type MessagePayload struct {
	Msg string `json:"msg"`
}

type FeedPayload struct {
	Feed []MessagePayload `json:"feed"`
}

func StatusEvent(msg string) Event {
	return Event{Type: EventStatus, Payload: MessagePayload{Msg: msg}}
}

func MessageEvent(msg string) Event {
	return Event{Type: EventMessage, Payload: MessagePayload{Msg: msg}}
}

func FeedEvent(lines []string) Event {
	feed := make([]MessagePayload, 0, len(lines))
	for _, line := range lines {
		feed = append(feed, MessagePayload{Msg: line})
	}
	return Event{Type: EventFeed, Payload: FeedPayload{Feed: feed}}
}

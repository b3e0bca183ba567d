package ws

import "encoding/json"

// Socket event names.
const (
	EventJoin            = "join"
	EventLeave           = "leave"
	EventJoined          = "joined"
	EventChatMessage     = "chat message"
	EventChatError       = "chat error"
	EventMessageReaction = "message reaction"
	EventMessagesRead    = "messages read"
)

// Frame is the envelope of every socket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an outbound frame.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// ErrorPayload is the body of a chat error frame.
type ErrorPayload struct {
	Error string `json:"error"`
}

package server

// MessageType identifies the kind of chat frame on the wire
type MessageType string

const (
	// MessageTypeJoin names the player; must be the first frame a client sends
	MessageTypeJoin MessageType = "join"
	// MessageTypeChat is room text from a player
	MessageTypeChat MessageType = "chat"
	// MessageTypeInfo is an announcement from the bot to the room
	MessageTypeInfo MessageType = "info"
	// MessageTypePrivate is a bot message for a single player
	MessageTypePrivate MessageType = "private"
	// MessageTypeError reports a protocol-level problem to one client
	MessageTypeError MessageType = "error"
)

// Message is a single chat frame
type Message struct {
	Type   MessageType `json:"type"`
	Player string      `json:"player,omitempty"`
	Text   string      `json:"text,omitempty"`
}

package protocol

import "encoding/json"

// Inbound message types consumed by the coordinator.
const (
	TypeJoin        = "join"
	TypeMove        = "move"
	TypeChat        = "chat"
	TypeQuit        = "quit"
	TypeRematchVote = "rematch_vote"
)

// Outbound message types produced by the coordinator and its sessions.
const (
	TypeJoined         = "joined"
	TypeWaiting        = "waiting"
	TypeMoveResult     = "move_result"
	TypeMatchOver      = "match_over"
	TypeRematchStarted = "rematch_started"
	TypeOpponentLeft   = "opponent_left"
	TypeChatBroadcast  = "chat_broadcast"
	TypeError          = "error"
)

// Message is the wire envelope shared by every transport: a type tag and a
// raw payload whose shape depends on the type.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Sender delivers one outbound message to a connected participant. Transports
// provide implementations that are safe for concurrent use, since a session
// broadcast may run on the opponent's goroutine.
type Sender interface {
	Send(msg Message) error
}

// New - wraps a payload into an envelope of the given type.
func New(msgType string, payload any) Message {
	return Message{
		Type: msgType,
		Data: mustMarshal(payload),
	}
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return b
}

package protocol

// Session outcome statuses carried in outbound payloads.
const (
	StatusOngoing    = "ongoing"
	StatusWon        = "won"
	StatusDraw       = "draw"
	StatusTerminated = "terminated"
)

type JoinPayload struct {
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
}

type MovePayload struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Row           int    `json:"row"`
	Col           int    `json:"col"`
}

type ChatPayload struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Text          string `json:"text"`
}

type QuitPayload struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
}

type RematchVotePayload struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Accept        bool   `json:"accept"`
}

type JoinedPayload struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Mark          string `json:"mark"`
	OpponentName  string `json:"opponent_name,omitempty"`
}

type WaitingPayload struct {
	ParticipantID string `json:"participant_id"`
}

// Outcome is the terminal classification of a session round. WinnerID is set
// only when Status is "won".
type Outcome struct {
	Status   string `json:"status"`
	WinnerID string `json:"winner_id,omitempty"`
}

type MoveResultPayload struct {
	Board             [3][3]string `json:"board"`
	NextParticipantID string       `json:"next_participant_id,omitempty"`
	Outcome           Outcome      `json:"outcome"`
}

type MatchOverPayload struct {
	Outcome Outcome `json:"outcome"`
}

type RematchStartedPayload struct {
	Board                 [3][3]string `json:"board"`
	StartingParticipantID string       `json:"starting_participant_id"`
}

type OpponentLeftPayload struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name,omitempty"`
}

type ChatBroadcastPayload struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Text          string `json:"text"`
}

type ErrorPayload struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

package entity

import "time"

// MatchResult is the archive record written once a round reaches a terminal
// outcome. It is telemetry only and never read back by the session logic.
type MatchResult struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Status       string    `json:"status"`
	WinnerID     string    `json:"winner_id,omitempty"`
	Participants []string  `json:"participants"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Profile accumulates per-player totals across archived matches.
type Profile struct {
	ParticipantID string `json:"participant_id"`
	Wins          int64  `json:"wins"`
	Draws         int64  `json:"draws"`
	Losses        int64  `json:"losses"`
}

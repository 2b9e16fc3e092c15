package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/apperror"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/entity"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/protocol"
)

const DefaultRematchTimeout = 30 * time.Second

// Config controls the rematch negotiation. When RequireFullConsent is set, a
// partial vote at the deadline terminates the session instead of starting a
// new round.
type Config struct {
	RematchTimeout     time.Duration
	RequireFullConsent bool
}

// delivery is an outbound message paired with its recipient. Deliveries are
// assembled under the session lock and sent only after it is released, so a
// slow peer never blocks the session.
type delivery struct {
	to  protocol.Sender
	msg protocol.Message
}

// Session owns one match between exactly two participants. Every mutation
// runs under the session mutex; distinct sessions never contend.
type Session struct {
	id      string
	logger  *slog.Logger
	onClose func(sessionID string)

	rematchTimeout     time.Duration
	requireFullConsent bool

	mu           sync.Mutex
	participants []*entity.Participant
	board        entity.Board
	turnIndex    int
	starterIndex int
	status       string
	winnerID     string
	rematchVotes map[string]struct{}
	rematchTimer *time.Timer
	closed       bool
}

// MoveResult is the snapshot broadcast after a successful move, also handed
// back to the caller for archiving once a round finishes.
type MoveResult struct {
	Board             entity.Board
	NextParticipantID string
	Outcome           protocol.Outcome
	Finished          bool
	ParticipantIDs    []string
}

// New creates a session for two paired participants. The first participant
// is the one who was waiting; they receive the first-moving mark.
func New(logger *slog.Logger, id string, first, second *entity.Participant, conf Config, onClose func(sessionID string)) *Session {
	first.Mark = entity.MarkX
	second.Mark = entity.MarkO

	if conf.RematchTimeout <= 0 {
		conf.RematchTimeout = DefaultRematchTimeout
	}

	return &Session{
		id:      id,
		logger:  logger.With("component", "session", "sessionID", id),
		onClose: onClose,

		rematchTimeout:     conf.RematchTimeout,
		requireFullConsent: conf.RequireFullConsent,

		participants: []*entity.Participant{first, second},
		status:       protocol.StatusOngoing,
		rematchVotes: make(map[string]struct{}),
	}
}

func (that *Session) ID() string {
	return that.id
}

// SubmitMove applies one move for the given participant. On success the
// updated state is broadcast to both participants, in participant order,
// before control returns to the caller.
func (that *Session) SubmitMove(participantID string, row, col int) (*MoveResult, error) {
	that.mu.Lock()
	result, out, err := that.submitMove(participantID, row, col)
	that.mu.Unlock()

	if err != nil {
		return nil, err
	}

	that.deliver(out)

	return result, nil
}

func (that *Session) submitMove(participantID string, row, col int) (*MoveResult, []delivery, error) {
	if that.status != protocol.StatusOngoing {
		return nil, nil, apperror.ErrGameAlreadyOver
	}

	idx := that.indexOf(participantID)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrUnknownParticipant, participantID)
	}

	if idx != that.turnIndex {
		return nil, nil, apperror.ErrNotYourTurn
	}

	mover := that.participants[idx]
	if err := that.board.ApplyMark(row, col, mover.Mark); err != nil {
		return nil, nil, err
	}

	switch {
	case that.board.HasWinner(mover.Mark):
		that.status = protocol.StatusWon
		that.winnerID = mover.ID
	case that.board.IsFull():
		that.status = protocol.StatusDraw
	default:
		that.turnIndex = (that.turnIndex + 1) % len(that.participants)
	}

	result := &MoveResult{
		Board:          that.board,
		Outcome:        that.outcome(),
		Finished:       that.status != protocol.StatusOngoing,
		ParticipantIDs: that.participantIDs(),
	}
	if !result.Finished {
		result.NextParticipantID = that.participants[that.turnIndex].ID
	}

	payload := protocol.MoveResultPayload{
		Board:             that.board,
		NextParticipantID: result.NextParticipantID,
		Outcome:           result.Outcome,
	}

	out := that.broadcast(protocol.New(protocol.TypeMoveResult, payload))
	if result.Finished {
		out = append(out, that.broadcast(protocol.New(protocol.TypeMatchOver, protocol.MatchOverPayload{Outcome: result.Outcome}))...)
	}

	return result, out, nil
}

// RequestRematch records a rematch vote. The round resets once every
// participant has voted; a partial vote is resolved by the deadline timer.
func (that *Session) RequestRematch(participantID string) error {
	that.mu.Lock()
	out, err := that.requestRematch(participantID)
	that.mu.Unlock()

	if err != nil {
		return err
	}

	that.deliver(out)

	return nil
}

func (that *Session) requestRematch(participantID string) ([]delivery, error) {
	if that.indexOf(participantID) < 0 {
		return nil, fmt.Errorf("%w: %s", apperror.ErrUnknownParticipant, participantID)
	}

	if that.status == protocol.StatusOngoing {
		// A vote during a live round changes nothing.
		return nil, nil
	}

	if that.status == protocol.StatusTerminated {
		return nil, apperror.ErrGameAlreadyOver
	}

	that.rematchVotes[participantID] = struct{}{}

	if len(that.rematchVotes) == len(that.participants) {
		return that.reset(), nil
	}

	if that.rematchTimer == nil {
		that.rematchTimer = time.AfterFunc(that.rematchTimeout, that.resolveRematchDeadline)
	}

	return nil, nil
}

// resolveRematchDeadline fires when the rematch wait elapses with a partial
// vote. It takes the session lock itself and is a no-op if the vote already
// completed or the session ended in the interim.
func (that *Session) resolveRematchDeadline() {
	that.mu.Lock()

	that.rematchTimer = nil

	if that.closed || that.status == protocol.StatusOngoing || len(that.rematchVotes) == 0 {
		that.mu.Unlock()
		return
	}

	var out []delivery
	var closedNow bool

	if that.requireFullConsent {
		out = that.terminate()
		closedNow = true
	} else {
		// Silence counts as consent: the round proceeds with whoever voted.
		out = that.reset()
	}

	that.mu.Unlock()

	that.deliver(out)

	if closedNow {
		that.close()
	}
}

// reset starts a new round: empty board, ongoing outcome, and the first move
// rotated to the participant who did not start the previous round.
func (that *Session) reset() []delivery {
	that.board = entity.Board{}
	that.status = protocol.StatusOngoing
	that.winnerID = ""
	that.rematchVotes = make(map[string]struct{})
	that.starterIndex = (that.starterIndex + 1) % len(that.participants)
	that.turnIndex = that.starterIndex

	that.stopRematchTimer()

	payload := protocol.RematchStartedPayload{
		Board:                 that.board,
		StartingParticipantID: that.participants[that.turnIndex].ID,
	}

	return that.broadcast(protocol.New(protocol.TypeRematchStarted, payload))
}

func (that *Session) terminate() []delivery {
	that.status = protocol.StatusTerminated
	that.winnerID = ""
	that.closed = true

	that.stopRematchTimer()

	return that.broadcast(protocol.New(protocol.TypeMatchOver, protocol.MatchOverPayload{Outcome: that.outcome()}))
}

// RemoveParticipant handles quit, rematch decline and disconnect. The notice
// goes to whoever remains; the caller learns how many participants are left.
func (that *Session) RemoveParticipant(participantID string) (int, error) {
	that.mu.Lock()
	remaining, out, err := that.removeParticipant(participantID)
	that.mu.Unlock()

	if err != nil {
		return 0, err
	}

	that.deliver(out)

	if remaining == 0 {
		that.close()
	}

	return remaining, nil
}

func (that *Session) removeParticipant(participantID string) (int, []delivery, error) {
	idx := that.indexOf(participantID)
	if idx < 0 {
		return 0, nil, fmt.Errorf("%w: %s", apperror.ErrUnknownParticipant, participantID)
	}

	leaver := that.participants[idx]
	that.participants = append(that.participants[:idx], that.participants[idx+1:]...)
	delete(that.rematchVotes, participantID)

	that.status = protocol.StatusTerminated
	that.turnIndex = 0
	that.stopRematchTimer()

	payload := protocol.OpponentLeftPayload{
		ParticipantID: leaver.ID,
		DisplayName:   leaver.DisplayName,
	}
	out := that.broadcast(protocol.New(protocol.TypeOpponentLeft, payload))

	remaining := len(that.participants)
	if remaining == 0 {
		that.closed = true
	}

	return remaining, out, nil
}

// RelayChat forwards a chat line verbatim to the other participant. The text
// is never interpreted.
func (that *Session) RelayChat(participantID, text string) error {
	that.mu.Lock()

	idx := that.indexOf(participantID)
	if idx < 0 {
		that.mu.Unlock()
		return fmt.Errorf("%w: %s", apperror.ErrUnknownParticipant, participantID)
	}

	sender := that.participants[idx]
	payload := protocol.ChatBroadcastPayload{
		ParticipantID: sender.ID,
		DisplayName:   sender.DisplayName,
		Text:          text,
	}

	var out []delivery
	for i, p := range that.participants {
		if i == idx {
			continue
		}
		out = append(out, delivery{to: p.Conn, msg: protocol.New(protocol.TypeChatBroadcast, payload)})
	}

	that.mu.Unlock()

	that.deliver(out)

	return nil
}

// Board returns a copy of the current grid.
func (that *Session) Board() entity.Board {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board
}

// Outcome returns the current terminal classification.
func (that *Session) Outcome() protocol.Outcome {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.outcome()
}

// CurrentTurnID returns the participant permitted to move, or empty once the
// round is over.
func (that *Session) CurrentTurnID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status != protocol.StatusOngoing || len(that.participants) == 0 {
		return ""
	}

	return that.participants[that.turnIndex].ID
}

// ParticipantIDs returns the ids of the current members in participant order.
func (that *Session) ParticipantIDs() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.participantIDs()
}

func (that *Session) participantIDs() []string {
	ids := make([]string, 0, len(that.participants))
	for _, p := range that.participants {
		ids = append(ids, p.ID)
	}

	return ids
}

func (that *Session) indexOf(participantID string) int {
	for i, p := range that.participants {
		if p.ID == participantID {
			return i
		}
	}

	return -1
}

func (that *Session) outcome() protocol.Outcome {
	return protocol.Outcome{Status: that.status, WinnerID: that.winnerID}
}

// broadcast snapshots the recipient list under the lock, in participant
// order.
func (that *Session) broadcast(msg protocol.Message) []delivery {
	out := make([]delivery, 0, len(that.participants))
	for _, p := range that.participants {
		out = append(out, delivery{to: p.Conn, msg: msg})
	}

	return out
}

func (that *Session) stopRematchTimer() {
	if that.rematchTimer != nil {
		that.rematchTimer.Stop()
		that.rematchTimer = nil
	}
}

// deliver performs the actual sends, strictly after the lock is released.
func (that *Session) deliver(out []delivery) {
	for _, d := range out {
		if d.to == nil {
			continue
		}

		if err := d.to.Send(d.msg); err != nil {
			that.logger.Error("failed to deliver message", "type", d.msg.Type, "error", err)
		}
	}
}

func (that *Session) close() {
	if that.onClose != nil {
		that.onClose(that.id)
	}
}

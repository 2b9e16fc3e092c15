package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/entity"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/events"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/matchmaker"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/protocol"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/registry"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/repository"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/session"
)

// Coordinator routes inbound messages to the matchmaker, the registry and the
// sessions, and reports failures back to the originating participant only.
type Coordinator struct {
	logger *slog.Logger

	matchmaker *matchmaker.Matchmaker
	registry   *registry.Registry

	results   repository.ResultRepository
	profiles  repository.ProfileRepository
	publisher events.Publisher

	sessionConf session.Config
}

// NewCoordinator wires the core. The repositories may be nil when no archive
// is configured; the publisher must be non-nil (use events.NewNoop).
func NewCoordinator(logger *slog.Logger, results repository.ResultRepository, profiles repository.ProfileRepository, publisher events.Publisher, sessionConf session.Config) *Coordinator {
	return &Coordinator{
		logger: logger.With("component", "coordinator"),

		matchmaker: matchmaker.New(),
		registry:   registry.New(),

		results:   results,
		profiles:  profiles,
		publisher: publisher,

		sessionConf: sessionConf,
	}
}

// HandleMessage dispatches one inbound envelope. The returned participant is
// non-nil exactly when the message bound a new identity to the connection
// (join), so transports can route the eventual disconnect.
func (that *Coordinator) HandleMessage(ctx context.Context, conn protocol.Sender, msg protocol.Message) *entity.Participant {
	log := that.logger.With("method", "HandleMessage", "type", msg.Type)

	switch msg.Type {
	case protocol.TypeJoin:
		var payload protocol.JoinPayload
		if !that.decode(conn, msg.Data, &payload) {
			return nil
		}

		return that.Join(ctx, conn, payload.DisplayName, payload.Avatar)

	case protocol.TypeMove:
		var payload protocol.MovePayload
		if !that.decode(conn, msg.Data, &payload) {
			return nil
		}

		if err := that.Move(ctx, payload.SessionID, payload.ParticipantID, payload.Row, payload.Col); err != nil {
			that.reply(conn, protocol.NewError(protocol.ErrorKindOf(err), err.Error()))
		}

	case protocol.TypeChat:
		var payload protocol.ChatPayload
		if !that.decode(conn, msg.Data, &payload) {
			return nil
		}

		if err := that.Chat(payload.SessionID, payload.ParticipantID, payload.Text); err != nil {
			that.reply(conn, protocol.NewError(protocol.ErrorKindOf(err), err.Error()))
		}

	case protocol.TypeQuit:
		var payload protocol.QuitPayload
		if !that.decode(conn, msg.Data, &payload) {
			return nil
		}

		if err := that.Quit(payload.SessionID, payload.ParticipantID); err != nil {
			that.reply(conn, protocol.NewError(protocol.ErrorKindOf(err), err.Error()))
		}

	case protocol.TypeRematchVote:
		var payload protocol.RematchVotePayload
		if !that.decode(conn, msg.Data, &payload) {
			return nil
		}

		if err := that.RematchVote(payload.SessionID, payload.ParticipantID, payload.Accept); err != nil {
			that.reply(conn, protocol.NewError(protocol.ErrorKindOf(err), err.Error()))
		}

	default:
		log.Warn("unknown message type")
		that.reply(conn, protocol.NewError(protocol.KindMalformed, fmt.Sprintf("unknown message type %q", msg.Type)))
	}

	return nil
}

// Join creates a participant identity and either pairs them into a new
// session or parks them as the waiting slot.
func (that *Coordinator) Join(ctx context.Context, conn protocol.Sender, displayName, avatar string) *entity.Participant {
	log := that.logger.With("method", "Join")

	participant := &entity.Participant{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Avatar:      avatar,
		Conn:        conn,
	}

	opponent := that.matchmaker.Join(participant)
	if opponent == nil {
		that.reply(conn, protocol.New(protocol.TypeWaiting, protocol.WaitingPayload{ParticipantID: participant.ID}))
		log.Info("participant is waiting for an opponent", "participantID", participant.ID)

		return participant
	}

	sessionID := uuid.NewString()
	newSession := session.New(that.logger, sessionID, opponent, participant, that.sessionConf, that.closeSession)
	that.registry.Register(newSession)

	// The participant who arrived first moves first; notify in participant order.
	for _, member := range []*entity.Participant{opponent, participant} {
		other := participant
		if member == participant {
			other = opponent
		}

		that.reply(member.Conn, protocol.New(protocol.TypeJoined, protocol.JoinedPayload{
			SessionID:     sessionID,
			ParticipantID: member.ID,
			Mark:          member.Mark,
			OpponentName:  other.DisplayName,
		}))
	}

	that.publish(events.SubjectSessionCreated, events.SessionEvent{
		SessionID:    sessionID,
		Participants: []string{opponent.ID, participant.ID},
		At:           time.Now().UTC(),
	})

	log.Info("session started", "sessionID", sessionID, "first", opponent.ID, "second", participant.ID)

	return participant
}

// Move submits one move; a finished round is archived and announced.
func (that *Coordinator) Move(ctx context.Context, sessionID, participantID string, row, col int) error {
	gameSession, err := that.registry.Lookup(sessionID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	result, err := gameSession.SubmitMove(participantID, row, col)
	if err != nil {
		return fmt.Errorf("failed to submit move: %w", err)
	}

	if result.Finished {
		that.archive(ctx, sessionID, result)
		that.publish(events.SubjectMatchFinished, events.MatchEvent{
			SessionID: sessionID,
			Status:    result.Outcome.Status,
			WinnerID:  result.Outcome.WinnerID,
			At:        time.Now().UTC(),
		})
	}

	return nil
}

// Chat relays a line to the other participant.
func (that *Coordinator) Chat(sessionID, participantID, text string) error {
	gameSession, err := that.registry.Lookup(sessionID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err = gameSession.RelayChat(participantID, text); err != nil {
		return fmt.Errorf("failed to relay chat: %w", err)
	}

	return nil
}

// Quit removes a participant from their session. The session itself signals
// registry deletion once it empties.
func (that *Coordinator) Quit(sessionID, participantID string) error {
	gameSession, err := that.registry.Lookup(sessionID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if _, err = gameSession.RemoveParticipant(participantID); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	that.registry.Detach(participantID)

	return nil
}

// RematchVote records an accepting vote, or treats a decline as quitting.
func (that *Coordinator) RematchVote(sessionID, participantID string, accept bool) error {
	if !accept {
		return that.Quit(sessionID, participantID)
	}

	gameSession, err := that.registry.Lookup(sessionID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err = gameSession.RequestRematch(participantID); err != nil {
		return fmt.Errorf("failed to record rematch vote: %w", err)
	}

	return nil
}

// Disconnect handles a dropped connection: clear the waiting slot if the
// participant was parked, otherwise leave their session like a quit.
func (that *Coordinator) Disconnect(participantID string) {
	log := that.logger.With("method", "Disconnect", "participantID", participantID)

	if that.matchmaker.Withdraw(participantID) {
		log.Info("waiting participant disconnected")
		return
	}

	gameSession, err := that.registry.ByParticipant(participantID)
	if err != nil {
		log.Info("disconnected participant had no session")
		return
	}

	if _, err = gameSession.RemoveParticipant(participantID); err != nil {
		log.Error("failed to remove disconnected participant", "error", err)
	}

	that.registry.Detach(participantID)
}

// Registry is exposed for transports and tests that need direct lookups.
func (that *Coordinator) Registry() *registry.Registry {
	return that.registry
}

func (that *Coordinator) closeSession(sessionID string) {
	that.registry.Remove(sessionID)

	that.publish(events.SubjectSessionClosed, events.SessionEvent{
		SessionID: sessionID,
		At:        time.Now().UTC(),
	})

	that.logger.Info("session closed", "sessionID", sessionID)
}

// archive records the finished round; failures are logged, never surfaced to
// the participants.
func (that *Coordinator) archive(ctx context.Context, sessionID string, result *session.MoveResult) {
	if that.results == nil {
		return
	}

	log := that.logger.With("method", "archive", "sessionID", sessionID)

	record := &entity.MatchResult{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Status:       result.Outcome.Status,
		WinnerID:     result.Outcome.WinnerID,
		Participants: result.ParticipantIDs,
		FinishedAt:   time.Now().UTC(),
	}

	if err := that.results.Save(ctx, record); err != nil {
		log.Error("failed to save match result", "error", err)
	}

	if that.profiles == nil {
		return
	}

	for _, participantID := range result.ParticipantIDs {
		var err error

		switch {
		case result.Outcome.Status == protocol.StatusDraw:
			err = that.profiles.RecordDraw(ctx, participantID)
		case participantID == result.Outcome.WinnerID:
			err = that.profiles.RecordWin(ctx, participantID)
		default:
			err = that.profiles.RecordLoss(ctx, participantID)
		}

		if err != nil {
			log.Error("failed to update profile", "participantID", participantID, "error", err)
		}
	}
}

func (that *Coordinator) publish(subject string, event any) {
	if err := that.publisher.Publish(subject, event); err != nil {
		that.logger.Error("failed to publish event", "subject", subject, "error", err)
	}
}

// decode unmarshals a payload, reporting malformed data to the originator
// without it ever reaching the session logic.
func (that *Coordinator) decode(conn protocol.Sender, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		that.reply(conn, protocol.NewError(protocol.KindMalformed, err.Error()))
		return false
	}

	return true
}

func (that *Coordinator) reply(conn protocol.Sender, msg protocol.Message) {
	if conn == nil {
		return
	}

	if err := conn.Send(msg); err != nil {
		that.logger.Error("failed to send reply", "type", msg.Type, "error", err)
	}
}

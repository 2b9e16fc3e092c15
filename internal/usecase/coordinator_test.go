package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/events"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/protocol"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/session"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []protocol.Message
}

func (that *fakeConn) Send(msg protocol.Message) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.messages = append(that.messages, msg)

	return nil
}

func (that *fakeConn) countByType(msgType string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	count := 0
	for _, msg := range that.messages {
		if msg.Type == msgType {
			count++
		}
	}

	return count
}

func (that *fakeConn) lastByType(t *testing.T, msgType string, target any) {
	t.Helper()

	that.mu.Lock()
	defer that.mu.Unlock()

	for i := len(that.messages) - 1; i >= 0; i-- {
		if that.messages[i].Type == msgType {
			require.NoError(t, json.Unmarshal(that.messages[i].Data, target))
			return
		}
	}

	t.Fatalf("no message of type %q was received", msgType)
}

func newCoordinator(conf session.Config) *Coordinator {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewCoordinator(logger, nil, nil, events.NewNoop(), conf)
}

// pairUp joins two participants and returns the shared session id and their
// participant ids, first joiner first.
func pairUp(t *testing.T, coordinator *Coordinator, connA, connB *fakeConn) (sessionID, firstID, secondID string) {
	t.Helper()

	ctx := context.Background()

	first := coordinator.HandleMessage(ctx, connA, protocol.New(protocol.TypeJoin, protocol.JoinPayload{DisplayName: "Alice"}))
	require.NotNil(t, first)

	second := coordinator.HandleMessage(ctx, connB, protocol.New(protocol.TypeJoin, protocol.JoinPayload{DisplayName: "Bob"}))
	require.NotNil(t, second)

	var joined protocol.JoinedPayload
	connA.lastByType(t, protocol.TypeJoined, &joined)

	return joined.SessionID, first.ID, second.ID
}

func submitMove(coordinator *Coordinator, conn *fakeConn, sessionID, participantID string, row, col int) {
	coordinator.HandleMessage(context.Background(), conn, protocol.New(protocol.TypeMove, protocol.MovePayload{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Row:           row,
		Col:           col,
	}))
}

// playToWin drives the first joiner to a top-row win.
func playToWin(coordinator *Coordinator, connA, connB *fakeConn, sessionID, firstID, secondID string) {
	submitMove(coordinator, connA, sessionID, firstID, 0, 0)
	submitMove(coordinator, connB, sessionID, secondID, 1, 1)
	submitMove(coordinator, connA, sessionID, firstID, 0, 1)
	submitMove(coordinator, connB, sessionID, secondID, 1, 2)
	submitMove(coordinator, connA, sessionID, firstID, 0, 2)
}

func TestCoordinator_Join(t *testing.T) {
	t.Run("First joiner waits for an opponent", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		conn := &fakeConn{}

		participant := coordinator.HandleMessage(context.Background(), conn, protocol.New(protocol.TypeJoin, protocol.JoinPayload{DisplayName: "Alice"}))

		require.NotNil(t, participant)

		var waiting protocol.WaitingPayload
		conn.lastByType(t, protocol.TypeWaiting, &waiting)
		assert.Equal(t, participant.ID, waiting.ParticipantID)
		assert.Equal(t, 0, coordinator.Registry().Len())
	})

	t.Run("Second joiner starts a shared session", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		connA := &fakeConn{}
		connB := &fakeConn{}

		sessionID, firstID, secondID := pairUp(t, coordinator, connA, connB)

		var joinedA, joinedB protocol.JoinedPayload
		connA.lastByType(t, protocol.TypeJoined, &joinedA)
		connB.lastByType(t, protocol.TypeJoined, &joinedB)

		// Then: both participants share the session, the earlier arrival
		// holds the first-moving mark, and opponent names are crossed
		assert.Equal(t, sessionID, joinedB.SessionID)
		assert.Equal(t, firstID, joinedA.ParticipantID)
		assert.Equal(t, secondID, joinedB.ParticipantID)
		assert.Equal(t, "X", joinedA.Mark)
		assert.Equal(t, "O", joinedB.Mark)
		assert.Equal(t, "Bob", joinedA.OpponentName)
		assert.Equal(t, "Alice", joinedB.OpponentName)
		assert.Equal(t, 1, coordinator.Registry().Len())
	})

	t.Run("Third joiner waits for a fresh opponent", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		pairUp(t, coordinator, &fakeConn{}, &fakeConn{})

		connC := &fakeConn{}
		participant := coordinator.HandleMessage(context.Background(), connC, protocol.New(protocol.TypeJoin, protocol.JoinPayload{DisplayName: "Carol"}))

		require.NotNil(t, participant)

		var waiting protocol.WaitingPayload
		connC.lastByType(t, protocol.TypeWaiting, &waiting)
		assert.Equal(t, participant.ID, waiting.ParticipantID)
		assert.Equal(t, 1, coordinator.Registry().Len())
	})
}

func TestCoordinator_Move(t *testing.T) {
	t.Run("Plays a round to a win and rejects the move after", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		connA := &fakeConn{}
		connB := &fakeConn{}
		sessionID, firstID, secondID := pairUp(t, coordinator, connA, connB)

		// When: the first joiner completes the top row
		playToWin(coordinator, connA, connB, sessionID, firstID, secondID)

		// Then: both participants saw the winning result and the match over notice
		for _, conn := range []*fakeConn{connA, connB} {
			var result protocol.MoveResultPayload
			conn.lastByType(t, protocol.TypeMoveResult, &result)
			assert.Equal(t, protocol.StatusWon, result.Outcome.Status)
			assert.Equal(t, firstID, result.Outcome.WinnerID)

			assert.Equal(t, 1, conn.countByType(protocol.TypeMatchOver))
		}

		// And: a further move is reported only to its sender
		submitMove(coordinator, connB, sessionID, secondID, 2, 2)

		var errPayload protocol.ErrorPayload
		connB.lastByType(t, protocol.TypeError, &errPayload)
		assert.Equal(t, protocol.KindGameAlreadyOver, errPayload.Kind)
		assert.Equal(t, 0, connA.countByType(protocol.TypeError))
	})

	t.Run("Reports a turn violation to the offender only", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		connA := &fakeConn{}
		connB := &fakeConn{}
		sessionID, _, secondID := pairUp(t, coordinator, connA, connB)

		submitMove(coordinator, connB, sessionID, secondID, 0, 0)

		var errPayload protocol.ErrorPayload
		connB.lastByType(t, protocol.TypeError, &errPayload)
		assert.Equal(t, protocol.KindNotYourTurn, errPayload.Kind)
		assert.Equal(t, 0, connA.countByType(protocol.TypeError))
		assert.Equal(t, 0, connA.countByType(protocol.TypeMoveResult))
	})

	t.Run("Fails for an unknown session", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		conn := &fakeConn{}

		submitMove(coordinator, conn, "missing", "nobody", 0, 0)

		var errPayload protocol.ErrorPayload
		conn.lastByType(t, protocol.TypeError, &errPayload)
		assert.Equal(t, protocol.KindSessionNotFound, errPayload.Kind)
	})
}

func TestCoordinator_Chat(t *testing.T) {
	t.Run("Relays a line to the other participant only", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		connA := &fakeConn{}
		connB := &fakeConn{}
		sessionID, firstID, _ := pairUp(t, coordinator, connA, connB)

		coordinator.HandleMessage(context.Background(), connA, protocol.New(protocol.TypeChat, protocol.ChatPayload{
			SessionID:     sessionID,
			ParticipantID: firstID,
			Text:          "good luck",
		}))

		var chat protocol.ChatBroadcastPayload
		connB.lastByType(t, protocol.TypeChatBroadcast, &chat)
		assert.Equal(t, "good luck", chat.Text)
		assert.Equal(t, "Alice", chat.DisplayName)
		assert.Equal(t, 0, connA.countByType(protocol.TypeChatBroadcast))
	})
}

func TestCoordinator_RematchVote(t *testing.T) {
	t.Run("Two accepting votes start a new round", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		connA := &fakeConn{}
		connB := &fakeConn{}
		sessionID, firstID, secondID := pairUp(t, coordinator, connA, connB)
		playToWin(coordinator, connA, connB, sessionID, firstID, secondID)

		for _, vote := range []struct {
			conn *fakeConn
			id   string
		}{{connA, firstID}, {connB, secondID}} {
			coordinator.HandleMessage(context.Background(), vote.conn, protocol.New(protocol.TypeRematchVote, protocol.RematchVotePayload{
				SessionID:     sessionID,
				ParticipantID: vote.id,
				Accept:        true,
			}))
		}

		// Then: the round restarted with the other participant moving first
		var started protocol.RematchStartedPayload
		connA.lastByType(t, protocol.TypeRematchStarted, &started)
		assert.Equal(t, secondID, started.StartingParticipantID)
		assert.Equal(t, 1, connB.countByType(protocol.TypeRematchStarted))

		gameSession, err := coordinator.Registry().Lookup(sessionID)
		require.NoError(t, err)
		assert.Equal(t, protocol.StatusOngoing, gameSession.Outcome().Status)
	})

	t.Run("A decline leaves the session like a quit", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		connA := &fakeConn{}
		connB := &fakeConn{}
		sessionID, firstID, secondID := pairUp(t, coordinator, connA, connB)
		playToWin(coordinator, connA, connB, sessionID, firstID, secondID)

		coordinator.HandleMessage(context.Background(), connB, protocol.New(protocol.TypeRematchVote, protocol.RematchVotePayload{
			SessionID:     sessionID,
			ParticipantID: secondID,
			Accept:        false,
		}))

		var left protocol.OpponentLeftPayload
		connA.lastByType(t, protocol.TypeOpponentLeft, &left)
		assert.Equal(t, secondID, left.ParticipantID)

		// the session lingers for the remaining participant, then closes
		assert.Equal(t, 1, coordinator.Registry().Len())

		coordinator.HandleMessage(context.Background(), connA, protocol.New(protocol.TypeQuit, protocol.QuitPayload{
			SessionID:     sessionID,
			ParticipantID: firstID,
		}))

		assert.Equal(t, 0, coordinator.Registry().Len())
	})
}

func TestCoordinator_Quit(t *testing.T) {
	t.Run("Notifies the opponent and ends the round", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		connA := &fakeConn{}
		connB := &fakeConn{}
		sessionID, firstID, secondID := pairUp(t, coordinator, connA, connB)

		coordinator.HandleMessage(context.Background(), connA, protocol.New(protocol.TypeQuit, protocol.QuitPayload{
			SessionID:     sessionID,
			ParticipantID: firstID,
		}))

		var left protocol.OpponentLeftPayload
		connB.lastByType(t, protocol.TypeOpponentLeft, &left)
		assert.Equal(t, firstID, left.ParticipantID)

		// the abandoned round accepts no further moves
		submitMove(coordinator, connB, sessionID, secondID, 0, 0)

		var errPayload protocol.ErrorPayload
		connB.lastByType(t, protocol.TypeError, &errPayload)
		assert.Equal(t, protocol.KindGameAlreadyOver, errPayload.Kind)
	})
}

func TestCoordinator_Disconnect(t *testing.T) {
	t.Run("Clears a waiting participant", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		connA := &fakeConn{}

		participant := coordinator.HandleMessage(context.Background(), connA, protocol.New(protocol.TypeJoin, protocol.JoinPayload{DisplayName: "Alice"}))
		require.NotNil(t, participant)

		coordinator.Disconnect(participant.ID)

		// the next joiner waits instead of pairing with the ghost
		connB := &fakeConn{}
		coordinator.HandleMessage(context.Background(), connB, protocol.New(protocol.TypeJoin, protocol.JoinPayload{DisplayName: "Bob"}))

		assert.Equal(t, 1, connB.countByType(protocol.TypeWaiting))
		assert.Equal(t, 0, coordinator.Registry().Len())
	})

	t.Run("Removes a matched participant from their session", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		connA := &fakeConn{}
		connB := &fakeConn{}
		_, firstID, _ := pairUp(t, coordinator, connA, connB)

		coordinator.Disconnect(firstID)

		var left protocol.OpponentLeftPayload
		connB.lastByType(t, protocol.TypeOpponentLeft, &left)
		assert.Equal(t, firstID, left.ParticipantID)
	})

	t.Run("Ignores a participant nobody knows", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})

		coordinator.Disconnect("ghost")

		assert.Equal(t, 0, coordinator.Registry().Len())
	})
}

func TestCoordinator_HandleMessage(t *testing.T) {
	t.Run("Reports malformed payloads without touching any session", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		conn := &fakeConn{}

		coordinator.HandleMessage(context.Background(), conn, protocol.Message{
			Type: protocol.TypeMove,
			Data: json.RawMessage(`{"row": "not a number"}`),
		})

		var errPayload protocol.ErrorPayload
		conn.lastByType(t, protocol.TypeError, &errPayload)
		assert.Equal(t, protocol.KindMalformed, errPayload.Kind)
	})

	t.Run("Rejects an unknown message type", func(t *testing.T) {
		coordinator := newCoordinator(session.Config{})
		conn := &fakeConn{}

		coordinator.HandleMessage(context.Background(), conn, protocol.Message{Type: "teleport"})

		var errPayload protocol.ErrorPayload
		conn.lastByType(t, protocol.TypeError, &errPayload)
		assert.Equal(t, protocol.KindMalformed, errPayload.Kind)
	})
}

package registry

import (
	"fmt"
	"sync"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/apperror"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/session"
)

// Registry is the process-wide mapping from session id to live session and
// from participant id to the session they are in. Sessions are independent;
// the registry only guards its own maps.
type Registry struct {
	mu            sync.RWMutex
	sessions      map[string]*session.Session
	byParticipant map[string]string
}

func New() *Registry {
	return &Registry{
		sessions:      make(map[string]*session.Session),
		byParticipant: make(map[string]string),
	}
}

// Register stores a freshly created session and indexes its participants.
func (that *Registry) Register(s *session.Session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sessions[s.ID()] = s
	for _, participantID := range s.ParticipantIDs() {
		that.byParticipant[participantID] = s.ID()
	}
}

// Lookup resolves a session id.
func (that *Registry) Lookup(sessionID string) (*session.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	s, ok := that.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, sessionID)
	}

	return s, nil
}

// ByParticipant resolves the session a participant currently belongs to.
func (that *Registry) ByParticipant(participantID string) (*session.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sessionID, ok := that.byParticipant[participantID]
	if !ok {
		return nil, fmt.Errorf("%w: no session for participant %s", apperror.ErrSessionNotFound, participantID)
	}

	s, ok := that.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, sessionID)
	}

	return s, nil
}

// Detach drops the participant index entry, leaving the session itself in
// place for whoever remains.
func (that *Registry) Detach(participantID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.byParticipant, participantID)
}

// Remove deletes a session and every participant index entry pointing at it.
// Removing an absent session is a no-op.
func (that *Registry) Remove(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, sessionID)

	for participantID, id := range that.byParticipant {
		if id == sessionID {
			delete(that.byParticipant, participantID)
		}
	}
}

// Len reports the number of live sessions.
func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}

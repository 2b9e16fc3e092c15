package matchmaker

import (
	"sync"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/entity"
)

// Matchmaker holds at most one participant waiting for an opponent. The
// waiting slot is read-modified-written under its own lock, distinct from any
// session lock, and the lock is never held across network sends.
type Matchmaker struct {
	mu      sync.Mutex
	waiting *entity.Participant
}

func New() *Matchmaker {
	return &Matchmaker{}
}

// Join pairs the new participant with the waiting one, or parks them as the
// new waiting slot. The returned opponent is non-nil exactly when a pairing
// happened; the opponent is the participant who arrived first.
func (that *Matchmaker) Join(p *entity.Participant) *entity.Participant {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.waiting == nil {
		that.waiting = p
		return nil
	}

	opponent := that.waiting
	that.waiting = nil

	return opponent
}

// Withdraw clears the waiting slot if it holds the given participant, for
// joiners that disconnect before an opponent arrives.
func (that *Matchmaker) Withdraw(participantID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.waiting == nil || that.waiting.ID != participantID {
		return false
	}

	that.waiting = nil

	return true
}

// Waiting reports the id of the parked participant, if any.
func (that *Matchmaker) Waiting() (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.waiting == nil {
		return "", false
	}

	return that.waiting.ID, true
}

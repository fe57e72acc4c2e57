// Package transcript holds the ordered turns of a single chat session.
package transcript

import (
	"errors"
	"sync"

	"github.com/dzeya/mensor-construction-4/internal/models"
)

// ErrNotExtendable is returned by ExtendLast when the last turn is not a
// model turn.
var ErrNotExtendable = errors.New("transcript: last turn is not a model turn")

// Store is an in-memory, append-only conversation. The only in-place
// mutation is growing the text of the trailing model turn.
type Store struct {
	mu    sync.RWMutex
	turns []models.Turn
}

func New(initial ...models.Turn) *Store {
	s := &Store{}
	s.turns = append(s.turns, initial...)
	return s
}

func (s *Store) Append(turn models.Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
}

// ExtendLast appends fragment to the text of the trailing model turn.
func (s *Store) ExtendLast(fragment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.turns)
	if n == 0 || s.turns[n-1].Role != models.RoleModel {
		return ErrNotExtendable
	}
	s.turns[n-1].Text += fragment
	return nil
}

// Last returns the trailing turn, if any.
func (s *Store) Last() (models.Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.turns) == 0 {
		return models.Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Snapshot returns a copy of the turns in conversation order.
func (s *Store) Snapshot() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"DashSync/internal/model"
)

// Store guards the persisted session state.
type Store struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewStore loads or initializes the session state from disk.
func NewStore(filePath string) (*Store, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	if state.ClientID == "" {
		state.ClientID = uuid.NewString()
	}
	s := &Store{state: state, filePath: filePath}
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a copy of the current session state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state
}

// Confirm overwrites the cached connection flag and mode with values the service
// reported. It returns true if the cached values changed.
func (s *Store) Confirm(apiConnected bool, mode model.TradingMode, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.state.APIConnected != apiConnected || (mode != "" && s.state.TradingMode != mode)
	first := s.state.VerifiedAt.IsZero()
	if !changed && !first {
		return false
	}
	s.state.APIConnected = apiConnected
	if mode != "" {
		s.state.TradingMode = mode
	}
	s.state.VerifiedAt = at
	if err := s.save(); err != nil {
		log.Printf("[ERROR] failed to save session state: %v", err)
	}
	return changed
}

func (s *Store) save() error {
	return SaveState(s.filePath, s.state)
}

package state

import (
	"sync"
	"time"

	"smabot/internal/broker"
)

// Status is the loop's observable snapshot. Nothing here is persisted.
type Status struct {
	State        string             `json:"state"`
	Retries      int                `json:"retries"`
	Account      broker.AccountInfo `json:"account"`
	Position     *broker.Position   `json:"position,omitempty"`
	LastAction   string             `json:"last_action,omitempty"`
	LastResult   string             `json:"last_result,omitempty"`
	LastDecision time.Time          `json:"last_decision_at,omitempty"`
}

// Store guards the snapshot: the loop writes, the status endpoint reads.
type Store struct {
	mu     sync.RWMutex
	status Status
}

func NewStore() *Store {
	return &Store{status: Status{State: "RUNNING"}}
}

func (s *Store) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := s.status
	if s.status.Position != nil {
		position := *s.status.Position
		snapshot.Position = &position
	}
	return snapshot
}

func (s *Store) SetState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = state
}

func (s *Store) SetRetries(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Retries = n
}

func (s *Store) SetAccount(account broker.AccountInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Account = account
}

func (s *Store) SetPosition(position *broker.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Position = position
}

func (s *Store) SetDecision(action, result string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastAction = action
	s.status.LastResult = result
	s.status.LastDecision = at
}

package planner

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripplanner/models"
)

// SessionStore is the single source of truth for planning sessions.
// Mutations to one session are serialized; different sessions never
// contend with each other.
type SessionStore interface {
	// Create registers a new session in state queued and returns it.
	Create(spec models.TripSpec) (*models.PlanningSession, error)
	// Get returns a snapshot of the session, or a notFound error.
	Get(sessionID string) (*models.PlanningSession, error)
	// Update applies an atomic mutation. State transitions must be
	// monotonic; the store rejects any regression.
	Update(sessionID string, mutate func(*models.PlanningSession) error) error
	// Claim atomically moves the session from queued to running. It
	// returns false if the session was already claimed, so a session
	// can never be picked up twice.
	Claim(sessionID string) (bool, error)
}

var statusRank = map[string]int{
	models.StatusQueued:    0,
	models.StatusRunning:   1,
	models.StatusCompleted: 2,
	models.StatusFailed:    2,
}

func checkTransition(from, to string) error {
	if from == to {
		return nil
	}
	if from == models.StatusCompleted || from == models.StatusFailed {
		return fmt.Errorf("session is terminal in state %s", from)
	}
	if statusRank[to] < statusRank[from] {
		return fmt.Errorf("illegal state transition %s -> %s", from, to)
	}
	return nil
}

// MemorySessionStore keeps sessions in process memory. Each session
// carries its own mutex; the store-level lock only guards map
// membership, so sessions never block one another.
type MemorySessionStore struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	mu   sync.Mutex
	sess *models.PlanningSession
}

// NewMemorySessionStore builds an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{entries: make(map[string]*sessionEntry)}
}

func (s *MemorySessionStore) Create(spec models.TripSpec) (*models.PlanningSession, error) {
	sess := &models.PlanningSession{
		ID:           uuid.New().String(),
		Status:       models.StatusQueued,
		Spec:         spec,
		StageResults: []models.StageResult{},
		CreatedAt:    time.Now(),
	}

	s.mu.Lock()
	s.entries[sess.ID] = &sessionEntry{sess: sess}
	s.mu.Unlock()

	return snapshot(sess), nil
}

func (s *MemorySessionStore) Get(sessionID string) (*models.PlanningSession, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return snapshot(entry.sess), nil
}

func (s *MemorySessionStore) Update(sessionID string, mutate func(*models.PlanningSession) error) error {
	entry, err := s.entry(sessionID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	before := entry.sess.Status
	if err := mutate(entry.sess); err != nil {
		return err
	}
	if err := checkTransition(before, entry.sess.Status); err != nil {
		entry.sess.Status = before
		return err
	}
	return nil
}

func (s *MemorySessionStore) Claim(sessionID string) (bool, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return false, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.sess.Status != models.StatusQueued {
		return false, nil
	}
	entry.sess.Status = models.StatusRunning
	return true, nil
}

func (s *MemorySessionStore) entry(sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, NewNotFoundError(sessionID)
	}
	return entry, nil
}

// snapshot copies the session so readers never observe a mutation in
// progress. Stage payloads are written once and treated as read-only
// afterwards, so sharing them is safe.
func snapshot(sess *models.PlanningSession) *models.PlanningSession {
	cp := *sess
	cp.StageResults = make([]models.StageResult, len(sess.StageResults))
	copy(cp.StageResults, sess.StageResults)
	if sess.Error != nil {
		errCopy := *sess.Error
		cp.Error = &errCopy
	}
	if sess.CompletedAt != nil {
		at := *sess.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

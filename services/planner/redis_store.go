package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"tripplanner/models"
)

const (
	sessionKeyPrefix = "plansession:"
	claimKeyPrefix   = "planclaim:"
)

// RedisSessionStore backs sessions with Redis so a deployment can share
// them across processes. Claims use SETNX so a session is picked up by
// exactly one worker even with several instances; read-modify-write
// mutations are additionally serialized per session id within the
// process.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRedisSessionStore wraps an initialized Redis client.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *RedisSessionStore) Create(spec models.TripSpec) (*models.PlanningSession, error) {
	sess := &models.PlanningSession{
		ID:           uuid.New().String(),
		Status:       models.StatusQueued,
		Spec:         spec,
		StageResults: []models.StageResult{},
		CreatedAt:    time.Now(),
	}
	if err := s.save(sess); err != nil {
		return nil, fmt.Errorf("failed to store planning session: %w", err)
	}
	return sess, nil
}

func (s *RedisSessionStore) Get(sessionID string) (*models.PlanningSession, error) {
	return s.load(sessionID)
}

func (s *RedisSessionStore) Update(sessionID string, mutate func(*models.PlanningSession) error) error {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.load(sessionID)
	if err != nil {
		return err
	}

	before := sess.Status
	if err := mutate(sess); err != nil {
		return err
	}
	if err := checkTransition(before, sess.Status); err != nil {
		return err
	}
	return s.save(sess)
}

func (s *RedisSessionStore) Claim(sessionID string) (bool, error) {
	ctx := context.Background()
	ok, err := s.client.SetNX(ctx, claimKeyPrefix+sessionID, "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim session: %w", err)
	}
	if !ok {
		return false, nil
	}

	err = s.Update(sessionID, func(sess *models.PlanningSession) error {
		if sess.Status != models.StatusQueued {
			return fmt.Errorf("session %s already in state %s", sessionID, sess.Status)
		}
		sess.Status = models.StatusRunning
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisSessionStore) load(sessionID string) (*models.PlanningSession, error) {
	ctx := context.Background()
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, NewNotFoundError(sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load planning session: %w", err)
	}

	var sess models.PlanningSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to parse planning session %s: %w", sessionID, err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) save(sess *models.PlanningSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal planning session: %w", err)
	}
	ctx := context.Background()
	return s.client.Set(ctx, sessionKeyPrefix+sess.ID, data, s.ttl).Err()
}

func (s *RedisSessionStore) lockFor(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

package planner

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/models"
)

func testSpec(destination string) models.TripSpec {
	return models.TripSpec{
		Destination: destination,
		StartDate:   "2026-06-01",
		EndDate:     "2026-06-04",
		Duration:    3,
		Budget:      2000,
		Travelers:   2,
	}
}

func TestMemoryStoreCreateStartsQueued(t *testing.T) {
	store := NewMemorySessionStore()

	sess, err := store.Create(testSpec("Paris"))
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, models.StatusQueued, sess.Status)
	assert.Empty(t, sess.StageResults)
	assert.Nil(t, sess.Plan)
	assert.False(t, sess.CreatedAt.IsZero())
}

func TestMemoryStoreGetUnknownSession(t *testing.T) {
	store := NewMemorySessionStore()

	_, err := store.Get("no-such-session")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, ErrorCode(err))
}

func TestMemoryStoreClaimExactlyOnce(t *testing.T) {
	store := NewMemorySessionStore()
	sess, err := store.Create(testSpec("Paris"))
	require.NoError(t, err)

	claimed, err := store.Claim(sess.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(sess.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, got.Status)
}

func TestMemoryStoreClaimRacesToOneWinner(t *testing.T) {
	store := NewMemorySessionStore()
	sess, err := store.Create(testSpec("Paris"))
	require.NoError(t, err)

	const workers = 20
	wins := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.Claim(sess.ID)
			require.NoError(t, err)
			wins <- claimed
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for claimed := range wins {
		if claimed {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestMemoryStoreRejectsStatusRegression(t *testing.T) {
	store := NewMemorySessionStore()
	sess, err := store.Create(testSpec("Paris"))
	require.NoError(t, err)

	claimed, err := store.Claim(sess.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	err = store.Update(sess.ID, func(s *models.PlanningSession) error {
		s.Status = models.StatusQueued
		return nil
	})
	require.Error(t, err)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, got.Status)
}

func TestMemoryStoreTerminalIsFinal(t *testing.T) {
	store := NewMemorySessionStore()
	sess, err := store.Create(testSpec("Paris"))
	require.NoError(t, err)

	err = store.Update(sess.ID, func(s *models.PlanningSession) error {
		s.Status = models.StatusFailed
		s.Error = &models.ErrorRecord{Kind: CodeTimeout, Message: "deadline"}
		return nil
	})
	require.NoError(t, err)

	err = store.Update(sess.ID, func(s *models.PlanningSession) error {
		s.Status = models.StatusCompleted
		return nil
	})
	require.Error(t, err)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, CodeTimeout, got.Error.Kind)
}

func TestMemoryStoreGetReturnsSnapshot(t *testing.T) {
	store := NewMemorySessionStore()
	sess, err := store.Create(testSpec("Paris"))
	require.NoError(t, err)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the store.
	got.Status = models.StatusFailed
	got.StageResults = append(got.StageResults, models.StageResult{Stage: models.StageFlights})

	fresh, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, fresh.Status)
	assert.Empty(t, fresh.StageResults)
}

func TestMemoryStoreSessionsAreIndependent(t *testing.T) {
	store := NewMemorySessionStore()

	const sessions = 10
	ids := make([]string, sessions)
	for i := range ids {
		sess, err := store.Create(testSpec(fmt.Sprintf("City %d", i)))
		require.NoError(t, err)
		ids[i] = sess.ID
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			claimed, err := store.Claim(id)
			require.NoError(t, err)
			require.True(t, claimed)

			err = store.Update(id, func(s *models.PlanningSession) error {
				s.StageResults = append(s.StageResults, models.StageResult{
					Stage:       models.StageRecommendations,
					Data:        map[string]any{"index": i},
					CompletedAt: time.Now(),
				})
				return nil
			})
			require.NoError(t, err)
		}(i, id)
	}
	wg.Wait()

	for i, id := range ids {
		got, err := store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("City %d", i), got.Spec.Destination)
		require.Len(t, got.StageResults, 1)
		assert.Equal(t, i, got.StageResults[0].Data["index"])
	}
}

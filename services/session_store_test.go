package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStorePutGetDelete(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	defer store.Close()

	assert.Nil(t, store.Get(1))

	store.Put(1, &Session{State: StateAwaitingWaterAmount})
	sess := store.Get(1)
	require.NotNil(t, sess)
	assert.Equal(t, StateAwaitingWaterAmount, sess.State)

	// distinct identities are independent
	assert.Nil(t, store.Get(2))

	store.Delete(1)
	assert.Nil(t, store.Get(1))
}

func TestMemorySessionStoreOverwrite(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	defer store.Close()

	store.Put(1, &Session{State: StateAwaitingFoodName})
	store.Put(1, &Session{State: StateAwaitingWorkoutLocation})

	sess := store.Get(1)
	require.NotNil(t, sess)
	assert.Equal(t, StateAwaitingWorkoutLocation, sess.State)
}

func TestMemorySessionStoreEvictsAbandonedSessions(t *testing.T) {
	store := NewMemorySessionStore(50 * time.Millisecond)
	defer store.Close()

	store.Put(1, &Session{State: StateAwaitingFoodWeight})
	time.Sleep(150 * time.Millisecond)
	assert.Nil(t, store.Get(1))
}

package services

import (
	"sync"
	"time"

	"healthbot/models"
)

// SessionState tags which input the conversation is waiting on.
type SessionState string

const (
	StateIdle                    SessionState = "idle"
	StateAwaitingProfileField    SessionState = "awaiting_profile_field"
	StateAwaitingFoodName        SessionState = "awaiting_food_name"
	StateAwaitingFoodBarcode     SessionState = "awaiting_food_barcode"
	StateAwaitingFoodPhoto       SessionState = "awaiting_food_photo"
	StateAwaitingFoodWeight      SessionState = "awaiting_food_weight"
	StateAwaitingWaterAmount     SessionState = "awaiting_water_amount"
	StateAwaitingWorkoutLocation SessionState = "awaiting_workout_location"
	StateAwaitingWorkoutType     SessionState = "awaiting_workout_type"
	StateAwaitingWorkoutDuration SessionState = "awaiting_workout_duration"
	StateAwaitingReminderTime    SessionState = "awaiting_reminder_time"
)

// Session holds one user's transient conversation state: the active
// state tag, values collected but not yet committed, and the message IDs
// to clean up once the step completes. Volatile; never persisted.
type Session struct {
	State SessionState

	EditField       Field
	PendingFood     *FoodCandidate
	WorkoutLocation string // "indoor" | "outdoor"
	WorkoutKind     models.WorkoutKind
	TempC           *float64

	PromptMsgID string
	ErrorMsgIDs []string
	UserMsgIDs  []string
	Retries     int

	UpdatedAt time.Time
}

// SessionStore keeps per-user sessions. Get returning nil means idle.
type SessionStore interface {
	Get(userID uint) *Session
	Put(userID uint, s *Session)
	Delete(userID uint)
}

// MemorySessionStore is a mutex-guarded map with TTL eviction so
// abandoned flows don't accumulate forever.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[uint]*Session
	ttl      time.Duration
	done     chan struct{}
}

const DefaultSessionTTL = 30 * time.Minute

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &MemorySessionStore{
		sessions: make(map[uint]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *MemorySessionStore) Get(userID uint) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	if sess == nil {
		return nil
	}
	if time.Since(sess.UpdatedAt) > s.ttl {
		delete(s.sessions, userID)
		return nil
	}
	return sess
}

func (s *MemorySessionStore) Put(userID uint, sess *Session) {
	sess.UpdatedAt = time.Now()
	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()
}

func (s *MemorySessionStore) Delete(userID uint) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

func (s *MemorySessionStore) Close() {
	close(s.done)
}

func (s *MemorySessionStore) sweep() {
	t := time.NewTicker(s.ttl / 2)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			now := time.Now()
			s.mu.Lock()
			for id, sess := range s.sessions {
				if now.Sub(sess.UpdatedAt) > s.ttl {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

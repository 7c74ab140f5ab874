package services

import (
	"fmt"
	"sync"
	"time"

	"healthbot/models"

	"gorm.io/gorm"
)

// ProfileStore owns user profile records and their logs. All mutation
// goes through the conversation engine's commit step.
type ProfileStore interface {
	Get(userID uint) (*models.User, error)
	CommitField(userID uint, field Field, value any) error
	SetProfileMessageID(userID uint, msgID string) error
	AddWater(userID uint, amountML int, at time.Time) (totalML int, err error)
	WaterLog(userID uint) ([]models.WaterLogEntry, error)
	AddWorkout(userID uint, entry *models.WorkoutLogEntry) error
	Workouts(userID uint) ([]models.WorkoutLogEntry, error)
	AddFoodCalories(userID uint, kcal float64) error
	ToggleReminder(userID uint) (bool, error)
	SetReminderTime(userID uint, hhmm string) error
}

// ProfileService keeps a process-wide map of profiles in front of the
// users table. Commits mutate memory first, then persist; a read after a
// successful commit always sees the committed value.
type ProfileService struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[uint]*models.User
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db, cache: make(map[uint]*models.User)}
}

// WarmCache loads every known user at startup.
func (s *ProfileService) WarmCache() error {
	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	s.mu.Lock()
	for i := range users {
		u := users[i]
		s.cache[u.ID] = &u
	}
	s.mu.Unlock()
	return nil
}

func (s *ProfileService) Get(userID uint) (*models.User, error) {
	s.mu.RLock()
	u, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		copy := *u
		return &copy, nil
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user %d not found: %w", userID, err)
	}
	s.mu.Lock()
	s.cache[userID] = &user
	s.mu.Unlock()
	copy := user
	return &copy, nil
}

// CommitField writes one validated profile value. The value's type must
// already match the field (int for numeric fields, string for city).
func (s *ProfileService) CommitField(userID uint, field Field, value any) error {
	return s.update(userID, func(u *models.User) error {
		switch field {
		case FieldWeight:
			v := value.(int)
			u.WeightKg = &v
		case FieldHeight:
			v := value.(int)
			u.HeightCm = &v
		case FieldAge:
			v := value.(int)
			u.AgeYears = &v
		case FieldActivity:
			v := value.(int)
			u.ActivityLevel = &v
		case FieldCity:
			v := value.(string)
			u.City = &v
		default:
			return fmt.Errorf("field %q is not a profile field", field)
		}
		return nil
	})
}

func (s *ProfileService) SetProfileMessageID(userID uint, msgID string) error {
	return s.update(userID, func(u *models.User) error {
		u.ProfileMessageID = msgID
		return nil
	})
}

func (s *ProfileService) AddFoodCalories(userID uint, kcal float64) error {
	return s.update(userID, func(u *models.User) error {
		u.LoggedCalories += kcal
		return nil
	})
}

func (s *ProfileService) ToggleReminder(userID uint) (bool, error) {
	var enabled bool
	err := s.update(userID, func(u *models.User) error {
		u.ReminderEnabled = !u.ReminderEnabled
		if u.ReminderTime == "" {
			u.ReminderTime = "08:00"
		}
		enabled = u.ReminderEnabled
		return nil
	})
	return enabled, err
}

func (s *ProfileService) SetReminderTime(userID uint, hhmm string) error {
	return s.update(userID, func(u *models.User) error {
		u.ReminderTime = hhmm
		return nil
	})
}

func (s *ProfileService) MarkReminded(userID uint, at time.Time) error {
	return s.update(userID, func(u *models.User) error {
		u.LastRemindedAt = at
		return nil
	})
}

func (s *ProfileService) AddWater(userID uint, amountML int, at time.Time) (int, error) {
	entry := models.WaterLogEntry{UserID: userID, AmountML: amountML, LoggedAt: at}
	if err := s.db.Create(&entry).Error; err != nil {
		return 0, fmt.Errorf("failed to log water: %w", err)
	}
	var total int64
	err := s.db.Model(&models.WaterLogEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount_ml), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum water log: %w", err)
	}
	return int(total), nil
}

func (s *ProfileService) WaterLog(userID uint) ([]models.WaterLogEntry, error) {
	var entries []models.WaterLogEntry
	err := s.db.
		Where("user_id = ?", userID).
		Order("logged_at asc, id asc").
		Find(&entries).Error
	return entries, err
}

func (s *ProfileService) AddWorkout(userID uint, entry *models.WorkoutLogEntry) error {
	entry.UserID = userID
	return s.db.Create(entry).Error
}

func (s *ProfileService) Workouts(userID uint) ([]models.WorkoutLogEntry, error) {
	var entries []models.WorkoutLogEntry
	err := s.db.
		Where("user_id = ?", userID).
		Order("date asc, id asc").
		Find(&entries).Error
	return entries, err
}

// update applies fn to the cached record, then persists. The write lock
// spans both so concurrent commits for one user serialize.
func (s *ProfileService) update(userID uint, fn func(*models.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.cache[userID]
	if !ok {
		var user models.User
		if err := s.db.First(&user, userID).Error; err != nil {
			return fmt.Errorf("user %d not found: %w", userID, err)
		}
		u = &user
		s.cache[userID] = u
	}

	if err := fn(u); err != nil {
		return err
	}
	if err := s.db.Save(u).Error; err != nil {
		return fmt.Errorf("failed to persist user %d: %w", userID, err)
	}
	return nil
}

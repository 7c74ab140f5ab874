package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"healthbot/models"
	"healthbot/utils"

	"gorm.io/gorm"
)

// ReminderService wakes up every minute and nudges users whose reminder
// time matches the clock: a chat message, a push, and an e-mail.
type ReminderService struct {
	db        *gorm.DB
	profiles  *ProfileService
	conv      *Conversation
	transport Transport
	push      *PushService // optional

	done chan struct{}
}

func NewReminderService(db *gorm.DB, profiles *ProfileService, conv *Conversation, transport Transport, push *PushService) *ReminderService {
	return &ReminderService{
		db:        db,
		profiles:  profiles,
		conv:      conv,
		transport: transport,
		push:      push,
		done:      make(chan struct{}),
	}
}

func (s *ReminderService) Start() {
	go s.loop()
}

func (s *ReminderService) Stop() {
	close(s.done)
}

func (s *ReminderService) loop() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-t.C:
			s.tick(now)
		}
	}
}

func (s *ReminderService) tick(now time.Time) {
	hhmm := now.Format("15:04")

	var users []models.User
	err := s.db.
		Where("reminder_enabled = ? AND reminder_time = ?", true, hhmm).
		Find(&users).Error
	if err != nil {
		log.Printf("reminder query failed: %v", err)
		return
	}

	today := now.Format("2006-01-02")
	for _, u := range users {
		// one reminder per day even if the tick repeats within the minute
		if u.LastRemindedAt.Format("2006-01-02") == today {
			continue
		}
		s.remind(&u)
		if err := s.profiles.MarkReminded(u.ID, now); err != nil {
			log.Printf("failed to mark user %d reminded: %v", u.ID, err)
		}
	}
}

func (s *ReminderService) remind(u *models.User) {
	goal, err := s.conv.DailyGoalFor(u.ID)
	if err != nil {
		log.Printf("reminder goal lookup failed for user %d: %v", u.ID, err)
		return
	}

	body := fmt.Sprintf(
		"🎯 Daily goal check-in:\n🔥 Calories: %.0f / %d kcal\n💧 Water: %d / %d mL",
		goal.CalorieProgress, goal.CalorieGoal, goal.WaterProgressML, goal.WaterGoalML,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.transport.Send(ctx, u.ID, OutgoingMessage{Text: body}); err != nil {
		log.Printf("reminder send failed for user %d: %v", u.ID, err)
	}
	if s.push != nil {
		s.push.PushToUser(u.ID, "Daily goal reminder", body)
	}
	if err := utils.SendReminderEmail(u.Email, body); err != nil {
		log.Printf("reminder email failed for user %d: %v", u.ID, err)
	}
}

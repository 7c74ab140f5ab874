package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"healthbot/config"
	"healthbot/models"
)

// maxRetries bounds re-prompting on invalid input; after that the flow
// cancels back to idle instead of looping forever.
const maxRetries = 5

const invalidValueText = "❌ Invalid value.\nTry again 👇"

var fieldPrompts = map[Field]string{
	FieldWeight:   "⚖ Weight (kg)\nEnter your weight in kilograms.\nFor example: 75",
	FieldHeight:   "📏 Height (cm)\nEnter your height in centimeters.\nFor example: 180",
	FieldAge:      "🎂 Age\nEnter your age.\nFor example: 25",
	FieldActivity: "🏃 Activity level\n1 — minimal\n2 — light\n3 — moderate\n4 — high\n5 — very high",
	FieldCity:     "🌍 City\nEnter your city name (letters only)",
}

// Conversation drives the per-user chat state machine. One event from
// one user is processed at a time; distinct users run in parallel.
type Conversation struct {
	sessions SessionStore
	profiles ProfileStore
	weather  WeatherGateway
	food     FoodGateway
	barcode  BarcodeDecoder

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewConversation(sessions SessionStore, profiles ProfileStore, weather WeatherGateway, food FoodGateway, barcode BarcodeDecoder) *Conversation {
	return &Conversation{
		sessions: sessions,
		profiles: profiles,
		weather:  weather,
		food:     food,
		barcode:  barcode,
		locks:    make(map[uint]*sync.Mutex),
	}
}

// lockFor serializes event handling per identity so rapid duplicate taps
// can't race a pending commit.
func (c *Conversation) lockFor(userID uint) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[userID] = l
	}
	return l
}

// HandleCommand processes slash commands; only /start exists.
func (c *Conversation) HandleCommand(ctx context.Context, t Transport, userID uint, cmd string) error {
	l := c.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	switch strings.TrimSpace(cmd) {
	case "/start":
		_, err := t.Send(ctx, userID, OutgoingMessage{
			Text:     "Hi! 👋\nTap the button to begin:",
			Keyboard: StartKeyboard(),
		})
		return err
	default:
		_, err := t.Send(ctx, userID, OutgoingMessage{Text: "Unknown command."})
		return err
	}
}

// HandleCallback processes an inline-button press.
func (c *Conversation) HandleCallback(ctx context.Context, t Transport, userID uint, data string) error {
	l := c.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	switch {
	case data == "start_form" || data == "menu_profile":
		return c.showProfile(ctx, t, userID)

	case strings.HasPrefix(data, "edit_"):
		return c.startFieldEdit(ctx, t, userID, Field(strings.TrimPrefix(data, "edit_")))

	case data == "done":
		return c.sendMainMenu(ctx, t, userID, "✅ Profile complete!\n\nChoose an action:")

	case data == "menu_food":
		_, err := t.Send(ctx, userID, OutgoingMessage{Text: "🍽 Add food:", Keyboard: FoodMenu()})
		return err

	case data == "food_by_name":
		return c.startPromptFlow(ctx, t, userID, StateAwaitingFoodName, "🍎 Enter the product name:")

	case data == "food_by_barcode":
		return c.startPromptFlow(ctx, t, userID, StateAwaitingFoodBarcode, "📦 Enter the barcode:")

	case data == "food_by_photo":
		return c.startPromptFlow(ctx, t, userID, StateAwaitingFoodPhoto, "📷 Send a photo of the product with the barcode visible:")

	case data == "menu_water":
		_, err := t.Send(ctx, userID, OutgoingMessage{Text: "💧 Water — choose an action:", Keyboard: WaterMenu()})
		return err

	case data == "water_add":
		return c.startPromptFlow(ctx, t, userID, StateAwaitingWaterAmount, "💧 Enter the amount of water (mL):")

	case data == "water_history":
		return c.sendWaterHistory(ctx, t, userID)

	case data == "menu_workout":
		c.sessions.Put(userID, &Session{State: StateAwaitingWorkoutLocation})
		_, err := t.Send(ctx, userID, OutgoingMessage{
			Text:     "Where do you want to work out?",
			Keyboard: WorkoutLocationMenu(),
		})
		return err

	case data == "workout_indoor":
		return c.chooseWorkoutLocation(ctx, t, userID, "indoor")

	case data == "workout_outdoor":
		return c.chooseWorkoutLocation(ctx, t, userID, "outdoor")

	case data == "workout_back" || data == "back_to_menu":
		c.sessions.Delete(userID)
		return c.sendMainMenu(ctx, t, userID, "Choose an action:")

	case strings.HasPrefix(data, "workout_"):
		return c.chooseWorkoutType(ctx, t, userID, models.WorkoutKind(strings.TrimPrefix(data, "workout_")))

	case data == "menu_goal":
		return c.sendGoalScreen(ctx, t, userID)

	case data == "goal_toggle":
		enabled, err := c.profiles.ToggleReminder(userID)
		if err != nil {
			return err
		}
		_, err = t.Send(ctx, userID, OutgoingMessage{
			Text:     "🎯 Goals and reminders:",
			Keyboard: GoalMenu(enabled),
		})
		return err

	case data == "goal_time":
		return c.startPromptFlow(ctx, t, userID, StateAwaitingReminderTime, "Enter the reminder time as HH:MM (for example, 08:30):")

	case data == "menu_visualization":
		return c.sendWorkoutChart(ctx, t, userID)

	default:
		_, err := t.Send(ctx, userID, OutgoingMessage{Text: "Unknown action."})
		return err
	}
}

// HandleText routes a free-text message by the current session state.
// msgID identifies the inbound message, kept for cleanup on commit.
func (c *Conversation) HandleText(ctx context.Context, t Transport, userID uint, msgID, text string) error {
	l := c.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	sess := c.sessions.Get(userID)
	if sess == nil {
		return c.sendMainMenu(ctx, t, userID, "Choose an action:")
	}

	switch sess.State {
	case StateAwaitingProfileField:
		return c.commitProfileField(ctx, t, userID, sess, msgID, text)
	case StateAwaitingFoodName:
		return c.resolveFood(ctx, t, userID, func() (*FoodCandidate, error) {
			return c.food.SearchByName(ctx, text)
		})
	case StateAwaitingFoodBarcode:
		return c.resolveFood(ctx, t, userID, func() (*FoodCandidate, error) {
			return c.food.LookupByBarcode(ctx, strings.TrimSpace(text))
		})
	case StateAwaitingFoodWeight:
		return c.commitFoodWeight(ctx, t, userID, sess, text)
	case StateAwaitingWaterAmount:
		return c.commitWater(ctx, t, userID, sess, text)
	case StateAwaitingWorkoutDuration:
		return c.commitWorkout(ctx, t, userID, sess, text)
	case StateAwaitingReminderTime:
		return c.commitReminderTime(ctx, t, userID, sess, text)
	default:
		// waiting on a button press or a photo; nudge without changing state
		_, err := t.Send(ctx, userID, OutgoingMessage{Text: "Please use the buttons above 👆"})
		return err
	}
}

// HandlePhoto processes an uploaded product photo in the food-photo flow.
func (c *Conversation) HandlePhoto(ctx context.Context, t Transport, userID uint, base64Img string) error {
	l := c.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	sess := c.sessions.Get(userID)
	if sess == nil || sess.State != StateAwaitingFoodPhoto {
		return c.sendMainMenu(ctx, t, userID, "Choose an action:")
	}

	code, err := c.barcode.Decode(ctx, base64Img)
	if err != nil {
		// stay in the same state so the user can retry with a better shot
		_, serr := t.Send(ctx, userID, OutgoingMessage{Text: "❌ No barcode found in the photo."})
		return serr
	}

	return c.resolveFood(ctx, t, userID, func() (*FoodCandidate, error) {
		return c.food.LookupByBarcode(ctx, code)
	})
}

func (c *Conversation) showProfile(ctx context.Context, t Transport, userID uint) error {
	user, err := c.profiles.Get(userID)
	if err != nil {
		return err
	}

	msg := OutgoingMessage{Text: "📋 Your profile:", Keyboard: ProfileKeyboard(user)}
	if user.ProfileMessageID != "" {
		if err := t.Edit(ctx, userID, user.ProfileMessageID, msg); err == nil {
			return nil
		}
		log.Printf("cannot edit profile message %s for user %d, sending a new one", user.ProfileMessageID, userID)
	}

	id, err := t.Send(ctx, userID, msg)
	if err != nil {
		return err
	}
	return c.profiles.SetProfileMessageID(userID, id)
}

func (c *Conversation) startFieldEdit(ctx context.Context, t Transport, userID uint, field Field) error {
	prompt, ok := fieldPrompts[field]
	if !ok {
		_, err := t.Send(ctx, userID, OutgoingMessage{Text: "Unknown action."})
		return err
	}

	// starting a new flow overwrites whatever was pending
	id, err := t.Send(ctx, userID, OutgoingMessage{Text: prompt})
	if err != nil {
		return err
	}
	c.sessions.Put(userID, &Session{
		State:       StateAwaitingProfileField,
		EditField:   field,
		PromptMsgID: id,
	})
	return nil
}

func (c *Conversation) startPromptFlow(ctx context.Context, t Transport, userID uint, state SessionState, prompt string) error {
	id, err := t.Send(ctx, userID, OutgoingMessage{Text: prompt})
	if err != nil {
		return err
	}
	c.sessions.Put(userID, &Session{State: state, PromptMsgID: id})
	return nil
}

func (c *Conversation) commitProfileField(ctx context.Context, t Transport, userID uint, sess *Session, msgID, text string) error {
	var value any
	var err error
	switch sess.EditField {
	case FieldCity:
		value, err = ValidateCity(text)
	default:
		value, err = ValidateInt(sess.EditField, text)
	}
	if err != nil {
		sess.UserMsgIDs = append(sess.UserMsgIDs, msgID)
		return c.rejectInput(ctx, t, userID, sess)
	}

	// commit step: clean up the prompt and error trail, write the field,
	// refresh the profile card, drop the session. All-or-nothing per field.
	for _, id := range append(append([]string{}, sess.ErrorMsgIDs...), sess.UserMsgIDs...) {
		_ = t.Delete(ctx, userID, id)
	}
	if sess.PromptMsgID != "" {
		_ = t.Delete(ctx, userID, sess.PromptMsgID)
	}
	_ = t.Delete(ctx, userID, msgID)

	if err := c.profiles.CommitField(userID, sess.EditField, value); err != nil {
		return fmt.Errorf("failed to commit %s: %w", sess.EditField, err)
	}
	c.sessions.Delete(userID)
	return c.showProfile(ctx, t, userID)
}

// rejectInput re-prompts after invalid input, keeping the state but
// tracking the error messages for later cleanup. After maxRetries the
// flow cancels back to idle.
func (c *Conversation) rejectInput(ctx context.Context, t Transport, userID uint, sess *Session) error {
	sess.Retries++
	if sess.Retries >= maxRetries {
		for _, id := range append(append([]string{}, sess.ErrorMsgIDs...), sess.UserMsgIDs...) {
			_ = t.Delete(ctx, userID, id)
		}
		c.sessions.Delete(userID)
		return c.sendMainMenu(ctx, t, userID, "Too many invalid attempts — cancelled.\nChoose an action:")
	}

	id, err := t.Send(ctx, userID, OutgoingMessage{Text: invalidValueText})
	if err != nil {
		return err
	}
	sess.ErrorMsgIDs = append(sess.ErrorMsgIDs, id)
	c.sessions.Put(userID, sess)
	return nil
}

func (c *Conversation) resolveFood(ctx context.Context, t Transport, userID uint, lookup func() (*FoodCandidate, error)) error {
	candidate, err := lookup()
	if err != nil {
		c.sessions.Delete(userID)
		if errors.Is(err, ErrFoodNotFound) {
			_, serr := t.Send(ctx, userID, OutgoingMessage{Text: "❌ Product not found."})
			return serr
		}
		_, serr := t.Send(ctx, userID, OutgoingMessage{Text: "❌ Food service is unavailable, try again later."})
		return serr
	}

	id, err := t.Send(ctx, userID, OutgoingMessage{
		Text: fmt.Sprintf("🍎 Found: %s\nEnter the weight in grams:", candidate.Name),
	})
	if err != nil {
		return err
	}
	c.sessions.Put(userID, &Session{
		State:       StateAwaitingFoodWeight,
		PendingFood: candidate,
		PromptMsgID: id,
	})
	return nil
}

func (c *Conversation) commitFoodWeight(ctx context.Context, t Transport, userID uint, sess *Session, text string) error {
	weight, err := ValidateFoodWeight(text)
	if err != nil {
		return c.rejectInput(ctx, t, userID, sess)
	}

	kcal := sess.PendingFood.PortionCalories(weight)
	if err := c.profiles.AddFoodCalories(userID, kcal); err != nil {
		return err
	}
	c.sessions.Delete(userID)
	_, err = t.Send(ctx, userID, OutgoingMessage{
		Text: fmt.Sprintf("🍽 %s — %.1f kcal for %g g.", sess.PendingFood.Name, kcal, weight),
	})
	return err
}

func (c *Conversation) commitWater(ctx context.Context, t Transport, userID uint, sess *Session, text string) error {
	amount, err := ValidateInt(FieldWaterAmount, text)
	if err != nil {
		return c.rejectInput(ctx, t, userID, sess)
	}

	total, err := c.profiles.AddWater(userID, amount, time.Now())
	if err != nil {
		return err
	}
	c.sessions.Delete(userID)

	goal := c.waterGoalFor(userID)
	remaining := goal - total
	if remaining < 0 {
		remaining = 0
	}
	_, err = t.Send(ctx, userID, OutgoingMessage{
		Text: fmt.Sprintf("💧 Added: %d mL\nTotal: %d mL\nRemaining: %d mL", amount, total, remaining),
	})
	return err
}

func (c *Conversation) chooseWorkoutLocation(ctx context.Context, t Transport, userID uint, location string) error {
	sess := &Session{State: StateAwaitingWorkoutType, WorkoutLocation: location}

	if location == "outdoor" {
		temp := c.outdoorTemperature(ctx, userID)
		sess.TempC = &temp
		c.sessions.Put(userID, sess)
		_, err := t.Send(ctx, userID, OutgoingMessage{
			Text:     fmt.Sprintf("You chose *Outdoors*. 🌳\nTemperature: %.0f°C\nChoose a workout:", temp),
			Keyboard: WorkoutTypeMenu(),
		})
		return err
	}

	c.sessions.Put(userID, sess)
	_, err := t.Send(ctx, userID, OutgoingMessage{
		Text:     "You chose *At home*. 🏠\nChoose a workout:",
		Keyboard: WorkoutTypeMenu(),
	})
	return err
}

// outdoorTemperature asks the weather gateway, falling back to the fixed
// average when the city is unset or the lookup fails. The lookup is
// bounded so a slow gateway can't stall the flow.
func (c *Conversation) outdoorTemperature(ctx context.Context, userID uint) float64 {
	user, err := c.profiles.Get(userID)
	if err != nil || user.City == nil {
		return AvgTempFallbackC
	}

	wctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	report, err := c.weather.CurrentWeather(wctx, *user.City)
	if err != nil {
		log.Printf("weather lookup failed for user %d: %v", userID, err)
		return AvgTempFallbackC
	}
	return report.TemperatureC
}

func (c *Conversation) chooseWorkoutType(ctx context.Context, t Transport, userID uint, kind models.WorkoutKind) error {
	sess := c.sessions.Get(userID)
	if sess == nil || sess.State != StateAwaitingWorkoutType || !kind.Valid() {
		return c.sendMainMenu(ctx, t, userID, "Choose an action:")
	}

	sess.State = StateAwaitingWorkoutDuration
	sess.WorkoutKind = kind
	c.sessions.Put(userID, sess)

	_, err := t.Send(ctx, userID, OutgoingMessage{
		Text: fmt.Sprintf("You chose: %s\nEnter the duration in minutes:", kind),
	})
	return err
}

func (c *Conversation) commitWorkout(ctx context.Context, t Transport, userID uint, sess *Session, text string) error {
	duration, err := ValidateInt(FieldWorkoutDuration, text)
	if err != nil {
		return c.rejectInput(ctx, t, userID, sess)
	}

	weight := 0
	if user, uerr := c.profiles.Get(userID); uerr == nil && user.WeightKg != nil {
		weight = *user.WeightKg
	}
	temp := neutralTempC
	if sess.TempC != nil {
		temp = *sess.TempC
	}

	kcal := WorkoutEnergy(sess.WorkoutKind, weight, duration)
	waterLoss := WorkoutWaterLoss(duration, temp)

	now := time.Now()
	entry := &models.WorkoutLogEntry{
		Kind:        sess.WorkoutKind,
		DurationMin: duration,
		EnergyKcal:  kcal,
		WaterLossML: waterLoss,
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	if err := c.profiles.AddWorkout(userID, entry); err != nil {
		return err
	}
	c.sessions.Delete(userID)

	_, err = t.Send(ctx, userID, OutgoingMessage{
		Text: fmt.Sprintf("🏋️ Workout: %s\n⏱ Duration: %d min\n🔥 Calories burned: %.1f kcal\n💧 Water loss: %.1f mL",
			sess.WorkoutKind, duration, kcal, waterLoss),
	})
	if err != nil {
		return err
	}
	return c.sendMainMenu(ctx, t, userID, "Choose an action:")
}

func (c *Conversation) commitReminderTime(ctx context.Context, t Transport, userID uint, sess *Session, text string) error {
	hhmm, err := ValidateReminderTime(text)
	if err != nil {
		return c.rejectInput(ctx, t, userID, sess)
	}

	if err := c.profiles.SetReminderTime(userID, hhmm); err != nil {
		return err
	}
	c.sessions.Delete(userID)
	_, err = t.Send(ctx, userID, OutgoingMessage{
		Text:     fmt.Sprintf("⏰ Reminder time set to %s", hhmm),
		Keyboard: MainMenu(),
	})
	return err
}

func (c *Conversation) sendWaterHistory(ctx context.Context, t Transport, userID uint) error {
	entries, err := c.profiles.WaterLog(userID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := t.Send(ctx, userID, OutgoingMessage{Text: "💧 Water history is empty"})
		return err
	}

	var b strings.Builder
	total := 0
	for _, e := range entries {
		fmt.Fprintf(&b, "%s: %d mL\n", e.LoggedAt.Format("02.01 15:04"), e.AmountML)
		total += e.AmountML
	}
	remaining := c.waterGoalFor(userID) - total
	if remaining < 0 {
		remaining = 0
	}
	fmt.Fprintf(&b, "\nTotal drunk: %d mL\nRemaining: %d mL", total, remaining)

	_, err = t.Send(ctx, userID, OutgoingMessage{Text: b.String()})
	return err
}

func (c *Conversation) sendGoalScreen(ctx context.Context, t Transport, userID uint) error {
	user, err := c.profiles.Get(userID)
	if err != nil {
		return err
	}
	goal, err := c.dailyGoal(userID, user)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"🎯 Daily goal:\n\n🔥 Calories: %.0f / %d kcal\n💧 Water: %d / %d mL\n\n⏰ Goal reminders:",
		goal.CalorieProgress, goal.CalorieGoal, goal.WaterProgressML, goal.WaterGoalML,
	)
	_, err = t.Send(ctx, userID, OutgoingMessage{Text: text, Keyboard: GoalMenu(user.ReminderEnabled)})
	return err
}

func (c *Conversation) sendWorkoutChart(ctx context.Context, t Transport, userID uint) error {
	workouts, err := c.profiles.Workouts(userID)
	if err != nil {
		return err
	}
	if len(workouts) == 0 {
		_, err := t.Send(ctx, userID, OutgoingMessage{Text: "📊 No data to chart"})
		return err
	}

	var b strings.Builder
	b.WriteString("📊 Calories burned:\n")
	for _, w := range workouts {
		fmt.Fprintf(&b, "%s — %s, %.1f kcal\n", w.Date.Format("02.01"), w.Kind, w.EnergyKcal)
	}
	_, err = t.Send(ctx, userID, OutgoingMessage{Text: b.String()})
	return err
}

// DailyGoalFor exposes the goal computation to the REST surface.
func (c *Conversation) DailyGoalFor(userID uint) (*DailyGoal, error) {
	user, err := c.profiles.Get(userID)
	if err != nil {
		return nil, err
	}
	goal, err := c.dailyGoal(userID, user)
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (c *Conversation) dailyGoal(userID uint, user *models.User) (DailyGoal, error) {
	waterLog, err := c.profiles.WaterLog(userID)
	if err != nil {
		return DailyGoal{}, err
	}
	waterTotal := 0
	for _, e := range waterLog {
		waterTotal += e.AmountML
	}

	workouts, err := c.profiles.Workouts(userID)
	if err != nil {
		return DailyGoal{}, err
	}
	var workoutKcal float64
	for _, w := range workouts {
		workoutKcal += w.EnergyKcal
	}

	return ComputeDailyGoal(user, waterTotal, workoutKcal, config.CountIntakeCalories()), nil
}

func (c *Conversation) waterGoalFor(userID uint) int {
	weight := DefaultWeightKg
	if user, err := c.profiles.Get(userID); err == nil && user.WeightKg != nil {
		weight = *user.WeightKg
	}
	return WaterGoalML(weight)
}

func (c *Conversation) sendMainMenu(ctx context.Context, t Transport, userID uint, text string) error {
	_, err := t.Send(ctx, userID, OutgoingMessage{Text: text, Keyboard: MainMenu()})
	return err
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"healthbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles struct {
	user     models.User
	water    []models.WaterLogEntry
	workouts []models.WorkoutLogEntry
}

func (f *fakeProfiles) Get(uint) (*models.User, error) {
	u := f.user
	return &u, nil
}

func (f *fakeProfiles) CommitField(_ uint, field Field, value any) error {
	switch field {
	case FieldWeight:
		v := value.(int)
		f.user.WeightKg = &v
	case FieldHeight:
		v := value.(int)
		f.user.HeightCm = &v
	case FieldAge:
		v := value.(int)
		f.user.AgeYears = &v
	case FieldActivity:
		v := value.(int)
		f.user.ActivityLevel = &v
	case FieldCity:
		v := value.(string)
		f.user.City = &v
	default:
		return fmt.Errorf("unexpected field %q", field)
	}
	return nil
}

func (f *fakeProfiles) SetProfileMessageID(_ uint, msgID string) error {
	f.user.ProfileMessageID = msgID
	return nil
}

func (f *fakeProfiles) AddWater(userID uint, amountML int, at time.Time) (int, error) {
	f.water = append(f.water, models.WaterLogEntry{UserID: userID, AmountML: amountML, LoggedAt: at})
	total := 0
	for _, e := range f.water {
		total += e.AmountML
	}
	return total, nil
}

func (f *fakeProfiles) WaterLog(uint) ([]models.WaterLogEntry, error) { return f.water, nil }

func (f *fakeProfiles) AddWorkout(userID uint, entry *models.WorkoutLogEntry) error {
	entry.UserID = userID
	f.workouts = append(f.workouts, *entry)
	return nil
}

func (f *fakeProfiles) Workouts(uint) ([]models.WorkoutLogEntry, error) { return f.workouts, nil }

func (f *fakeProfiles) AddFoodCalories(_ uint, kcal float64) error {
	f.user.LoggedCalories += kcal
	return nil
}

func (f *fakeProfiles) ToggleReminder(uint) (bool, error) {
	f.user.ReminderEnabled = !f.user.ReminderEnabled
	return f.user.ReminderEnabled, nil
}

func (f *fakeProfiles) SetReminderTime(_ uint, hhmm string) error {
	f.user.ReminderTime = hhmm
	return nil
}

type fakeTransport struct {
	sent    []OutgoingMessage
	deleted []string
	n       int
}

func (f *fakeTransport) Send(_ context.Context, _ uint, msg OutgoingMessage) (string, error) {
	f.n++
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("m%d", f.n), nil
}

func (f *fakeTransport) Edit(_ context.Context, _ uint, _ string, msg OutgoingMessage) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Delete(_ context.Context, _ uint, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTransport) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1].Text
}

type fakeWeather struct {
	temp float64
	err  error
}

func (f *fakeWeather) CurrentWeather(context.Context, string) (*WeatherReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &WeatherReport{TemperatureC: f.temp}, nil
}

type fakeFood struct {
	candidate *FoodCandidate
}

func (f *fakeFood) SearchByName(context.Context, string) (*FoodCandidate, error) {
	if f.candidate == nil {
		return nil, ErrFoodNotFound
	}
	return f.candidate, nil
}

func (f *fakeFood) LookupByBarcode(context.Context, string) (*FoodCandidate, error) {
	return f.SearchByName(nil, "")
}

type fakeBarcode struct {
	code string
	err  error
}

func (f *fakeBarcode) Decode(context.Context, string) (string, error) {
	return f.code, f.err
}

type convFixture struct {
	conv     *Conversation
	profiles *fakeProfiles
	sessions *MemorySessionStore
	weather  *fakeWeather
	food     *fakeFood
	barcode  *fakeBarcode
	tr       *fakeTransport
}

func newConvFixture(t *testing.T) *convFixture {
	t.Helper()
	f := &convFixture{
		profiles: &fakeProfiles{},
		sessions: NewMemorySessionStore(time.Minute),
		weather:  &fakeWeather{temp: 25},
		food:     &fakeFood{},
		barcode:  &fakeBarcode{},
		tr:       &fakeTransport{},
	}
	t.Cleanup(f.sessions.Close)
	f.conv = NewConversation(f.sessions, f.profiles, f.weather, f.food, f.barcode)
	return f
}

const testUser = uint(7)

func (f *convFixture) callback(t *testing.T, data string) {
	t.Helper()
	require.NoError(t, f.conv.HandleCallback(context.Background(), f.tr, testUser, data))
}

func (f *convFixture) text(t *testing.T, msg string) {
	t.Helper()
	require.NoError(t, f.conv.HandleText(context.Background(), f.tr, testUser, "u1", msg))
}

func TestStartCommandGreets(t *testing.T) {
	f := newConvFixture(t)
	require.NoError(t, f.conv.HandleCommand(context.Background(), f.tr, testUser, "/start"))

	require.Len(t, f.tr.sent, 1)
	assert.NotEmpty(t, f.tr.sent[0].Keyboard)
}

func TestProfileFieldEditCommits(t *testing.T) {
	f := newConvFixture(t)

	f.callback(t, "edit_weight")
	sess := f.sessions.Get(testUser)
	require.NotNil(t, sess)
	assert.Equal(t, StateAwaitingProfileField, sess.State)
	assert.Equal(t, FieldWeight, sess.EditField)

	f.text(t, "75")

	require.NotNil(t, f.profiles.user.WeightKg)
	assert.Equal(t, 75, *f.profiles.user.WeightKg)
	assert.Nil(t, f.sessions.Get(testUser), "session cleared after commit")
	// prompt and the user's own message were cleaned up
	assert.Contains(t, f.tr.deleted, "m1")
	assert.Contains(t, f.tr.deleted, "u1")
}

func TestProfileFieldInvalidInputReprompts(t *testing.T) {
	f := newConvFixture(t)

	f.callback(t, "edit_age")
	f.text(t, "not a number")
	f.text(t, "300")

	sess := f.sessions.Get(testUser)
	require.NotNil(t, sess, "state unchanged after invalid input")
	assert.Equal(t, StateAwaitingProfileField, sess.State)
	assert.Equal(t, 2, sess.Retries)
	assert.Len(t, sess.ErrorMsgIDs, 2)
	assert.Nil(t, f.profiles.user.AgeYears)

	// a valid value still commits and sweeps the error trail
	f.text(t, "30")
	require.NotNil(t, f.profiles.user.AgeYears)
	assert.Equal(t, 30, *f.profiles.user.AgeYears)
	assert.Nil(t, f.sessions.Get(testUser))
	for _, id := range []string{"m2", "m3"} {
		assert.Contains(t, f.tr.deleted, id)
	}
}

func TestProfileFieldRetryCapCancelsFlow(t *testing.T) {
	f := newConvFixture(t)

	f.callback(t, "edit_weight")
	for i := 0; i < maxRetries; i++ {
		f.text(t, "nope")
	}

	assert.Nil(t, f.sessions.Get(testUser), "flow cancelled after retry cap")
	assert.Nil(t, f.profiles.user.WeightKg)
	assert.Contains(t, f.tr.lastText(t), "Choose an action")
}

func TestWaterFlow(t *testing.T) {
	f := newConvFixture(t)

	f.callback(t, "water_add")
	f.text(t, "500")

	require.Len(t, f.profiles.water, 1)
	assert.Equal(t, 500, f.profiles.water[0].AmountML)
	assert.Nil(t, f.sessions.Get(testUser))
	assert.Contains(t, f.tr.lastText(t), "500 mL")
}

func TestFoodByNameFlow(t *testing.T) {
	f := newConvFixture(t)
	f.food.candidate = &FoodCandidate{Name: "Apple", CaloriesPer100g: 52, ServingWeightG: 100}

	f.callback(t, "food_by_name")
	f.text(t, "apple")

	sess := f.sessions.Get(testUser)
	require.NotNil(t, sess)
	assert.Equal(t, StateAwaitingFoodWeight, sess.State)

	f.text(t, "150")

	assert.InDelta(t, 78.0, f.profiles.user.LoggedCalories, 1e-9)
	assert.Nil(t, f.sessions.Get(testUser))
	assert.Contains(t, f.tr.lastText(t), "78.0 kcal")
}

func TestFoodNotFoundEndsFlow(t *testing.T) {
	f := newConvFixture(t)

	f.callback(t, "food_by_name")
	f.text(t, "unobtainium")

	assert.Nil(t, f.sessions.Get(testUser))
	assert.Contains(t, f.tr.lastText(t), "not found")
}

func TestFoodByPhotoFlow(t *testing.T) {
	f := newConvFixture(t)
	f.barcode.code = "4600682000129"
	f.food.candidate = &FoodCandidate{Name: "Cereal", CaloriesPer100g: 380, ServingWeightG: 100}

	f.callback(t, "food_by_photo")
	require.NoError(t, f.conv.HandlePhoto(context.Background(), f.tr, testUser, "data:image/jpeg;base64,xx"))

	sess := f.sessions.Get(testUser)
	require.NotNil(t, sess)
	assert.Equal(t, StateAwaitingFoodWeight, sess.State)
}

func TestFoodPhotoWithoutBarcodeKeepsState(t *testing.T) {
	f := newConvFixture(t)
	f.barcode.err = ErrBarcodeNotFound

	f.callback(t, "food_by_photo")
	require.NoError(t, f.conv.HandlePhoto(context.Background(), f.tr, testUser, "data:image/jpeg;base64,xx"))

	sess := f.sessions.Get(testUser)
	require.NotNil(t, sess, "user can retry with another photo")
	assert.Equal(t, StateAwaitingFoodPhoto, sess.State)
}

func TestOutdoorWorkoutUsesGatewayTemperature(t *testing.T) {
	f := newConvFixture(t)
	city := "Moscow"
	weight := 70
	f.profiles.user.City = &city
	f.profiles.user.WeightKg = &weight
	f.weather.temp = 25

	f.callback(t, "menu_workout")
	f.callback(t, "workout_outdoor")
	f.callback(t, "workout_run")
	f.text(t, "30")

	require.Len(t, f.profiles.workouts, 1)
	w := f.profiles.workouts[0]
	assert.Equal(t, models.WorkoutRun, w.Kind)
	assert.InDelta(t, 252.0, w.EnergyKcal, 1e-9)
	assert.InDelta(t, 18.0, w.WaterLossML, 1e-9) // 30*(0.5+5*0.02)
	assert.Nil(t, f.sessions.Get(testUser))
}

func TestOutdoorWorkoutFallsBackOnGatewayFailure(t *testing.T) {
	f := newConvFixture(t)
	city := "Moscow"
	f.profiles.user.City = &city
	f.weather.err = errors.New("gateway down")

	f.callback(t, "menu_workout")
	f.callback(t, "workout_outdoor")

	sess := f.sessions.Get(testUser)
	require.NotNil(t, sess)
	require.NotNil(t, sess.TempC)
	assert.Equal(t, AvgTempFallbackC, *sess.TempC)

	f.callback(t, "workout_walk")
	f.text(t, "30")

	require.Len(t, f.profiles.workouts, 1)
	// at 5°C the heat term is zero
	assert.InDelta(t, 15.0, f.profiles.workouts[0].WaterLossML, 1e-9)
}

func TestIndoorWorkoutSkipsWeather(t *testing.T) {
	f := newConvFixture(t)
	f.weather.err = errors.New("must not be called")

	f.callback(t, "menu_workout")
	f.callback(t, "workout_indoor")
	f.callback(t, "workout_squat")
	f.text(t, "20")

	require.Len(t, f.profiles.workouts, 1)
	w := f.profiles.workouts[0]
	// default weight 70: 0.1*70*20
	assert.InDelta(t, 140.0, w.EnergyKcal, 1e-9)
	assert.InDelta(t, 10.0, w.WaterLossML, 1e-9)
}

func TestWorkoutTypeOutsideFlowIsIgnored(t *testing.T) {
	f := newConvFixture(t)

	f.callback(t, "workout_run")

	assert.Nil(t, f.sessions.Get(testUser))
	assert.Empty(t, f.profiles.workouts)
}

func TestReminderTimeFlow(t *testing.T) {
	f := newConvFixture(t)

	f.callback(t, "goal_time")
	f.text(t, "08:30")

	assert.Equal(t, "08:30", f.profiles.user.ReminderTime)
	assert.Nil(t, f.sessions.Get(testUser))
}

func TestNewFlowOverwritesPendingSession(t *testing.T) {
	f := newConvFixture(t)

	f.callback(t, "edit_weight")
	f.callback(t, "food_by_name")

	sess := f.sessions.Get(testUser)
	require.NotNil(t, sess)
	assert.Equal(t, StateAwaitingFoodName, sess.State)
}

func TestIdleTextShowsMenu(t *testing.T) {
	f := newConvFixture(t)

	f.text(t, "hello")

	last := f.tr.sent[len(f.tr.sent)-1]
	assert.True(t, strings.Contains(last.Text, "Choose an action"))
	assert.NotEmpty(t, last.Keyboard)
}

func TestGoalScreenShowsProgress(t *testing.T) {
	f := newConvFixture(t)
	weight, height, age, activity := 75, 180, 25, 3
	f.profiles.user.WeightKg = &weight
	f.profiles.user.HeightCm = &height
	f.profiles.user.AgeYears = &age
	f.profiles.user.ActivityLevel = &activity

	f.callback(t, "menu_goal")

	text := f.tr.lastText(t)
	assert.Contains(t, text, "2720")
	assert.Contains(t, text, "2250")
}

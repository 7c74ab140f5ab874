package services

import (
	"fmt"

	"healthbot/models"
)

// Button is one inline keyboard button; Data is the callback payload the
// client echoes back through /chat/callback.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// OutgoingMessage is one chat message with an optional inline keyboard.
type OutgoingMessage struct {
	Text     string     `json:"text"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
}

func StartKeyboard() [][]Button {
	return [][]Button{{{Label: "Fill in the profile", Data: "start_form"}}}
}

// ProfileKeyboard renders one row per field with its current value, or a
// dashes placeholder when the field is unset.
func ProfileKeyboard(u *models.User) [][]Button {
	val := func(v *int, unit string) string {
		if v == nil {
			return "—"
		}
		return fmt.Sprintf("%d %s", *v, unit)
	}
	city := "—"
	if u.City != nil {
		city = *u.City
	}
	activity := "—"
	if u.ActivityLevel != nil {
		activity = fmt.Sprintf("%d / 5", *u.ActivityLevel)
	}

	kb := [][]Button{
		{{Label: "Weight: " + val(u.WeightKg, "kg"), Data: "edit_weight"}},
		{{Label: "Height: " + val(u.HeightCm, "cm"), Data: "edit_height"}},
		{{Label: "Age: " + val(u.AgeYears, "y"), Data: "edit_age"}},
		{{Label: "Activity: " + activity, Data: "edit_activity"}},
		{{Label: "City: " + city, Data: "edit_city"}},
	}
	if u.ProfileComplete() {
		kb = append(kb, []Button{{Label: "Done ✅", Data: "done"}})
	}
	return kb
}

func MainMenu() [][]Button {
	return [][]Button{
		{{Label: "Profile", Data: "menu_profile"}, {Label: "Food", Data: "menu_food"}},
		{{Label: "Water", Data: "menu_water"}, {Label: "Workout", Data: "menu_workout"}},
		{{Label: "Goals", Data: "menu_goal"}, {Label: "Charts", Data: "menu_visualization"}},
	}
}

func FoodMenu() [][]Button {
	return [][]Button{
		{{Label: "By name", Data: "food_by_name"}},
		{{Label: "By barcode", Data: "food_by_barcode"}},
		{{Label: "By photo", Data: "food_by_photo"}},
		{{Label: "Back", Data: "back_to_menu"}},
	}
}

func WaterMenu() [][]Button {
	return [][]Button{
		{{Label: "Add water", Data: "water_add"}},
		{{Label: "History", Data: "water_history"}},
		{{Label: "Back", Data: "back_to_menu"}},
	}
}

func WorkoutLocationMenu() [][]Button {
	return [][]Button{
		{{Label: "At home 🏠", Data: "workout_indoor"}},
		{{Label: "Outdoors 🌳", Data: "workout_outdoor"}},
		{{Label: "Back", Data: "workout_back"}},
	}
}

func WorkoutTypeMenu() [][]Button {
	var rows [][]Button
	for _, k := range models.WorkoutKinds {
		rows = append(rows, []Button{{Label: string(k), Data: "workout_" + string(k)}})
	}
	return append(rows, []Button{{Label: "Back", Data: "workout_back"}})
}

func GoalMenu(reminderEnabled bool) [][]Button {
	toggle := "Reminders: off 🔕"
	if reminderEnabled {
		toggle = "Reminders: on 🔔"
	}
	return [][]Button{
		{{Label: toggle, Data: "goal_toggle"}},
		{{Label: "Set reminder time", Data: "goal_time"}},
		{{Label: "Back", Data: "back_to_menu"}},
	}
}

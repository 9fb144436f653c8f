package models

// DailyLog is everything recorded for one calendar date.
//
// Methods on DailyLog never mutate the receiver; they return a new log so a
// reader holding the previous value never observes a half-applied change.
type DailyLog struct {
	Meals       []Meal    `json:"meals"`
	WaterIntake float64   `json:"waterIntake"`
	Workouts    []Workout `json:"workouts,omitempty"`
}

// EmptyLog is the log of a date nothing has been recorded for.
func EmptyLog() DailyLog {
	return DailyLog{Meals: []Meal{}}
}

// Clone returns a deep copy of the log.
func (l DailyLog) Clone() DailyLog {
	out := DailyLog{
		Meals:       make([]Meal, len(l.Meals)),
		WaterIntake: l.WaterIntake,
	}
	for i, m := range l.Meals {
		out.Meals[i] = Meal{Name: m.Name, Items: cloneFoods(m.Items)}
	}
	if len(l.Workouts) > 0 {
		out.Workouts = append([]Workout(nil), l.Workouts...)
	}
	return out
}

// HasEntries reports whether anything has been logged for the day.
func (l DailyLog) HasEntries() bool {
	return l.HasFood() || l.WaterIntake > 0
}

// HasFood reports whether at least one meal has an item.
func (l DailyLog) HasFood() bool {
	for _, m := range l.Meals {
		if len(m.Items) > 0 {
			return true
		}
	}
	return false
}

// Meal returns the meal with the given name.
func (l DailyLog) Meal(name string) (Meal, bool) {
	for _, m := range l.Meals {
		if m.Name == name {
			return m, true
		}
	}
	return Meal{}, false
}

// WithFoods appends foods to the named meal, creating the meal at the end of
// the list when it does not exist yet.
func (l DailyLog) WithFoods(mealName string, foods []Food) DailyLog {
	out := l.Clone()
	if len(foods) == 0 {
		return out
	}
	for i := range out.Meals {
		if out.Meals[i].Name == mealName {
			out.Meals[i].Items = append(out.Meals[i].Items, cloneFoods(foods)...)
			return out
		}
	}
	out.Meals = append(out.Meals, Meal{Name: mealName, Items: cloneFoods(foods)})
	return out
}

// WithoutFood removes the item with foodID from the named meal. A meal left
// without items is dropped. The bool reports whether an item was removed.
func (l DailyLog) WithoutFood(mealName, foodID string) (DailyLog, bool) {
	out := l.Clone()
	removed := false
	meals := out.Meals[:0]
	for _, m := range out.Meals {
		if m.Name == mealName {
			kept := m.Items[:0]
			for _, item := range m.Items {
				if item.ID == foodID {
					removed = true
					continue
				}
				kept = append(kept, item)
			}
			m.Items = kept
			if len(m.Items) == 0 {
				continue
			}
		}
		meals = append(meals, m)
	}
	out.Meals = meals
	return out, removed
}

// WithWater replaces the day's water intake. No range check is applied.
func (l DailyLog) WithWater(amount float64) DailyLog {
	out := l.Clone()
	out.WaterIntake = amount
	return out
}

// WithWorkout appends a workout to the day.
func (l DailyLog) WithWorkout(w Workout) DailyLog {
	out := l.Clone()
	out.Workouts = append(out.Workouts, w)
	return out
}

// Apply returns the log with a single action applied. The bool is false when
// the action had nothing to act on (an unknown type or a DELETE_FOOD whose
// item is already gone).
func (l DailyLog) Apply(a Action) (DailyLog, bool) {
	switch a.Type {
	case ActionAddFoods:
		return l.WithFoods(a.Payload.MealName, a.Payload.Foods), true
	case ActionDeleteFood:
		return l.WithoutFood(a.Payload.MealName, a.Payload.FoodID)
	case ActionSetWater:
		return l.WithWater(a.Payload.Amount), true
	case ActionLogWorkout:
		if a.Payload.Workout == nil {
			return l, false
		}
		return l.WithWorkout(*a.Payload.Workout), true
	default:
		return l, false
	}
}

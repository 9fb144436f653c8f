package models

import (
	"fmt"
	"time"
)

// ActionType identifies a queued local mutation.
type ActionType string

const (
	ActionAddFoods   ActionType = "ADD_FOODS"
	ActionDeleteFood ActionType = "DELETE_FOOD"
	ActionSetWater   ActionType = "SET_WATER"
	ActionLogWorkout ActionType = "LOG_WORKOUT"
)

// Valid reports whether t is one of the known action types.
func (t ActionType) Valid() bool {
	switch t {
	case ActionAddFoods, ActionDeleteFood, ActionSetWater, ActionLogWorkout:
		return true
	}
	return false
}

// ActionPayload carries the arguments of an action. Date is always set; the
// remaining fields depend on the action type.
type ActionPayload struct {
	Date     string   `json:"date"`
	MealName string   `json:"mealName,omitempty"`
	Foods    []Food   `json:"foods,omitempty"`
	FoodID   string   `json:"foodId,omitempty"`
	Amount   float64  `json:"amount,omitempty"`
	Workout  *Workout `json:"workout,omitempty"`
}

// Action is a pending local mutation. ID is assigned by the queue on enqueue
// and is strictly increasing; an action never changes after it is stored.
type Action struct {
	ID        int64         `json:"id"`
	Type      ActionType    `json:"type"`
	Payload   ActionPayload `json:"payload"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (a Action) String() string {
	return fmt.Sprintf("#%d %s %s", a.ID, a.Type, a.Payload.Date)
}

// NewAddFoods builds an ADD_FOODS action.
func NewAddFoods(date, mealName string, foods []Food) Action {
	return Action{Type: ActionAddFoods, Payload: ActionPayload{Date: date, MealName: mealName, Foods: cloneFoods(foods)}}
}

// NewDeleteFood builds a DELETE_FOOD action.
func NewDeleteFood(date, mealName, foodID string) Action {
	return Action{Type: ActionDeleteFood, Payload: ActionPayload{Date: date, MealName: mealName, FoodID: foodID}}
}

// NewSetWater builds a SET_WATER action.
func NewSetWater(date string, amount float64) Action {
	return Action{Type: ActionSetWater, Payload: ActionPayload{Date: date, Amount: amount}}
}

// NewLogWorkout builds a LOG_WORKOUT action.
func NewLogWorkout(date string, w Workout) Action {
	return Action{Type: ActionLogWorkout, Payload: ActionPayload{Date: date, Workout: &w}}
}

// DistinctDates returns the dates touched by actions in first-seen order.
func DistinctDates(actions []Action) []string {
	seen := make(map[string]bool, len(actions))
	var dates []string
	for _, a := range actions {
		if a.Payload.Date == "" || seen[a.Payload.Date] {
			continue
		}
		seen[a.Payload.Date] = true
		dates = append(dates, a.Payload.Date)
	}
	return dates
}

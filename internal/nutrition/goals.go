// Package nutrition computes daily targets and intake totals.
package nutrition

import (
	"math"

	"github.com/julianstephens/calorix/internal/models"
)

var activityMultipliers = map[models.ActivityLevel]float64{
	models.ActivitySedentary: 1.2,
	models.ActivityLight:     1.375,
	models.ActivityModerate:  1.55,
	models.ActivityVery:      1.725,
	models.ActivityExtra:     1.9,
}

// macroSplit is the share of calories assigned to protein, carbs and fat.
type macroSplit struct {
	protein, carbs, fat float64
}

var defaultSplit = macroSplit{0.30, 0.40, 0.30}

// strengthSplits apply to weightlifting and crossfit.
var strengthSplits = map[models.Goal]macroSplit{
	models.GoalGain:     {0.35, 0.40, 0.25},
	models.GoalLose:     {0.40, 0.30, 0.30},
	models.GoalMaintain: {0.35, 0.35, 0.30},
}

// Attributes are the profile fields the goal equations depend on.
type Attributes struct {
	Age           int
	Sex           models.Sex
	Weight        float64 // kg
	Height        float64 // cm
	ActivityLevel models.ActivityLevel
	ActivityType  string
	Goal          models.Goal
}

// AttributesOf extracts the goal inputs from a profile.
func AttributesOf(p models.UserProfile) Attributes {
	return Attributes{
		Age:           p.Age,
		Sex:           p.Sex,
		Weight:        p.Weight,
		Height:        p.Height,
		ActivityLevel: p.ActivityLevel,
		ActivityType:  p.ActivityType,
		Goal:          p.Goal,
	}
}

// BMR is the Harris-Benedict basal metabolic rate in kcal. Anyone not
// reported as male uses the female equation.
func BMR(a Attributes) float64 {
	age := float64(a.Age)
	if a.Sex == models.SexMale {
		return 88.362 + 13.397*a.Weight + 4.799*a.Height - 5.677*age
	}
	return 447.593 + 9.247*a.Weight + 3.098*a.Height - 4.330*age
}

func isStrengthSport(activityType string) bool {
	return activityType == "weightlifting" || activityType == "crossfit"
}

// CalculateGoals derives the daily calorie, macro, water and micronutrient targets.
func CalculateGoals(a Attributes) models.Goals {
	multiplier, ok := activityMultipliers[a.ActivityLevel]
	if !ok {
		multiplier = activityMultipliers[models.ActivitySedentary]
	}

	tdee := BMR(a) * multiplier
	switch a.Goal {
	case models.GoalLose:
		tdee -= 500
	case models.GoalGain:
		tdee += 500
	}
	calories := math.Round(tdee)

	split := defaultSplit
	if isStrengthSport(a.ActivityType) {
		if s, ok := strengthSplits[a.Goal]; ok {
			split = s
		}
	}

	return models.Goals{
		Calories:       calories,
		Protein:        math.Round(calories * split.protein / 4),
		Carbs:          math.Round(calories * split.carbs / 4),
		Fat:            math.Round(calories * split.fat / 9),
		Water:          math.Round(a.Weight * 35),
		Micronutrients: RDAs(a.Age, a.Sex),
	}
}

// ApplyOverrides replaces computed targets with the user's custom values.
func ApplyOverrides(g models.Goals, custom *models.CustomGoals, customWater *float64) models.Goals {
	if customWater != nil {
		g.Water = *customWater
	}
	if custom == nil {
		return g
	}
	if custom.Calories != nil {
		g.Calories = *custom.Calories
	}
	if custom.Protein != nil {
		g.Protein = *custom.Protein
	}
	if custom.Carbs != nil {
		g.Carbs = *custom.Carbs
	}
	if custom.Fat != nil {
		g.Fat = *custom.Fat
	}
	return g
}

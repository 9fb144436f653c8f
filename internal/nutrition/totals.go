package nutrition

import "github.com/julianstephens/calorix/internal/models"

// Totals are the summed macros of a set of meals.
type Totals struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

// CalculateTotals sums every item of every meal.
func CalculateTotals(meals []models.Meal) Totals {
	var t Totals
	for _, m := range meals {
		for _, item := range m.Items {
			t.Calories += item.Calories
			t.Protein += item.Protein
			t.Carbs += item.Carbs
			t.Fat += item.Fat
		}
	}
	return t
}

// Remaining returns how much of each macro target is left for the day,
// never below zero.
func Remaining(goals models.Goals, t Totals) Totals {
	return Totals{
		Calories: max(goals.Calories-t.Calories, 0),
		Protein:  max(goals.Protein-t.Protein, 0),
		Carbs:    max(goals.Carbs-t.Carbs, 0),
		Fat:      max(goals.Fat-t.Fat, 0),
	}
}

// MicronutrientIntake sums food micronutrients for the nutrients that have
// a goal. Nutrients without a goal are ignored; goals without intake are 0.
func MicronutrientIntake(log models.DailyLog, goals map[models.Micronutrient]models.MicronutrientGoal) map[models.Micronutrient]float64 {
	intake := make(map[models.Micronutrient]float64, len(goals))
	for k := range goals {
		intake[k] = 0
	}
	for _, m := range log.Meals {
		for _, item := range m.Items {
			for k, v := range item.Micronutrients {
				if _, tracked := intake[k]; tracked {
					intake[k] += v
				}
			}
		}
	}
	return intake
}

// BurnedCalories sums the estimated calories of the day's workouts.
func BurnedCalories(log models.DailyLog) float64 {
	var total float64
	for _, w := range log.Workouts {
		total += w.CaloriesEstimated
	}
	return total
}

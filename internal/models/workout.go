package models

// WorkoutExercise is one exercise inside a workout plan.
type WorkoutExercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"rest_s"`
	ImagePrompt string `json:"image_prompt,omitempty"`
}

// Workout is a logged or generated training session.
type Workout struct {
	ID                string            `json:"id"`
	Date              string            `json:"date"`
	DurationMin       int               `json:"duration_min"`
	Intensity         string            `json:"intensity"`
	Exercises         []WorkoutExercise `json:"exercises"`
	CaloriesEstimated float64           `json:"calories_estimated"`
}

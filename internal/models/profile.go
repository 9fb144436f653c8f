package models

// Sex is the biological sex used by the energy equations.
type Sex string

const (
	SexMale           Sex = "male"
	SexFemale         Sex = "female"
	SexPreferNotToSay Sex = "prefer_not_to_say"
)

// ActivityLevel selects the TDEE multiplier.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityVery      ActivityLevel = "very"
	ActivityExtra     ActivityLevel = "extra"
)

// Goal is the user's weight objective.
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

// MicronutrientGoal is a recommended daily amount with its unit.
type MicronutrientGoal struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Goals are the daily nutrition targets.
type Goals struct {
	Calories       float64                             `json:"calories"`
	Protein        float64                             `json:"protein"`
	Carbs          float64                             `json:"carbs"`
	Fat            float64                             `json:"fat"`
	Water          float64                             `json:"water"`
	Micronutrients map[Micronutrient]MicronutrientGoal `json:"micronutrients,omitempty"`
}

// CustomGoals overrides computed macro targets. Nil fields fall back to the computed value.
type CustomGoals struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}

// MealCategory is a meal slot offered to the user, e.g. "Café da Manhã".
type MealCategory struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Reminder is a user-configured daily reminder. Interval reminders repeat
// every Interval hours starting at Time.
type Reminder struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Enabled  bool   `json:"enabled"`
	Time     string `json:"time,omitempty"`
	Interval int    `json:"interval,omitempty"`
}

// Integration is the state of one third-party health integration.
type Integration struct {
	Enabled  bool   `json:"enabled"`
	LastSync string `json:"lastSync,omitempty"`
}

// Coach is the persona used for motivational messages.
type Coach struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// UserProfile is the per-user settings document. It is always written whole.
type UserProfile struct {
	SchemaVersion int `json:"schemaVersion"`

	UID    string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`

	Age             int           `json:"age"`
	Sex             Sex           `json:"sex"`
	Weight          float64       `json:"weight"`
	Height          float64       `json:"height"`
	ActivityLevel   ActivityLevel `json:"activityLevel"`
	PracticesSports bool          `json:"practicesSports"`
	ActivityType    string        `json:"activityType,omitempty"`
	Goal            Goal          `json:"goal"`

	Goals           Goals        `json:"goals"`
	CustomGoals     *CustomGoals `json:"customGoals"`
	CustomWaterGoal *float64     `json:"customWaterGoal"`

	MealCategories      []MealCategory         `json:"mealCategories"`
	Reminders           []Reminder             `json:"reminders"`
	Following           []string               `json:"following"`
	SavedPosts          []string               `json:"savedPosts"`
	CompletedChallenges []CompletedChallenge   `json:"completedChallenges"`
	CustomChallenges    []Challenge            `json:"customChallenges"`
	ChallengeProgress   *ChallengeProgress     `json:"challengeProgress"`
	Integrations        map[string]Integration `json:"integrations"`

	HasAllergies         bool     `json:"hasAllergies"`
	Allergies            []string `json:"allergies"`
	Units                string   `json:"units"`
	IsPremium            bool     `json:"isPremium"`
	HasCompletedTutorial bool     `json:"hasCompletedTutorial"`
	Coach                Coach    `json:"coach"`
}

// DefaultMealCategories are offered to every new profile.
func DefaultMealCategories() []MealCategory {
	return []MealCategory{
		{Name: "Café da Manhã"},
		{Name: "Almoço"},
		{Name: "Jantar"},
		{Name: "Lanches"},
	}
}

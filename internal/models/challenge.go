package models

// ChallengeType decides how a day counts toward a challenge.
type ChallengeType string

const (
	ChallengeWater       ChallengeType = "water"
	ChallengeDeficit     ChallengeType = "deficit"
	ChallengeProteinGoal ChallengeType = "protein_goal"
	ChallengeLogStreak   ChallengeType = "log_streak"
	ChallengeLowCarb     ChallengeType = "low_carb"
)

// Challenge is a catalog or user-defined weekly challenge. GoalValue and
// DurationDays are in days; DailyTarget is in ml or grams depending on Type.
type Challenge struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Type         ChallengeType `json:"type"`
	GoalValue    int           `json:"goalValue"`
	DurationDays int           `json:"durationDays"`
	DailyTarget  float64       `json:"dailyTarget,omitempty"`
	IsCustom     bool          `json:"isCustom,omitempty"`
}

// ChallengeProgress tracks the user's single active challenge.
type ChallengeProgress struct {
	ChallengeID        string `json:"challengeId"`
	StartDate          string `json:"startDate"`
	EndDate            string `json:"endDate,omitempty"`
	Progress           []bool `json:"progress"`
	Completed          bool   `json:"completed"`
	CompletionNotified bool   `json:"completionNotified"`
}

// DaysCompleted counts the successful days recorded in Progress.
func (p ChallengeProgress) DaysCompleted() int {
	n := 0
	for _, ok := range p.Progress {
		if ok {
			n++
		}
	}
	return n
}

// CompletedChallenge is a medal earned by finishing a challenge.
type CompletedChallenge struct {
	ChallengeID   string `json:"challengeId"`
	DateCompleted string `json:"dateCompleted"`
}

package constants

// Local entry keys. Every key is scoped by the session namespace (user id).
const (
	EntryProfile            = "profile"
	EntryProfileDirty       = "profileDirty"
	EntryFastingState       = "fastingState"
	EntryLastNotified       = "lastNotified"
	EntryDailyLogPrefix     = "dailyLog:"
	EntryNotifiedGoalPrefix = "notifiedGoals:"
	EntryCoachMessagePrefix = "coachMessage:"
)

package reconcile

import "github.com/julianstephens/calorix/internal/models"

// Replay applies actions to base in order and returns the resulting log
// along with the actions that found nothing to act on. base is not modified.
func Replay(base models.DailyLog, actions []models.Action) (models.DailyLog, []models.Action) {
	log := base.Clone()
	if log.Meals == nil {
		log.Meals = []models.Meal{}
	}

	var skipped []models.Action
	for _, a := range actions {
		next, applied := log.Apply(a)
		if !applied {
			skipped = append(skipped, a)
		}
		log = next
	}
	return log, skipped
}

// groupByDate splits actions per date, preserving their relative order.
func groupByDate(actions []models.Action) map[string][]models.Action {
	groups := make(map[string][]models.Action)
	for _, a := range actions {
		groups[a.Payload.Date] = append(groups[a.Payload.Date], a)
	}
	return groups
}

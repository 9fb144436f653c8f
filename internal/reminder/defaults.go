package reminder

import "github.com/julianstephens/calorix/internal/models"

// Defaults returns the reminders every new profile starts with, all disabled.
// Interval reminders start at Time and repeat every Interval hours.
func Defaults() []models.Reminder {
	return []models.Reminder{
		{ID: "logBreakfast", Label: "Registrar Café da Manhã", Time: "09:00"},
		{ID: "logLunch", Label: "Registrar Almoço", Time: "13:00"},
		{ID: "logDinner", Label: "Registrar Jantar", Time: "20:00"},
		{ID: "drinkWater", Label: "Beber Água", Time: "08:00", Interval: 2},
		{ID: "supplements", Label: "Tomar Suplementos", Time: "08:00"},
	}
}

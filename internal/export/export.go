// Package export writes a day's log as CSV and a user's full data as JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/nutrition"
)

var csvHeader = []string{"Refeição", "Alimento", "Calorias", "Proteína (g)", "Carboidratos (g)", "Gordura (g)", "Porção"}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DayCSV writes one row per logged item followed by the day's totals
// against goals. Lines end in CRLF.
func DayCSV(w io.Writer, log models.DailyLog, goals models.Goals) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	records := [][]string{csvHeader}
	for _, meal := range log.Meals {
		for _, item := range meal.Items {
			records = append(records, []string{
				meal.Name,
				item.Name,
				num(item.Calories),
				num(item.Protein),
				num(item.Carbs),
				num(item.Fat),
				item.ServingSize,
			})
		}
	}

	totals := nutrition.CalculateTotals(log.Meals)
	records = append(records,
		[]string{},
		[]string{"Resumo do Dia"},
		[]string{"Total de Calorias", num(totals.Calories), "Meta", num(goals.Calories)},
		[]string{"Total de Proteína (g)", num(totals.Protein), "Meta", num(goals.Protein)},
		[]string{"Total de Carboidratos (g)", num(totals.Carbs), "Meta", num(goals.Carbs)},
		[]string{"Total de Gordura (g)", num(totals.Fat), "Meta", num(goals.Fat)},
		[]string{"Ingestão de Água (ml)", num(log.WaterIntake), "Meta", num(goals.Water)},
	)

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// CSVFileName is the download name for the log of date.
func CSVFileName(date string) string {
	return fmt.Sprintf("%s_log_%s.csv", constants.AppName, date)
}

// Bundle is the full data export.
type Bundle struct {
	UserProfile models.UserProfile         `json:"userProfile"`
	DailyLogs   map[string]models.DailyLog `json:"dailyLogs"`
}

// JSON writes the profile and every daily log, indented by two spaces.
func JSON(w io.Writer, p models.UserProfile, logs map[string]models.DailyLog) error {
	if logs == nil {
		logs = map[string]models.DailyLog{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Bundle{UserProfile: p, DailyLogs: logs}); err != nil {
		return fmt.Errorf("failed to write JSON export: %w", err)
	}
	return nil
}

// JSONFileName is the download name for a full export taken at now.
func JSONFileName(now time.Time) string {
	return fmt.Sprintf("%s_my_data_%s.json", constants.AppName, now.Format(constants.DateFormat))
}

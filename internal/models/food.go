package models

import (
	"time"

	"github.com/google/uuid"
)

// Micronutrient names as they appear in food payloads and RDA tables.
type Micronutrient string

const (
	VitaminC  Micronutrient = "Vitamina C"
	Calcium   Micronutrient = "Cálcio"
	Iron      Micronutrient = "Ferro"
	VitaminD  Micronutrient = "Vitamina D"
	VitaminA  Micronutrient = "Vitamina A"
	Potassium Micronutrient = "Potássio"
	Magnesium Micronutrient = "Magnésio"
)

// Micronutrients lists the tracked micronutrients in display order.
var Micronutrients = []Micronutrient{VitaminC, Calcium, Iron, VitaminD, VitaminA, Potassium, Magnesium}

// Food is one logged food item. Timestamp is epoch milliseconds.
type Food struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Calories       float64                   `json:"calories"`
	Protein        float64                   `json:"protein"`
	Carbs          float64                   `json:"carbs"`
	Fat            float64                   `json:"fat"`
	ServingSize    string                    `json:"servingSize"`
	Micronutrients map[Micronutrient]float64 `json:"micronutrients,omitempty"`
	Timestamp      int64                     `json:"timestamp"`
}

// Meal groups food items under a user-visible name such as "Almoço".
type Meal struct {
	Name  string `json:"name"`
	Items []Food `json:"items"`
}

// StampFoods returns copies of foods with ids filled in and timestamps set to
// now plus the item's index in milliseconds, so a batch keeps its order.
func StampFoods(foods []Food, now time.Time) []Food {
	base := now.UnixMilli()
	out := make([]Food, len(foods))
	for i, f := range foods {
		f.Micronutrients = cloneMicros(f.Micronutrients)
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		f.Timestamp = base + int64(i)
		out[i] = f
	}
	return out
}

func cloneMicros(m map[Micronutrient]float64) map[Micronutrient]float64 {
	if m == nil {
		return nil
	}
	out := make(map[Micronutrient]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFoods(foods []Food) []Food {
	out := make([]Food, len(foods))
	for i, f := range foods {
		f.Micronutrients = cloneMicros(f.Micronutrients)
		out[i] = f
	}
	return out
}

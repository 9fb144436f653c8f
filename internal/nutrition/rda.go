package nutrition

import "github.com/julianstephens/calorix/internal/models"

type rdaTable map[models.Micronutrient]models.MicronutrientGoal

func mg(v float64) models.MicronutrientGoal  { return models.MicronutrientGoal{Amount: v, Unit: "mg"} }
func mcg(v float64) models.MicronutrientGoal { return models.MicronutrientGoal{Amount: v, Unit: "mcg"} }

var (
	maleAdult = rdaTable{
		models.VitaminC:  mg(90),
		models.Calcium:   mg(1000),
		models.Iron:      mg(8),
		models.VitaminD:  mcg(15),
		models.VitaminA:  mcg(900),
		models.Potassium: mg(3400),
		models.Magnesium: mg(420),
	}
	maleSenior = rdaTable{
		models.VitaminC:  mg(90),
		models.Calcium:   mg(1200),
		models.Iron:      mg(8),
		models.VitaminD:  mcg(20),
		models.VitaminA:  mcg(900),
		models.Potassium: mg(3400),
		models.Magnesium: mg(420),
	}
	femaleAdult = rdaTable{
		models.VitaminC:  mg(75),
		models.Calcium:   mg(1000),
		models.Iron:      mg(18),
		models.VitaminD:  mcg(15),
		models.VitaminA:  mcg(700),
		models.Potassium: mg(2600),
		models.Magnesium: mg(320),
	}
	femaleSenior = rdaTable{
		models.VitaminC:  mg(75),
		models.Calcium:   mg(1200),
		models.Iron:      mg(8),
		models.VitaminD:  mcg(20),
		models.VitaminA:  mcg(700),
		models.Potassium: mg(2600),
		models.Magnesium: mg(320),
	}
)

// RDAs returns the recommended daily micronutrient amounts. Ages over 50 use
// the 51+ table; every other age uses the 19-50 table. Only males use the
// male table.
func RDAs(age int, sex models.Sex) map[models.Micronutrient]models.MicronutrientGoal {
	senior := age > 50
	var table rdaTable
	switch {
	case sex == models.SexMale && senior:
		table = maleSenior
	case sex == models.SexMale:
		table = maleAdult
	case senior:
		table = femaleSenior
	default:
		table = femaleAdult
	}

	out := make(map[models.Micronutrient]models.MicronutrientGoal, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}

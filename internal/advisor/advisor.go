// Package advisor asks a language model for foods, meals, recipes and
// workouts. Every operation degrades to an empty result and a logged warning
// when the model is unreachable or answers with something unparseable.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/logger"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/nutrition"
)

const jsonSystem = "Você é um assistente de nutrição e treino. Responda somente com JSON válido, sem markdown e sem texto adicional."

// MealSuggestion is a suggested food for one meal slot.
type MealSuggestion struct {
	MealCategory string      `json:"mealCategory"`
	Food         models.Food `json:"food"`
	Reasoning    string      `json:"reasoning"`
}

// Recipe is a generated recipe with per-ingredient nutrition.
type Recipe struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	TimeInMinutes int           `json:"timeInMinutes"`
	Ingredients   []models.Food `json:"ingredients"`
	Instructions  []string      `json:"instructions"`
	TotalCalories float64       `json:"totalCalories"`
	TotalProtein  float64       `json:"totalProtein"`
	TotalCarbs    float64       `json:"totalCarbs"`
	TotalFat      float64       `json:"totalFat"`
	ImagePrompt   string        `json:"imagePrompt"`
}

type Advisor struct {
	c   Completer
	log *log.Logger
	now func() time.Time
}

func New(c Completer) *Advisor {
	if c == nil {
		c = Disabled{}
	}
	return &Advisor{c: c, log: logger.Component("advisor"), now: time.Now}
}

const foodShape = `cada item: {"name": string, "calories": number, "protein": number, "carbs": number, "fat": number, "servingSize": string, "micronutrients": {<nome>: number}}`

func micronutrientList() string {
	names := make([]string, len(models.Micronutrients))
	for i, m := range models.Micronutrients {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// ask sends req and decodes the JSON reply into out.
func (a *Advisor) ask(ctx context.Context, op string, req Request, out interface{}) bool {
	if req.System == "" {
		req.System = jsonSystem
	}
	reply, err := a.c.Complete(ctx, req)
	if err != nil {
		a.log.Warn("Suggestion request failed", "op", op, "err", err)
		return false
	}
	if err := decodeJSON(reply, out); err != nil {
		a.log.Warn("Suggestion reply was not valid JSON", "op", op, "err", err)
		return false
	}
	return true
}

// decodeJSON strips code fences and surrounding prose from a model reply.
func decodeJSON(reply string, out interface{}) error {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return fmt.Errorf("no JSON value in reply")
	}
	end := strings.LastIndexAny(s, "]}")
	if end < start {
		return fmt.Errorf("unterminated JSON value in reply")
	}
	return json.Unmarshal([]byte(s[start:end+1]), out)
}

func withIDs(foods []models.Food) []models.Food {
	for i := range foods {
		foods[i].ID = uuid.NewString()
	}
	return foods
}

func (a *Advisor) foods(ctx context.Context, op string, req Request) []models.Food {
	var raw json.RawMessage
	if !a.ask(ctx, op, req, &raw) {
		return []models.Food{}
	}
	// A single product is sometimes answered as an object instead of a list.
	var foods []models.Food
	if err := json.Unmarshal(raw, &foods); err != nil {
		var one models.Food
		if err := json.Unmarshal(raw, &one); err != nil {
			a.log.Warn("Unexpected food reply", "op", op, "err", err)
			return []models.Food{}
		}
		foods = []models.Food{one}
	}
	return withIDs(foods)
}

// FoodsFromText looks up every food matching query.
func (a *Advisor) FoodsFromText(ctx context.Context, query string) []models.Food {
	prompt := fmt.Sprintf(`Forneça as informações nutricionais completas (calorias, macronutrientes e os seguintes micronutrientes: %s), nas unidades corretas (mg/mcg), para a consulta: "%s". Liste todas as correspondências possíveis. Responda com um array JSON, %s.`,
		micronutrientList(), query, foodShape)
	return a.foods(ctx, "foods_from_text", Request{Prompt: prompt})
}

// FoodsFromBarcode returns one serving of the product with the given barcode.
func (a *Advisor) FoodsFromBarcode(ctx context.Context, barcode string) []models.Food {
	prompt := fmt.Sprintf(`Forneça as informações nutricionais completas (calorias, macronutrientes e os seguintes micronutrientes: %s), nas unidades corretas (mg/mcg), para o produto com código de barras: "%s". Retorne dados para uma única porção. Se não encontrar, retorne um array vazio. Responda com um array JSON, %s.`,
		micronutrientList(), barcode, foodShape)
	return a.foods(ctx, "foods_from_barcode", Request{Prompt: prompt})
}

// FoodsFromImage identifies the foods in a photo.
func (a *Advisor) FoodsFromImage(ctx context.Context, img Image) []models.Food {
	prompt := fmt.Sprintf(`Analise a comida nesta imagem. Identifique cada item alimentar e estime suas informações nutricionais completas (calorias, macronutrientes e os seguintes micronutrientes: %s), nas unidades corretas (mg/mcg). Seja preciso. Omita itens não identificados. Responda com um array JSON, %s.`,
		micronutrientList(), foodShape)
	return a.foods(ctx, "foods_from_image", Request{Prompt: prompt, Image: &img})
}

func allergyNote(p models.UserProfile, format string) string {
	if !p.HasAllergies || len(p.Allergies) == 0 {
		return ""
	}
	return fmt.Sprintf(format, strings.Join(p.Allergies, ", "))
}

// MealSuggestions proposes three meals that fit what is left of the day's goals.
func (a *Advisor) MealSuggestions(ctx context.Context, p models.UserProfile, consumed nutrition.Totals) []MealSuggestion {
	g := p.Goals
	categories := make([]string, len(p.MealCategories))
	for i, c := range p.MealCategories {
		categories[i] = c.Name
	}

	prompt := fmt.Sprintf(`Com base nas metas e no consumo diário de um usuário, sugira 3 refeições (para categorias como %s) para ajudá-lo a atingir seus objetivos.
Metas Diárias: %.0f kcal, %.0fg P, %.0fg C, %.0fg F.
Consumido Até Agora: %.0f kcal, %.0fg P, %.0fg C, %.0fg F.
Metas Restantes: %.0f kcal, %.0fg P, %.0fg C, %.0fg F.

Forneça sugestões que se encaixem bem nas metas restantes. Inclua uma breve justificativa para cada sugestão.%s
Responda com um array JSON de {"mealCategory": string, "food": objeto, "reasoning": string}, onde food segue %s.`,
		strings.Join(categories, ", "),
		g.Calories, g.Protein, g.Carbs, g.Fat,
		consumed.Calories, consumed.Protein, consumed.Carbs, consumed.Fat,
		g.Calories-consumed.Calories, g.Protein-consumed.Protein, g.Carbs-consumed.Carbs, g.Fat-consumed.Fat,
		allergyNote(p, "\nIMPORTANTE: O usuário tem as seguintes alergias: %s. As sugestões NÃO DEVEM conter esses ingredientes ou seus derivados."),
		foodShape)

	var out []MealSuggestion
	if !a.ask(ctx, "meal_suggestions", Request{Prompt: prompt}, &out) {
		return []MealSuggestion{}
	}
	for i := range out {
		out[i].Food.ID = uuid.NewString()
	}
	return out
}

var goalDescriptions = map[models.Goal]string{
	models.GoalGain:     "ganhar massa muscular (hipertrofia)",
	models.GoalLose:     "emagrecer (déficit calórico)",
	models.GoalMaintain: "manter o peso de forma saudável",
}

// Recipes generates five recipes for goal, honoring preferences and allergies.
func (a *Advisor) Recipes(ctx context.Context, goal models.Goal, preferences string, p models.UserProfile) []Recipe {
	var prefs string
	if preferences != "" {
		prefs = fmt.Sprintf("\nLeve em consideração as seguintes preferências ou ingredientes do usuário: %q.", preferences)
	}
	prompt := fmt.Sprintf(`Gere 5 receitas criativas, saudáveis e deliciosas para um usuário com o objetivo de %s.%s
Para cada receita, forneça nome, descrição curta, categoria (ex: 'Café da Manhã', 'Almoço', 'Jantar', 'Lanche'), tempo total de preparo em minutos, informação nutricional total, ingredientes com porção e nutrição completa (incluindo micronutrientes), modo de preparo em passos simples e um prompt de imagem curto em inglês.
Seja preciso nos cálculos e variado nas sugestões.%s
Responda com um array JSON de {"name", "description", "category", "timeInMinutes", "ingredients": [%s], "instructions": [string], "totalCalories", "totalProtein", "totalCarbs", "totalFat", "imagePrompt"}.`,
		goalDescriptions[goal], prefs,
		allergyNote(p, "\nIMPORTANTE: O usuário é alérgico a %s. As receitas NÃO DEVEM conter nenhum desses ingredientes ou seus derivados."),
		foodShape)

	var out []Recipe
	if !a.ask(ctx, "recipes", Request{Prompt: prompt}, &out) {
		return []Recipe{}
	}
	for i := range out {
		out[i].ID = uuid.NewString()
		out[i].Ingredients = withIDs(out[i].Ingredients)
	}
	return out
}

// ExercisesFromImage names the strength exercises shown in a picture.
func (a *Advisor) ExercisesFromImage(ctx context.Context, img Image) []string {
	prompt := `Analise esta imagem em busca de exercícios de musculação ou crossfit. Identifique cada exercício visível. Responda com {"exercises": [string]}.`
	var out struct {
		Exercises []string `json:"exercises"`
	}
	if !a.ask(ctx, "exercises_from_image", Request{Prompt: prompt, Image: &img}, &out) || out.Exercises == nil {
		return []string{}
	}
	return out.Exercises
}

// Motivation returns a short encouraging message in the coach's voice. A
// canned message is returned when the model is unavailable.
func (a *Advisor) Motivation(ctx context.Context, userName string, coach models.Coach) string {
	prompt := fmt.Sprintf(`Aja como um coach de fitness amigável e energético chamado %s. Gere uma mensagem curta e encorajadora (2-3 frases) para um usuário chamado %s que pode estar se sentindo desanimado. Seu tom deve ser de alta energia, focado em superação e ação. Use frases como "Vamos lá!". Não use markdown ou formatação.`,
		coach.Name, userName)
	reply, err := a.c.Complete(ctx, Request{Prompt: prompt})
	if err == nil && strings.TrimSpace(reply) != "" {
		return strings.TrimSpace(reply)
	}
	if err != nil {
		a.log.Warn("Suggestion request failed", "op", "motivation", "err", err)
	}
	return fmt.Sprintf("Olá, %s! Lembre-se de que cada jornada tem seus altos e baixos. O importante é não desistir. Um pequeno passo hoje pode fazer uma grande diferença amanhã. Estou aqui torcendo por você!", userName)
}

const workoutShape = `{"duration_min": number, "intensity": string, "calories_estimated": number, "exercises": [{"name": string, "type": "forca"|"cardio"|"core"|"flexibilidade", "sets": number, "reps": string, "rest_s": number, "image_prompt": string}]}`

func (a *Advisor) workout(ctx context.Context, op string, req Request) *models.Workout {
	var w models.Workout
	if !a.ask(ctx, op, req, &w) {
		return nil
	}
	w.ID = uuid.NewString()
	w.Date = a.now().Format(constants.DateFormat)
	for i := range w.Exercises {
		w.Exercises[i].ID = uuid.NewString()
	}
	return &w
}

// GenerateWorkout builds a plan of the given length with the listed equipment.
func (a *Advisor) GenerateWorkout(ctx context.Context, p models.UserProfile, equipment []string, minutes int) *models.Workout {
	prompt := fmt.Sprintf(`Gere um treino de %d minutos para um usuário com o objetivo de %s (Peso: %.0fkg, Idade: %d).
Nível de atividade atual: %s.
Equipamentos disponíveis: %s.
O treino deve incluir exercícios com séries (sets), repetições (reps - ex: '12-15' ou '30s'), tempo de descanso em segundos (rest_s).
Para cada exercício, gere também um 'image_prompt' em inglês para uma ilustração vetorial plana da pessoa realizando o movimento.
Responda com %s.`,
		minutes, p.Goal, p.Weight, p.Age, p.ActivityLevel, strings.Join(equipment, ", "), workoutShape)
	return a.workout(ctx, "generate_workout", Request{Prompt: prompt})
}

// WorkoutFromImage reads a workout sheet from a photo.
func (a *Advisor) WorkoutFromImage(ctx context.Context, img Image) *models.Workout {
	prompt := fmt.Sprintf(`Analise esta imagem em busca de informações de um treino de academia ou musculação. Pode ser uma foto de uma ficha de treino, uma lousa com exercícios ou uma lista escrita.
Identifique o nome de cada exercício, o número de séries, repetições e tempo de descanso se disponível.
Para cada exercício, gere também um 'image_prompt' curto em inglês focado no movimento.
Responda com %s.`, workoutShape)
	return a.workout(ctx, "workout_from_image", Request{Prompt: prompt, Image: &img})
}

package logging

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/calorix/internal/advisor"
	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/models"
)

type FoodAddCmd struct {
	Meal string `arg:"" help:"Meal name, e.g. \"Almoço\"."`
	Date string `help:"Date (YYYY-MM-DD, today, yesterday)." default:"today"`

	Name     string  `help:"Food name for a manual entry."`
	Calories float64 `help:"Calories (kcal)."`
	Protein  float64 `help:"Protein (g)."`
	Carbs    float64 `help:"Carbohydrates (g)."`
	Fat      float64 `help:"Fat (g)."`
	Serving  string  `help:"Serving size, e.g. \"100 g\"." default:"1 porção"`

	Search  string `help:"Describe what you ate and let the assistant estimate it." xor:"source"`
	Barcode string `help:"Look the food up by barcode." xor:"source"`
	Image   string `help:"Estimate foods from a photo." type:"existingfile" xor:"source"`
	Yes     bool   `short:"y" help:"Log every suggested food without asking."`
}

func (c *FoodAddCmd) Validate() error {
	if strings.TrimSpace(c.Meal) == "" {
		return errors.New("meal name cannot be empty")
	}
	lookup := c.Search != "" || c.Barcode != "" || c.Image != ""
	if !lookup && strings.TrimSpace(c.Name) == "" {
		return errors.New("provide --name for a manual entry, or one of --search, --barcode, --image")
	}
	if c.Calories < 0 || c.Protein < 0 || c.Carbs < 0 || c.Fat < 0 {
		return errors.New("nutrition values cannot be negative")
	}
	return nil
}

func (c *FoodAddCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	date, err := cli.ResolveDate(c.Date, ctx.Now())
	if err != nil {
		return err
	}

	var foods []models.Food
	switch {
	case c.Search != "":
		foods = s.Advisor().FoodsFromText(ctx.Ctx, c.Search)
	case c.Barcode != "":
		foods = s.Advisor().FoodsFromBarcode(ctx.Ctx, c.Barcode)
	case c.Image != "":
		img, err := readImage(c.Image)
		if err != nil {
			return err
		}
		foods = s.Advisor().FoodsFromImage(ctx.Ctx, img)
	default:
		foods = []models.Food{{
			Name:        strings.TrimSpace(c.Name),
			Calories:    c.Calories,
			Protein:     c.Protein,
			Carbs:       c.Carbs,
			Fat:         c.Fat,
			ServingSize: c.Serving,
		}}
	}
	if len(foods) == 0 {
		return errors.New("no foods found. Try a more specific description or add the food manually")
	}
	if len(foods) > 1 && !c.Yes {
		if foods, err = pickFoods(foods); err != nil {
			return err
		}
		if len(foods) == 0 {
			fmt.Fprintln(ctx.Out, "Nothing selected.")
			return nil
		}
	}

	if !slices.ContainsFunc(p.MealCategories, func(m models.MealCategory) bool { return m.Name == c.Meal }) {
		fmt.Fprintf(ctx.Out, "ℹ %q is not one of your meal categories\n", c.Meal)
	}

	log, err := s.AddFoods(ctx.Ctx, date, c.Meal, foods)
	if err != nil {
		return fmt.Errorf("failed to add food: %w", err)
	}
	for _, f := range foods {
		fmt.Fprintf(ctx.Out, "✓ Added %s (%.0f kcal) to %s on %s\n", f.Name, f.Calories, c.Meal, date)
	}
	if m, ok := log.Meal(c.Meal); ok {
		fmt.Fprintf(ctx.Out, "  %s now has %d item(s)\n", c.Meal, len(m.Items))
	}
	return nil
}

func pickFoods(foods []models.Food) ([]models.Food, error) {
	var picked []int
	options := make([]huh.Option[int], len(foods))
	for i, f := range foods {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s, %.0f kcal)", f.Name, f.ServingSize, f.Calories), i).Selected(true)
	}
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[int]().
				Title("Which foods do you want to log?").
				Options(options...).
				Value(&picked),
		),
	).WithTheme(huh.ThemeDracula()).Run()
	if err != nil {
		return nil, err
	}
	out := make([]models.Food, 0, len(picked))
	for _, i := range picked {
		out = append(out, foods[i])
	}
	return out, nil
}

func readImage(path string) (advisor.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return advisor.Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return advisor.Image{}, fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return advisor.Image{MIMEType: mime, Data: data}, nil
}

type FoodDeleteCmd struct {
	Meal string `arg:"" help:"Meal name."`
	ID   string `arg:"" help:"Food id or a unique prefix of it (see 'calorix day --ids')."`
	Date string `help:"Date (YYYY-MM-DD, today, yesterday)." default:"today"`
}

func (c *FoodDeleteCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	date, err := cli.ResolveDate(c.Date, ctx.Now())
	if err != nil {
		return err
	}

	meal, ok := s.Log(date).Meal(c.Meal)
	if !ok {
		return fmt.Errorf("no meal %q on %s", c.Meal, date)
	}
	food, err := matchFood(meal.Items, c.ID)
	if err != nil {
		return err
	}
	if _, err := s.DeleteFood(ctx.Ctx, date, c.Meal, food.ID); err != nil {
		return fmt.Errorf("failed to delete food: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Removed %s from %s on %s\n", food.Name, c.Meal, date)
	return nil
}

// matchFood finds the item whose id equals or starts with ref.
func matchFood(items []models.Food, ref string) (models.Food, error) {
	var matches []models.Food
	for _, f := range items {
		if f.ID == ref {
			return f, nil
		}
		if strings.HasPrefix(f.ID, ref) {
			matches = append(matches, f)
		}
	}
	switch len(matches) {
	case 0:
		return models.Food{}, fmt.Errorf("no food with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Food{}, fmt.Errorf("id prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// Package recipes answers cooking questions from a local recipe book.
//
// A book is a TOML file of recipes. Each recipe is indexed as a document of
// the form
//
//	Recipe: <name>
//	Ingredients: <ingredients>
//	Steps: <steps>
//
// and the documents of the best matches are returned as sources.
package recipes

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Recipe is one entry of a book.
type Recipe struct {
	Name        string   `toml:"name"`
	Ingredients []string `toml:"ingredients"`
	Steps       []string `toml:"steps"`
}

// Document is the indexed and quoted text of a recipe.
func (r Recipe) Document() string {
	return fmt.Sprintf("Recipe: %s\nIngredients: %s\nSteps: %s",
		r.Name,
		strings.Join(r.Ingredients, ", "),
		strings.Join(r.Steps, " "),
	)
}

// Book is a collection of recipes.
type Book struct {
	Recipes []Recipe `toml:"recipe"`
}

// LoadBook decodes a TOML recipe book.
func LoadBook(path string) (*Book, error) {
	var book Book
	if _, err := toml.DecodeFile(path, &book); err != nil {
		return nil, fmt.Errorf("decode recipe book %s: %w", path, err)
	}

	for i, r := range book.Recipes {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("recipe book %s: recipe %d has no name", path, i)
		}
	}

	return &book, nil
}

// SampleBook is the built-in book used when none is configured.
func SampleBook() *Book {
	return &Book{Recipes: []Recipe{
		{
			Name:        "Soft-Boiled Eggs",
			Ingredients: []string{"4 eggs", "water", "salt"},
			Steps: []string{
				"Bring a pot of water to a rolling boil.",
				"Lower the eggs in gently with a spoon.",
				"Boil for 6 minutes for a runny yolk, 10 for hard-boiled.",
				"Move the eggs to ice water for 2 minutes before peeling.",
			},
		},
		{
			Name:        "Poached Eggs",
			Ingredients: []string{"2 very fresh eggs", "water", "1 tbsp white vinegar"},
			Steps: []string{
				"Heat water with the vinegar to a bare simmer.",
				"Crack each egg into a cup.",
				"Stir a gentle whirlpool and slide the egg into the centre.",
				"Cook for 3 minutes and lift out with a slotted spoon.",
			},
		},
		{
			Name:        "Buttermilk Pancakes",
			Ingredients: []string{"2 cups flour", "2 tbsp sugar", "2 tsp baking powder", "1 tsp baking soda", "2 cups buttermilk", "2 eggs", "3 tbsp melted butter"},
			Steps: []string{
				"Whisk the dry ingredients together.",
				"Whisk buttermilk, eggs and butter, then fold into the dry mix until just combined.",
				"Rest the batter for 10 minutes.",
				"Cook ladlefuls on a buttered griddle until bubbles form, then flip.",
			},
		},
		{
			Name:        "Garlic Butter Pasta",
			Ingredients: []string{"400 g spaghetti", "4 tbsp butter", "4 garlic cloves", "parmesan", "parsley", "salt"},
			Steps: []string{
				"Boil the pasta in well-salted water and save a cup of pasta water.",
				"Melt butter and gently fry sliced garlic until fragrant.",
				"Toss the pasta in the garlic butter with a splash of pasta water so it does not stick.",
				"Finish with parmesan and parsley.",
			},
		},
		{
			Name:        "Roasted Tomato Soup",
			Ingredients: []string{"1 kg tomatoes", "1 onion", "3 garlic cloves", "olive oil", "500 ml stock", "basil"},
			Steps: []string{
				"Roast halved tomatoes, onion and garlic with olive oil at 200C for 40 minutes.",
				"Simmer with the stock for 10 minutes.",
				"Blend until smooth and season.",
				"Serve with torn basil.",
			},
		},
		{
			Name:        "Lemon Herb Roast Chicken",
			Ingredients: []string{"1 whole chicken", "1 lemon", "thyme", "rosemary", "butter", "salt", "pepper"},
			Steps: []string{
				"Rub the chicken with butter, salt and pepper.",
				"Stuff the cavity with lemon halves and herbs.",
				"Roast at 220C for 20 minutes, then 180C for about an hour.",
				"Rest for 15 minutes before carving.",
			},
		},
	}}
}

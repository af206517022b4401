package recipe

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Eggs", "egg"},
		{"3 Ripe Tomatoes", "ripe tomato"},
		{"  Chicken  ", "chicken"},
		{"rice", "rice"},
		{"Crème fraîche", "crme frache"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	faker := gofakeit.New(20240611)

	inputs := []string{"glasses", "sesses", "dresses", "s", "es s es", "x s y"}
	for i := 0; i < 300; i++ {
		inputs = append(inputs,
			faker.Word(),
			faker.Noun()+"s",
			faker.Sentence(4),
			faker.LetterN(uint(faker.Number(1, 12))),
		)
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestSplitIngredients(t *testing.T) {
	csv, items := SplitIngredients("chicken, rice;garlic\n  beans ")
	assert.Equal(t, "chicken,rice,garlic,beans", csv)
	assert.Equal(t, []string{"chicken", "rice", "garlic", "beans"}, items)

	csv, items = SplitIngredients(" , ;\n")
	assert.Empty(t, csv)
	assert.Empty(t, items)

	var many []string
	for i := 0; i < 25; i++ {
		many = append(many, gofakeit.New(int64(i)).Noun())
	}
	_, items = SplitIngredients(strings.Join(many, ","))
	assert.Len(t, items, maxIngredients)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitCSV(" a, ,b "))
	assert.Empty(t, SplitCSV(""))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Chicken Breast", TitleCase("chicken breast"))
	assert.Equal(t, "Rice", TitleCase("Rice"))
}

func TestDistinctTokens(t *testing.T) {
	assert.Equal(t, []string{"rice", "egg"}, distinctTokens([]string{"rice", "", "egg", "rice"}))
}

func TestIsPantry(t *testing.T) {
	for _, staple := range PantryStaples() {
		assert.True(t, IsPantry(staple), staple)
		assert.True(t, IsPantry(strings.ToUpper(staple)), staple)
	}

	assert.True(t, IsPantry("extra virgin olive oil"))
	assert.True(t, IsPantry("unsalted butter"))
	assert.False(t, IsPantry("heavy cream"))
	assert.False(t, IsPantry("banana"))
}

func TestNonPantryMissing(t *testing.T) {
	c := Candidate{
		MissedIngredients: []IngredientRef{
			{Name: "salt", Original: "1 tsp Salt"},
			{Name: "heavy cream", Original: "1 cup Heavy Cream"},
			{Name: "olive oil"},
		},
	}
	assert.Equal(t, []string{"1 cup heavy cream"}, nonPantryMissing(c))
}

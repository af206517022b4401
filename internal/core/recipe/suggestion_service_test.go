package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"moodchef/internal/pkg/common"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockSearcher) FindByIngredients(ctx context.Context, csv string, number int) ([]Candidate, error) {
	args := m.Called(ctx, csv, number)
	candidates, _ := args.Get(0).([]Candidate)
	return candidates, args.Error(1)
}

func (m *mockSearcher) Information(ctx context.Context, id int64) (*Detail, error) {
	args := m.Called(ctx, id)
	detail, _ := args.Get(0).(*Detail)
	return detail, args.Error(1)
}

func (m *mockSearcher) Instructions(ctx context.Context, id int64) ([]string, error) {
	args := m.Called(ctx, id)
	steps, _ := args.Get(0).([]string)
	return steps, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockGenerator) Complete(ctx context.Context, prompt string, validate func(string) error) (string, error) {
	args := m.Called(ctx, prompt)
	out, err := args.String(0), args.Error(1)
	if err == nil && validate != nil {
		err = validate(out)
	}
	return out, err
}

func cozyRequest() Request {
	return Request{Mood: "cozy", Minutes: 30, Ingredients: "chicken, rice, garlic"}
}

func requireCode(t *testing.T, err error, code string) *common.CustomError {
	t.Helper()
	require.Error(t, err)
	ce, ok := common.AsCustomError(err)
	require.True(t, ok, "expected CustomError, got %v", err)
	assert.Equal(t, code, ce.Code)
	return ce
}

func TestSuggestScenarioCozyChicken(t *testing.T) {
	searcher := new(mockSearcher)
	searcher.On("Configured").Return(true)
	searcher.On("FindByIngredients", mock.Anything, "chicken,rice,garlic", 20).Return([]Candidate{
		{
			ID:                  1,
			Title:               "Garlic Chicken Rice",
			UsedIngredients:     used("chicken", "rice", "garlic"),
			UsedIngredientCount: 3,
			ReadyInMinutes:      25,
		},
	}, nil)
	searcher.On("Information", mock.Anything, int64(1)).Return(&Detail{
		ID:                  1,
		Title:               "Garlic Chicken Rice",
		ReadyInMinutes:      25,
		Servings:            2,
		ExtendedIngredients: []IngredientRef{{Original: "1 tbsp soy sauce"}},
	}, nil)
	searcher.On("Instructions", mock.Anything, int64(1)).Return([]string{"Cook the rice.", "Fry the chicken with garlic."}, nil)

	svc := NewSuggestionService(searcher, nil, DefaultOptions())
	results, err := svc.Suggest(context.Background(), cozyRequest())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.LessOrEqual(t, r.TimeMinutes, 30)
	require.GreaterOrEqual(t, len(r.IngredientsList), 3)
	assert.Equal(t, []string{"chicken", "rice", "garlic"}, r.IngredientsList[:3])
	assert.Equal(t, []string{"Cook the rice.", "Fry the chicken with garlic."}, r.Steps)
	assert.Equal(t, "Chicken • Rice • Garlic — Garlic Chicken Rice", r.Title)
	searcher.AssertExpectations(t)
}

func TestSuggestScenarioOnlyTheseExcludesCream(t *testing.T) {
	searcher := new(mockSearcher)
	searcher.On("Configured").Return(true)
	searcher.On("FindByIngredients", mock.Anything, "chicken,rice,garlic", 20).Return([]Candidate{
		{
			ID:                1,
			Title:             "Creamy Chicken Rice",
			UsedIngredients:   used("chicken", "rice", "garlic"),
			MissedIngredients: []IngredientRef{{Name: "heavy cream", Original: "1 cup heavy cream"}},
			ReadyInMinutes:    25,
		},
	}, nil)

	req := cozyRequest()
	req.OnlyThese = true

	svc := NewSuggestionService(searcher, nil, DefaultOptions())
	_, err := svc.Suggest(context.Background(), req)

	ce := requireCode(t, err, common.ErrCodeNoMatch)
	assert.Equal(t, onlyTheseHint, ce.Hint)
	searcher.AssertNotCalled(t, "Information", mock.Anything, mock.Anything)
}

func TestSuggestScenarioStaplesOnly(t *testing.T) {
	searcher := new(mockSearcher)
	searcher.On("Configured").Return(true)
	searcher.On("FindByIngredients", mock.Anything, "salt,pepper,oil", 20).Return([]Candidate{
		{ID: 9, Title: "Seasoned Oil", UsedIngredients: used("salt", "pepper", "oil")},
	}, nil)
	searcher.On("Information", mock.Anything, int64(9)).Return(&Detail{ID: 9, ReadyInMinutes: 5}, nil)
	searcher.On("Instructions", mock.Anything, int64(9)).Return(nil, errors.New("boom"))

	svc := NewSuggestionService(searcher, nil, DefaultOptions())
	results, err := svc.Suggest(context.Background(), Request{
		Mood:        "lazy",
		Minutes:     10,
		Ingredients: "salt, pepper, oil",
		OnlyThese:   true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(9), results[0].SourceID)
	assert.Equal(t, []string{fallbackStep}, results[0].Steps)
	assert.Contains(t, results[0].WhyItFits, "Only-these mode")
}

func TestSuggestOnlyTheseUnsupported(t *testing.T) {
	searcher := new(mockSearcher)
	searcher.On("Configured").Return(true)
	searcher.On("FindByIngredients", mock.Anything, "chicken,rice,garlic", 20).Return([]Candidate{
		{
			ID:                1,
			UsedIngredients:   used("chicken", "rice", "garlic"),
			MissedIngredients: []IngredientRef{{Name: "heavy cream"}},
			ReadyInMinutes:    25,
		},
	}, nil)
	searcher.On("Information", mock.Anything, int64(1)).Return(&Detail{ID: 1, ReadyInMinutes: 25}, nil)
	searcher.On("Instructions", mock.Anything, int64(1)).Return([]string{"Cook."}, nil)

	opts := DefaultOptions()
	opts.OnlyTheseSupported = false

	req := cozyRequest()
	req.OnlyThese = true

	results, err := NewSuggestionService(searcher, nil, opts).Suggest(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotContains(t, results[0].WhyItFits, "Only-these mode")
}

func TestSuggestFallsBackToTopCandidate(t *testing.T) {
	searcher := new(mockSearcher)
	searcher.On("Configured").Return(true)
	searcher.On("FindByIngredients", mock.Anything, "chicken,rice,garlic", 20).Return([]Candidate{
		{ID: 1, Title: "Slow Roast", UsedIngredients: used("chicken", "rice", "garlic")},
		{ID: 2, Title: "Other Roast", UsedIngredients: used("chicken", "rice", "garlic")},
	}, nil)
	searcher.On("Information", mock.Anything, mock.Anything).Return(&Detail{ReadyInMinutes: 180}, nil)
	searcher.On("Instructions", mock.Anything, int64(1)).Return(nil, nil)

	results, err := NewSuggestionService(searcher, nil, DefaultOptions()).Suggest(context.Background(), cozyRequest())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].SourceID)
	assert.Equal(t, 30, results[0].TimeMinutes)
	assert.Equal(t, []string{fallbackStep}, results[0].Steps)
}

func TestSuggestNoCandidates(t *testing.T) {
	searcher := new(mockSearcher)
	searcher.On("Configured").Return(true)
	searcher.On("FindByIngredients", mock.Anything, mock.Anything, mock.Anything).Return([]Candidate{}, nil)

	_, err := NewSuggestionService(searcher, nil, DefaultOptions()).Suggest(context.Background(), cozyRequest())
	requireCode(t, err, common.ErrCodeNoRecipes)
}

func TestSuggestUpstreamFailure(t *testing.T) {
	searcher := new(mockSearcher)
	searcher.On("Configured").Return(true)
	searcher.On("FindByIngredients", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, common.NewUpstreamError("spoonacular", "findByIngredients", 402, "quota exceeded"))

	_, err := NewSuggestionService(searcher, nil, DefaultOptions()).Suggest(context.Background(), cozyRequest())
	ce := requireCode(t, err, common.ErrCodeUpstreamFailed)
	assert.Contains(t, ce.Message, "402")
	assert.NotContains(t, ce.Message, "quota exceeded")
}

func TestSuggestValidation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		msg  string
	}{
		{"missing mood", Request{Mood: "  ", Minutes: 30, Ingredients: "rice"}, "mood is required"},
		{"long mood", Request{Mood: strings.Repeat("a", 201), Minutes: 30, Ingredients: "rice"}, "mood must be at most 200 characters"},
		{"zero minutes", Request{Mood: "ok", Minutes: 0, Ingredients: "rice"}, "minutes must be between 1 and 240"},
		{"too many minutes", Request{Mood: "ok", Minutes: 241, Ingredients: "rice"}, "minutes must be between 1 and 240"},
		{"blank ingredients", Request{Mood: "ok", Minutes: 30, Ingredients: " , ;"}, "ingredients are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := new(mockSearcher)
			_, err := NewSuggestionService(searcher, nil, DefaultOptions()).Suggest(context.Background(), tt.req)

			ce := requireCode(t, err, common.ErrCodeInvalidRequest)
			assert.Equal(t, tt.msg, ce.Message)
			searcher.AssertNotCalled(t, "Configured")
			searcher.AssertNotCalled(t, "FindByIngredients", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSuggestMisconfigured(t *testing.T) {
	_, err := NewSuggestionService(nil, nil, DefaultOptions()).Suggest(context.Background(), cozyRequest())
	requireCode(t, err, common.ErrCodeMisconfigured)

	searcher := new(mockSearcher)
	searcher.On("Configured").Return(false)
	_, err = NewSuggestionService(searcher, nil, DefaultOptions()).Suggest(context.Background(), cozyRequest())
	requireCode(t, err, common.ErrCodeMisconfigured)

	opts := DefaultOptions()
	opts.Source = SourceGenerative
	_, err = NewSuggestionService(nil, nil, opts).Suggest(context.Background(), cozyRequest())
	requireCode(t, err, common.ErrCodeMisconfigured)
}

func generativeOptions() Options {
	opts := DefaultOptions()
	opts.Source = SourceGenerative
	return opts
}

func TestSuggestGenerative(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Configured").Return(true)
	gen.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `feels "cozy"`) && strings.Contains(p, "chicken, rice, garlic")
	})).Return(`{"recipes":[
		{"title":"One","time_minutes":20,"steps":["a step"]},
		{"title":"Two","time_minutes":45,"steps":["a step"]},
		{"title":"Three","steps":["a step"]},
		{"title":"Four","steps":["a step"]}
	]}`, nil)

	svc := NewSuggestionService(nil, gen, generativeOptions())
	assert.Equal(t, SourceGenerative, svc.Source())

	results, err := svc.Suggest(context.Background(), cozyRequest())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 20, results[0].TimeMinutes)
	assert.Equal(t, 30, results[1].TimeMinutes)
	assert.Equal(t, SourceGenerative, results[2].Source)
	gen.AssertExpectations(t)
}

func TestSuggestGenerativeErrors(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		code string
	}{
		{"plain error", "", errors.New("connection reset"), common.ErrCodeGenerationFailed},
		{"typed error passes through", "", common.ErrGatewayTimeout.Wrap(context.DeadlineExceeded), common.ErrCodeGatewayTimeout},
		{"unparseable output", "I'd rather not.", nil, common.ErrCodeGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(mockGenerator)
			gen.On("Configured").Return(true)
			gen.On("Complete", mock.Anything, mock.Anything).Return(tt.out, tt.err)

			_, err := NewSuggestionService(nil, gen, generativeOptions()).Suggest(context.Background(), cozyRequest())
			requireCode(t, err, tt.code)
		})
	}
}

// cachingGenerator 只保存通過檢查的回應
type cachingGenerator struct {
	replies []string
	calls   int
	cached  string
}

func (g *cachingGenerator) Configured() bool { return true }

func (g *cachingGenerator) Complete(_ context.Context, _ string, validate func(string) error) (string, error) {
	if g.cached != "" {
		return g.cached, validate(g.cached)
	}
	out := g.replies[min(g.calls, len(g.replies)-1)]
	g.calls++
	if err := validate(out); err != nil {
		return out, err
	}
	g.cached = out
	return out, nil
}

func TestSuggestGenerativeRejectsUnusableReply(t *testing.T) {
	gen := &cachingGenerator{replies: []string{
		"Sorry, I cannot help with that.",
		`{"recipes":[{"title":"Garlic Rice","time_minutes":15,"steps":["Cook rice"]}]}`,
	}}
	svc := NewSuggestionService(nil, gen, generativeOptions())

	_, err := svc.Suggest(context.Background(), cozyRequest())
	requireCode(t, err, common.ErrCodeGenerationFailed)
	assert.Empty(t, gen.cached)

	results, err := svc.Suggest(context.Background(), cozyRequest())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Garlic Rice", results[0].Title)
	assert.Equal(t, 2, gen.calls)
}

func TestOptionsFromConfigDefaults(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, SourceSearch, opts.Source)
	assert.Equal(t, 20, opts.FetchCount)
	assert.Equal(t, 10, opts.LookAhead)
	assert.Equal(t, 3, opts.FinalistCap)
	assert.True(t, opts.OnlyTheseSupported)
}

package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1]`, StripCodeFence("```\n[1]\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1} `))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"object in prose", `Here you go: {"a":{"b":[1,2]}} enjoy`, `{"a":{"b":[1,2]}}`, true},
		{"array first", `list: [1, {"x":"]"}] done`, `[1, {"x":"]"}]`, true},
		{"escaped quote", `{"a":"say \"}\""}`, `{"a":"say \"}\""}`, true},
		{"unbalanced then balanced", `{ broken [1,2]`, `[1,2]`, true},
		{"none", `no json here`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteJSONKeys(t *testing.T) {
	assert.Equal(t, `{"title":"Soup", "steps":["Boil"]}`, QuoteJSONKeys(`{title:"Soup", steps:["Boil"]}`))
	assert.Equal(t, `{"a":1}`, QuoteJSONKeys(`{"a":1}`))
}

func TestParseJSON(t *testing.T) {
	var v map[string]int
	require.NoError(t, ParseJSON(`{"a":1}`, &v))
	assert.Equal(t, 1, v["a"])

	assert.Error(t, ParseJSON(`{"a":1} {"b":2}`, &v))
	assert.Error(t, ParseJSON(``, &v))

	var s struct {
		A int `json:"a"`
	}
	require.NoError(t, ParseJSONBytes([]byte(`{"a":1,"b":2}`), &s))
	assert.Equal(t, 1, s.A)

	out, err := ToJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestCustomError(t *testing.T) {
	wrapped := ErrNoRecipes.Wrap(errors.New("empty list"))
	assert.ErrorIs(t, wrapped, ErrNoRecipes)
	assert.NotErrorIs(t, wrapped, ErrNoMatch)
	assert.Nil(t, ErrNoRecipes.Err, "wrap must not mutate the shared error")

	hinted := ErrNoMatch.WithHint("try again")
	assert.Empty(t, ErrNoMatch.Hint)
	assert.Equal(t, "try again", hinted.Response("rid").Hint)

	chained := fmt.Errorf("outer: %w", hinted)
	ce, ok := AsCustomError(chained)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNoMatch, ce.Code)

	resp := ErrUnauthorized.Response("rid")
	assert.True(t, resp.NeedsAuth)
	assert.Equal(t, "rid", resp.RequestID)

	assert.True(t, IsValidationError(NewValidationError("bad")))
	assert.False(t, IsValidationError(errors.New("bad")))
}

func TestUpstreamError(t *testing.T) {
	err := NewUpstreamError("spoonacular", "information", 500, "stack trace here")
	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.Equal(t, "information failed with upstream status 500", err.Message)

	ue, ok := UpstreamDetails(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, "stack trace here", ue.Body)

	_, ok = UpstreamDetails(errors.New("plain"))
	assert.False(t, ok)
}

func TestMisconfiguredError(t *testing.T) {
	err := NewMisconfiguredError("OPENROUTER_API_KEY")
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.NotContains(t, err.Message, "OPENROUTER_API_KEY")
	assert.Contains(t, err.Error(), "OPENROUTER_API_KEY")
}

func TestRequestIDContext(t *testing.T) {
	assert.Empty(t, RequestIDFrom(context.Background()))
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestIDFrom(ctx))
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(c, errors.New("db password leaked"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.True(t, c.IsAborted())
}

type bindTarget struct {
	Mood    string `json:"mood" binding:"required"`
	Minutes int    `json:"minutes" binding:"min=1,max=240"`
	Diet    string `json:"diet" binding:"omitempty,oneof=vegan vegetarian"`
}

func bind(body string) error {
	gin.SetMode(gin.TestMode)
	UseJSONFieldNames()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var v bindTarget
	return c.ShouldBindJSON(&v)
}

func TestBindingError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"required", `{"minutes":10}`, "mood is required"},
		{"min", `{"mood":"ok","minutes":0}`, "minutes must be at least 1"},
		{"max", `{"mood":"ok","minutes":500}`, "minutes must be at most 240"},
		{"oneof", `{"mood":"ok","minutes":5,"diet":"paleo"}`, "diet must be one of [vegan vegetarian]"},
		{"multiple", `{"minutes":0}`, "mood is required; minutes must be at least 1"},
		{"type", `{"mood":"ok","minutes":"five"}`, "minutes must be a int"},
		{"syntax", `{"mood":`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := BindingError(bind(tt.body))
			assert.Equal(t, ErrCodeInvalidRequest, err.Code)
			assert.Equal(t, tt.want, err.Message)
		})
	}
}

func TestBindingErrorEmptyBody(t *testing.T) {
	assert.Equal(t, "request body is required", BindingError(io.EOF).Message)
}

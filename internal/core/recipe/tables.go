package recipe

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// dietRule 飲食標籤規則
type dietRule struct {
	Tag        DietTag  `yaml:"tag"`
	Keywords   []string `yaml:"keywords"`
	Flag       string   `yaml:"flag"`
	Annotation string   `yaml:"annotation"`
}

// intoleranceRule 過敏原規則，pattern 為空時只做標記不做過濾
type intoleranceRule struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
	Pattern  string   `yaml:"pattern"`

	re *regexp.Regexp
}

// lookupTables 啟動時載入一次，之後唯讀
type lookupTables struct {
	PantryStaples []string          `yaml:"pantry_staples"`
	Diets         []dietRule        `yaml:"diets"`
	Intolerances  []intoleranceRule `yaml:"intolerances"`

	staples map[string]struct{}
	byTag   map[string]*intoleranceRule
}

var tables = mustLoadTables(tablesYAML)

func loadTables(data []byte) (*lookupTables, error) {
	var t lookupTables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse lookup tables: %w", err)
	}

	t.staples = make(map[string]struct{}, len(t.PantryStaples))
	for i, s := range t.PantryStaples {
		s = strings.ToLower(strings.TrimSpace(s))
		t.PantryStaples[i] = s
		t.staples[s] = struct{}{}
	}

	t.byTag = make(map[string]*intoleranceRule, len(t.Intolerances))
	for i := range t.Intolerances {
		rule := &t.Intolerances[i]
		if rule.Pattern != "" {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("intolerance %q: %w", rule.Tag, err)
			}
			rule.re = re
		}
		t.byTag[rule.Tag] = rule
	}

	return &t, nil
}

func mustLoadTables(data []byte) *lookupTables {
	t, err := loadTables(data)
	if err != nil {
		panic(err)
	}
	return t
}

// PantryStaples 回傳主食清單的副本
func PantryStaples() []string {
	return append([]string(nil), tables.PantryStaples...)
}

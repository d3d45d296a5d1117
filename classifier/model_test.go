package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

const tinyModel = `{
  "version": 1,
  "labels": ["Politics", "Sport"],
  "min_token_len": 2,
  "idf": {"vote": 1.5, "goal": 1.5, "team": 1.2},
  "weights": {
    "Politics": {"vote": 2.0},
    "Sport": {"goal": 2.0, "team": 1.0}
  },
  "bias": {"Politics": 0.0, "Sport": 0.0}
}`

func TestPredict(t *testing.T) {
	m, err := Parse([]byte(tinyModel))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "politics", text: "Parliament VOTE today", want: "Politics"},
		{name: "sport", text: "Team scores a late goal!", want: "Sport"},
		{name: "unknown words tie to first label", text: "weather forecast", want: "Politics"},
		{name: "short tokens dropped", text: "a b goal", want: "Sport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(tt.text)
			if err != nil {
				t.Fatalf("predict: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Predict(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestPredictEmptyText(t *testing.T) {
	m, err := Parse([]byte(tinyModel))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, text := range []string{"", "   ", "!!! ?", "a"} {
		if _, err := m.Predict(text); !errors.Is(err, ErrEmptyText) {
			t.Fatalf("Predict(%q) err = %v, want ErrEmptyText", text, err)
		}
	}
}

func TestParseRejectsInvalidModels(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `labels: [a]`},
		{name: "no labels", data: `{"labels": [], "idf": {"a": 1}}`},
		{name: "empty vocabulary", data: `{"labels": ["A"], "idf": {}}`},
		{name: "duplicate label", data: `{"labels": ["A", "A"], "idf": {"a": 1}}`},
		{name: "weights for unknown label", data: `{"labels": ["A"], "idf": {"a": 1}, "weights": {"B": {"a": 1}}}`},
		{name: "bias for unknown label", data: `{"labels": ["A"], "idf": {"a": 1}, "bias": {"B": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); !errors.Is(err, ErrInvalidModel) {
				t.Fatalf("err = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("missing file err = %v, want ErrModelNotFound", err)
	}

	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, []byte(tinyModel), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(m.Labels(), []string{"Politics", "Sport"}) {
		t.Fatalf("labels = %v", m.Labels())
	}
}

func TestShippedModel(t *testing.T) {
	m, err := Load(filepath.Join("..", "model", "nlp_model.json"))
	if err != nil {
		t.Fatalf("load shipped model: %v", err)
	}
	if !slices.Equal(m.Labels(), []string{"Politics", "Rights", "Education", "Sport"}) {
		t.Fatalf("labels = %v", m.Labels())
	}

	tests := map[string]string{
		"Վարչապետը և կառավարություն":       "Politics",
		"Դատարան որոշում կայացրեց":          "Rights",
		"Students return to the university": "Education",
		"Ֆուտբոլ. հավաքական խաղ":            "Sport",
	}
	for text, want := range tests {
		got, err := m.Predict(text)
		if err != nil {
			t.Fatalf("predict %q: %v", text, err)
		}
		if got != want {
			t.Fatalf("Predict(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  Team-WINS, 2:1 in Գյումրի!  ", 2)
	want := []string{"team", "wins", "in", "գյումրի"}
	if !slices.Equal(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

type countingPredictor struct {
	calls int
}

func (c *countingPredictor) Predict(text string) (string, error) {
	c.calls++
	if text == "" {
		return "", ErrEmptyText
	}
	return "Sport", nil
}

func (c *countingPredictor) Labels() []string {
	return []string{"Sport"}
}

func TestCachedPredictor(t *testing.T) {
	inner := &countingPredictor{}
	p, err := NewCachedPredictor(inner, 8)
	if err != nil {
		t.Fatalf("new cached predictor: %v", err)
	}

	for _, text := range []string{"Goal", "goal ", "GOAL"} {
		label, err := p.Predict(text)
		if err != nil || label != "Sport" {
			t.Fatalf("Predict(%q) = %q, %v", text, label, err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}

	if _, err := p.Predict(""); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("empty err = %v", err)
	}
	if _, err := p.Predict(""); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("empty err = %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("errors must not be cached; inner calls = %d", inner.calls)
	}

	unwrapped, err := NewCachedPredictor(inner, 0)
	if err != nil {
		t.Fatalf("zero size: %v", err)
	}
	if unwrapped != Predictor(inner) {
		t.Fatalf("zero size should return the predictor unchanged")
	}
}

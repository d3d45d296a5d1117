// Package classifier loads the news category model and predicts labels for free text.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"slices"
)

var (
	// ErrModelNotFound is returned when the artifact file does not exist.
	ErrModelNotFound = errors.New("classifier: model not found")
	// ErrInvalidModel is returned for unparsable or inconsistent artifacts.
	ErrInvalidModel = errors.New("classifier: invalid model")
	// ErrEmptyText is returned when the input has no content.
	ErrEmptyText = errors.New("classifier: empty text")
)

// Predictor maps a piece of text to one of a fixed set of labels.
type Predictor interface {
	Predict(text string) (string, error)
	Labels() []string
}

// artifact is the on-disk representation of a linear TF-IDF model.
type artifact struct {
	Version     int                           `json:"version"`
	Labels      []string                      `json:"labels"`
	IDF         map[string]float64            `json:"idf"`
	Weights     map[string]map[string]float64 `json:"weights"`
	Bias        map[string]float64            `json:"bias"`
	MinTokenLen int                           `json:"min_token_len"`
}

// Model is a loaded linear classifier over TF-IDF features. It is read-only
// after Load and safe for concurrent use.
type Model struct {
	labels      []string
	idf         map[string]float64
	weights     []map[string]float64 // indexed like labels
	bias        []float64
	minTokenLen int
}

// Load reads the artifact at path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return Parse(data)
}

// Parse builds a model from artifact bytes.
func Parse(data []byte) (*Model, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if len(a.Labels) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrInvalidModel)
	}
	if len(a.IDF) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidModel)
	}

	index := make(map[string]int, len(a.Labels))
	for i, label := range a.Labels {
		if label == "" {
			return nil, fmt.Errorf("%w: blank label", ErrInvalidModel)
		}
		if _, dup := index[label]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidModel, label)
		}
		index[label] = i
	}
	for label := range a.Weights {
		if _, ok := index[label]; !ok {
			return nil, fmt.Errorf("%w: weights for unknown label %q", ErrInvalidModel, label)
		}
	}
	for label := range a.Bias {
		if _, ok := index[label]; !ok {
			return nil, fmt.Errorf("%w: bias for unknown label %q", ErrInvalidModel, label)
		}
	}

	m := &Model{
		labels:      slices.Clone(a.Labels),
		idf:         a.IDF,
		weights:     make([]map[string]float64, len(a.Labels)),
		bias:        make([]float64, len(a.Labels)),
		minTokenLen: a.MinTokenLen,
	}
	for i, label := range a.Labels {
		m.weights[i] = a.Weights[label]
		m.bias[i] = a.Bias[label]
	}
	if m.minTokenLen <= 0 {
		m.minTokenLen = 1
	}
	return m, nil
}

// Labels returns the model's labels in artifact order.
func (m *Model) Labels() []string {
	return slices.Clone(m.labels)
}

// Predict returns the highest-scoring label for text. Ties go to the label listed first.
func (m *Model) Predict(text string) (string, error) {
	tokens := Tokenize(text, m.minTokenLen)
	if len(tokens) == 0 {
		return "", ErrEmptyText
	}

	features := m.vectorize(tokens)
	best, bestScore := 0, math.Inf(-1)
	for i := range m.labels {
		score := m.bias[i]
		for term, x := range features {
			score += m.weights[i][term] * x
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return m.labels[best], nil
}

// vectorize builds an L2-normalised TF-IDF vector over known terms.
func (m *Model) vectorize(tokens []string) map[string]float64 {
	features := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		if _, ok := m.idf[tok]; ok {
			features[tok]++
		}
	}

	var norm float64
	for term, tf := range features {
		v := tf * m.idf[term]
		features[term] = v
		norm += v * v
	}
	if norm == 0 {
		return features
	}
	norm = math.Sqrt(norm)
	for term := range features {
		features[term] /= norm
	}
	return features
}

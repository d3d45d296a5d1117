// Package bot answers chat messages with category predictions.
package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aluiziolira/go-news-classify/classifier"
)

// Message kinds used for logging and metrics.
const (
	KindHelp         = "help"
	KindPrediction   = "prediction"
	KindUnclassified = "unclassified"
	KindIgnored      = "ignored"
)

const unclassifiedReply = "I could not find any words to classify in that message."

// Dispatcher maps an incoming chat message to a reply.
type Dispatcher struct {
	predictor classifier.Predictor
	metrics   *Metrics
	logger    *slog.Logger
}

// NewDispatcher builds a dispatcher over p. metrics and logger may be nil.
func NewDispatcher(p classifier.Predictor, metrics *Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{predictor: p, metrics: metrics, logger: logger}
}

// Handle returns the reply for text and whether one should be sent.
// /help and /start answer with usage, other commands get no reply and
// any other text is classified.
func (d *Dispatcher) Handle(text string) (string, bool) {
	if cmd, ok := ParseCommand(text); ok {
		switch cmd {
		case "help", "start":
			d.metrics.IncMessage(KindHelp)
			return d.HelpText(), true
		default:
			d.metrics.IncMessage(KindIgnored)
			d.logger.Debug("ignoring command", slog.String("command", cmd))
			return "", false
		}
	}
	if strings.TrimSpace(text) == "" {
		d.metrics.IncMessage(KindIgnored)
		return "", false
	}

	label, err := d.predictor.Predict(text)
	if errors.Is(err, classifier.ErrEmptyText) {
		d.metrics.IncMessage(KindUnclassified)
		return unclassifiedReply, true
	}
	if err != nil {
		d.metrics.IncMessage(KindUnclassified)
		d.logger.Error("prediction failed", slog.Any("error", err))
		return unclassifiedReply, true
	}

	d.metrics.IncMessage(KindPrediction)
	d.metrics.IncPrediction(label)
	return fmt.Sprintf("📰 Predicted Category: %s", label), true
}

// HelpText lists the labels the model can predict.
func (d *Dispatcher) HelpText() string {
	var b strings.Builder
	b.WriteString("Send me a news message and I will predict its category:")
	for _, label := range d.predictor.Labels() {
		b.WriteString("\n• ")
		b.WriteString(label)
	}
	return b.String()
}

// ParseCommand reports whether text is a bot command and returns its name
// without the leading slash or an @botname suffix.
func ParseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", false
	}
	name, _, _ := strings.Cut(fields[0], "@")
	if name == "" {
		return "", false
	}
	return name, true
}

// File: services/intelligence/interface.go
package intelligence

import (
	"context"

	"dentaflow/models"
)

// Classifier turns one message into intents and extracted entities. The AI
// collaborator behind it is treated as unreliable: output is validated and a
// deterministic fallback covers outages.
type Classifier interface {
	Classify(ctx context.Context, message string, history []models.Message) (models.ClassifierOutput, error)
}

// Generator produces an open-ended conversational reply. Used by the router
// only when no transition rule claims the turn.
type Generator interface {
	Generate(ctx context.Context, message string, history []models.Message) (string, error)
}

// ResilientClassifier wraps an AI classifier with the keyword fallback, so
// callers always receive a usable (possibly empty) intent set and never an
// error.
type ResilientClassifier struct {
	AI Classifier // nil means keyword-only mode
}

// Classify sanitizes the AI output and falls back to keyword matching when
// the collaborator fails or produces nothing from the closed enumeration.
func (r *ResilientClassifier) Classify(ctx context.Context, message string, history []models.Message) models.ClassifierOutput {
	if r.AI != nil {
		out, err := r.AI.Classify(ctx, message, history)
		if err == nil {
			out.Intents = sanitizeIntents(out.Intents)
			if len(out.Intents) > 0 {
				return out
			}
			// Keep any entities the model extracted even when it found no
			// intent; the keyword pass may still find one.
			kw := KeywordClassify(message)
			out.Intents = sanitizeIntents(kw.Intents)
			return out
		}
	}
	out := KeywordClassify(message)
	out.Intents = sanitizeIntents(out.Intents)
	return out
}

// File: services/intelligence/fallback.go
package intelligence

import (
	"strings"

	"dentaflow/models"
)

// keywordRules map message phrases to intents, checked in order. The fallback
// classifier runs when the AI collaborator is unavailable or returns garbage;
// it fails closed to an empty intent list and never errors.
var keywordRules = []struct {
	phrases []string
	intent  models.Intent
}{
	{[]string{"reschedule", "move my appointment", "change my appointment", "different time", "another time"}, models.IntentReschedule},
	{[]string{"cancel", "call off", "can't make it", "cannot make it"}, models.IntentCancel},
	{[]string{"how much", "price", "cost", "fee", "pricing"}, models.IntentPriceInquiry},
	{[]string{"when is my", "do i have an appointment", "my appointment time", "what time is my"}, models.IntentAppointmentInquiry},
	{[]string{"book", "appointment", "schedule", "see the dentist", "come in"}, models.IntentBooking},
}

var positiveWords = []string{
	"yes", "y", "ok", "okay", "confirm", "confirmed", "sure", "yep", "yup",
	"sounds good", "that works", "go ahead", "perfect", "correct",
}

var negativeWords = []string{
	"no", "n", "nope", "nah", "don't", "do not", "cancel that",
	"nevermind", "never mind", "forget it", "not that",
}

// KeywordClassify is the deterministic fallback for the AI classifier. It
// produces intents from the same closed enumeration and extracts nothing else.
func KeywordClassify(text string) models.ClassifierOutput {
	lower := strings.ToLower(text)

	var intents []models.Intent
	for _, rule := range keywordRules {
		for _, p := range rule.phrases {
			if strings.Contains(lower, p) {
				intents = append(intents, rule.intent)
				break
			}
		}
	}

	trimmed := strings.TrimSpace(lower)
	if matchesWordList(trimmed, positiveWords) {
		intents = append(intents, models.IntentConfirm)
	} else if matchesWordList(trimmed, negativeWords) {
		intents = append(intents, models.IntentDecline)
	}

	return models.ClassifierOutput{Intents: intents}
}

// matchesWordList reports whether the message is one of the listed words or
// starts with one followed by a space ("yes please"). Substring matching is
// deliberately avoided: "no" must not fire inside "now".
func matchesWordList(trimmed string, words []string) bool {
	for _, w := range words {
		if trimmed == w || strings.HasPrefix(trimmed, w+" ") || strings.HasPrefix(trimmed, w+",") {
			return true
		}
	}
	return false
}

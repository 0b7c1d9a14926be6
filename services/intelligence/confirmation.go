// File: services/intelligence/confirmation.go
package intelligence

import "strings"

// ConfirmationContext tells the detector what question is actually pending,
// so "yes" is interpreted relative to what was asked rather than globally.
type ConfirmationContext struct {
	SlotPending   bool // a slot offer awaits a yes/no
	CancelPending bool // a cancellation awaits a yes/no
}

// ConfirmationResult is the outcome of the binary confirm/decline classifier.
type ConfirmationResult struct {
	IsConfirmation bool
	IsDecline      bool
}

// DetectConfirmationOrDecline classifies a message as a yes, a no, or neither.
// It is only meaningful in states where a yes/no answer is expected; with no
// question pending it reports neither, whatever the text says.
func DetectConfirmationOrDecline(text string, ctx ConfirmationContext) ConfirmationResult {
	if !ctx.SlotPending && !ctx.CancelPending {
		return ConfirmationResult{}
	}

	trimmed := strings.TrimSpace(strings.ToLower(text))
	if trimmed == "" {
		return ConfirmationResult{}
	}

	// Decline words are checked first: "no thanks, cancel it" reads as a
	// decline of the pending question, not as agreement.
	if matchesWordList(trimmed, negativeWords) {
		return ConfirmationResult{IsDecline: true}
	}
	if matchesWordList(trimmed, positiveWords) {
		return ConfirmationResult{IsConfirmation: true}
	}
	return ConfirmationResult{}
}

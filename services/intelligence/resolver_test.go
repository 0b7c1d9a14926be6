// File: services/intelligence/resolver_test.go
package intelligence

import (
	"testing"

	"dentaflow/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveIntentsCurrentReplacesCarried(t *testing.T) {
	carried := []models.Intent{models.IntentCancel}
	current := []models.Intent{models.IntentBooking}

	got := ResolveIntents(current, carried)

	// Replacement, never a union: the old CANCEL must not leak through.
	assert.Equal(t, []models.Intent{models.IntentBooking}, got)
}

func TestResolveIntentsFallsBackToCarriedWhenEmpty(t *testing.T) {
	carried := []models.Intent{models.IntentBooking}

	got := ResolveIntents(nil, carried)

	assert.Equal(t, []models.Intent{models.IntentBooking}, got)
}

func TestResolveIntentsDropsUnknownValues(t *testing.T) {
	current := []models.Intent{"MAKE_COFFEE", models.IntentBooking, "BOOK_FLIGHT"}

	got := ResolveIntents(current, nil)

	assert.Equal(t, []models.Intent{models.IntentBooking}, got)
}

func TestResolveIntentsDeduplicatesAndCaps(t *testing.T) {
	current := []models.Intent{
		models.IntentBooking, models.IntentBooking,
		models.IntentCancel, models.IntentReschedule,
		models.IntentPriceInquiry,
	}

	got := ResolveIntents(current, nil)

	assert.Len(t, got, maxIntentsPerTurn)
	assert.Equal(t, []models.Intent{models.IntentBooking, models.IntentCancel, models.IntentReschedule}, got)
}

func TestResolveIntentsBothEmpty(t *testing.T) {
	assert.Empty(t, ResolveIntents(nil, nil))
}

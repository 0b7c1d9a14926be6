package models

// Intent is the canonical classification of what the caller wants in a turn.
type Intent string

const (
	IntentBooking            Intent = "BOOKING"
	IntentCancel             Intent = "CANCEL"
	IntentReschedule         Intent = "RESCHEDULE"
	IntentPriceInquiry       Intent = "PRICE_INQUIRY"
	IntentAppointmentInquiry Intent = "APPOINTMENT_INQUIRY"
	IntentConfirm            Intent = "CONFIRM"
	IntentDecline            Intent = "DECLINE"
)

// validIntents is the closed enumeration; anything else coming back from the
// classifier is dropped.
var validIntents = map[Intent]struct{}{
	IntentBooking:            {},
	IntentCancel:             {},
	IntentReschedule:         {},
	IntentPriceInquiry:       {},
	IntentAppointmentInquiry: {},
	IntentConfirm:            {},
	IntentDecline:            {},
}

// IsValid reports whether i belongs to the closed intent enumeration.
func (i Intent) IsValid() bool {
	_, ok := validIntents[i]
	return ok
}

// HasIntent reports whether target is present in intents.
func HasIntent(intents []Intent, target Intent) bool {
	for _, it := range intents {
		if it == target {
			return true
		}
	}
	return false
}

package models

import "time"

// ConfirmationStatus tracks whether a selected slot awaits confirmation.
type ConfirmationStatus string

const (
	ConfirmationNone      ConfirmationStatus = "none"
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
)

// Message is one turn of conversation history kept on the session.
type Message struct {
	Role string    `json:"role"` // "patient" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session holds per-conversation state across turns, keyed by phone number.
//
// Invariants maintained by the action router:
//   - ConfirmationStatus == confirmed implies SelectedSlot == nil and EventID != "".
//   - ConfirmationStatus == pending implies SelectedSlot != nil.
//   - Intents holds only the intents resolved for the current turn; it is
//     replaced wholesale each turn, never accumulated.
type Session struct {
	ID                     string             `json:"id"`
	PatientName            string             `json:"patientName,omitempty"`
	Phone                  string             `json:"phone"`
	TreatmentType          string             `json:"treatmentType,omitempty"`
	DentistName            string             `json:"dentistName,omitempty"`
	SelectedSlot           *Slot              `json:"selectedSlot,omitempty"`
	ConfirmationStatus     ConfirmationStatus `json:"confirmationStatus"`
	EventID                string             `json:"eventId,omitempty"`
	ExistingBooking        *Booking           `json:"existingBooking,omitempty"`
	CancelPending          bool               `json:"cancelPending,omitempty"`
	CancelledSlotToExclude *Slot              `json:"cancelledSlotToExclude,omitempty"`
	Intents                []Intent           `json:"intents,omitempty"`
	History                []Message          `json:"history,omitempty"`
	LastActivityAt         time.Time          `json:"lastActivityAt"`
}

// NewSession returns a fresh, all-defaults session for a conversation.
func NewSession(id, phone string, now time.Time) *Session {
	return &Session{
		ID:                 id,
		Phone:              phone,
		ConfirmationStatus: ConfirmationNone,
		LastActivityAt:     now,
	}
}

// ConversationState is the action-router state, derived from session fields
// rather than stored redundantly.
type ConversationState string

const (
	StateIdle                   ConversationState = "IDLE"
	StateAwaitingBookingConfirm ConversationState = "AWAITING_BOOKING_CONFIRMATION"
	StateBooked                 ConversationState = "BOOKED"
	StateAwaitingCancelConfirm  ConversationState = "AWAITING_CANCEL_CONFIRMATION"
)

// State derives the conversation state from the session fields.
func (s *Session) State() ConversationState {
	switch {
	case s.CancelPending:
		return StateAwaitingCancelConfirm
	case s.SelectedSlot != nil && s.ConfirmationStatus == ConfirmationPending:
		return StateAwaitingBookingConfirm
	case s.ConfirmationStatus == ConfirmationConfirmed && s.EventID != "":
		return StateBooked
	default:
		return StateIdle
	}
}

// AppendHistory records a turn, keeping the tail of the conversation bounded.
func (s *Session) AppendHistory(role, text string, at time.Time) {
	const maxHistory = 40
	s.History = append(s.History, Message{Role: role, Text: text, At: at})
	if len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
}

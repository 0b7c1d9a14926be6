package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionStateDerivation(t *testing.T) {
	now := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)
	slot := &Slot{Resource: "dr-lee", Start: now.Add(24 * time.Hour), End: now.Add(24*time.Hour + 30*time.Minute)}

	tests := []struct {
		name string
		mut  func(*Session)
		want ConversationState
	}{
		{"fresh session", func(s *Session) {}, StateIdle},
		{"pending slot offer", func(s *Session) {
			s.SelectedSlot = slot
			s.ConfirmationStatus = ConfirmationPending
		}, StateAwaitingBookingConfirm},
		{"committed booking", func(s *Session) {
			s.ConfirmationStatus = ConfirmationConfirmed
			s.EventID = "evt-1"
		}, StateBooked},
		{"confirmed without an event is not booked", func(s *Session) {
			s.ConfirmationStatus = ConfirmationConfirmed
		}, StateIdle},
		{"cancel awaiting confirmation", func(s *Session) {
			s.ConfirmationStatus = ConfirmationConfirmed
			s.EventID = "evt-1"
			s.CancelPending = true
		}, StateAwaitingCancelConfirm},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sess := NewSession("conv-1", "+15550001111", now)
			tc.mut(sess)
			assert.Equal(t, tc.want, sess.State())
		})
	}
}

func TestAppendHistoryKeepsTailBounded(t *testing.T) {
	now := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)
	sess := NewSession("conv-1", "+15550001111", now)

	for i := 0; i < 50; i++ {
		sess.AppendHistory("patient", "hello", now.Add(time.Duration(i)*time.Minute))
	}

	assert.Len(t, sess.History, 40)
	assert.Equal(t, now.Add(49*time.Minute), sess.History[len(sess.History)-1].At)
}

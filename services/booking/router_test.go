// File: services/booking/router_test.go
package booking

import (
	"context"
	"testing"
	"time"

	"dentaflow/config"
	"dentaflow/models"
	"dentaflow/services/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(cal *fakeCalendar) *ActionRouter {
	config.AppConfig.Dentists = map[string]string{"dr-lee": "Dr. Lee", "dr-patel": "Dr. Patel"}
	config.AppConfig.TreatmentDurations = map[string]int{"cleaning": 30}
	config.AppConfig.DefaultTreatmentMinutes = 30
	config.AppConfig.PricingText = "Cleaning: $80. Whitening: $220."
	config.AppConfig.CancelRequiresConfirm = true

	return &ActionRouter{
		Engine:                testEngine(cal),
		Tx:                    &Transactor{Provider: cal, Audit: audit.Nop{}, RetryAttempts: 1},
		Pricing:               NewPricingSource(nil),
		CancelRequiresConfirm: true,
	}
}

func newTestSession(intents ...models.Intent) *models.Session {
	sess := models.NewSession("conv-1", "+15550001111", searchNow)
	sess.PatientName = "Ana"
	sess.TreatmentType = "cleaning"
	sess.Intents = intents
	return sess
}

func TestRouteBookingOfferAndConfirm(t *testing.T) {
	cal := &fakeCalendar{}
	router := newTestRouter(cal)
	sess := newTestSession(models.IntentBooking)

	reply := router.Route(context.Background(), sess, "I'd like to book a cleaning", searchNow)
	assert.Contains(t, reply, "Shall I book it?")
	require.NotNil(t, sess.SelectedSlot)
	assert.Equal(t, models.StateAwaitingBookingConfirm, sess.State())

	sess.Intents = []models.Intent{models.IntentConfirm}
	reply = router.Route(context.Background(), sess, "yes please", searchNow)
	assert.Contains(t, reply, "Booked")

	// confirmed implies no pending slot and a committed event id.
	assert.Equal(t, models.ConfirmationConfirmed, sess.ConfirmationStatus)
	assert.Nil(t, sess.SelectedSlot)
	assert.NotEmpty(t, sess.EventID)
	assert.Equal(t, models.StateBooked, sess.State())
	require.Len(t, cal.created, 1)
	assert.Equal(t, "Ana", cal.created[0].PatientName)
}

func TestRouteBookThenCancelThenYesCancels(t *testing.T) {
	cal := &fakeCalendar{}
	router := newTestRouter(cal)
	sess := newTestSession(models.IntentBooking)

	router.Route(context.Background(), sess, "book me a cleaning", searchNow)
	sess.Intents = []models.Intent{models.IntentConfirm}
	router.Route(context.Background(), sess, "yes", searchNow)
	require.Equal(t, models.StateBooked, sess.State())

	cal.byPhone = &models.Booking{
		PatientPhone:    sess.Phone,
		Resource:        "dr-lee",
		Treatment:       "cleaning",
		Start:           searchNow.Add(25 * time.Hour),
		End:             searchNow.Add(25*time.Hour + 30*time.Minute),
		ExternalEventID: sess.EventID,
	}

	sess.Intents = []models.Intent{models.IntentCancel}
	reply := router.Route(context.Background(), sess, "I want to cancel", searchNow)
	assert.Contains(t, reply, "cancel")
	assert.Equal(t, models.StateAwaitingCancelConfirm, sess.State())

	// The post-booking "yes" must confirm the cancellation, never read as a
	// booking acknowledgement.
	sess.Intents = []models.Intent{models.IntentConfirm}
	reply = router.Route(context.Background(), sess, "yes", searchNow)
	assert.Contains(t, reply, "cancelled")
	assert.NotContains(t, reply, "all set")

	assert.Equal(t, models.StateIdle, sess.State())
	assert.Empty(t, sess.EventID)
	assert.Contains(t, cal.deleted, cal.byPhone.ExternalEventID)
}

func TestRouteCancelDeclinedKeepsBooking(t *testing.T) {
	cal := &fakeCalendar{byPhone: &models.Booking{
		PatientPhone: "+15550001111", Resource: "dr-lee",
		Start:           searchNow.Add(24 * time.Hour),
		End:             searchNow.Add(24*time.Hour + 30*time.Minute),
		ExternalEventID: "evt-keep",
	}}
	router := newTestRouter(cal)
	sess := newTestSession(models.IntentCancel)
	sess.EventID = "evt-keep"
	sess.ConfirmationStatus = models.ConfirmationConfirmed

	router.Route(context.Background(), sess, "cancel my appointment", searchNow)
	require.Equal(t, models.StateAwaitingCancelConfirm, sess.State())

	sess.Intents = []models.Intent{models.IntentDecline}
	reply := router.Route(context.Background(), sess, "no", searchNow)
	assert.Contains(t, reply, "remains scheduled")

	assert.Equal(t, "evt-keep", sess.EventID)
	assert.Equal(t, models.StateBooked, sess.State())
	assert.Empty(t, cal.deleted)
}

func TestRouteCancelWithoutBooking(t *testing.T) {
	router := newTestRouter(&fakeCalendar{})
	sess := newTestSession(models.IntentCancel)

	reply := router.Route(context.Background(), sess, "cancel my appointment", searchNow)
	assert.Contains(t, reply, "nothing to cancel")
	assert.Equal(t, models.StateIdle, sess.State())
}

func TestRouteImmediateCancelPolicy(t *testing.T) {
	cal := &fakeCalendar{byPhone: &models.Booking{
		PatientPhone: "+15550001111", Resource: "dr-lee",
		Start:           searchNow.Add(24 * time.Hour),
		End:             searchNow.Add(24*time.Hour + 30*time.Minute),
		ExternalEventID: "evt-now",
	}}
	router := newTestRouter(cal)
	router.CancelRequiresConfirm = false
	sess := newTestSession(models.IntentCancel)

	reply := router.Route(context.Background(), sess, "cancel my appointment", searchNow)
	assert.Contains(t, reply, "cancelled")
	assert.Contains(t, cal.deleted, "evt-now")
	assert.Equal(t, models.StateIdle, sess.State())
}

func TestRouteReschedulePreservesDentist(t *testing.T) {
	old := &models.Booking{
		PatientPhone: "+15550001111", Resource: "dr-patel", Treatment: "cleaning",
		Start:           day(2025, 7, 16).Add(10 * time.Hour),
		End:             day(2025, 7, 16).Add(10*time.Hour + 30*time.Minute),
		ExternalEventID: "evt-old",
	}
	cal := &fakeCalendar{byPhone: old, nextID: "evt-new"}
	router := newTestRouter(cal)
	sess := newTestSession(models.IntentReschedule)

	reply := router.Route(context.Background(), sess, "can we move it to tomorrow", searchNow)
	assert.Contains(t, reply, "Dr. Patel")
	require.NotNil(t, sess.SelectedSlot)
	assert.Equal(t, "dr-patel", sess.SelectedSlot.Resource)
	require.NotNil(t, sess.CancelledSlotToExclude)

	sess.Intents = []models.Intent{models.IntentConfirm}
	reply = router.Route(context.Background(), sess, "yes", searchNow)
	assert.Contains(t, reply, "Booked")

	// New event committed before the old one was removed.
	require.Len(t, cal.created, 1)
	assert.Equal(t, "dr-patel", cal.created[0].Resource)
	assert.Contains(t, cal.deleted, "evt-old")
	assert.Equal(t, "evt-new", sess.EventID)
	assert.Nil(t, sess.CancelledSlotToExclude)
}

func TestRouteConflictAtCommitReturnsToSearch(t *testing.T) {
	cal := &fakeCalendar{}
	router := newTestRouter(cal)
	sess := newTestSession(models.IntentBooking)

	router.Route(context.Background(), sess, "book a cleaning today", searchNow)
	require.NotNil(t, sess.SelectedSlot)
	offered := *sess.SelectedSlot

	// Someone else takes the slot between offer and confirmation.
	cal.busy = []models.BusyInterval{{Start: offered.Start, End: offered.Start.Add(time.Hour)}}

	sess.Intents = []models.Intent{models.IntentConfirm}
	reply := router.Route(context.Background(), sess, "yes", searchNow)
	assert.Contains(t, reply, "just taken")
	assert.Empty(t, cal.created)
	assert.Empty(t, sess.EventID)

	// A fresh offer is on the table.
	require.NotNil(t, sess.SelectedSlot)
	assert.False(t, sess.SelectedSlot.Start.Equal(offered.Start))
	assert.Equal(t, models.StateAwaitingBookingConfirm, sess.State())
}

func TestRouteOfferedSlotIsAcceptedWhenNothingIntervenes(t *testing.T) {
	cal := &fakeCalendar{busy: []models.BusyInterval{{
		Start: day(2025, 7, 15).Add(10 * time.Hour),
		End:   day(2025, 7, 15).Add(11 * time.Hour),
	}}}
	router := newTestRouter(cal)
	sess := newTestSession(models.IntentBooking)

	router.Route(context.Background(), sess, "book a cleaning tomorrow", searchNow)
	require.NotNil(t, sess.SelectedSlot)

	sess.Intents = []models.Intent{models.IntentConfirm}
	reply := router.Route(context.Background(), sess, "yes", searchNow)
	assert.Contains(t, reply, "Booked")
	assert.Len(t, cal.created, 1)
}

func TestRouteDeclinedOfferYieldsAlternative(t *testing.T) {
	cal := &fakeCalendar{}
	router := newTestRouter(cal)
	sess := newTestSession(models.IntentBooking)

	router.Route(context.Background(), sess, "book a cleaning", searchNow)
	require.NotNil(t, sess.SelectedSlot)
	first := *sess.SelectedSlot

	sess.Intents = []models.Intent{models.IntentDecline}
	reply := router.Route(context.Background(), sess, "no, later please", searchNow)
	assert.Contains(t, reply, "Shall I book it?")
	require.NotNil(t, sess.SelectedSlot)
	assert.False(t, sess.SelectedSlot.SameWindow(first))
}

func TestRoutePriceInquiry(t *testing.T) {
	router := newTestRouter(&fakeCalendar{})
	sess := newTestSession(models.IntentPriceInquiry)

	reply := router.Route(context.Background(), sess, "how much is a cleaning", searchNow)
	assert.Contains(t, reply, "$80")
}

func TestRouteAppointmentInquiry(t *testing.T) {
	cal := &fakeCalendar{byPhone: &models.Booking{
		PatientPhone: "+15550001111", Resource: "dr-lee", Treatment: "cleaning",
		Start: day(2025, 7, 16).Add(10 * time.Hour),
		End:   day(2025, 7, 16).Add(10*time.Hour + 30*time.Minute),
	}}
	router := newTestRouter(cal)
	sess := newTestSession(models.IntentAppointmentInquiry)

	reply := router.Route(context.Background(), sess, "when is my appointment", searchNow)
	assert.Contains(t, reply, "Dr. Lee")

	cal.byPhone = nil
	reply = router.Route(context.Background(), sess, "when is my appointment", searchNow)
	assert.Contains(t, reply, "don't have an upcoming appointment")
}

func TestRouteBookingMissingDetailsAsks(t *testing.T) {
	router := newTestRouter(&fakeCalendar{})
	sess := models.NewSession("conv-2", "+15550002222", searchNow)
	sess.Intents = []models.Intent{models.IntentBooking}

	reply := router.Route(context.Background(), sess, "I want an appointment", searchNow)
	assert.Contains(t, reply, "your name")
	assert.Nil(t, sess.SelectedSlot)
}

func TestRouteFallbackWithoutGenerator(t *testing.T) {
	router := newTestRouter(&fakeCalendar{})
	sess := newTestSession()

	reply := router.Route(context.Background(), sess, "what's the weather like", searchNow)
	assert.Contains(t, reply, "book, move, or cancel")
}

// File: services/booking/transaction.go
package booking

import (
	"context"
	"fmt"
	"time"

	"dentaflow/config"
	"dentaflow/models"
	"dentaflow/services/audit"
	"dentaflow/services/calendar"
	"dentaflow/utils"

	"go.uber.org/zap"
)

// ReminderScheduler enqueues an appointment reminder ahead of the start time.
// Scheduling is best-effort; a failure never blocks a committed booking.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, booking models.Booking) error
}

// Transactor commits scheduling decisions against the calendar. Every commit
// re-validates against fresh calendar state first; session state alone is
// never trusted for a mutation.
type Transactor struct {
	Provider      calendar.Provider
	Audit         audit.Recorder
	Reminders     ReminderScheduler // nil disables reminders
	RetryAttempts int
}

func NewTransactor(provider calendar.Provider, recorder audit.Recorder, reminders ReminderScheduler) *Transactor {
	return &Transactor{
		Provider:      provider,
		Audit:         recorder,
		Reminders:     reminders,
		RetryAttempts: config.AppConfig.CollaboratorRetryAttempts,
	}
}

// treatmentMinutes resolves the appointment length for a treatment type.
func treatmentMinutes(treatment string) int {
	if mins, ok := config.AppConfig.TreatmentDurations[treatment]; ok && mins > 0 {
		return mins
	}
	if config.AppConfig.DefaultTreatmentMinutes > 0 {
		return config.AppConfig.DefaultTreatmentMinutes
	}
	return 30
}

// CommitBooking turns the session's confirmed slot selection into a calendar
// event. The slot's availability is re-checked against the live calendar
// immediately before the write; a slot taken since the offer is a conflict,
// not a silent double-booking.
func (t *Transactor) CommitBooking(ctx context.Context, sess *models.Session, now time.Time) (models.Booking, error) {
	logger := utils.GetLogger()

	if sess.SelectedSlot == nil || sess.ConfirmationStatus != models.ConfirmationPending {
		return models.Booking{}, NewStateError("no slot selection awaiting confirmation")
	}
	slot := *sess.SelectedSlot
	if !slot.Start.After(now) {
		return models.Booking{}, NewValidationError("selected slot is already in the past")
	}

	duration := time.Duration(treatmentMinutes(sess.TreatmentType)) * time.Minute
	end := slot.Start.Add(duration)

	// Fresh re-validation. During a reschedule the patient's own outgoing
	// event is still on the calendar and must not count as a collision.
	var busy []models.BusyInterval
	err := calendar.WithRetry(ctx, t.RetryAttempts, "busy re-check", func(ctx context.Context) error {
		var lookupErr error
		busy, lookupErr = t.Provider.BusyIntervals(ctx, slot.Resource, slot.Start, end)
		return lookupErr
	})
	if err != nil {
		logger.Error("commit: busy re-check failed", zap.String("resource", slot.Resource), zap.Error(err))
		return models.Booking{}, NewUpstreamError("calendar re-check failed")
	}
	for _, b := range busy {
		if sess.CancelledSlotToExclude != nil &&
			b.Start.Equal(sess.CancelledSlotToExclude.Start) {
			continue
		}
		if b.Start.Before(end) && b.End.After(slot.Start) {
			return models.Booking{}, NewConflictError("slot was taken while awaiting confirmation")
		}
	}

	booking := models.Booking{
		PatientPhone: sess.Phone,
		PatientName:  sess.PatientName,
		Resource:     slot.Resource,
		Treatment:    sess.TreatmentType,
		Start:        slot.Start,
		End:          end,
	}

	var eventID string
	err = calendar.WithRetry(ctx, t.RetryAttempts, "create event", func(ctx context.Context) error {
		var createErr error
		eventID, createErr = t.Provider.CreateEvent(ctx, slot.Resource, booking)
		return createErr
	})
	if err != nil {
		logger.Error("commit: event creation failed", zap.String("resource", slot.Resource), zap.Error(err))
		return models.Booking{}, NewUpstreamError("could not write the appointment to the calendar")
	}
	booking.ExternalEventID = eventID

	sess.EventID = eventID
	sess.ConfirmationStatus = models.ConfirmationConfirmed
	sess.SelectedSlot = nil
	sess.CancelPending = false

	t.Audit.Record(ctx, models.AuditRecord{
		Action: "book", Phone: sess.Phone, Resource: slot.Resource, EventID: eventID,
		Detail: fmt.Sprintf("%s at %s", sess.TreatmentType, slot.Start.Format(time.RFC3339)),
	})
	t.scheduleReminder(ctx, booking)

	logger.Info("booking committed",
		zap.String("phone", sess.Phone), zap.String("resource", slot.Resource),
		zap.String("eventID", eventID), zap.Time("start", slot.Start))
	return booking, nil
}

// LookupBooking fetches the caller's next upcoming appointment, with the
// same bounded retries as the write paths.
func (t *Transactor) LookupBooking(ctx context.Context, phone string) (*models.Booking, error) {
	var existing *models.Booking
	err := calendar.WithRetry(ctx, t.RetryAttempts, "find booking", func(ctx context.Context) error {
		var lookupErr error
		existing, lookupErr = t.Provider.FindBookingByPhone(ctx, phone)
		return lookupErr
	})
	return existing, err
}

// CancelBooking removes the patient's next upcoming appointment. The booking
// is looked up fresh by phone at execution time; whatever the session thinks
// it remembers is ignored.
func (t *Transactor) CancelBooking(ctx context.Context, sess *models.Session) (models.Booking, error) {
	logger := utils.GetLogger()

	existing, err := t.LookupBooking(ctx, sess.Phone)
	if err != nil {
		logger.Error("cancel: booking lookup failed", zap.String("phone", sess.Phone), zap.Error(err))
		return models.Booking{}, NewUpstreamError("calendar lookup failed")
	}
	if existing == nil {
		return models.Booking{}, NewNotFoundError("no upcoming appointment on file")
	}

	err = calendar.WithRetry(ctx, t.RetryAttempts, "delete event", func(ctx context.Context) error {
		return t.Provider.DeleteEvent(ctx, existing.Resource, existing.ExternalEventID)
	})
	if err != nil {
		logger.Error("cancel: event deletion failed",
			zap.String("eventID", existing.ExternalEventID), zap.Error(err))
		return models.Booking{}, NewUpstreamError("could not remove the appointment from the calendar")
	}

	sess.EventID = ""
	sess.ConfirmationStatus = models.ConfirmationNone
	sess.SelectedSlot = nil
	sess.ExistingBooking = nil
	sess.CancelPending = false

	t.Audit.Record(ctx, models.AuditRecord{
		Action: "cancel", Phone: sess.Phone, Resource: existing.Resource,
		EventID: existing.ExternalEventID,
		Detail:  "appointment at " + existing.Start.Format(time.RFC3339),
	})

	logger.Info("booking cancelled",
		zap.String("phone", sess.Phone), zap.String("eventID", existing.ExternalEventID))
	return *existing, nil
}

// CommitReschedule books the newly confirmed slot first and only then removes
// the old appointment, so a failure partway leaves the patient with at least
// one appointment rather than none.
func (t *Transactor) CommitReschedule(ctx context.Context, sess *models.Session, old models.Booking, now time.Time) (models.Booking, error) {
	logger := utils.GetLogger()

	newBooking, err := t.CommitBooking(ctx, sess, now)
	if err != nil {
		return models.Booking{}, err
	}

	err = calendar.WithRetry(ctx, t.RetryAttempts, "delete superseded event", func(ctx context.Context) error {
		return t.Provider.DeleteEvent(ctx, old.Resource, old.ExternalEventID)
	})
	if err != nil {
		// The new appointment stands; the stale one needs manual cleanup.
		logger.Error("reschedule: superseded event not removed",
			zap.String("phone", sess.Phone), zap.String("staleEventID", old.ExternalEventID), zap.Error(err))
		t.Audit.Record(ctx, models.AuditRecord{
			Action: "reschedule", Phone: sess.Phone, Resource: old.Resource,
			EventID: old.ExternalEventID, Detail: "stale event left on calendar",
		})
	} else {
		t.Audit.Record(ctx, models.AuditRecord{
			Action: "reschedule", Phone: sess.Phone, Resource: newBooking.Resource,
			EventID: newBooking.ExternalEventID,
			Detail:  "moved from " + old.Start.Format(time.RFC3339),
		})
	}

	sess.CancelledSlotToExclude = nil
	sess.ExistingBooking = nil
	return newBooking, nil
}

func (t *Transactor) scheduleReminder(ctx context.Context, booking models.Booking) {
	if t.Reminders == nil {
		return
	}
	if err := t.Reminders.ScheduleReminder(ctx, booking); err != nil {
		utils.GetLogger().Warn("reminder not scheduled",
			zap.String("phone", booking.PatientPhone), zap.Error(err))
	}
}

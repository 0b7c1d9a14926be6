// File: services/booking/router.go
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dentaflow/config"
	"dentaflow/models"
	"dentaflow/services/intelligence"
	"dentaflow/utils"

	"go.uber.org/zap"
)

// ActionRouter decides exactly one action per turn. The transition table is
// evaluated in a fixed order and the first matching guard wins; guards read
// only the derived conversation state, the resolved intents, and the yes/no
// classification, never time-of-action flags.
type ActionRouter struct {
	Engine    *AvailabilityEngine
	Tx        *Transactor
	Pricing   *PricingSource
	Generator intelligence.Generator // nil disables open-ended generation

	// CancelRequiresConfirm selects the two-phase cancellation protocol;
	// when false a CANCEL intent deletes the appointment immediately.
	CancelRequiresConfirm bool
}

func NewActionRouter(engine *AvailabilityEngine, tx *Transactor, pricing *PricingSource, gen intelligence.Generator) *ActionRouter {
	return &ActionRouter{
		Engine:                engine,
		Tx:                    tx,
		Pricing:               pricing,
		Generator:             gen,
		CancelRequiresConfirm: config.AppConfig.CancelRequiresConfirm,
	}
}

// Route runs the transition table for one turn, mutating the session in
// place and returning the reply text. Every failure path yields natural
// language; the session never claims a success the calendar did not confirm.
func (r *ActionRouter) Route(ctx context.Context, sess *models.Session, text string, now time.Time) string {
	state := sess.State()
	yesNo := intelligence.DetectConfirmationOrDecline(text, intelligence.ConfirmationContext{
		SlotPending:   state == models.StateAwaitingBookingConfirm,
		CancelPending: state == models.StateAwaitingCancelConfirm,
	})

	switch {
	// 1. Pending cancellation declined: the appointment stays.
	case state == models.StateAwaitingCancelConfirm && yesNo.IsDecline:
		sess.CancelPending = false
		return "No problem — your appointment remains scheduled."

	// 2. Pending cancellation confirmed: execute it.
	case state == models.StateAwaitingCancelConfirm && yesNo.IsConfirmation:
		return r.executeCancel(ctx, sess)

	// 3. A cancel request, whatever else the session remembers.
	case models.HasIntent(sess.Intents, models.IntentCancel):
		return r.startCancel(ctx, sess)

	// 4. A reschedule request: search for a new slot on the same dentist
	// unless another was named; the old event is removed only after the new
	// booking commits.
	case models.HasIntent(sess.Intents, models.IntentReschedule):
		return r.startReschedule(ctx, sess, text, now)

	// 5. Pending slot offer confirmed: commit.
	case state == models.StateAwaitingBookingConfirm && yesNo.IsConfirmation:
		return r.executeBooking(ctx, sess, now)

	// 6. Pending slot offer declined: drop it and offer an alternative.
	case state == models.StateAwaitingBookingConfirm && yesNo.IsDecline:
		declined := sess.SelectedSlot
		sess.SelectedSlot = nil
		sess.ConfirmationStatus = models.ConfirmationNone
		return r.offerSlots(ctx, sess, text, now, declined)

	// 7. Acknowledgement after a completed booking. Guarded by the absence
	// of CANCEL/RESCHEDULE above, so a post-booking "yes" to a cancellation
	// question can never land here.
	case state == models.StateBooked &&
		models.HasIntent(sess.Intents, models.IntentConfirm) &&
		!models.HasIntent(sess.Intents, models.IntentBooking):
		return "You're all set — your appointment is confirmed. See you then!"

	// 8. A booking request with the details we need and no offer pending.
	case models.HasIntent(sess.Intents, models.IntentBooking) &&
		sess.SelectedSlot == nil &&
		sess.PatientName != "" && sess.TreatmentType != "":
		return r.offerSlots(ctx, sess, text, now, nil)

	// 9. Inquiries: simple lookups, outside the booking state machine.
	case models.HasIntent(sess.Intents, models.IntentPriceInquiry):
		return r.Pricing.PricingDocument(ctx)
	case models.HasIntent(sess.Intents, models.IntentAppointmentInquiry):
		return r.answerAppointmentInquiry(ctx, sess)

	// 10. Nothing claimed the turn: open-ended reply.
	default:
		return r.openEnded(ctx, sess, text)
	}
}

func (r *ActionRouter) startCancel(ctx context.Context, sess *models.Session) string {
	existing, err := r.Tx.LookupBooking(ctx, sess.Phone)
	if err != nil {
		utils.GetLogger().Error("cancel lookup failed", zap.String("phone", sess.Phone), zap.Error(err))
		return apologyReply
	}
	if existing == nil {
		return "I couldn't find an upcoming appointment under your number, so there's nothing to cancel."
	}

	if !r.CancelRequiresConfirm {
		sess.ExistingBooking = existing
		return r.executeCancel(ctx, sess)
	}

	sess.ExistingBooking = existing
	sess.CancelPending = true
	return fmt.Sprintf("You have %s on %s. Do you want me to cancel it?",
		describeBooking(*existing), formatWhen(existing.Start))
}

func (r *ActionRouter) executeCancel(ctx context.Context, sess *models.Session) string {
	cancelled, err := r.Tx.CancelBooking(ctx, sess)
	switch ErrorCode(err) {
	case "":
		return fmt.Sprintf("Done — your appointment on %s has been cancelled.", formatWhen(cancelled.Start))
	case CodeNotFound:
		sess.CancelPending = false
		return "It looks like that appointment is no longer on the calendar, so there's nothing to cancel."
	default:
		// Cancel stays pending; the patient can simply say yes again.
		return apologyReply
	}
}

func (r *ActionRouter) startReschedule(ctx context.Context, sess *models.Session, text string, now time.Time) string {
	existing, err := r.Tx.LookupBooking(ctx, sess.Phone)
	if err != nil {
		utils.GetLogger().Error("reschedule lookup failed", zap.String("phone", sess.Phone), zap.Error(err))
		return apologyReply
	}
	if existing == nil {
		return "I couldn't find an upcoming appointment to move. Would you like to book a new one?"
	}

	sess.ExistingBooking = existing
	old := existing.Slot()
	sess.CancelledSlotToExclude = &old
	sess.SelectedSlot = nil
	sess.ConfirmationStatus = models.ConfirmationNone
	// Keep the original dentist unless the patient named another one.
	if sess.DentistName == "" || resourceForDentist(sess.DentistName) == existing.Resource {
		sess.DentistName = config.AppConfig.Dentists[existing.Resource]
	}
	if sess.TreatmentType == "" {
		sess.TreatmentType = existing.Treatment
	}

	return r.offerSlots(ctx, sess, text, now, nil)
}

func (r *ActionRouter) executeBooking(ctx context.Context, sess *models.Session, now time.Time) string {
	var (
		booked models.Booking
		err    error
	)
	if sess.CancelledSlotToExclude != nil && sess.ExistingBooking != nil {
		booked, err = r.Tx.CommitReschedule(ctx, sess, *sess.ExistingBooking, now)
	} else {
		booked, err = r.Tx.CommitBooking(ctx, sess, now)
	}

	switch ErrorCode(err) {
	case "":
		return fmt.Sprintf("Booked! %s on %s. We'll send you a reminder beforehand.",
			describeBooking(booked), formatWhen(booked.Start))
	case CodeConflict:
		// Taken between offer and confirmation: drop the stale selection and
		// search again.
		sess.SelectedSlot = nil
		sess.ConfirmationStatus = models.ConfirmationNone
		reply := r.offerSlots(ctx, sess, "", now, nil)
		return "I'm sorry, that time was just taken. " + reply
	case CodeState:
		utils.GetLogger().Error("booking guard reached without a pending selection",
			zap.String("phone", sess.Phone), zap.String("state", string(sess.State())))
		return r.openEnded(ctx, sess, "")
	default:
		return apologyReply
	}
}

// offerSlots runs the availability search and places the best slot on the
// session as a pending offer.
func (r *ActionRouter) offerSlots(ctx context.Context, sess *models.Session, text string, now time.Time, declined *models.Slot) string {
	pref := intelligence.ParseDateTimePreference(text, now)

	exclude := sess.CancelledSlotToExclude
	if declined != nil {
		exclude = declined
	}

	var best *models.Slot
	for _, resource := range r.candidateResources(sess.DentistName) {
		slots, err := r.Engine.FindSlots(ctx, SlotQuery{
			Resource:         resource,
			TreatmentMinutes: treatmentMinutes(sess.TreatmentType),
			Preference:       pref,
			ExcludeSlot:      exclude,
			Limit:            1,
		}, now)
		if err != nil {
			if ErrorCode(err) == CodeUpstream {
				return apologyReply
			}
			utils.GetLogger().Error("availability search failed",
				zap.String("resource", resource), zap.Error(err))
			continue
		}
		if len(slots) > 0 && (best == nil || slots[0].Start.Before(best.Start)) {
			s := slots[0]
			best = &s
		}
	}

	if best == nil {
		return "I'm sorry, I couldn't find a free time matching that. Could you try another day or time?"
	}

	sess.SelectedSlot = best
	sess.ConfirmationStatus = models.ConfirmationPending
	dentist := config.AppConfig.Dentists[best.Resource]
	if dentist == "" {
		dentist = best.Resource
	}
	return fmt.Sprintf("I can offer %s with %s on %s. Shall I book it?",
		sess.TreatmentType, dentist, formatWhen(best.Start))
}

func (r *ActionRouter) answerAppointmentInquiry(ctx context.Context, sess *models.Session) string {
	existing, err := r.Tx.LookupBooking(ctx, sess.Phone)
	if err != nil {
		utils.GetLogger().Error("inquiry lookup failed", zap.String("phone", sess.Phone), zap.Error(err))
		return apologyReply
	}
	if existing == nil {
		return "You don't have an upcoming appointment on file. Would you like to book one?"
	}
	return fmt.Sprintf("Your next appointment is %s on %s.",
		describeBooking(*existing), formatWhen(existing.Start))
}

func (r *ActionRouter) openEnded(ctx context.Context, sess *models.Session, text string) string {
	// A booking request missing required details gets a concrete question
	// rather than generated smalltalk.
	if models.HasIntent(sess.Intents, models.IntentBooking) {
		if missing := missingBookingDetails(sess); missing != "" {
			return "Happy to get you booked in! Could you tell me " + missing + "?"
		}
	}

	if r.Generator != nil {
		reply, err := r.Generator.Generate(ctx, text, sess.History)
		if err == nil && strings.TrimSpace(reply) != "" {
			return strings.TrimSpace(reply)
		}
		utils.GetLogger().Warn("open-ended generation unavailable", zap.Error(err))
	}
	return "I can help you book, move, or cancel a dental appointment, or answer questions about our prices. What would you like to do?"
}

const apologyReply = "I'm sorry, I'm having trouble reaching our scheduling system right now. Please try again in a moment."

func missingBookingDetails(sess *models.Session) string {
	var parts []string
	if sess.PatientName == "" {
		parts = append(parts, "your name")
	}
	if sess.TreatmentType == "" {
		parts = append(parts, "what treatment you need")
	}
	return strings.Join(parts, " and ")
}

// candidateResources resolves a dentist name to calendar resources; with no
// name every dentist's calendar is searched.
func (r *ActionRouter) candidateResources(dentistName string) []string {
	if dentistName != "" {
		if res := resourceForDentist(dentistName); res != "" {
			return []string{res}
		}
	}
	resources := make([]string, 0, len(config.AppConfig.Dentists))
	for res := range config.AppConfig.Dentists {
		resources = append(resources, res)
	}
	return resources
}

func resourceForDentist(name string) string {
	lower := strings.ToLower(name)
	for res, display := range config.AppConfig.Dentists {
		if strings.Contains(strings.ToLower(display), lower) {
			return res
		}
	}
	return ""
}

func describeBooking(b models.Booking) string {
	dentist := config.AppConfig.Dentists[b.Resource]
	if dentist == "" {
		dentist = b.Resource
	}
	if b.Treatment != "" {
		return fmt.Sprintf("a %s with %s", b.Treatment, dentist)
	}
	return "an appointment with " + dentist
}

func formatWhen(t time.Time) string {
	return t.Format("Monday, 2 January at 15:04")
}

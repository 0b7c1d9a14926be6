// File: services/booking/availability_test.go
package booking

import (
	"context"
	"testing"
	"time"

	"dentaflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalendar struct {
	busy         []models.BusyInterval
	busyErr      error
	busyFailures int // transient: fail this many calls, then succeed

	created []models.Booking
	nextID  string
	crErr   error

	deleted []string
	delErr  error

	byPhone      *models.Booking
	findFailures int
}

func (f *fakeCalendar) BusyIntervals(ctx context.Context, resource string, from, to time.Time) ([]models.BusyInterval, error) {
	if f.busyFailures > 0 {
		f.busyFailures--
		return nil, assert.AnError
	}
	if f.busyErr != nil {
		return nil, f.busyErr
	}
	var out []models.BusyInterval
	for _, b := range f.busy {
		if b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, resource string, booking models.Booking) (string, error) {
	if f.crErr != nil {
		return "", f.crErr
	}
	f.created = append(f.created, booking)
	if f.nextID == "" {
		return "evt-1", nil
	}
	return f.nextID, nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, resource, eventID string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}

func (f *fakeCalendar) FindBookingByPhone(ctx context.Context, phone string) (*models.Booking, error) {
	if f.findFailures > 0 {
		f.findFailures--
		return nil, assert.AnError
	}
	return f.byPhone, nil
}

func testEngine(p *fakeCalendar) *AvailabilityEngine {
	return &AvailabilityEngine{
		Provider:    p,
		OpenMinute:  9 * 60,
		CloseMinute: 18 * 60,
		Granularity: 15 * time.Minute,
		HorizonDays: 14,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Monday, 14 July 2025, 08:00 UTC.
var searchNow = time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC)

func dateQuery(y int, m time.Month, d int) SlotQuery {
	return SlotQuery{
		Resource:         "dr-lee",
		TreatmentMinutes: 30,
		Preference: models.DateTimePreference{
			Date: &models.CalendarDate{Year: y, Month: m, Day: d},
		},
	}
}

func TestFindSlotsReturnsFreeGaps(t *testing.T) {
	target := day(2025, 7, 15) // Tuesday
	cal := &fakeCalendar{busy: []models.BusyInterval{
		{Start: target.Add(10 * time.Hour), End: target.Add(11 * time.Hour)},
	}}

	slots, err := testEngine(cal).FindSlots(context.Background(), dateQuery(2025, 7, 15), searchNow)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, target.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, target.Add(10*time.Hour), slots[0].End)
	assert.Equal(t, 60, slots[0].DurationMinutes)

	assert.Equal(t, target.Add(11*time.Hour), slots[1].Start)
	assert.Equal(t, target.Add(18*time.Hour), slots[1].End)
	assert.Equal(t, 420, slots[1].DurationMinutes)
}

func TestFindSlotsEmptyCalendarIsOneGap(t *testing.T) {
	target := day(2025, 7, 15)
	cal := &fakeCalendar{}

	slots, err := testEngine(cal).FindSlots(context.Background(), dateQuery(2025, 7, 15), searchNow)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, target.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, target.Add(18*time.Hour), slots[0].End)
}

func TestFindSlotsSkipsWeekends(t *testing.T) {
	// 19 July 2025 is a Saturday.
	slots, err := testEngine(&fakeCalendar{}).FindSlots(context.Background(), dateQuery(2025, 7, 19), searchNow)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFindSlotsNeverOffersThePast(t *testing.T) {
	// Preference for a day already gone yields nothing.
	slots, err := testEngine(&fakeCalendar{}).FindSlots(context.Background(), dateQuery(2025, 7, 10), searchNow)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFindSlotsTodayStartsFromNow(t *testing.T) {
	// Searching today at 08:00 still opens at 09:00; at 10:07 the first
	// offerable instant is 10:15 on the grid.
	lateNow := time.Date(2025, 7, 14, 10, 7, 0, 0, time.UTC)
	slots, err := testEngine(&fakeCalendar{}).FindSlots(context.Background(), dateQuery(2025, 7, 14), lateNow)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, time.Date(2025, 7, 14, 10, 15, 0, 0, time.UTC), slots[0].Start)
}

func TestFindSlotsSnapsTowardPreferredTime(t *testing.T) {
	target := day(2025, 7, 15)
	q := dateQuery(2025, 7, 15)
	q.Preference.Time = &models.ClockTime{Hour: 14, Minute: 0}

	slots, err := testEngine(&fakeCalendar{}).FindSlots(context.Background(), q, searchNow)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, target.Add(14*time.Hour), slots[0].Start)
	assert.Equal(t, target.Add(18*time.Hour), slots[0].End)
}

func TestFindSlotsWithholdsFarFromPreferredTime(t *testing.T) {
	target := day(2025, 7, 15)
	cal := &fakeCalendar{busy: []models.BusyInterval{
		// Only 17:30-18:00 is free; the patient asked for 10:00.
		{Start: target.Add(9 * time.Hour), End: target.Add(17*time.Hour + 30*time.Minute)},
	}}
	q := dateQuery(2025, 7, 15)
	q.Preference.Time = &models.ClockTime{Hour: 10, Minute: 0}

	slots, err := testEngine(cal).FindSlots(context.Background(), q, searchNow)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFindSlotsExcludedSlotFreesItsInterval(t *testing.T) {
	target := day(2025, 7, 15)
	old := models.Slot{
		Resource: "dr-lee",
		Start:    target.Add(10 * time.Hour),
		End:      target.Add(10*time.Hour + 30*time.Minute),
	}
	cal := &fakeCalendar{busy: []models.BusyInterval{{Start: old.Start, End: old.End}}}
	q := dateQuery(2025, 7, 15)
	q.ExcludeSlot = &old

	slots, err := testEngine(cal).FindSlots(context.Background(), q, searchNow)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, target.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, target.Add(18*time.Hour), slots[0].End)
}

func TestFindSlotsLimit(t *testing.T) {
	q := SlotQuery{Resource: "dr-lee", TreatmentMinutes: 30, Limit: 3}
	slots, err := testEngine(&fakeCalendar{}).FindSlots(context.Background(), q, searchNow)
	require.NoError(t, err)
	assert.Len(t, slots, 3)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start))
	}
}

func TestFindSlotsFullyBookedDayHasNoSlots(t *testing.T) {
	target := day(2025, 7, 15)
	cal := &fakeCalendar{busy: []models.BusyInterval{
		{Start: target.Add(9 * time.Hour), End: target.Add(18 * time.Hour)},
	}}

	slots, err := testEngine(cal).FindSlots(context.Background(), dateQuery(2025, 7, 15), searchNow)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFindSlotsIgnoresGapShorterThanGranularity(t *testing.T) {
	// 13:00-13:10 is free but under the 15-minute grid, so it is never
	// offered even for a treatment that would fit.
	target := day(2025, 7, 15)
	cal := &fakeCalendar{busy: []models.BusyInterval{
		{Start: target.Add(9 * time.Hour), End: target.Add(13 * time.Hour)},
		{Start: target.Add(13*time.Hour + 10*time.Minute), End: target.Add(18 * time.Hour)},
	}}
	q := dateQuery(2025, 7, 15)
	q.TreatmentMinutes = 10

	slots, err := testEngine(cal).FindSlots(context.Background(), q, searchNow)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeSlotsLeavesBusyInputIntact(t *testing.T) {
	target := day(2025, 7, 15)
	old := models.Slot{
		Resource: "dr-lee",
		Start:    target.Add(10 * time.Hour),
		End:      target.Add(10*time.Hour + 30*time.Minute),
	}
	busy := []models.BusyInterval{
		{Start: old.Start, End: old.End},
		{Start: target.Add(14 * time.Hour), End: target.Add(15 * time.Hour)},
	}
	q := dateQuery(2025, 7, 15)
	q.ExcludeSlot = &old

	slots := testEngine(&fakeCalendar{}).ComputeSlots(busy, q, searchNow)
	require.NotEmpty(t, slots)

	// The caller's slice is input, not scratch space.
	require.Len(t, busy, 2)
	assert.Equal(t, old.Start, busy[0].Start)
	assert.Equal(t, old.End, busy[0].End)
	assert.Equal(t, target.Add(14*time.Hour), busy[1].Start)
}

func TestFindSlotsRetriesTransientLookup(t *testing.T) {
	cal := &fakeCalendar{busyFailures: 1}
	engine := testEngine(cal)
	engine.RetryAttempts = 2

	slots, err := engine.FindSlots(context.Background(), dateQuery(2025, 7, 15), searchNow)
	require.NoError(t, err)
	assert.NotEmpty(t, slots)
}

func TestFindSlotsUpstreamFailure(t *testing.T) {
	cal := &fakeCalendar{busyErr: assert.AnError}
	_, err := testEngine(cal).FindSlots(context.Background(), dateQuery(2025, 7, 15), searchNow)
	require.Error(t, err)
	assert.Equal(t, CodeUpstream, ErrorCode(err))
}

func TestFindSlotsValidation(t *testing.T) {
	_, err := testEngine(&fakeCalendar{}).FindSlots(context.Background(), SlotQuery{TreatmentMinutes: 30}, searchNow)
	assert.Equal(t, CodeValidation, ErrorCode(err))

	_, err = testEngine(&fakeCalendar{}).FindSlots(context.Background(), SlotQuery{Resource: "dr-lee"}, searchNow)
	assert.Equal(t, CodeValidation, ErrorCode(err))
}

// File: services/booking/availability.go
package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dentaflow/config"
	"dentaflow/models"
	"dentaflow/services/calendar"
	"dentaflow/utils"

	"go.uber.org/zap"
)

// timePreferenceWindow bounds how far an offered start may drift from the
// patient's stated time before the slot is withheld.
const timePreferenceWindow = 60 * time.Minute

// AvailabilityEngine turns calendar busy intervals into offerable slots.
type AvailabilityEngine struct {
	Provider      calendar.Provider
	OpenMinute    int // minutes after midnight the clinic opens
	CloseMinute   int // minutes after midnight the clinic closes
	Granularity   time.Duration
	HorizonDays   int
	RetryAttempts int
}

// NewAvailabilityEngine builds an engine from the loaded configuration.
func NewAvailabilityEngine(provider calendar.Provider) *AvailabilityEngine {
	cfg := config.AppConfig
	return &AvailabilityEngine{
		Provider:      provider,
		OpenMinute:    cfg.BusinessHoursStartMinute,
		CloseMinute:   cfg.BusinessHoursEndMinute,
		Granularity:   time.Duration(cfg.SlotGranularityMinutes) * time.Minute,
		HorizonDays:   cfg.SearchHorizonDays,
		RetryAttempts: cfg.CollaboratorRetryAttempts,
	}
}

// SlotQuery describes one availability search.
type SlotQuery struct {
	Resource         string
	TreatmentMinutes int
	Preference       models.DateTimePreference
	// ExcludeSlot marks an appointment about to be replaced: its interval is
	// treated as free and the identical window is never offered back.
	ExcludeSlot *models.Slot
	Limit       int // 0 means no cap
}

// FindSlots searches the horizon for free slots on the resource's calendar:
// one busy-interval fetch covering the searchable window, then the pure
// computation over what came back.
func (e *AvailabilityEngine) FindSlots(ctx context.Context, q SlotQuery, now time.Time) ([]models.Slot, error) {
	if q.Resource == "" {
		return nil, NewValidationError("availability search requires a resource")
	}
	if q.TreatmentMinutes <= 0 {
		return nil, NewValidationError(fmt.Sprintf("invalid treatment duration %d", q.TreatmentMinutes))
	}

	days := e.searchDays(q.Preference, now)
	if len(days) == 0 {
		return nil, nil
	}

	windowFrom := days[0].Add(time.Duration(e.OpenMinute) * time.Minute)
	if windowFrom.Before(now) {
		windowFrom = now
	}
	windowTo := days[len(days)-1].Add(time.Duration(e.CloseMinute) * time.Minute)

	var busy []models.BusyInterval
	err := calendar.WithRetry(ctx, e.RetryAttempts, "busy intervals", func(ctx context.Context) error {
		var lookupErr error
		busy, lookupErr = e.Provider.BusyIntervals(ctx, q.Resource, windowFrom, windowTo)
		return lookupErr
	})
	if err != nil {
		utils.GetLogger().Error("availability: busy interval lookup failed",
			zap.String("resource", q.Resource), zap.Error(err))
		return nil, NewUpstreamError("calendar lookup failed")
	}

	return e.ComputeSlots(busy, q, now), nil
}

// ComputeSlots ranks the free gaps implied by the given busy intervals. It is
// the deterministic core of the search: no I/O, and the busy slice is read,
// never written. Results are whole free gaps, chronological; when the query
// carries a time preference the offered start is moved toward it within each
// gap and gaps farther than an hour from the preferred time are withheld.
func (e *AvailabilityEngine) ComputeSlots(busy []models.BusyInterval, q SlotQuery, now time.Time) []models.Slot {
	candidates := dropExcluded(busy, q.ExcludeSlot)

	var slots []models.Slot
	for _, day := range e.searchDays(q.Preference, now) {
		open := day.Add(time.Duration(e.OpenMinute) * time.Minute)
		close := day.Add(time.Duration(e.CloseMinute) * time.Minute)

		// Never offer the past; the first searchable instant today is now,
		// rounded up to the grid.
		if open.Before(now) {
			open = roundUp(now, e.Granularity)
		}
		if !open.Before(close) {
			continue
		}

		for _, gap := range freeGaps(open, close, candidates) {
			slot, ok := e.slotFromGap(gap, day, q)
			if !ok {
				continue
			}
			if q.ExcludeSlot != nil && slot.SameWindow(*q.ExcludeSlot) {
				continue
			}
			slots = append(slots, slot)
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	if q.Limit > 0 && len(slots) > q.Limit {
		slots = slots[:q.Limit]
	}
	return slots
}

// searchDays resolves the preference to the midnights to search, weekdays
// only, never past the horizon.
func (e *AvailabilityEngine) searchDays(pref models.DateTimePreference, now time.Time) []time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	horizon := today.AddDate(0, 0, e.HorizonDays)

	from, to := today, horizon
	switch {
	case pref.Date != nil:
		d := pref.Date.Time(now.Location())
		from, to = d, d
	case pref.DateRange != nil:
		from = pref.DateRange.From.Time(now.Location())
		to = pref.DateRange.To.Time(now.Location())
	}
	if from.Before(today) {
		from = today
	}
	if to.After(horizon) {
		to = horizon
	}

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

type interval struct {
	start, end time.Time
}

// freeGaps complements the busy intervals within [open, close). Busy entries
// may overlap or sit partially outside the window.
func freeGaps(open, close time.Time, busy []models.BusyInterval) []interval {
	sorted := make([]models.BusyInterval, 0, len(busy))
	for _, b := range busy {
		if !b.End.After(open) || !b.Start.Before(close) {
			continue
		}
		sorted = append(sorted, b)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var gaps []interval
	cursor := open
	for _, b := range sorted {
		if b.Start.After(cursor) {
			gaps = append(gaps, interval{cursor, b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(close) {
		gaps = append(gaps, interval{cursor, close})
	}
	return gaps
}

// slotFromGap turns a free gap into an offerable slot, honoring the grid,
// the treatment duration, and any stated time preference.
func (e *AvailabilityEngine) slotFromGap(gap interval, day time.Time, q SlotQuery) (models.Slot, bool) {
	if gap.end.Sub(gap.start) < e.Granularity {
		return models.Slot{}, false
	}
	duration := time.Duration(q.TreatmentMinutes) * time.Minute
	start := roundUp(gap.start, e.Granularity)
	latestStart := gap.end.Add(-duration)
	if start.After(latestStart) {
		return models.Slot{}, false
	}

	if q.Preference.Time != nil {
		preferred := day.Add(time.Duration(q.Preference.Time.Hour)*time.Hour +
			time.Duration(q.Preference.Time.Minute)*time.Minute)
		// Move the offered start toward the preferred instant, staying inside
		// the gap and on the grid.
		if preferred.After(start) {
			start = roundUp(preferred, e.Granularity)
			if start.After(latestStart) {
				start = roundDown(latestStart, e.Granularity)
			}
			if start.Before(gap.start) {
				return models.Slot{}, false
			}
		}
		drift := start.Sub(preferred)
		if drift < 0 {
			drift = -drift
		}
		if drift > timePreferenceWindow {
			return models.Slot{}, false
		}
	}

	return models.Slot{
		Resource:        q.Resource,
		Start:           start,
		End:             gap.end,
		DurationMinutes: int(gap.end.Sub(start) / time.Minute),
	}, true
}

// dropExcluded removes busy intervals covering the appointment being
// replaced, so its own calendar event does not block the search. The input
// slice is left untouched.
func dropExcluded(busy []models.BusyInterval, exclude *models.Slot) []models.BusyInterval {
	if exclude == nil {
		return busy
	}
	out := make([]models.BusyInterval, 0, len(busy))
	for _, b := range busy {
		if b.Start.Equal(exclude.Start) && !b.End.After(exclude.End) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func roundUp(t time.Time, granularity time.Duration) time.Time {
	if granularity <= 0 {
		return t
	}
	rounded := t.Truncate(granularity)
	if rounded.Before(t) {
		rounded = rounded.Add(granularity)
	}
	return rounded
}

func roundDown(t time.Time, granularity time.Duration) time.Time {
	if granularity <= 0 {
		return t
	}
	return t.Truncate(granularity)
}

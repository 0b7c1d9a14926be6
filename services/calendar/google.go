// File: services/calendar/google.go
package calendar

import (
	"context"
	"fmt"
	"time"

	"dentaflow/models"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const phonePropertyKey = "patientPhone"

// GoogleProvider implements Provider against the Google Calendar API. Each
// dentist resource id is used directly as the Google calendar id.
type GoogleProvider struct {
	svc *gcal.Service
}

// NewGoogleProvider builds a provider from a service-account credentials file.
func NewGoogleProvider(ctx context.Context, credsFile string) (*GoogleProvider, error) {
	svc, err := gcal.NewService(ctx, option.WithCredentialsFile(credsFile))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleProvider{svc: svc}, nil
}

func (g *GoogleProvider) BusyIntervals(ctx context.Context, resource string, from, to time.Time) ([]models.BusyInterval, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: resource}},
	}
	resp, err := g.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query for %s: %w", resource, err)
	}

	cal, ok := resp.Calendars[resource]
	if !ok {
		return nil, fmt.Errorf("freebusy response missing calendar %s", resource)
	}

	intervals := make([]models.BusyInterval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			return nil, fmt.Errorf("parse busy start %q: %w", b.Start, err)
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			return nil, fmt.Errorf("parse busy end %q: %w", b.End, err)
		}
		intervals = append(intervals, models.BusyInterval{Start: start, End: end})
	}
	return intervals, nil
}

func (g *GoogleProvider) CreateEvent(ctx context.Context, resource string, booking models.Booking) (string, error) {
	event := &gcal.Event{
		Summary:     fmt.Sprintf("%s — %s", booking.Treatment, booking.PatientName),
		Description: fmt.Sprintf("Booked via assistant for %s", booking.PatientPhone),
		Start:       &gcal.EventDateTime{DateTime: booking.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: booking.End.Format(time.RFC3339)},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{phonePropertyKey: booking.PatientPhone},
		},
	}
	created, err := g.svc.Events.Insert(resource, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event on %s: %w", resource, err)
	}
	return created.Id, nil
}

func (g *GoogleProvider) DeleteEvent(ctx context.Context, resource, eventID string) error {
	err := g.svc.Events.Delete(resource, eventID).Context(ctx).Do()
	if err != nil {
		// A 410 means the event is already gone; deletion is idempotent.
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 410 {
			return nil
		}
		return fmt.Errorf("delete event %s on %s: %w", eventID, resource, err)
	}
	return nil
}

// FindBookingByPhone scans the known calendars for the next upcoming event
// tagged with the caller's phone number.
func (g *GoogleProvider) FindBookingByPhone(ctx context.Context, phone string) (*models.Booking, error) {
	list, err := g.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	var best *models.Booking
	for _, entry := range list.Items {
		events, err := g.svc.Events.List(entry.Id).
			PrivateExtendedProperty(phonePropertyKey + "=" + phone).
			TimeMin(time.Now().Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(1).
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list events on %s: %w", entry.Id, err)
		}
		if len(events.Items) == 0 {
			continue
		}
		ev := events.Items[0]
		start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			continue
		}
		if best == nil || start.Before(best.Start) {
			best = &models.Booking{
				PatientPhone:    phone,
				Resource:        entry.Id,
				Treatment:       ev.Summary,
				Start:           start,
				End:             end,
				ExternalEventID: ev.Id,
				CalendarID:      entry.Id,
			}
		}
	}
	return best, nil
}

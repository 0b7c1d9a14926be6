package calendar

import (
	"context"
	"time"

	"dentaflow/models"
)

// Provider is the external calendar collaborator. A resource is one dentist's
// calendar. Implementations must treat the calendar as the source of truth
// for committed appointments.
type Provider interface {
	// BusyIntervals returns committed appointments blocking the resource
	// within [from, to), sorted order not guaranteed.
	BusyIntervals(ctx context.Context, resource string, from, to time.Time) ([]models.BusyInterval, error)

	// CreateEvent commits a booking and returns the external event id.
	CreateEvent(ctx context.Context, resource string, booking models.Booking) (string, error)

	// DeleteEvent removes a committed event.
	DeleteEvent(ctx context.Context, resource, eventID string) error

	// FindBookingByPhone returns the caller's next upcoming booking, or
	// (nil, nil) when none exists.
	FindBookingByPhone(ctx context.Context, phone string) (*models.Booking, error)
}

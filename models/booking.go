package models

import "time"

// Booking is a committed (or previously committed) appointment. The external
// calendar is the source of truth; a Booking held on a session is a cache and
// must be re-fetched before any mutating decision is made against it.
type Booking struct {
	PatientPhone    string    `json:"patientPhone" bson:"patientPhone"`
	PatientName     string    `json:"patientName" bson:"patientName"`
	Resource        string    `json:"resource" bson:"resource"`
	Treatment       string    `json:"treatment" bson:"treatment"`
	Start           time.Time `json:"start" bson:"start"`
	End             time.Time `json:"end" bson:"end"`
	ExternalEventID string    `json:"externalEventId" bson:"externalEventId"`
	CalendarID      string    `json:"calendarId" bson:"calendarId"`
}

// Slot returns the appointment window the booking occupies.
func (b Booking) Slot() Slot {
	return Slot{
		Resource:        b.Resource,
		Start:           b.Start,
		End:             b.End,
		DurationMinutes: int(b.End.Sub(b.Start).Minutes()),
	}
}

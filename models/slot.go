package models

import "time"

// Slot is a candidate appointment window for one dentist. Immutable value
// object; routers copy it, they never mutate it in place.
type Slot struct {
	Resource        string    `json:"resource"` // dentist calendar identifier
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
}

// SameWindow reports whether two slots describe the same resource and start
// instant. Used to exclude a just-vacated slot during a reschedule.
func (s Slot) SameWindow(other Slot) bool {
	return s.Resource == other.Resource && s.Start.Equal(other.Start)
}

// BusyInterval is an existing committed appointment blocking a resource.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

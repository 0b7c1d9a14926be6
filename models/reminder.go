package models

import "time"

// ReminderPayload is the queued task body for an appointment reminder.
type ReminderPayload struct {
	Phone       string    `json:"phone"`
	PatientName string    `json:"patientName"`
	Treatment   string    `json:"treatment"`
	Resource    string    `json:"resource"`
	EventID     string    `json:"eventId"`
	Start       time.Time `json:"start"`
}

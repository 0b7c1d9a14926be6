package models

import "time"

// ClassifierEntities are the structured fields the AI classifier extracts
// alongside intents. All optional; empty string means not mentioned.
type ClassifierEntities struct {
	PatientName   string `json:"patientName,omitempty"`
	TreatmentType string `json:"treatmentType,omitempty"`
	DentistName   string `json:"dentistName,omitempty"`
	DateTimeText  string `json:"dateTimeText,omitempty"` // the raw temporal phrase, parsed downstream
}

// ClassifierOutput is the sanitized result of classifying one message. The
// raw AI output is validated against the closed intent enumeration before it
// ever reaches the router.
type ClassifierOutput struct {
	Intents  []Intent           `json:"intents"`
	Entities ClassifierEntities `json:"entities"`
}

// AuditRecord is one fire-and-forget audit trail entry.
type AuditRecord struct {
	Action   string    `json:"action" bson:"action"` // "book", "cancel", "reschedule", "reminder"
	Phone    string    `json:"phone" bson:"phone"`
	Resource string    `json:"resource,omitempty" bson:"resource,omitempty"`
	EventID  string    `json:"eventId,omitempty" bson:"eventId,omitempty"`
	Detail   string    `json:"detail,omitempty" bson:"detail,omitempty"`
	At       time.Time `json:"at" bson:"at"`
}

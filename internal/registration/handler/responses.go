package handler

import (
	"cornerstone/internal/registration/models"
)

type startResponse struct {
	RegistrationID    string `json:"registration_id"`
	PrimaryAttendeeID string `json:"primary_attendee_id"`
	ResumeToken       string `json:"resume_token,omitempty"`
	Step              string `json:"step"`
}

type resumeResponse struct {
	RegistrationID string `json:"registration_id"`
	Step           string `json:"step"`
	MaxStep        string `json:"max_step"`
}

type attendeeCreatedResponse struct {
	AttendeeID string `json:"attendee_id"`
}

type catalogResponse struct {
	Tickets  []models.TicketMetadata  `json:"tickets"`
	Packages []models.PackageMetadata `json:"packages"`
}

type stepResponse struct {
	Step    string `json:"step"`
	MaxStep string `json:"max_step,omitempty"`
}

type draftResponse struct {
	ResumeToken string `json:"resume_token,omitempty"`
}

type confirmResponse struct {
	ConfirmationNumber string `json:"confirmation_number"`
}

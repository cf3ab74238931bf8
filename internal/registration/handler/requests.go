package handler

import (
	"cornerstone/internal/registration/models"
)

type startRequest struct {
	EventID  string `json:"event_id"`
	Category string `json:"category"`
}

type resumeRequest struct {
	ResumeToken string `json:"resume_token"`
}

type addAttendeeRequest struct {
	Role   string  `json:"role"`
	HostID *string `json:"host_id,omitempty"`
}

type prefillRequest struct {
	MemberNumber string `json:"member_number"`
}

type queueEditRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type selectionRequest struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type jumpRequest struct {
	Step int `json:"step"`
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// updateAttendeeRequest is the PATCH body; it decodes straight into the
// partial-update model.
type updateAttendeeRequest = models.AttendeeUpdate

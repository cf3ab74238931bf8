// Package wizard is the linear step machine over the registration flow.
// Steps form a strict chain with no branching; forward movement is gated by
// an injected validator, backward movement always succeeds, and direct jumps
// may only target steps already reached.
package wizard

import (
	"cornerstone/internal/registration/models"
	dErrors "cornerstone/pkg/domain-errors"
)

// Step is a 1-based position in the wizard chain.
type Step int

const (
	StepTypeSelection Step = iota + 1
	StepAttendeeDetails
	StepTicketSelection
	StepReview
	StepPayment
	StepConfirmation

	minStep = StepTypeSelection
	maxStep = StepConfirmation
)

func (s Step) String() string {
	switch s {
	case StepTypeSelection:
		return "type-selection"
	case StepAttendeeDetails:
		return "attendee-details"
	case StepTicketSelection:
		return "ticket-selection"
	case StepReview:
		return "review"
	case StepPayment:
		return "payment"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// Validator gates a forward transition out of a step. It is a pure function
// over the current attendee list; a non-empty result blocks the advance.
type Validator func(step Step, attendees []*models.Attendee) []dErrors.FieldError

// Navigator tracks the current step and the highest step reached. Completed
// steps stay revisitable; future steps are unreachable even by direct jump.
type Navigator struct {
	current    Step
	maxReached Step
	validate   Validator
}

func New(validate Validator) *Navigator {
	if validate == nil {
		validate = func(Step, []*models.Attendee) []dErrors.FieldError { return nil }
	}
	return &Navigator{current: minStep, maxReached: minStep, validate: validate}
}

func (n *Navigator) Current() Step    { return n.current }
func (n *Navigator) MaxReached() Step { return n.maxReached }

// AtTerminal reports whether the navigator sits on the confirmation step.
func (n *Navigator) AtTerminal() bool { return n.current == maxStep }

// Next advances by one step if the validator passes for the current step.
func (n *Navigator) Next(attendees []*models.Attendee) error {
	if n.current >= maxStep {
		return dErrors.New(dErrors.CodeInvalidState, "already at the final step")
	}
	if fields := n.validate(n.current, attendees); len(fields) > 0 {
		return dErrors.NewValidation(fields)
	}
	n.current++
	if n.current > n.maxReached {
		n.maxReached = n.current
	}
	return nil
}

// Prev always succeeds down to the minimum step.
func (n *Navigator) Prev() {
	if n.current > minStep {
		n.current--
	}
}

// JumpTo moves directly to a previously reached step.
func (n *Navigator) JumpTo(step Step) error {
	if step < minStep || step > maxStep {
		return dErrors.Newf(dErrors.CodeInvalidInput, "step %d is out of range", step)
	}
	if step > n.maxReached {
		return dErrors.Newf(dErrors.CodeInvalidState, "step %q has not been reached yet", step)
	}
	n.current = step
	return nil
}

// Complete moves straight to the terminal step; called when a confirmation
// number is accepted.
func (n *Navigator) Complete() {
	n.current = maxStep
	n.maxReached = maxStep
}

// Restore replaces navigator position from a snapshot, clamping out-of-range
// values so old snapshots load.
func (n *Navigator) Restore(current, maxReached Step) {
	n.current = clamp(current)
	n.maxReached = clamp(maxReached)
	if n.maxReached < n.current {
		n.maxReached = n.current
	}
}

func clamp(s Step) Step {
	if s < minStep {
		return minStep
	}
	if s > maxStep {
		return maxStep
	}
	return s
}

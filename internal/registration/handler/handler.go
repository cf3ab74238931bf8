// Package handler exposes the registration wizard over REST. Every route is
// keyed by registration id; handlers translate HTTP into service calls and
// domain errors back into status codes.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cornerstone/internal/payment"
	"cornerstone/internal/registration/ledger"
	"cornerstone/internal/registration/models"
	"cornerstone/internal/registration/wizard"
	"cornerstone/internal/session"
	id "cornerstone/pkg/domain"
	dErrors "cornerstone/pkg/domain-errors"
	"cornerstone/pkg/platform/httputil"
	"cornerstone/pkg/platform/middleware"
)

// Service defines the registration operations the handler needs.
type Service interface {
	Start(ctx context.Context, eventID, category string) (id.RegistrationID, id.AttendeeID, error)
	Resume(ctx context.Context, registrationID id.RegistrationID) error

	Attendees(ctx context.Context, registrationID id.RegistrationID) ([]*models.Attendee, error)
	Attendee(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID) (*models.Attendee, error)
	AddMember(ctx context.Context, registrationID id.RegistrationID) (id.AttendeeID, error)
	AddGuest(ctx context.Context, registrationID id.RegistrationID, hostID *id.AttendeeID) (id.AttendeeID, error)
	AddPartner(ctx context.Context, registrationID id.RegistrationID, ownerID id.AttendeeID) (id.AttendeeID, error)
	UpdateAttendee(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, upd models.AttendeeUpdate) error
	RemoveAttendee(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID) error
	PrefillMember(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, memberNumber string) error
	QueueEdit(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, field, value string) error
	FlushEdits(ctx context.Context, registrationID id.RegistrationID) error

	Catalog(ctx context.Context, registrationID id.RegistrationID) ([]models.TicketMetadata, []models.PackageMetadata, error)
	RefreshCatalog(ctx context.Context, registrationID id.RegistrationID) error

	SelectTicket(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, ticketID string, quantity int) (models.TicketRecord, error)
	SelectPackage(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, packageID string, quantity int) (models.PackageRecord, error)
	RemoveSelection(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, recordID string, kind ledger.Kind) error
	Selections(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID) (ledger.Selections, error)
	Summary(ctx context.Context, registrationID id.RegistrationID) (models.OrderSummary, error)

	Next(ctx context.Context, registrationID id.RegistrationID) (wizard.Step, error)
	Prev(ctx context.Context, registrationID id.RegistrationID) (wizard.Step, error)
	JumpTo(ctx context.Context, registrationID id.RegistrationID, step wizard.Step) (wizard.Step, error)
	CurrentStep(ctx context.Context, registrationID id.RegistrationID) (current, maxReached wizard.Step, err error)

	CreatePaymentIntent(ctx context.Context, registrationID id.RegistrationID) (payment.Intent, error)
	Confirm(ctx context.Context, registrationID id.RegistrationID, paymentIntentID string) (string, error)
	Cancel(ctx context.Context, registrationID id.RegistrationID) error
	SaveDraft(ctx context.Context, registrationID id.RegistrationID) error
}

// Handler handles registration endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	tokens  *session.Manager
}

// New creates a new registration Handler. The token manager is optional;
// without it drafts save but no resume token is returned.
func New(service Service, logger *slog.Logger, tokens *session.Manager) *Handler {
	return &Handler{logger: logger, service: service, tokens: tokens}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))

	router.Post("/registrations", h.handleStart)
	router.Post("/registrations/resume", h.handleResume)

	router.Route("/registrations/{registrationID}", func(r chi.Router) {
		r.Get("/attendees", h.handleListAttendees)
		r.Post("/attendees", h.handleAddAttendee)
		r.Route("/attendees/{attendeeID}", func(r chi.Router) {
			r.Get("/", h.handleGetAttendee)
			r.Patch("/", h.handleUpdateAttendee)
			r.Delete("/", h.handleRemoveAttendee)
			r.Post("/partner", h.handleAddPartner)
			r.Post("/prefill", h.handlePrefill)
			r.Post("/edits", h.handleQueueEdit)
			r.Get("/selections", h.handleGetSelections)
			r.Post("/selections", h.handleAddSelection)
			r.Delete("/selections/{recordID}", h.handleRemoveSelection)
		})
		r.Post("/edits/flush", h.handleFlushEdits)

		r.Get("/catalog", h.handleGetCatalog)
		r.Post("/catalog/refresh", h.handleRefreshCatalog)

		r.Get("/summary", h.handleGetSummary)

		r.Get("/step", h.handleGetStep)
		r.Post("/steps/next", h.handleNext)
		r.Post("/steps/prev", h.handlePrev)
		r.Post("/steps/jump", h.handleJump)

		r.Post("/payment-intent", h.handleCreatePaymentIntent)
		r.Post("/confirm", h.handleConfirm)
		r.Post("/cancel", h.handleCancel)
		r.Post("/draft", h.handleSaveDraft)
	})

	r.Mount("/", router)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	regID, primaryID, err := h.service.Start(ctx, req.EventID, req.Category)
	if err != nil {
		h.writeServiceError(w, r, "failed to start registration", err)
		return
	}

	resp := startResponse{
		RegistrationID:    regID.String(),
		PrimaryAttendeeID: primaryID.String(),
		Step:              wizard.StepTypeSelection.String(),
	}
	if h.tokens != nil {
		token, err := h.tokens.Issue(regID)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to issue resume token", "error", err)
		} else {
			resp.ResumeToken = token
		}
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.tokens == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidState, "resume tokens are not configured"))
		return
	}

	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	regID, err := h.tokens.Verify(req.ResumeToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Resume(ctx, regID); err != nil {
		h.writeServiceError(w, r, "failed to resume registration", err)
		return
	}

	current, maxReached, err := h.service.CurrentStep(ctx, regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to read wizard step", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resumeResponse{
		RegistrationID: regID.String(),
		Step:           current.String(),
		MaxStep:        maxReached.String(),
	})
}

func (h *Handler) handleListAttendees(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	attendees, err := h.service.Attendees(r.Context(), regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to list attendees", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, attendees)
}

func (h *Handler) handleGetAttendee(w http.ResponseWriter, r *http.Request) {
	regID, attendeeID, ok := h.attendeeIDs(w, r)
	if !ok {
		return
	}
	attendee, err := h.service.Attendee(r.Context(), regID, attendeeID)
	if err != nil {
		h.writeServiceError(w, r, "failed to get attendee", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, attendee)
}

func (h *Handler) handleAddAttendee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}

	var req addAttendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	var attendeeID id.AttendeeID
	var err error
	switch models.Role(req.Role) {
	case models.RoleMember:
		attendeeID, err = h.service.AddMember(ctx, regID)
	case models.RoleGuest:
		var hostID *id.AttendeeID
		if req.HostID != nil {
			parsed, parseErr := id.ParseAttendeeID(*req.HostID)
			if parseErr != nil {
				httputil.WriteError(w, parseErr)
				return
			}
			hostID = &parsed
		}
		attendeeID, err = h.service.AddGuest(ctx, regID, hostID)
	default:
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "unknown attendee role %q", req.Role))
		return
	}
	if err != nil {
		h.writeServiceError(w, r, "failed to add attendee", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, attendeeCreatedResponse{AttendeeID: attendeeID.String()})
}

func (h *Handler) handleAddPartner(w http.ResponseWriter, r *http.Request) {
	regID, ownerID, ok := h.attendeeIDs(w, r)
	if !ok {
		return
	}
	partnerID, err := h.service.AddPartner(r.Context(), regID, ownerID)
	if err != nil {
		// A conflict still reports the existing partner so the client can
		// link to it.
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			httputil.WriteJSON(w, http.StatusConflict, attendeeCreatedResponse{AttendeeID: partnerID.String()})
			return
		}
		h.writeServiceError(w, r, "failed to add partner", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, attendeeCreatedResponse{AttendeeID: partnerID.String()})
}

func (h *Handler) handleUpdateAttendee(w http.ResponseWriter, r *http.Request) {
	regID, attendeeID, ok := h.attendeeIDs(w, r)
	if !ok {
		return
	}

	var req updateAttendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.service.UpdateAttendee(r.Context(), regID, attendeeID, req); err != nil {
		h.writeServiceError(w, r, "failed to update attendee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveAttendee(w http.ResponseWriter, r *http.Request) {
	regID, attendeeID, ok := h.attendeeIDs(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveAttendee(r.Context(), regID, attendeeID); err != nil {
		h.writeServiceError(w, r, "failed to remove attendee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePrefill(w http.ResponseWriter, r *http.Request) {
	regID, attendeeID, ok := h.attendeeIDs(w, r)
	if !ok {
		return
	}

	var req prefillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.service.PrefillMember(r.Context(), regID, attendeeID, req.MemberNumber); err != nil {
		h.writeServiceError(w, r, "failed to prefill attendee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleQueueEdit(w http.ResponseWriter, r *http.Request) {
	regID, attendeeID, ok := h.attendeeIDs(w, r)
	if !ok {
		return
	}

	var req queueEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.service.QueueEdit(r.Context(), regID, attendeeID, req.Field, req.Value); err != nil {
		h.writeServiceError(w, r, "failed to queue edit", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleFlushEdits(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	if err := h.service.FlushEdits(r.Context(), regID); err != nil {
		h.writeServiceError(w, r, "failed to flush edits", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	tickets, packages, err := h.service.Catalog(r.Context(), regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to read catalog", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, catalogResponse{Tickets: tickets, Packages: packages})
}

func (h *Handler) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	if err := h.service.RefreshCatalog(r.Context(), regID); err != nil {
		h.writeServiceError(w, r, "failed to refresh catalog", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSelections(w http.ResponseWriter, r *http.Request) {
	regID, attendeeID, ok := h.attendeeIDs(w, r)
	if !ok {
		return
	}
	selections, err := h.service.Selections(r.Context(), regID, attendeeID)
	if err != nil {
		h.writeServiceError(w, r, "failed to read selections", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, selections)
}

func (h *Handler) handleAddSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, attendeeID, ok := h.attendeeIDs(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	switch ledger.Kind(req.Kind) {
	case ledger.KindTicket:
		record, err := h.service.SelectTicket(ctx, regID, attendeeID, req.ID, req.Quantity)
		if err != nil {
			h.writeServiceError(w, r, "failed to select ticket", err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, record)
	case ledger.KindPackage:
		record, err := h.service.SelectPackage(ctx, regID, attendeeID, req.ID, req.Quantity)
		if err != nil {
			h.writeServiceError(w, r, "failed to select package", err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, record)
	default:
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "unknown selection kind %q", req.Kind))
	}
}

func (h *Handler) handleRemoveSelection(w http.ResponseWriter, r *http.Request) {
	regID, attendeeID, ok := h.attendeeIDs(w, r)
	if !ok {
		return
	}

	kind := ledger.Kind(r.URL.Query().Get("kind"))
	if kind != ledger.KindTicket && kind != ledger.KindPackage {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "kind query parameter must be ticket or package"))
		return
	}
	recordID := chi.URLParam(r, "recordID")
	if err := h.service.RemoveSelection(r.Context(), regID, attendeeID, recordID, kind); err != nil {
		h.writeServiceError(w, r, "failed to remove selection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to compute summary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGetStep(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	current, maxReached, err := h.service.CurrentStep(r.Context(), regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to read wizard step", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stepResponse{Step: current.String(), MaxStep: maxReached.String()})
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	step, err := h.service.Next(r.Context(), regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to advance wizard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stepResponse{Step: step.String()})
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	step, err := h.service.Prev(r.Context(), regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to step wizard back", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stepResponse{Step: step.String()})
}

func (h *Handler) handleJump(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}

	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	step, err := h.service.JumpTo(r.Context(), regID, wizard.Step(req.Step))
	if err != nil {
		h.writeServiceError(w, r, "failed to jump wizard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stepResponse{Step: step.String()})
}

func (h *Handler) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	intent, err := h.service.CreatePaymentIntent(r.Context(), regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to create payment intent", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, intent)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	number, err := h.service.Confirm(r.Context(), regID, req.PaymentIntentID)
	if err != nil {
		h.writeServiceError(w, r, "failed to confirm registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, confirmResponse{ConfirmationNumber: number})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	if err := h.service.Cancel(r.Context(), regID); err != nil {
		h.writeServiceError(w, r, "failed to cancel registration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	if err := h.service.SaveDraft(ctx, regID); err != nil {
		h.writeServiceError(w, r, "failed to save draft", err)
		return
	}

	resp := draftResponse{}
	if h.tokens != nil {
		token, err := h.tokens.Issue(regID)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to issue resume token", "error", err)
		} else {
			resp.ResumeToken = token
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) registrationID(w http.ResponseWriter, r *http.Request) (id.RegistrationID, bool) {
	regID, err := id.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RegistrationID{}, false
	}
	return regID, true
}

func (h *Handler) attendeeIDs(w http.ResponseWriter, r *http.Request) (id.RegistrationID, id.AttendeeID, bool) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return id.RegistrationID{}, id.AttendeeID{}, false
	}
	attendeeID, err := id.ParseAttendeeID(chi.URLParam(r, "attendeeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RegistrationID{}, id.AttendeeID{}, false
	}
	return regID, attendeeID, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg, "error", err)
	} else {
		h.logger.WarnContext(r.Context(), msg, "error", err)
	}
	httputil.WriteError(w, err)
}

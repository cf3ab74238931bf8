// Package service orchestrates registrations: it owns the live registration
// set, serializes mutation per registration, and wires the engine to the
// catalog API, payment gateway, member directory, audit trail, and snapshot
// stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cornerstone/internal/directory"
	"cornerstone/internal/payment"
	"cornerstone/internal/registration/audit"
	"cornerstone/internal/registration/catalog"
	"cornerstone/internal/registration/ledger"
	"cornerstone/internal/registration/metrics"
	"cornerstone/internal/registration/models"
	"cornerstone/internal/registration/order"
	"cornerstone/internal/registration/store"
	"cornerstone/internal/registration/wizard"
	id "cornerstone/pkg/domain"
	dErrors "cornerstone/pkg/domain-errors"
	"cornerstone/pkg/platform/sentinel"
	"cornerstone/pkg/requestcontext"
)

// Service manages all in-flight registrations.
type Service struct {
	log     *slog.Logger
	store   store.SnapshotStore
	drafts  store.SnapshotStore
	fetcher catalog.Fetcher
	marker  *catalog.RefreshMarker

	payments  payment.IntentService
	directory directory.Lookup
	audit     audit.Publisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	mu   sync.RWMutex
	regs map[id.RegistrationID]*registration

	// rawCatalogs caches the last upstream response per event so concurrent
	// registration starts within the freshness window skip the fetch.
	catalogMu   sync.Mutex
	rawCatalogs map[string]models.RawCatalog
}

// Option configures optional collaborators.
type Option func(*Service)

func WithDraftStore(drafts store.SnapshotStore) Option {
	return func(s *Service) { s.drafts = drafts }
}

func WithRefreshMarker(marker *catalog.RefreshMarker) Option {
	return func(s *Service) { s.marker = marker }
}

func WithPayments(payments payment.IntentService) Option {
	return func(s *Service) { s.payments = payments }
}

func WithDirectory(lookup directory.Lookup) Option {
	return func(s *Service) { s.directory = lookup }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(log *slog.Logger, snapshots store.SnapshotStore, fetcher catalog.Fetcher, opts ...Option) *Service {
	s := &Service{
		log:         log,
		store:       snapshots,
		fetcher:     fetcher,
		audit:       audit.NopPublisher{},
		tracer:      otel.Tracer("cornerstone/registration"),
		regs:        make(map[id.RegistrationID]*registration),
		rawCatalogs: make(map[string]models.RawCatalog),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a registration for an event, loads the event catalog, and
// seeds the primary attendee under the chosen category.
func (s *Service) Start(ctx context.Context, eventID, category string) (id.RegistrationID, id.AttendeeID, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Start",
		trace.WithAttributes(attribute.String("event_id", eventID)))
	defer span.End()

	if strings.TrimSpace(eventID) == "" {
		return id.RegistrationID{}, id.AttendeeID{}, dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	}
	if strings.TrimSpace(category) == "" {
		return id.RegistrationID{}, id.AttendeeID{}, dErrors.New(dErrors.CodeInvalidInput, "registration category is required")
	}

	raw, err := s.loadCatalog(ctx, eventID)
	if err != nil {
		return id.RegistrationID{}, id.AttendeeID{}, err
	}

	reg := newRegistration(s.log, id.NewRegistrationID(), eventID)
	reg.roster.SetCategory(category)
	reg.catalog.IngestCatalog(raw)

	primaryID, err := reg.roster.AddPrimary(ctx)
	if err != nil {
		return id.RegistrationID{}, id.AttendeeID{}, err
	}

	s.mu.Lock()
	s.regs[reg.id] = reg
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RegistrationsStarted.Inc()
		s.metrics.IncrementAttendeesAdded(string(models.RoleMember))
	}
	s.emit(ctx, audit.Event{
		RegistrationID: reg.id.String(),
		Action:         audit.EventRegistrationStarted,
		Detail:         map[string]string{"event_id": eventID, "category": category},
	})

	s.log.InfoContext(ctx, "registration started",
		"registration_id", reg.id,
		"event_id", eventID,
		"category", category,
	)
	return reg.id, primaryID, nil
}

// loadCatalog returns the raw catalog for an event, fetching from upstream
// only when the freshness marker has lapsed or no cached copy exists.
func (s *Service) loadCatalog(ctx context.Context, eventID string) (models.RawCatalog, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	stale := true
	if s.marker != nil {
		var err error
		stale, err = s.marker.IsStale(ctx, eventID)
		if err != nil {
			s.log.WarnContext(ctx, "catalog freshness check failed, treating as stale", "error", err)
			stale = true
		}
	}
	if !stale {
		if raw, ok := s.rawCatalogs[eventID]; ok {
			return raw, nil
		}
	}

	start := time.Now()
	raw, err := s.fetcher.FetchCatalog(ctx, eventID)
	if err != nil {
		// A cached copy beats failing the registration outright.
		if cached, ok := s.rawCatalogs[eventID]; ok {
			s.log.WarnContext(ctx, "catalog fetch failed, serving cached copy", "event_id", eventID, "error", err)
			return cached, nil
		}
		return models.RawCatalog{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event catalog")
	}
	if s.metrics != nil {
		s.metrics.ObserveCatalogFetch(start)
		s.metrics.CatalogRefreshes.Inc()
	}

	s.rawCatalogs[eventID] = raw
	if s.marker != nil {
		if err := s.marker.MarkFresh(ctx, eventID); err != nil {
			s.log.WarnContext(ctx, "failed to mark catalog fresh", "event_id", eventID, "error", err)
		}
	}
	return raw, nil
}

// RefreshCatalog forces a re-fetch of the event catalog and re-ingests it
// into the registration. Existing selections keep their frozen prices.
func (s *Service) RefreshCatalog(ctx context.Context, registrationID id.RegistrationID) error {
	reg, err := s.get(registrationID)
	if err != nil {
		return err
	}

	start := time.Now()
	raw, err := s.fetcher.FetchCatalog(ctx, reg.eventID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh event catalog")
	}
	if s.metrics != nil {
		s.metrics.ObserveCatalogFetch(start)
		s.metrics.CatalogRefreshes.Inc()
	}

	s.catalogMu.Lock()
	s.rawCatalogs[reg.eventID] = raw
	s.catalogMu.Unlock()
	if s.marker != nil {
		if err := s.marker.MarkFresh(ctx, reg.eventID); err != nil {
			s.log.WarnContext(ctx, "failed to mark catalog fresh", "event_id", reg.eventID, "error", err)
		}
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return err
	}
	reg.catalog.IngestCatalog(raw)
	return nil
}

// Catalog returns the registration's cached ticket and package metadata.
func (s *Service) Catalog(_ context.Context, registrationID id.RegistrationID) ([]models.TicketMetadata, []models.PackageMetadata, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return nil, nil, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.catalog.Tickets(), reg.catalog.Packages(), nil
}

// AddMember adds an additional member attendee.
func (s *Service) AddMember(ctx context.Context, registrationID id.RegistrationID) (id.AttendeeID, error) {
	return s.addAttendee(ctx, registrationID, string(models.RoleMember), func(reg *registration) (id.AttendeeID, error) {
		return reg.roster.AddMember(ctx)
	})
}

// AddGuest adds a guest, optionally hosted by an existing member.
func (s *Service) AddGuest(ctx context.Context, registrationID id.RegistrationID, hostID *id.AttendeeID) (id.AttendeeID, error) {
	return s.addAttendee(ctx, registrationID, string(models.RoleGuest), func(reg *registration) (id.AttendeeID, error) {
		return reg.roster.AddGuest(ctx, hostID)
	})
}

// AddPartner adds a partner for an existing non-partner attendee. If the
// attendee already has a partner, the existing partner id is returned along
// with a conflict error.
func (s *Service) AddPartner(ctx context.Context, registrationID id.RegistrationID, ownerID id.AttendeeID) (id.AttendeeID, error) {
	return s.addAttendee(ctx, registrationID, "partner", func(reg *registration) (id.AttendeeID, error) {
		return reg.roster.AddPartner(ctx, ownerID)
	})
}

func (s *Service) addAttendee(ctx context.Context, registrationID id.RegistrationID, role string, add func(*registration) (id.AttendeeID, error)) (id.AttendeeID, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return id.AttendeeID{}, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return id.AttendeeID{}, err
	}

	attendeeID, err := add(reg)
	if err != nil {
		return attendeeID, err
	}

	if s.metrics != nil {
		s.metrics.IncrementAttendeesAdded(role)
	}
	s.emit(ctx, audit.Event{
		RegistrationID: registrationID.String(),
		Action:         audit.EventAttendeeAdded,
		AttendeeID:     attendeeID.String(),
		Detail:         map[string]string{"role": role},
	})
	return attendeeID, nil
}

// RemoveAttendee removes an attendee, cascades to their partner, and clears
// every removed attendee's selections. Removal of the primary is ignored.
func (s *Service) RemoveAttendee(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID) error {
	ctx, span := s.tracer.Start(ctx, "registration.RemoveAttendee")
	defer span.End()

	reg, err := s.get(registrationID)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return err
	}

	before := attendeeSet(reg.roster.List())
	if err := reg.roster.Remove(ctx, attendeeID); err != nil {
		return err
	}

	removed := 0
	for gone := range before {
		if !reg.roster.Has(gone) {
			reg.ledger.ClearAttendee(gone)
			removed++
		}
	}

	if removed > 0 {
		if s.metrics != nil {
			s.metrics.AttendeesRemoved.Add(float64(removed))
		}
		s.emit(ctx, audit.Event{
			RegistrationID: registrationID.String(),
			Action:         audit.EventAttendeeRemoved,
			AttendeeID:     attendeeID.String(),
			Detail:         map[string]string{"removed": fmt.Sprintf("%d", removed)},
		})
	}
	return nil
}

func attendeeSet(attendees []*models.Attendee) map[id.AttendeeID]struct{} {
	set := make(map[id.AttendeeID]struct{}, len(attendees))
	for _, a := range attendees {
		set[a.ID] = struct{}{}
	}
	return set
}

// UpdateAttendee applies a partial update immediately. Updates for attendees
// removed since the client rendered them are tolerated as a logged no-op.
func (s *Service) UpdateAttendee(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, upd models.AttendeeUpdate) error {
	reg, err := s.get(registrationID)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return err
	}
	reg.roster.Update(ctx, attendeeID, upd)
	return nil
}

// QueueEdit buffers a single-field edit for later flushing.
func (s *Service) QueueEdit(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, field, value string) error {
	reg, err := s.get(registrationID)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return err
	}
	reg.pending.Queue(attendeeID, field, value, requestcontext.Now(ctx))
	return nil
}

// FlushEdits applies all buffered field edits as one update per attendee.
// Edits for attendees removed since queueing are dropped.
func (s *Service) FlushEdits(ctx context.Context, registrationID id.RegistrationID) error {
	reg, err := s.get(registrationID)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return err
	}
	for attendeeID, upd := range reg.pending.Flush() {
		if !reg.roster.Has(attendeeID) {
			continue
		}
		reg.roster.Update(ctx, attendeeID, upd)
	}
	return nil
}

// Attendees lists the roster in insertion order.
func (s *Service) Attendees(_ context.Context, registrationID id.RegistrationID) ([]*models.Attendee, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return nil, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.roster.List(), nil
}

// Attendee returns one attendee.
func (s *Service) Attendee(_ context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID) (*models.Attendee, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return nil, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	a, ok := reg.roster.Get(attendeeID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "attendee not found")
	}
	return a, nil
}

// PrefillMember fills a member attendee's rank and lodge details from the
// fraternal directory.
func (s *Service) PrefillMember(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, memberNumber string) error {
	if s.directory == nil {
		return dErrors.New(dErrors.CodeInvalidState, "member directory is not configured")
	}

	member, err := s.directory.FindMember(ctx, memberNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "member not found in directory")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "directory lookup failed")
	}

	upd := models.AttendeeUpdate{
		FirstName:    &member.FirstName,
		LastName:     &member.LastName,
		Rank:         &member.Rank,
		GrandOfficer: &member.GrandOfficer,
		LodgeID:      &member.LodgeID,
		LodgeName:    &member.LodgeName,
	}
	if member.GrandRank != "" {
		upd.GrandRank = &member.GrandRank
	}
	return s.UpdateAttendee(ctx, registrationID, attendeeID, upd)
}

// SelectPackage selects a package for an attendee.
func (s *Service) SelectPackage(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, packageID string, quantity int) (models.PackageRecord, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return models.PackageRecord{}, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return models.PackageRecord{}, err
	}
	record, err := reg.ledger.SelectPackage(ctx, attendeeID, packageID, quantity)
	if err != nil {
		return models.PackageRecord{}, err
	}
	s.noteSelectionChanged(ctx, registrationID, attendeeID)
	return record, nil
}

// SelectTicket selects an individual ticket for an attendee.
func (s *Service) SelectTicket(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, ticketID string, quantity int) (models.TicketRecord, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return models.TicketRecord{}, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return models.TicketRecord{}, err
	}
	record, err := reg.ledger.SelectTicket(ctx, attendeeID, ticketID, quantity)
	if err != nil {
		return models.TicketRecord{}, err
	}
	s.noteSelectionChanged(ctx, registrationID, attendeeID)
	return record, nil
}

// RemoveSelection removes one selection record from an attendee.
func (s *Service) RemoveSelection(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID, recordID string, kind ledger.Kind) error {
	reg, err := s.get(registrationID)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return err
	}
	if err := reg.ledger.RemoveSelection(ctx, attendeeID, recordID, kind); err != nil {
		return err
	}
	s.noteSelectionChanged(ctx, registrationID, attendeeID)
	return nil
}

func (s *Service) noteSelectionChanged(ctx context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID) {
	if s.metrics != nil {
		s.metrics.SelectionsChanged.Inc()
	}
	s.emit(ctx, audit.Event{
		RegistrationID: registrationID.String(),
		Action:         audit.EventSelectionChanged,
		AttendeeID:     attendeeID.String(),
	})
}

// Selections returns one attendee's current selections.
func (s *Service) Selections(_ context.Context, registrationID id.RegistrationID, attendeeID id.AttendeeID) (ledger.Selections, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return ledger.Selections{}, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if !reg.roster.Has(attendeeID) {
		return ledger.Selections{}, dErrors.New(dErrors.CodeNotFound, "attendee not found")
	}
	sel, _ := reg.ledger.Selections(attendeeID)
	return sel, nil
}

// Summary recomputes the order summary from current roster and ledger state.
func (s *Service) Summary(ctx context.Context, registrationID id.RegistrationID) (models.OrderSummary, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return models.OrderSummary{}, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	start := time.Now()
	summary := order.Recompute(ctx, reg.roster.List(), reg.ledger.All(), reg.status)
	if s.metrics != nil {
		s.metrics.ObserveRecompute(start)
	}
	summary.ConfirmationNumber = reg.confirmationNumber
	return summary, nil
}

// Next advances the wizard one step, running the current step's validation.
func (s *Service) Next(ctx context.Context, registrationID id.RegistrationID) (wizard.Step, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return 0, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return reg.nav.Current(), err
	}
	if err := reg.nav.Next(reg.roster.List()); err != nil {
		return reg.nav.Current(), err
	}
	s.log.DebugContext(ctx, "wizard advanced",
		"registration_id", registrationID,
		"step", reg.nav.Current().String(),
	)
	return reg.nav.Current(), nil
}

// Prev moves the wizard back one step. Always succeeds.
func (s *Service) Prev(_ context.Context, registrationID id.RegistrationID) (wizard.Step, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return 0, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.nav.Prev()
	return reg.nav.Current(), nil
}

// JumpTo moves to a previously reached step.
func (s *Service) JumpTo(_ context.Context, registrationID id.RegistrationID, step wizard.Step) (wizard.Step, error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return 0, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.nav.JumpTo(step); err != nil {
		return reg.nav.Current(), err
	}
	return reg.nav.Current(), nil
}

// CurrentStep returns the wizard position.
func (s *Service) CurrentStep(_ context.Context, registrationID id.RegistrationID) (current, maxReached wizard.Step, err error) {
	reg, err := s.get(registrationID)
	if err != nil {
		return 0, 0, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.nav.Current(), reg.nav.MaxReached(), nil
}

// CreatePaymentIntent creates a payment intent for the full order total and
// moves the order to pending. The order must settle in a single currency.
func (s *Service) CreatePaymentIntent(ctx context.Context, registrationID id.RegistrationID) (payment.Intent, error) {
	ctx, span := s.tracer.Start(ctx, "registration.CreatePaymentIntent")
	defer span.End()

	if s.payments == nil {
		return payment.Intent{}, dErrors.New(dErrors.CodeInvalidState, "payments are not configured")
	}

	reg, err := s.get(registrationID)
	if err != nil {
		return payment.Intent{}, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return payment.Intent{}, err
	}

	summary := order.Recompute(ctx, reg.roster.List(), reg.ledger.All(), reg.status)
	if summary.SubtotalMinor <= 0 {
		return payment.Intent{}, dErrors.New(dErrors.CodeInvalidState, "order total must be positive before payment")
	}
	if len(summary.TotalsByCurrency) != 1 {
		return payment.Intent{}, dErrors.New(dErrors.CodeInvalidState, "order must settle in a single currency")
	}
	var currency string
	for c := range summary.TotalsByCurrency {
		currency = c
	}

	intent, err := s.payments.CreateIntent(ctx, summary.SubtotalMinor, currency, registrationID.String())
	if err != nil {
		return payment.Intent{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create payment intent")
	}

	reg.paymentIntentID = intent.ID
	reg.status = models.OrderStatusPending

	s.emit(ctx, audit.Event{
		RegistrationID: registrationID.String(),
		Action:         audit.EventPaymentIntentCreated,
		Detail:         map[string]string{"intent_id": intent.ID, "currency": currency},
	})
	return intent, nil
}

// Confirm finalizes a pending registration: it assigns a confirmation
// number, completes the wizard, persists the final snapshot, and drops any
// draft. A completed registration accepts no further mutation.
func (s *Service) Confirm(ctx context.Context, registrationID id.RegistrationID, paymentIntentID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Confirm")
	defer span.End()

	reg, err := s.get(registrationID)
	if err != nil {
		return "", err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.status != models.OrderStatusPending {
		return "", dErrors.Newf(dErrors.CodeInvalidState, "registration is %s, expected pending", reg.status)
	}
	if paymentIntentID == "" || paymentIntentID != reg.paymentIntentID {
		return "", dErrors.New(dErrors.CodeInvalidInput, "payment intent does not match this registration")
	}

	reg.status = models.OrderStatusCompleted
	reg.confirmationNumber = newConfirmationNumber()
	reg.nav.Complete()

	start := time.Now()
	if err := s.store.Save(ctx, reg.snapshotLocked(ctx)); err != nil {
		// Roll back so the client can retry confirmation.
		reg.status = models.OrderStatusPending
		reg.confirmationNumber = ""
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist completed registration")
	}
	if s.metrics != nil {
		s.metrics.ObserveSnapshotSave(start)
		s.metrics.RegistrationsCompleted.Inc()
	}
	if s.drafts != nil {
		if err := s.drafts.Delete(ctx, registrationID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.log.WarnContext(ctx, "failed to drop draft after confirmation", "registration_id", registrationID, "error", err)
		}
	}

	s.emit(ctx, audit.Event{
		RegistrationID: registrationID.String(),
		Action:         audit.EventRegistrationCompleted,
		Detail:         map[string]string{"confirmation_number": reg.confirmationNumber},
	})
	s.log.InfoContext(ctx, "registration completed",
		"registration_id", registrationID,
		"confirmation_number", reg.confirmationNumber,
	)
	return reg.confirmationNumber, nil
}

// Cancel cancels a registration that has not completed.
func (s *Service) Cancel(ctx context.Context, registrationID id.RegistrationID) error {
	reg, err := s.get(registrationID)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.status == models.OrderStatusCompleted {
		return dErrors.New(dErrors.CodeInvalidState, "a completed registration cannot be cancelled")
	}
	if reg.status == models.OrderStatusCancelled {
		return nil
	}

	reg.status = models.OrderStatusCancelled
	if s.drafts != nil {
		if err := s.drafts.Delete(ctx, registrationID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.log.WarnContext(ctx, "failed to drop draft after cancellation", "registration_id", registrationID, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCancelled.Inc()
	}
	s.emit(ctx, audit.Event{
		RegistrationID: registrationID.String(),
		Action:         audit.EventRegistrationCancelled,
	})
	return nil
}

// SaveDraft flushes pending edits and snapshots the registration to the
// draft store, falling back to the durable store when no draft store is
// configured.
func (s *Service) SaveDraft(ctx context.Context, registrationID id.RegistrationID) error {
	reg, err := s.get(registrationID)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if err := reg.guardMutable(); err != nil {
		return err
	}
	for attendeeID, upd := range reg.pending.Flush() {
		if reg.roster.Has(attendeeID) {
			reg.roster.Update(ctx, attendeeID, upd)
		}
	}

	target := s.drafts
	if target == nil {
		target = s.store
	}
	start := time.Now()
	if err := target.Save(ctx, reg.snapshotLocked(ctx)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}
	if s.metrics != nil {
		s.metrics.ObserveSnapshotSave(start)
	}
	return nil
}

// Resume returns a live registration, rehydrating it from the draft store or
// the durable store when it is not in memory.
func (s *Service) Resume(ctx context.Context, registrationID id.RegistrationID) error {
	ctx, span := s.tracer.Start(ctx, "registration.Resume")
	defer span.End()

	s.mu.RLock()
	_, ok := s.regs[registrationID]
	s.mu.RUnlock()
	if ok {
		return nil
	}

	snap, err := s.findSnapshot(ctx, registrationID)
	if err != nil {
		return err
	}

	reg := newRegistration(s.log, snap.RegistrationID, snap.EventID)
	reg.mu.Lock()
	reg.restoreLocked(snap)
	reg.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regs[registrationID]; !ok {
		s.regs[registrationID] = reg
	}
	s.log.InfoContext(ctx, "registration resumed", "registration_id", registrationID)
	return nil
}

func (s *Service) findSnapshot(ctx context.Context, registrationID id.RegistrationID) (store.Snapshot, error) {
	if s.drafts != nil {
		snap, err := s.drafts.Find(ctx, registrationID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return store.Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draft")
		}
	}
	snap, err := s.store.Find(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return store.Snapshot{}, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return store.Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return snap, nil
}

func (s *Service) get(registrationID id.RegistrationID) (*registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.regs[registrationID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
	}
	return reg, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.At = requestcontext.Now(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.log.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func newConfirmationNumber() string {
	return "CS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

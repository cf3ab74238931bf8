package service

//go:generate mockgen -destination=mocks/catalog_fetcher.go -package=mocks cornerstone/internal/registration/catalog Fetcher
//go:generate mockgen -destination=mocks/payment_intent.go -package=mocks cornerstone/internal/payment IntentService
//go:generate mockgen -destination=mocks/directory_lookup.go -package=mocks cornerstone/internal/directory Lookup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cornerstone/internal/directory"
	"cornerstone/internal/payment"
	"cornerstone/internal/registration/audit"
	"cornerstone/internal/registration/ledger"
	"cornerstone/internal/registration/models"
	"cornerstone/internal/registration/service/mocks"
	"cornerstone/internal/registration/store"
	"cornerstone/internal/registration/wizard"
	id "cornerstone/pkg/domain"
	dErrors "cornerstone/pkg/domain-errors"
	"cornerstone/pkg/requestcontext"
)

const testEventID = "grand-installation-2026"

func testCatalog() models.RawCatalog {
	return models.RawCatalog{
		Tickets: []models.RawTicket{
			{ID: "banquet-dinner", EventID: testEventID, Name: "Banquet Dinner", PriceMinor: 9500, Currency: "AUD"},
			{ID: "ladies-brunch", EventID: testEventID, Name: "Ladies Brunch", PriceMinor: 5500, Currency: "AUD"},
		},
		Packages: []models.RawPackage{
			{
				ID: "full-weekend", EventID: testEventID, Name: "Full Weekend",
				PriceMinor: 14000, Currency: "AUD",
				IncludedTicketIDs: []string{"banquet-dinner", "ladies-brunch"},
			},
		},
	}
}

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	fetcher   *mocks.MockFetcher
	payments  *mocks.MockIntentService
	directory *mocks.MockLookup
	audit     *audit.InMemoryPublisher
	snapshots *store.InMemoryStore
	svc       *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.fetcher = mocks.NewMockFetcher(s.ctrl)
	s.payments = mocks.NewMockIntentService(s.ctrl)
	s.directory = mocks.NewMockLookup(s.ctrl)
	s.audit = audit.NewInMemoryPublisher()
	s.snapshots = store.NewInMemoryStore()
	s.ctx = context.Background()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(log, s.snapshots, s.fetcher,
		WithPayments(s.payments),
		WithDirectory(s.directory),
		WithAuditPublisher(s.audit),
	)
}

func (s *ServiceSuite) start() (id.RegistrationID, id.AttendeeID) {
	s.fetcher.EXPECT().FetchCatalog(gomock.Any(), testEventID).Return(testCatalog(), nil)
	regID, primaryID, err := s.svc.Start(s.ctx, testEventID, "member")
	s.Require().NoError(err)
	return regID, primaryID
}

func (s *ServiceSuite) fillDetails(regID id.RegistrationID, attendeeID id.AttendeeID, first string) {
	pref := models.ContactDirectly
	upd := models.AttendeeUpdate{
		FirstName:         strPtr(first),
		LastName:          strPtr("Fairbairn"),
		ContactPreference: &pref,
		Email:             strPtr(strings.ToLower(first) + "@example.org"),
		Phone:             strPtr("0400000000"),
		Rank:              strPtr("Worshipful Master"),
	}
	s.Require().NoError(s.svc.UpdateAttendee(s.ctx, regID, attendeeID, upd))
}

func strPtr(v string) *string { return &v }

func (s *ServiceSuite) TestStartSeedsPrimary() {
	regID, primaryID := s.start()

	attendees, err := s.svc.Attendees(s.ctx, regID)
	s.Require().NoError(err)
	s.Require().Len(attendees, 1)
	s.Equal(primaryID, attendees[0].ID)
	s.True(attendees[0].IsPrimary)
	s.Equal(models.RoleMember, attendees[0].Role)

	s.Len(s.audit.ByAction(audit.EventRegistrationStarted), 1)
}

func (s *ServiceSuite) TestStartRequiresCategory() {
	_, _, err := s.svc.Start(s.ctx, testEventID, "  ")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestStartCatalogFetchFails() {
	s.fetcher.EXPECT().FetchCatalog(gomock.Any(), testEventID).Return(models.RawCatalog{}, errors.New("upstream down"))

	_, _, err := s.svc.Start(s.ctx, testEventID, "member")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestRemoveAttendeeCascadesAndClearsSelections() {
	regID, _ := s.start()

	memberID, err := s.svc.AddMember(s.ctx, regID)
	s.Require().NoError(err)
	partnerID, err := s.svc.AddPartner(s.ctx, regID, memberID)
	s.Require().NoError(err)

	_, err = s.svc.SelectTicket(s.ctx, regID, memberID, "banquet-dinner", 1)
	s.Require().NoError(err)
	_, err = s.svc.SelectTicket(s.ctx, regID, partnerID, "ladies-brunch", 1)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.RemoveAttendee(s.ctx, regID, memberID))

	attendees, err := s.svc.Attendees(s.ctx, regID)
	s.Require().NoError(err)
	s.Len(attendees, 1)

	summary, err := s.svc.Summary(s.ctx, regID)
	s.Require().NoError(err)
	s.Zero(summary.SubtotalMinor)
	s.Zero(summary.TotalTickets)

	s.Len(s.audit.ByAction(audit.EventAttendeeRemoved), 1)
}

func (s *ServiceSuite) TestRemovePrimaryIsIgnored() {
	regID, primaryID := s.start()

	s.Require().NoError(s.svc.RemoveAttendee(s.ctx, regID, primaryID))

	attendees, err := s.svc.Attendees(s.ctx, regID)
	s.Require().NoError(err)
	s.Len(attendees, 1)
	s.Empty(s.audit.ByAction(audit.EventAttendeeRemoved))
}

func (s *ServiceSuite) TestAddPartnerTwiceReturnsExisting() {
	regID, primaryID := s.start()

	partnerID, err := s.svc.AddPartner(s.ctx, regID, primaryID)
	s.Require().NoError(err)

	again, err := s.svc.AddPartner(s.ctx, regID, primaryID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(partnerID, again)
}

func (s *ServiceSuite) TestNextBlocksOnMissingDetails() {
	regID, _ := s.start()

	// Past type selection; details are still empty.
	_, err := s.svc.Next(s.ctx, regID)
	s.Require().NoError(err)

	_, err = s.svc.Next(s.ctx, regID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.NotEmpty(dErrors.FieldsOf(err))
}

func (s *ServiceSuite) TestNextBlocksWithoutSelections() {
	regID, primaryID := s.start()
	s.fillDetails(regID, primaryID, "Arthur")

	_, err := s.svc.Next(s.ctx, regID)
	s.Require().NoError(err)
	step, err := s.svc.Next(s.ctx, regID)
	s.Require().NoError(err)
	s.Equal(wizard.StepTicketSelection, step)

	_, err = s.svc.Next(s.ctx, regID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.SelectPackage(s.ctx, regID, primaryID, "full-weekend", 1)
	s.Require().NoError(err)

	step, err = s.svc.Next(s.ctx, regID)
	s.Require().NoError(err)
	s.Equal(wizard.StepReview, step)
}

func (s *ServiceSuite) TestJumpBackAndForward() {
	regID, primaryID := s.start()
	s.fillDetails(regID, primaryID, "Arthur")
	_, err := s.svc.SelectPackage(s.ctx, regID, primaryID, "full-weekend", 1)
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		_, err = s.svc.Next(s.ctx, regID)
		s.Require().NoError(err)
	}

	step, err := s.svc.JumpTo(s.ctx, regID, wizard.StepAttendeeDetails)
	s.Require().NoError(err)
	s.Equal(wizard.StepAttendeeDetails, step)

	step, err = s.svc.JumpTo(s.ctx, regID, wizard.StepReview)
	s.Require().NoError(err)
	s.Equal(wizard.StepReview, step)

	_, err = s.svc.JumpTo(s.ctx, regID, wizard.StepConfirmation)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestPaymentAndConfirm() {
	regID, primaryID := s.start()
	s.fillDetails(regID, primaryID, "Arthur")
	_, err := s.svc.SelectPackage(s.ctx, regID, primaryID, "full-weekend", 1)
	s.Require().NoError(err)

	s.payments.EXPECT().
		CreateIntent(gomock.Any(), int64(14000), "AUD", regID.String()).
		Return(payment.Intent{ID: "pi_123", ClientSecret: "secret", AmountMinor: 14000, Currency: "AUD"}, nil)

	intent, err := s.svc.CreatePaymentIntent(s.ctx, regID)
	s.Require().NoError(err)
	s.Equal("pi_123", intent.ID)

	summary, err := s.svc.Summary(s.ctx, regID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, summary.Status)

	number, err := s.svc.Confirm(s.ctx, regID, "pi_123")
	s.Require().NoError(err)
	s.True(strings.HasPrefix(number, "CS-"))

	// The completed snapshot is durable.
	snap, err := s.snapshots.Find(s.ctx, regID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusCompleted, snap.Status)
	s.Equal(number, snap.ConfirmationNumber)

	// No further mutation.
	_, err = s.svc.AddMember(s.ctx, regID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	s.Len(s.audit.ByAction(audit.EventRegistrationCompleted), 1)
}

func (s *ServiceSuite) TestConfirmRejectsWrongIntent() {
	regID, primaryID := s.start()
	s.fillDetails(regID, primaryID, "Arthur")
	_, err := s.svc.SelectPackage(s.ctx, regID, primaryID, "full-weekend", 1)
	s.Require().NoError(err)

	s.payments.EXPECT().
		CreateIntent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(payment.Intent{ID: "pi_123"}, nil)
	_, err = s.svc.CreatePaymentIntent(s.ctx, regID)
	s.Require().NoError(err)

	_, err = s.svc.Confirm(s.ctx, regID, "pi_other")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestConfirmRequiresPending() {
	regID, _ := s.start()

	_, err := s.svc.Confirm(s.ctx, regID, "pi_123")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestPaymentIntentRequiresPositiveTotal() {
	regID, _ := s.start()

	_, err := s.svc.CreatePaymentIntent(s.ctx, regID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestCancel() {
	regID, _ := s.start()

	s.Require().NoError(s.svc.Cancel(s.ctx, regID))
	s.Require().NoError(s.svc.Cancel(s.ctx, regID)) // idempotent

	_, err := s.svc.AddMember(s.ctx, regID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	s.Len(s.audit.ByAction(audit.EventRegistrationCancelled), 1)
}

func (s *ServiceSuite) TestSaveDraftAndResume() {
	regID, primaryID := s.start()
	s.fillDetails(regID, primaryID, "Arthur")
	_, err := s.svc.SelectTicket(s.ctx, regID, primaryID, "banquet-dinner", 2)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.SaveDraft(s.ctx, regID))

	// A fresh service sharing the store picks the draft up.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	other := New(log, s.snapshots, s.fetcher)
	s.Require().NoError(other.Resume(s.ctx, regID))

	attendees, err := other.Attendees(s.ctx, regID)
	s.Require().NoError(err)
	s.Require().Len(attendees, 1)
	s.Equal("Arthur", attendees[0].FirstName)

	sel, err := other.Selections(s.ctx, regID, primaryID)
	s.Require().NoError(err)
	s.Require().Len(sel.Tickets, 1)
	s.Equal(int64(19000), sel.SubtotalMinor)
}

func (s *ServiceSuite) TestResumeMissing() {
	err := s.svc.Resume(s.ctx, id.NewRegistrationID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestPrefillMember() {
	regID, primaryID := s.start()

	s.directory.EXPECT().FindMember(gomock.Any(), "L1234").Return(directory.Member{
		MemberNumber: "L1234",
		FirstName:    "Arthur",
		LastName:     "Fairbairn",
		Rank:         "Past Master",
		LodgeID:      "lodge-17",
		LodgeName:    "Lodge Unity No. 17",
	}, nil)

	s.Require().NoError(s.svc.PrefillMember(s.ctx, regID, primaryID, "L1234"))

	attendee, err := s.svc.Attendee(s.ctx, regID, primaryID)
	s.Require().NoError(err)
	s.Equal("Past Master", attendee.Rank)
	s.Equal("Lodge Unity No. 17", attendee.LodgeName)
}

func (s *ServiceSuite) TestUpdateAfterRemoveIsTolerated() {
	regID, _ := s.start()

	guestID, err := s.svc.AddGuest(s.ctx, regID, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.RemoveAttendee(s.ctx, regID, guestID))

	// The edit form may still be mounted client-side; a late update or queued
	// edit for the removed attendee is dropped without error.
	name := "Ghost"
	s.Require().NoError(s.svc.UpdateAttendee(s.ctx, regID, guestID, models.AttendeeUpdate{FirstName: &name}))

	s.Require().NoError(s.svc.QueueEdit(s.ctx, regID, guestID, "first_name", "Ghost"))
	s.Require().NoError(s.svc.FlushEdits(s.ctx, regID))

	attendees, err := s.svc.Attendees(s.ctx, regID)
	s.Require().NoError(err)
	s.Len(attendees, 1)
}

func (s *ServiceSuite) TestQueuedEditsLastWriteWins() {
	regID, primaryID := s.start()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	later := requestcontext.WithTime(s.ctx, base.Add(2*time.Second))
	earlier := requestcontext.WithTime(s.ctx, base)

	s.Require().NoError(s.svc.QueueEdit(later, regID, primaryID, "first_name", "Arthur"))
	// A stale edit arriving afterwards loses.
	s.Require().NoError(s.svc.QueueEdit(earlier, regID, primaryID, "first_name", "Art"))
	s.Require().NoError(s.svc.QueueEdit(earlier, regID, primaryID, "last_name", "Fairbairn"))

	s.Require().NoError(s.svc.FlushEdits(s.ctx, regID))

	attendee, err := s.svc.Attendee(s.ctx, regID, primaryID)
	s.Require().NoError(err)
	s.Equal("Arthur", attendee.FirstName)
	s.Equal("Fairbairn", attendee.LastName)
}

func (s *ServiceSuite) TestRefreshCatalogKeepsFrozenPrices() {
	regID, primaryID := s.start()

	record, err := s.svc.SelectTicket(s.ctx, regID, primaryID, "banquet-dinner", 1)
	s.Require().NoError(err)
	s.Equal(int64(9500), record.SubtotalMinor)

	repriced := testCatalog()
	repriced.Tickets[0].PriceMinor = 12000
	s.fetcher.EXPECT().FetchCatalog(gomock.Any(), testEventID).Return(repriced, nil)
	s.Require().NoError(s.svc.RefreshCatalog(s.ctx, regID))

	// Existing selection keeps its snapshot price.
	sel, err := s.svc.Selections(s.ctx, regID, primaryID)
	s.Require().NoError(err)
	s.Equal(int64(9500), sel.SubtotalMinor)

	// A re-selection picks up the new price.
	record, err = s.svc.SelectTicket(s.ctx, regID, primaryID, "banquet-dinner", 1)
	s.Require().NoError(err)
	s.Equal(int64(12000), record.SubtotalMinor)
}

func (s *ServiceSuite) TestRemoveSelection() {
	regID, primaryID := s.start()

	record, err := s.svc.SelectTicket(s.ctx, regID, primaryID, "banquet-dinner", 1)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.RemoveSelection(s.ctx, regID, primaryID, record.ID.String(), ledger.KindTicket))

	sel, err := s.svc.Selections(s.ctx, regID, primaryID)
	s.Require().NoError(err)
	s.Empty(sel.Tickets)
	s.Zero(sel.SubtotalMinor)
}

func (s *ServiceSuite) TestUnknownRegistration() {
	_, err := s.svc.Attendees(s.ctx, id.NewRegistrationID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

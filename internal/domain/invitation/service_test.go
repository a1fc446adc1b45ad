package invitation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"water-app-go/internal/domain/invitation"
	"water-app-go/internal/domain/property"
	"water-app-go/internal/domain/registration"
	"water-app-go/internal/domain/user"
	"water-app-go/internal/platform/lock"
	"water-app-go/internal/repository/inmemory"
	"water-app-go/pkg/apperr"
)

type InvitationSuite struct {
	suite.Suite

	ctx           context.Context
	users         *inmemory.UserRepository
	properties    *inmemory.PropertyRepository
	invitations   *inmemory.InvitationRepository
	registrations *registration.Service
	now           time.Time
	hostWaterID   string
}

func TestInvitationSuite(t *testing.T) {
	suite.Run(t, new(InvitationSuite))
}

func (s *InvitationSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = inmemory.NewUserRepository()
	s.properties = inmemory.NewPropertyRepository()
	s.invitations = inmemory.NewInvitationRepository()
	s.now = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

	for _, id := range []string{"host", "G1", "G2", "G3"} {
		s.Require().NoError(s.users.Create(s.ctx, &user.User{UserID: id, Name: "Name " + id, NationalID: "n-" + id}))
	}

	props := property.NewService(s.users, s.properties, inmemory.NewFamilyRepository(), lock.NewKeyedMutex())
	p, err := props.CreateProperty(s.ctx, "host", property.CreateInput{
		Name: "Host Home", District: "D", Municipality: "M", Ward: 3, Type: property.TypePersonal, IdentifierNumber: "H1",
	})
	s.Require().NoError(err)
	s.hostWaterID = p.OwnerWaterID()

	userSvc := user.NewService(s.users)
	s.registrations = registration.NewService(inmemory.NewRegistrationRepository(), userSvc,
		registration.WithNow(func() time.Time { return s.now }),
		registration.WithLocation(time.UTC),
	)
}

func (s *InvitationSuite) service(opts ...invitation.Option) *invitation.Service {
	return invitation.NewService(s.invitations, s.users, s.properties, s.registrations, opts...)
}

func (s *InvitationSuite) register(svc *invitation.Service, guests ...string) *invitation.Invitation {
	arrival := map[string]string{}
	duration := map[string]string{}
	for _, g := range guests {
		arrival[g] = "2024-03-10T10:00"
		duration[g] = "2h"
	}
	inv, err := svc.Register(s.ctx, invitation.RegisterInput{
		HostID:       "host",
		HostWaterID:  s.hostWaterID,
		Guests:       guests,
		ArrivalTime:  arrival,
		StayDuration: duration,
	})
	s.Require().NoError(err)
	return inv
}

func (s *InvitationSuite) stored(id string) *invitation.Invitation {
	inv, err := s.invitations.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NoError(inv.Validate())
	return inv
}

func (s *InvitationSuite) TestRegisterStartsEveryGuestPending() {
	inv := s.register(s.service(), "G1", "G2")

	stored := s.stored(inv.ID)
	s.Equal(map[string]string{"G1": "pending", "G2": "pending"}, stored.Status)
	s.Empty(stored.OTP)
	s.Equal([]string{"G1", "G2"}, stored.Guests())
}

func (s *InvitationSuite) TestReRegisterReplacesGuestSet() {
	svc := s.service()
	first := s.register(svc, "G1", "G2")
	_, err := svc.UpdateState(s.ctx, first.ID, "G1", invitation.StatusAccepted)
	s.Require().NoError(err)

	second := s.register(svc, "G2", "G3")
	s.Equal(first.ID, second.ID, "one invitation per host water id")

	stored := s.stored(second.ID)
	s.Equal(map[string]string{"G2": "pending", "G3": "pending"}, stored.Status)
}

func (s *InvitationSuite) TestRegisterValidation() {
	svc := s.service()
	base := invitation.RegisterInput{
		HostID:       "host",
		HostWaterID:  s.hostWaterID,
		Guests:       []string{"G1"},
		ArrivalTime:  map[string]string{"G1": "10:00"},
		StayDuration: map[string]string{"G1": "1h"},
	}

	in := base
	in.Guests = nil
	_, err := svc.Register(s.ctx, in)
	s.ErrorIs(err, invitation.ErrGuestsRequired)

	in = base
	in.Guests = []string{"G1", "G1"}
	_, err = svc.Register(s.ctx, in)
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	in = base
	in.StayDuration = map[string]string{}
	_, err = svc.Register(s.ctx, in)
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	in = base
	in.ArrivalTime = map[string]string{"G1": "10:00", "G9": "11:00"}
	_, err = svc.Register(s.ctx, in)
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	in = base
	in.HostWaterID = "broken"
	_, err = svc.Register(s.ctx, in)
	s.Equal(apperr.KindMalformedIdentifier, apperr.KindOf(err))

	in = base
	in.HostID = "G2"
	_, err = svc.Register(s.ctx, in)
	s.ErrorIs(err, invitation.ErrNotHost)

	in = base
	in.Guests = []string{"ghost"}
	in.ArrivalTime = map[string]string{"ghost": "10:00"}
	in.StayDuration = map[string]string{"ghost": "1h"}
	_, err = svc.Register(s.ctx, in)
	s.ErrorIs(err, invitation.ErrGuestNotFound)
}

func (s *InvitationSuite) TestDecliningLastGuestDeletesInvitation() {
	svc := s.service()
	inv := s.register(svc, "G1", "G2")

	res, err := svc.UpdateState(s.ctx, inv.ID, "G1", invitation.StatusDeclined)
	s.Require().NoError(err)
	s.False(res.Deleted)
	stored := s.stored(inv.ID)
	s.Equal(map[string]string{"G2": "pending"}, stored.Status)
	s.Equal([]string{"G2"}, stored.Guests())

	res, err = svc.UpdateState(s.ctx, inv.ID, "G2", invitation.StatusDeclined)
	s.Require().NoError(err)
	s.True(res.Deleted)

	_, err = s.invitations.GetByID(s.ctx, inv.ID)
	s.Error(err)
	_, err = svc.UpdateState(s.ctx, inv.ID, "G2", invitation.StatusAccepted)
	s.ErrorIs(err, invitation.ErrInvitationNotFound)
}

func (s *InvitationSuite) TestAcceptAddsGuestToRegistrationOnce() {
	s.now = time.Date(2024, time.March, 10, 7, 30, 0, 0, time.UTC)
	svc := s.service()
	inv := s.register(svc, "G1")

	res, err := svc.UpdateState(s.ctx, inv.ID, "G1", invitation.StatusAccepted)
	s.Require().NoError(err)
	s.False(res.GuestAdded, "host has not registered yet")

	_, err = s.registrations.Register(s.ctx, registration.RegisterInput{WaterID: s.hostWaterID, PrimaryMembers: []string{"host"}})
	s.Require().NoError(err)

	for i := 0; i < 2; i++ {
		res, err = svc.UpdateState(s.ctx, inv.ID, "G1", invitation.StatusAccepted)
		s.Require().NoError(err)
		s.True(res.GuestAdded)
	}

	s.Equal("accepted", s.stored(inv.ID).Status["G1"])

	s.now = s.now.Add(24 * time.Hour)
	details, err := s.registrations.GetDetails(s.ctx, s.hostWaterID)
	s.Require().NoError(err)
	s.Require().True(details.Found, "lookup of yesterday's 8 o'clock slot")
	s.Require().Len(details.InvitedGuests, 1)
	s.Equal("G1", details.InvitedGuests[0].UserID)
}

func (s *InvitationSuite) TestAcceptInLaterSlotReachesEarlierBooking() {
	s.now = time.Date(2024, time.March, 10, 7, 30, 0, 0, time.UTC)
	svc := s.service()
	inv := s.register(svc, "G1")

	_, err := s.registrations.Register(s.ctx, registration.RegisterInput{WaterID: s.hostWaterID, PrimaryMembers: []string{"host"}})
	s.Require().NoError(err)

	s.now = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	res, err := svc.UpdateState(s.ctx, inv.ID, "G1", invitation.StatusAccepted)
	s.Require().NoError(err)
	s.True(res.GuestAdded)

	s.now = time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC)
	details, err := s.registrations.GetDetails(s.ctx, s.hostWaterID)
	s.Require().NoError(err)
	s.Require().True(details.Found)
	s.Require().Len(details.InvitedGuests, 1)
	s.Equal("G1", details.InvitedGuests[0].UserID)
}

func (s *InvitationSuite) TestUpdateStateMembershipAndStatus() {
	svc := s.service()
	inv := s.register(svc, "G1")

	_, err := svc.UpdateState(s.ctx, inv.ID, "G3", invitation.StatusAccepted)
	s.ErrorIs(err, invitation.ErrNotInvited)
	s.Equal(apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.UpdateState(s.ctx, inv.ID, "G1", invitation.StatusPending)
	s.ErrorIs(err, invitation.ErrInvalidStatus)
}

func (s *InvitationSuite) TestPermissiveAndStrictTransitionsDiffer() {
	permissive := s.service()
	inv := s.register(permissive, "G1", "G2")

	_, err := permissive.UpdateState(s.ctx, inv.ID, "G1", invitation.StatusAccepted)
	s.Require().NoError(err)
	_, err = permissive.UpdateState(s.ctx, inv.ID, "G1", invitation.StatusAccepted)
	s.NoError(err, "re-answering is allowed by default")
	_, err = permissive.UpdateState(s.ctx, inv.ID, "G1", invitation.StatusDeclined)
	s.NoError(err, "an accepted guest may still decline by default")

	strict := s.service(invitation.WithStrictTransitions())
	_, err = strict.UpdateState(s.ctx, inv.ID, "G2", invitation.StatusAccepted)
	s.Require().NoError(err)
	_, err = strict.UpdateState(s.ctx, inv.ID, "G2", invitation.StatusDeclined)
	s.ErrorIs(err, invitation.ErrAlreadyAnswered)
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
}

// readTogether holds GetByID callers until both have read the invitation.
type readTogether struct {
	*inmemory.InvitationRepository
	arrived *sync.WaitGroup
}

func (r readTogether) GetByID(ctx context.Context, id string) (*invitation.Invitation, error) {
	inv, err := r.InvitationRepository.GetByID(ctx, id)
	r.arrived.Done()
	r.arrived.Wait()
	return inv, err
}

func (s *InvitationSuite) TestStrictConcurrentAnswersOnlyOneLands() {
	inv := s.register(s.service(), "G1", "G2")

	arrived := &sync.WaitGroup{}
	arrived.Add(2)
	strict := invitation.NewService(readTogether{s.invitations, arrived}, s.users, s.properties, s.registrations,
		invitation.WithStrictTransitions())

	answers := []invitation.Status{invitation.StatusAccepted, invitation.StatusDeclined}
	errs := make([]error, len(answers))
	var wg sync.WaitGroup
	for i, answer := range answers {
		wg.Add(1)
		go func(i int, answer invitation.Status) {
			defer wg.Done()
			_, errs[i] = strict.UpdateState(s.ctx, inv.ID, "G1", answer)
		}(i, answer)
	}
	wg.Wait()

	landed := -1
	for i, err := range errs {
		if err == nil {
			s.Require().Equal(-1, landed, "both answers were applied")
			landed = i
			continue
		}
		s.ErrorIs(err, invitation.ErrAlreadyAnswered)
	}
	s.Require().NotEqual(-1, landed)

	stored := s.stored(inv.ID)
	if answers[landed] == invitation.StatusAccepted {
		s.Equal("accepted", stored.Status["G1"])
	} else {
		s.NotContains(stored.Status, "G1")
	}
	s.Equal("pending", stored.Status["G2"])
}

func (s *InvitationSuite) TestViewForGuestReturnsOwnEntries() {
	svc := s.service()
	inv, err := svc.Register(s.ctx, invitation.RegisterInput{
		HostID:       "host",
		HostWaterID:  s.hostWaterID,
		Guests:       []string{"G1", "G2"},
		ArrivalTime:  map[string]string{"G1": "09:00", "G2": "18:00"},
		StayDuration: map[string]string{"G1": "1h", "G2": "3d"},
	})
	s.Require().NoError(err)

	views, err := svc.ViewForGuest(s.ctx, "G2")
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(inv.ID, views[0].InvitationID)
	s.Equal("18:00", views[0].ArrivalTime)
	s.Equal("3d", views[0].StayDuration)
	s.Equal(invitation.StatusPending, views[0].Status)
	s.Equal("Name host", views[0].Host.Name)
	s.Equal("Host Home", views[0].Property.Name)

	views, err = svc.ViewForGuest(s.ctx, "G3")
	s.Require().NoError(err)
	s.Empty(views)
}

func (s *InvitationSuite) TestViewForGuestSkipsDanglingInvitations() {
	s.Require().NoError(s.invitations.Upsert(s.ctx, &invitation.Invitation{
		ID:           "dangling",
		HostWaterID:  "ZZZZZZZZZZZZZZZ_000",
		HostID:       "host",
		Status:       map[string]string{"G1": "pending"},
		ArrivalTime:  map[string]string{"G1": "x"},
		StayDuration: map[string]string{"G1": "y"},
	}))
	s.Require().NoError(s.invitations.Upsert(s.ctx, &invitation.Invitation{
		ID:           "malformed",
		HostWaterID:  "nonsense",
		HostID:       "host",
		Status:       map[string]string{"G1": "pending"},
		ArrivalTime:  map[string]string{"G1": "x"},
		StayDuration: map[string]string{"G1": "y"},
	}))

	views, err := s.service().ViewForGuest(s.ctx, "G1")
	s.Require().NoError(err)
	s.Empty(views)
}

func TestValidateDetectsMismatchedKeys(t *testing.T) {
	inv := invitation.Invitation{
		Status:       map[string]string{"a": "pending", "b": "pending"},
		ArrivalTime:  map[string]string{"a": "1", "b": "2"},
		StayDuration: map[string]string{"a": "1"},
	}
	assert.Error(t, inv.Validate())

	inv.StayDuration["b"] = "2"
	require.NoError(t, inv.Validate())

	inv.ArrivalTime["c"] = "3"
	assert.Error(t, inv.Validate())
}

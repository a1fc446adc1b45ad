//go:build integration

package invitation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	domain "water-app-go/internal/domain/invitation"
	"water-app-go/internal/repository/postgres/invitation"
	"water-app-go/internal/store"
	"water-app-go/internal/testutil/containers"
)

type InvitationStoreSuite struct {
	suite.Suite
	pg   *containers.PostgresContainer
	repo *invitation.PostgresRepository
	ctx  context.Context
}

func TestInvitationStoreSuite(t *testing.T) {
	suite.Run(t, new(InvitationStoreSuite))
}

func (s *InvitationStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.repo = invitation.NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *InvitationStoreSuite) SetupTest() {
	s.pg.Truncate(s.T())
}

func (s *InvitationStoreSuite) seed(guests ...string) *domain.Invitation {
	inv := &domain.Invitation{
		ID:           uuid.NewString(),
		HostWaterID:  "ROOTROOTROOTROO_000",
		HostID:       "host",
		Status:       map[string]string{},
		ArrivalTime:  map[string]string{},
		StayDuration: map[string]string{},
		OTP:          map[string]string{},
	}
	for _, g := range guests {
		inv.Status[g] = string(domain.StatusPending)
		inv.ArrivalTime[g] = "10:00"
		inv.StayDuration[g] = "1h"
	}
	s.Require().NoError(s.repo.Upsert(s.ctx, inv))
	return inv
}

func (s *InvitationStoreSuite) TestUpsertKeepsID() {
	first := s.seed("G1")
	second := s.seed("G2")
	s.Equal(first.ID, second.ID)

	got, err := s.repo.GetByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(map[string]string{"G2": "pending"}, got.Status)

	list, err := s.repo.ListByGuest(s.ctx, "G1")
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *InvitationStoreSuite) TestConcurrentAnswersDoNotLoseUpdates() {
	guests := []string{"G1", "G2", "G3", "G4", "G5", "G6"}
	inv := s.seed(guests...)

	var wg sync.WaitGroup
	for i, g := range guests {
		wg.Add(1)
		go func(i int, g string) {
			defer wg.Done()
			if i%2 == 0 {
				s.NoError(s.repo.SetGuestStatus(s.ctx, inv.ID, g, "", domain.StatusAccepted))
				return
			}
			_, err := s.repo.RemoveGuest(s.ctx, inv.ID, g, "")
			s.NoError(err)
		}(i, g)
	}
	wg.Wait()

	got, err := s.repo.GetByID(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.Require().NoError(got.Validate())
	s.Equal(map[string]string{"G1": "accepted", "G3": "accepted", "G5": "accepted"}, got.Status)
}

func (s *InvitationStoreSuite) TestRemovingLastGuestDeletes() {
	inv := s.seed("G1", "G2")

	deleted, err := s.repo.RemoveGuest(s.ctx, inv.ID, "G1", "")
	s.Require().NoError(err)
	s.False(deleted)

	deleted, err = s.repo.RemoveGuest(s.ctx, inv.ID, "G2", "")
	s.Require().NoError(err)
	s.True(deleted)

	_, err = s.repo.GetByID(s.ctx, inv.ID)
	s.ErrorIs(err, store.ErrNotFound)
	_, err = s.repo.RemoveGuest(s.ctx, inv.ID, "G2", "")
	s.ErrorIs(err, store.ErrNotFound)
	s.ErrorIs(s.repo.SetGuestStatus(s.ctx, inv.ID, "G2", "", domain.StatusAccepted), store.ErrNotFound)
}

func (s *InvitationStoreSuite) TestExpectedStatusGuardsTheWrite() {
	inv := s.seed("G1", "G2")

	s.Require().NoError(s.repo.SetGuestStatus(s.ctx, inv.ID, "G1", domain.StatusPending, domain.StatusAccepted))
	s.ErrorIs(s.repo.SetGuestStatus(s.ctx, inv.ID, "G1", domain.StatusPending, domain.StatusAccepted), store.ErrConflict)
	_, err := s.repo.RemoveGuest(s.ctx, inv.ID, "G1", domain.StatusPending)
	s.ErrorIs(err, store.ErrConflict)
	s.ErrorIs(s.repo.SetGuestStatus(s.ctx, inv.ID, "G3", domain.StatusPending, domain.StatusAccepted), store.ErrNotFound)

	got, err := s.repo.GetByID(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(map[string]string{"G1": "accepted", "G2": "pending"}, got.Status)

	deleted, err := s.repo.RemoveGuest(s.ctx, inv.ID, "G2", domain.StatusPending)
	s.Require().NoError(err)
	s.False(deleted)
}

//go:build integration

package registration_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	domain "water-app-go/internal/domain/registration"
	"water-app-go/internal/repository/postgres/registration"
	"water-app-go/internal/store"
	"water-app-go/internal/testutil/containers"
)

const waterID = "ROOTROOTROOTROO_001"

type RegistrationStoreSuite struct {
	suite.Suite
	pg   *containers.PostgresContainer
	repo *registration.PostgresRepository
	ctx  context.Context
}

func TestRegistrationStoreSuite(t *testing.T) {
	suite.Run(t, new(RegistrationStoreSuite))
}

func (s *RegistrationStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.repo = registration.NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *RegistrationStoreSuite) SetupTest() {
	s.pg.Truncate(s.T())
	s.Require().NoError(s.repo.Create(s.ctx, &domain.Registration{
		WaterID: waterID, ServiceDate: "2024-03-10", Slot: 8, PrimaryMembers: []string{"p1"},
	}))
}

func (s *RegistrationStoreSuite) TestSlotUniqueness() {
	err := s.repo.Create(s.ctx, &domain.Registration{WaterID: waterID, ServiceDate: "2024-03-10", Slot: 8, PrimaryMembers: []string{"p2"}})
	s.ErrorIs(err, store.ErrConflict)

	err = s.repo.Create(s.ctx, &domain.Registration{WaterID: waterID, ServiceDate: "2024-03-11", Slot: 8, PrimaryMembers: []string{"p2"}})
	s.NoError(err)
}

func (s *RegistrationStoreSuite) TestConcurrentGuestAppendIsIdempotent() {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.repo.AddInvitedGuest(s.ctx, waterID, "2024-03-10", 8, "g1"))
		}()
	}
	wg.Wait()

	got, err := s.repo.Get(s.ctx, waterID, "2024-03-10", 8)
	s.Require().NoError(err)
	s.Equal([]string{"g1"}, []string(got.InvitedGuests))

	s.ErrorIs(s.repo.AddInvitedGuest(s.ctx, waterID, "2024-03-10", 12, "g1"), store.ErrNotFound)
}

func (s *RegistrationStoreSuite) TestLatestPicksNewestDayThenSlot() {
	s.Require().NoError(s.repo.Create(s.ctx, &domain.Registration{WaterID: waterID, ServiceDate: "2024-03-10", Slot: 15, PrimaryMembers: []string{"p1"}}))
	s.Require().NoError(s.repo.Create(s.ctx, &domain.Registration{WaterID: waterID, ServiceDate: "2024-03-11", Slot: 12, PrimaryMembers: []string{"p1"}}))
	s.Require().NoError(s.repo.Create(s.ctx, &domain.Registration{WaterID: waterID, ServiceDate: "2024-03-11", Slot: 8, PrimaryMembers: []string{"p1"}}))

	got, err := s.repo.Latest(s.ctx, waterID)
	s.Require().NoError(err)
	s.Equal("2024-03-11", got.ServiceDate)
	s.Equal(12, got.Slot)

	_, err = s.repo.Latest(s.ctx, "ZZZZZZZZZZZZZZZ_001")
	s.ErrorIs(err, store.ErrNotFound)
}

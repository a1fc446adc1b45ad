package registration

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"water-app-go/internal/domain/supply"
	userdomain "water-app-go/internal/domain/user"
	"water-app-go/internal/domain/waterid"
	"water-app-go/internal/platform/metrics"
	"water-app-go/internal/store"
	"water-app-go/pkg/apperr"
	"water-app-go/pkg/events"
	"water-app-go/pkg/logger"
)

// ProfileResolver turns user ids into display records, skipping unknown ids.
type ProfileResolver interface {
	Profiles(ctx context.Context, userIDs []string) ([]userdomain.Profile, error)
}

type Service struct {
	repo      Repository
	profiles  ProfileResolver
	now       func() time.Time
	loc       *time.Location
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       logger.Logger
}

type Option func(*Service)

func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone whose civil clock decides slots and service days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(repo Repository, profiles ProfileResolver, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		profiles:  profiles,
		now:       time.Now,
		loc:       time.Local,
		publisher: events.Noop(),
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	WaterID             string
	PrimaryMembers      []string
	SpecialMembers      []string
	ExtraWaterRequested bool
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*Registration, error) {
	waterID := strings.TrimSpace(input.WaterID)
	if _, _, err := waterid.Parse(waterID); err != nil {
		return nil, err
	}

	primary, err := memberList(input.PrimaryMembers)
	if err != nil {
		return nil, err
	}
	if len(primary) == 0 {
		return nil, ErrPrimaryMembersRequired
	}
	special, err := memberList(input.SpecialMembers)
	if err != nil {
		return nil, err
	}
	for _, id := range special {
		if !slices.Contains(primary, id) {
			return nil, apperr.Validationf("special member %q is not a primary member", id)
		}
	}

	serviceDate, slot, ok := s.LiveSlot()
	if !ok {
		s.metrics.RegistrationRejection("no_slot")
		return nil, ErrNoSlotAvailable
	}

	_, err = s.repo.Get(ctx, waterID, serviceDate, int(slot))
	switch {
	case err == nil:
		s.metrics.RegistrationRejection("duplicate")
		return nil, ErrDuplicateRegistration
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.Storage("check registration", err)
	}

	registration := Registration{
		ID:                  uuid.NewString(),
		WaterID:             waterID,
		ServiceDate:         serviceDate,
		Slot:                int(slot),
		PrimaryMembers:      primary,
		SpecialMembers:      special,
		InvitedGuests:       []string{},
		ExtraWaterRequested: input.ExtraWaterRequested,
	}
	if err := s.repo.Create(ctx, &registration); err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.metrics.RegistrationRejection("duplicate")
			return nil, ErrDuplicateRegistration
		}
		return nil, apperr.Storage("create registration", err)
	}

	s.metrics.Registration(int(slot))
	if err := s.publisher.Publish(ctx, events.SubjectRegistrationCreated, map[string]any{
		"water_id":     waterID,
		"service_date": serviceDate,
		"slot":         int(slot),
	}); err != nil {
		s.log.Warn("registration: publish event failed", "err", err)
	}
	return &registration, nil
}

// GetDetails reads the registration pinned by supply.DetailsLookup, not the
// live slot. A household with no registration there gets empty lists.
func (s *Service) GetDetails(ctx context.Context, waterID string) (*Details, error) {
	waterID = strings.TrimSpace(waterID)
	if _, _, err := waterid.Parse(waterID); err != nil {
		return nil, err
	}

	serviceDate, slot := supply.DetailsLookup(s.now().In(s.loc))
	details := &Details{
		WaterID:        waterID,
		ServiceDate:    serviceDate,
		Slot:           int(slot),
		PrimaryMembers: []Member{},
		InvitedGuests:  []Member{},
	}

	registration, err := s.repo.Get(ctx, waterID, serviceDate, int(slot))
	if errors.Is(err, store.ErrNotFound) {
		return details, nil
	}
	if err != nil {
		return nil, apperr.Storage("load registration", err)
	}

	details.Found = true
	details.ExtraWaterRequested = registration.ExtraWaterRequested
	if details.PrimaryMembers, err = s.members(ctx, registration, registration.PrimaryMembers); err != nil {
		return nil, err
	}
	if details.InvitedGuests, err = s.members(ctx, registration, registration.InvitedGuests); err != nil {
		return nil, err
	}
	return details, nil
}

// LiveSlot is the slot open for registration right now, if any, and the
// service day it belongs to.
func (s *Service) LiveSlot() (string, supply.Slot, bool) {
	now := s.now().In(s.loc)
	slot, ok := supply.SlotAt(now)
	if !ok {
		return "", 0, false
	}
	return supply.ServiceDate(now), slot, true
}

// AddInvitedGuest appends guestID to the household's most recent
// registration, whatever slot it was booked in and whether or not a slot is
// open now. It reports false when the household has never registered.
func (s *Service) AddInvitedGuest(ctx context.Context, waterID, guestID string) (bool, error) {
	latest, err := s.repo.Latest(ctx, waterID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage("load registration", err)
	}
	err = s.repo.AddInvitedGuest(ctx, waterID, latest.ServiceDate, latest.Slot, guestID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage("append invited guest", err)
	}
	return true, nil
}

func (s *Service) members(ctx context.Context, registration *Registration, ids []string) ([]Member, error) {
	if len(ids) == 0 {
		return []Member{}, nil
	}
	profiles, err := s.profiles.Profiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(profiles))
	for _, profile := range profiles {
		members = append(members, Member{Profile: profile, IsSpecial: registration.IsSpecial(profile.UserID)})
	}
	return members, nil
}

func memberList(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, apperr.Validation("member ids must not be blank")
		}
		if slices.Contains(out, id) {
			return nil, apperr.Validationf("member %q listed twice", id)
		}
		out = append(out, id)
	}
	return out, nil
}

package invitation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"water-app-go/internal/domain/property"
	userdomain "water-app-go/internal/domain/user"
	"water-app-go/internal/domain/waterid"
	"water-app-go/internal/platform/metrics"
	"water-app-go/internal/store"
	"water-app-go/pkg/apperr"
	"water-app-go/pkg/events"
	"water-app-go/pkg/logger"
)

type PropertyLookup interface {
	GetByRootID(ctx context.Context, rootID string) (*property.Property, error)
}

// GuestRegistrar records an accepted guest on the host household's current
// registration and reports whether one was open.
type GuestRegistrar interface {
	AddInvitedGuest(ctx context.Context, waterID, guestID string) (bool, error)
}

type Service struct {
	invitations Repository
	users       userdomain.Repository
	properties  PropertyLookup
	registrar   GuestRegistrar
	strict      bool
	publisher   events.Publisher
	metrics     *metrics.Metrics
	log         logger.Logger
}

type Option func(*Service)

// WithStrictTransitions only lets a pending guest answer. By default an
// answer may be overwritten.
func WithStrictTransitions() Option {
	return func(s *Service) { s.strict = true }
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

func NewService(invitations Repository, users userdomain.Repository, properties PropertyLookup, registrar GuestRegistrar, opts ...Option) *Service {
	s := &Service{
		invitations: invitations,
		users:       users,
		properties:  properties,
		registrar:   registrar,
		publisher:   events.Noop(),
		log:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	HostID       string
	HostWaterID  string
	Guests       []string
	ArrivalTime  map[string]string
	StayDuration map[string]string
}

// Register creates or fully replaces the host household's invitation. Every
// guest starts pending and one-time codes are reset.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Invitation, error) {
	hostID := strings.TrimSpace(input.HostID)
	hostWaterID := strings.TrimSpace(input.HostWaterID)
	if _, _, err := waterid.Parse(hostWaterID); err != nil {
		return nil, err
	}
	if len(input.Guests) == 0 {
		return nil, ErrGuestsRequired
	}

	invitation := Invitation{
		HostWaterID:  hostWaterID,
		HostID:       hostID,
		Status:       make(map[string]string, len(input.Guests)),
		ArrivalTime:  make(map[string]string, len(input.Guests)),
		StayDuration: make(map[string]string, len(input.Guests)),
		OTP:          map[string]string{},
	}
	guests := make([]string, 0, len(input.Guests))
	for _, raw := range input.Guests {
		guest := strings.TrimSpace(raw)
		switch {
		case guest == "":
			return nil, apperr.Validation("guest ids must not be blank")
		case guest == hostID:
			return nil, apperr.Validation("host cannot invite themselves")
		case invitation.HasGuest(guest):
			return nil, apperr.Validationf("guest %q listed twice", guest)
		}
		arrival := strings.TrimSpace(input.ArrivalTime[raw])
		duration := strings.TrimSpace(input.StayDuration[raw])
		if arrival == "" || duration == "" {
			return nil, apperr.Validationf("guest %q needs an arrival time and stay duration", guest)
		}
		invitation.Status[guest] = string(StatusPending)
		invitation.ArrivalTime[guest] = arrival
		invitation.StayDuration[guest] = duration
		guests = append(guests, guest)
	}
	for key := range input.ArrivalTime {
		if !invitation.HasGuest(strings.TrimSpace(key)) {
			return nil, apperr.Validationf("arrival time given for unknown guest %q", key)
		}
	}
	for key := range input.StayDuration {
		if !invitation.HasGuest(strings.TrimSpace(key)) {
			return nil, apperr.Validationf("stay duration given for unknown guest %q", key)
		}
	}

	host, err := s.users.Get(ctx, hostID)
	if err != nil {
		return nil, userdomain.Translate(err)
	}
	if host.WaterID != hostWaterID {
		return nil, ErrNotHost
	}
	known, err := s.users.GetMany(ctx, guests)
	if err != nil {
		return nil, apperr.Storage("load guests", err)
	}
	if len(known) != len(guests) {
		return nil, ErrGuestNotFound
	}

	invitation.ID = uuid.NewString()
	if err := s.invitations.Upsert(ctx, &invitation); err != nil {
		return nil, apperr.Storage("save invitation", err)
	}

	s.publish(ctx, events.SubjectInvitationRegistered, map[string]any{
		"invitation_id": invitation.ID,
		"host_water_id": hostWaterID,
		"guests":        guests,
	})
	return &invitation, nil
}

// ViewForGuest lists the invitations naming userID. Invitations whose host
// identifier no longer resolves to a property or host are left out.
func (s *Service) ViewForGuest(ctx context.Context, userID string) ([]GuestView, error) {
	userID = strings.TrimSpace(userID)
	invitations, err := s.invitations.ListByGuest(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list invitations", err)
	}

	views := make([]GuestView, 0, len(invitations))
	for i := range invitations {
		invitation := &invitations[i]
		if err := invitation.Validate(); err != nil {
			s.log.Warn("invitation: inconsistent guest maps", "err", err)
		}

		rootID, err := waterid.RootID(invitation.HostWaterID)
		if err != nil {
			continue
		}
		prop, err := s.properties.GetByRootID(ctx, rootID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.Storage("load host property", err)
		}
		host, err := s.users.Get(ctx, invitation.HostID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.Storage("load host", err)
		}

		views = append(views, GuestView{
			InvitationID: invitation.ID,
			HostWaterID:  invitation.HostWaterID,
			Host:         host.Profile(),
			Property: PropertySummary{
				ID:            prop.ID,
				RootID:        prop.RootID,
				Name:          prop.Name,
				District:      prop.District,
				Municipality:  prop.Municipality,
				Ward:          prop.Ward,
				ExactLocation: prop.ExactLocation,
			},
			Status:       Status(invitation.Status[userID]),
			ArrivalTime:  invitation.ArrivalTime[userID],
			StayDuration: invitation.StayDuration[userID],
		})
	}
	return views, nil
}

// UpdateState records a guest's answer. Declining removes the guest and
// deletes the invitation with its last guest; accepting also lists the
// guest on the host's open registration.
func (s *Service) UpdateState(ctx context.Context, invitationID, userID string, status Status) (*UpdateResult, error) {
	if !status.Answer() {
		return nil, ErrInvalidStatus
	}
	userID = strings.TrimSpace(userID)

	invitation, err := s.invitations.GetByID(ctx, strings.TrimSpace(invitationID))
	if err != nil {
		return nil, translate(err)
	}
	current, ok := invitation.Status[userID]
	if !ok {
		return nil, ErrNotInvited
	}
	// Strict mode re-checks pending inside the write so a concurrent answer
	// cannot slip in between the read above and the update.
	var expect Status
	if s.strict {
		if Status(current) != StatusPending {
			return nil, ErrAlreadyAnswered
		}
		expect = StatusPending
	}

	result := &UpdateResult{InvitationID: invitation.ID, Status: status}
	switch status {
	case StatusDeclined:
		deleted, err := s.invitations.RemoveGuest(ctx, invitation.ID, userID, expect)
		if err != nil {
			return nil, translateAnswer(err, "remove guest")
		}
		result.Deleted = deleted
	case StatusAccepted:
		if err := s.invitations.SetGuestStatus(ctx, invitation.ID, userID, expect, StatusAccepted); err != nil {
			return nil, translateAnswer(err, "accept invitation")
		}
		added, err := s.registrar.AddInvitedGuest(ctx, invitation.HostWaterID, userID)
		if err != nil {
			return nil, err
		}
		result.GuestAdded = added
	}

	s.metrics.InvitationTransition(string(status))
	s.publish(ctx, events.SubjectInvitationAnswered, map[string]any{
		"invitation_id": invitation.ID,
		"guest_id":      userID,
		"status":        status,
		"deleted":       result.Deleted,
	})
	return result, nil
}

func translateAnswer(err error, op string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotInvited
	case errors.Is(err, store.ErrConflict):
		return ErrAlreadyAnswered
	default:
		return apperr.Storage(op, err)
	}
}

func (s *Service) publish(ctx context.Context, subject string, data any) {
	if err := s.publisher.Publish(ctx, subject, data); err != nil {
		s.log.Warn("invitation: publish event failed", "subject", subject, "err", err)
	}
}

func translate(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvitationNotFound
	}
	return apperr.Storage("load invitation", err)
}

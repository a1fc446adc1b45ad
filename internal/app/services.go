package app

import (
	"fmt"
	"time"

	"water-app-go/internal/config"
	invitationdomain "water-app-go/internal/domain/invitation"
	propertydomain "water-app-go/internal/domain/property"
	registrationdomain "water-app-go/internal/domain/registration"
	usagedomain "water-app-go/internal/domain/usage"
	userdomain "water-app-go/internal/domain/user"
	"water-app-go/internal/platform/metrics"
	"water-app-go/internal/repository/inmemory"
	"water-app-go/pkg/events"
	"water-app-go/pkg/logger"
)

type Services struct {
	Users         *userdomain.Service
	Properties    *propertydomain.Service
	Invitations   *invitationdomain.Service
	Registrations *registrationdomain.Service
	Usage         *usagedomain.Service
}

// Deps carries the infrastructure shared by every service.
type Deps struct {
	Stores    Stores
	Locker    propertydomain.Locker
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Log       logger.Logger
	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

func NewServices(cfg config.SupplyConfig, deps Deps) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	weekStart, err := cfg.Weekday()
	if err != nil {
		return nil, err
	}
	if deps.Locker == nil {
		return nil, fmt.Errorf("services: locker is required")
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop()
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	stores := deps.Stores

	users := userdomain.NewService(stores.Users).WithProfileCache(inmemory.NewProfileCache(), 0)

	properties := propertydomain.NewService(stores.Users, stores.Properties, stores.Families, deps.Locker,
		propertydomain.WithPublisher(deps.Publisher),
		propertydomain.WithMetrics(deps.Metrics),
		propertydomain.WithLogger(deps.Log.With("component", "property")),
	)

	registrations := registrationdomain.NewService(stores.Registrations, users,
		registrationdomain.WithNow(deps.Now),
		registrationdomain.WithLocation(loc),
		registrationdomain.WithPublisher(deps.Publisher),
		registrationdomain.WithMetrics(deps.Metrics),
		registrationdomain.WithLogger(deps.Log.With("component", "registration")),
	)

	invitationOpts := []invitationdomain.Option{
		invitationdomain.WithPublisher(deps.Publisher),
		invitationdomain.WithMetrics(deps.Metrics),
		invitationdomain.WithLogger(deps.Log.With("component", "invitation")),
	}
	if cfg.StrictInvitations {
		invitationOpts = append(invitationOpts, invitationdomain.WithStrictTransitions())
	}
	invitations := invitationdomain.NewService(stores.Invitations, stores.Users, stores.Properties, registrations, invitationOpts...)

	usage := usagedomain.NewService(stores.Users, stores.Families,
		usagedomain.WithNow(deps.Now),
		usagedomain.WithLocation(loc),
		usagedomain.WithWeekStart(weekStart),
		usagedomain.WithTariffRate(cfg.TariffRate),
		usagedomain.WithPublisher(deps.Publisher),
		usagedomain.WithLogger(deps.Log.With("component", "usage")),
	)

	return &Services{
		Users:         users,
		Properties:    properties,
		Invitations:   invitations,
		Registrations: registrations,
		Usage:         usage,
	}, nil
}

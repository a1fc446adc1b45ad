package handler

import (
	"context"

	invitationdomain "water-app-go/internal/domain/invitation"
	propertydomain "water-app-go/internal/domain/property"
	registrationdomain "water-app-go/internal/domain/registration"
	usagedomain "water-app-go/internal/domain/usage"
	userdomain "water-app-go/internal/domain/user"
	"water-app-go/pkg/logger"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	Users         *userdomain.Service
	Properties    *propertydomain.Service
	Invitations   *invitationdomain.Service
	Registrations *registrationdomain.Service
	Usage         *usagedomain.Service
	checks        map[string]HealthCheck
	log           logger.Logger
}

func New(
	users *userdomain.Service,
	properties *propertydomain.Service,
	invitations *invitationdomain.Service,
	registrations *registrationdomain.Service,
	usage *usagedomain.Service,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Users:         users,
		Properties:    properties,
		Invitations:   invitations,
		Registrations: registrations,
		Usage:         usage,
		checks:        map[string]HealthCheck{},
		log:           log,
	}
}

// WithHealthCheck adds a dependency probe to /api/health.
func (h *Handlers) WithHealthCheck(name string, check HealthCheck) *Handlers {
	h.checks[name] = check
	return h
}

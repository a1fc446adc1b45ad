package app

import (
	"gorm.io/gorm"

	invitationdomain "water-app-go/internal/domain/invitation"
	propertydomain "water-app-go/internal/domain/property"
	registrationdomain "water-app-go/internal/domain/registration"
	userdomain "water-app-go/internal/domain/user"
	"water-app-go/internal/repository/inmemory"
	familyrepo "water-app-go/internal/repository/postgres/family"
	invitationrepo "water-app-go/internal/repository/postgres/invitation"
	propertyrepo "water-app-go/internal/repository/postgres/property"
	registrationrepo "water-app-go/internal/repository/postgres/registration"
	userrepo "water-app-go/internal/repository/postgres/user"
)

// Stores is one implementation of every repository the services need.
type Stores struct {
	Users         userdomain.Repository
	Properties    propertydomain.Repository
	Families      propertydomain.FamilyRepository
	Invitations   invitationdomain.Repository
	Registrations registrationdomain.Repository
}

func MemoryStores() Stores {
	return Stores{
		Users:         inmemory.NewUserRepository(),
		Properties:    inmemory.NewPropertyRepository(),
		Families:      inmemory.NewFamilyRepository(),
		Invitations:   inmemory.NewInvitationRepository(),
		Registrations: inmemory.NewRegistrationRepository(),
	}
}

func PostgresStores(db *gorm.DB) Stores {
	return Stores{
		Users:         userrepo.NewPostgres(db),
		Properties:    propertyrepo.NewPostgres(db),
		Families:      familyrepo.NewPostgres(db),
		Invitations:   invitationrepo.NewPostgres(db),
		Registrations: registrationrepo.NewPostgres(db),
	}
}

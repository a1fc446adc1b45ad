package registration

import "water-app-go/pkg/apperr"

var (
	ErrNoSlotAvailable        = apperr.New(apperr.KindNoSlotAvailable, "registrations are closed for today")
	ErrDuplicateRegistration  = apperr.New(apperr.KindConflict, "household already registered for this slot")
	ErrRegistrationNotFound   = apperr.New(apperr.KindNotFound, "registration not found")
	ErrPrimaryMembersRequired = apperr.New(apperr.KindValidation, "at least one primary member is required")
)

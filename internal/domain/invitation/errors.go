package invitation

import "water-app-go/pkg/apperr"

var (
	ErrInvitationNotFound = apperr.New(apperr.KindNotFound, "invitation not found")
	ErrNotInvited         = apperr.New(apperr.KindForbidden, "user is not a guest of this invitation")
	ErrNotHost            = apperr.New(apperr.KindForbidden, "host does not hold this water id")
	ErrGuestsRequired     = apperr.New(apperr.KindValidation, "at least one guest is required")
	ErrInvalidStatus      = apperr.New(apperr.KindValidation, "status must be accepted or declined")
	ErrAlreadyAnswered    = apperr.New(apperr.KindConflict, "invitation already answered")
	ErrGuestNotFound      = apperr.New(apperr.KindNotFound, "guest not found")
)

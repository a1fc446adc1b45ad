package user

import "water-app-go/pkg/apperr"

var (
	ErrUserNotFound   = apperr.New(apperr.KindNotFound, "user not found")
	ErrUserExists     = apperr.New(apperr.KindConflict, "user already exists")
	ErrPasswordLength = apperr.New(apperr.KindValidation, "password must be between 8 and 72 bytes")
)

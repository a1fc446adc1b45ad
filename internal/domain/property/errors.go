package property

import "water-app-go/pkg/apperr"

var (
	ErrPropertyNotFound     = apperr.New(apperr.KindNotFound, "property not found")
	ErrFamilyNotFound       = apperr.New(apperr.KindNotFound, "family record not found")
	ErrDuplicateIdentifier  = apperr.New(apperr.KindConflict, "property identifier already registered")
	ErrTenantsPresent       = apperr.New(apperr.KindTenantsPresent, "tenants still reside in property")
	ErrUserAlreadyHoused    = apperr.New(apperr.KindConflict, "user already holds a water identifier")
	ErrNotTenant            = apperr.New(apperr.KindNotFound, "user is not a tenant of this property")
	ErrCannotRemoveOwner    = apperr.New(apperr.KindConflict, "cannot remove the owner household")
	ErrRootMismatch         = apperr.New(apperr.KindValidation, "root id does not match property")
	ErrTenantCodesExhausted = apperr.New(apperr.KindConflict, "no tenant codes left under this root")
	ErrTenantCodeTaken      = apperr.New(apperr.KindConflict, "tenant code allocated concurrently")
	ErrRootIDGeneration     = apperr.New(apperr.KindConflict, "root id generation failed")
	ErrNotOwner             = apperr.New(apperr.KindForbidden, "only the owner can manage this property")
)

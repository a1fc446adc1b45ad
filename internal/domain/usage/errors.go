package usage

import "water-app-go/pkg/apperr"

var (
	ErrInvalidDate     = apperr.New(apperr.KindValidation, "reading date is not a recognised calendar date")
	ErrNegativeReading = apperr.New(apperr.KindValidation, "liters must not be negative")
	ErrNoWaterService  = apperr.New(apperr.KindNotFound, "no family record for this water id")
)

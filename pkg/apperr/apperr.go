// Package apperr defines the error taxonomy shared by every domain service.
//
// Domain packages declare their sentinels with New and return them directly or
// wrapped; the transport layer only ever looks at the Kind.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindMalformedIdentifier
	KindTenantsPresent
	KindNoSlotAvailable
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindMalformedIdentifier:
		return "malformed_identifier"
	case KindTenantsPresent:
		return "tenants_present"
	case KindNoSlotAvailable:
		return "no_slot_available"
	case KindStorageUnavailable:
		return "storage_unavailable"
	default:
		return "unknown"
	}
}

// Error carries a Kind plus the failing step (Op) when the error was raised
// in the middle of a multi-step cascade.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Validation(msg string) error {
	return New(KindValidation, msg)
}

func Validationf(format string, args ...any) error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// Storage reports a collaborator failure at step op. The core never retries.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) && existing.Kind != KindUnknown {
		return err
	}
	return &Error{Kind: KindStorageUnavailable, Op: op, Msg: "storage unavailable", Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

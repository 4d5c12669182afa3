package httperr

import (
	"errors"
	"fmt"
)

// Kind classifies a business error so the HTTP layer can pick a status code.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindAccessDenied    Kind = "access_denied"
	KindConflict        Kind = "conflict"
	KindAccountDisabled Kind = "account_disabled"
)

type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Details any
}

func (e BusinessError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// WithDetails returns a copy carrying extra payload for the response body.
func (e BusinessError) WithDetails(details any) BusinessError {
	e.Details = details
	return e
}

// ErrBusiness keeps the old single-argument form; it is a validation error.
func ErrBusiness(code string) error {
	return BusinessError{Kind: KindValidation, Code: code}
}

func Validation(code, format string, args ...any) BusinessError {
	return BusinessError{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFoundErr(code, format string, args ...any) BusinessError {
	return BusinessError{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func AccessDenied(code, format string, args ...any) BusinessError {
	return BusinessError{Kind: KindAccessDenied, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) BusinessError {
	return BusinessError{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func AccountDisabled(code, format string, args ...any) BusinessError {
	return BusinessError{Kind: KindAccountDisabled, Code: code, Message: fmt.Sprintf(format, args...)}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

func IsKind(err error, kind Kind) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

// AsBusiness unwraps err into a BusinessError when it is one.
func AsBusiness(err error) (BusinessError, bool) {
	var be BusinessError
	ok := errors.As(err, &be)
	return be, ok
}

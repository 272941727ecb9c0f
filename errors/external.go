package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// External marks given error as a failure surfaced by a collaborating
// service. The result is of the ErrExternalService kind while the original
// error stays reachable, so both
//
//   ErrExternalService.Is(err)
//   ErrInsufficientAmount.Is(err)
//
// hold for an insufficient balance reported by a token service.
//
// External returns nil if err is nil. An error that already is an external
// service error is returned unchanged so that nested invocations report the
// innermost service only once.
func External(service string, err error) error {
	if errIsNil(err) {
		return nil
	}
	if ErrExternalService.Is(err) {
		return err
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &externalError{service: service, parent: err}
}

type externalError struct {
	service string
	parent  error
}

func (e *externalError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.service, ErrExternalService.desc, e.parent.Error())
}

func (e *externalError) Cause() error {
	return e.parent
}

// Code reports the external service code, no matter what the service failed
// with.
func (e *externalError) Code() uint32 {
	return ErrExternalService.code
}

// Service returns the name of the service that failed.
func (e *externalError) Service() string {
	return e.service
}

func (e *externalError) matchesKind(kind *Error) bool {
	return kind == ErrExternalService
}

package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field marks err as a problem with a single field of an instruction
// argument or a configuration. It returns nil for a nil err.
//
// Name fields the way Go does, with dots for nested fields and indexes for
// list elements: Amount, Rent.ExemptionThreshold, Genesis.Wallets.2.Name.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if errIsNil(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{parent: err, field: fieldName, desc: description}
}

// AppendField adds a field error to errorsOrNil. A nil fieldErrOrNil adds
// nothing, so validations can be chained unconditionally.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (err *fieldError) Error() string {
	if err.desc == "" {
		return fmt.Sprintf("field %q: %s", err.field, err.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", err.field, err.desc, err.parent)
}

func (err *fieldError) Cause() error {
	return err.parent
}

func (err *fieldError) Field() string {
	return err.field
}

type fielder interface {
	Field() string
}

// FieldErrors returns every field error for fieldName found in err, looking
// through wrapped and appended errors.
func FieldErrors(err error, fieldName string) []error {
	if errIsNil(err) {
		return nil
	}
	if f, ok := err.(fielder); ok && f.Field() == fieldName {
		return []error{err}
	}
	if u, ok := err.(unpacker); ok {
		var res []error
		for _, e := range u.Unpack() {
			res = append(res, FieldErrors(e, fieldName)...)
		}
		return res
	}
	if c, ok := err.(causer); ok {
		return FieldErrors(c.Cause(), fieldName)
	}
	return nil
}

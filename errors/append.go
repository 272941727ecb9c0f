package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If no errors were given or all errors are nil, nil is returned. If only a
// single non nil error is given, it is returned unchanged.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if errIsNil(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, e)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

// multiErr is a list of errors. It does not provide a cause as there is no
// single root error. Use Unpack or FieldErrors to inspect it.
type multiErr []error

func (errs multiErr) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = fmt.Sprintf("* %s", e)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s", len(errs), strings.Join(msgs, "\n\t"))
}

// Unpack returns all clubbed errors.
func (errs multiErr) Unpack() []error {
	return errs
}

// Code returns the code of the first error, consistent with the fail-fast
// approach.
func (errs multiErr) Code() uint32 {
	return Code(errs[0])
}

func (errs multiErr) matchesKind(kind *Error) bool {
	for _, e := range errs {
		if kind.Is(e) {
			return true
		}
	}
	return false
}

// unpacker is implemented by errors that contain more than one error.
type unpacker interface {
	Unpack() []error
}

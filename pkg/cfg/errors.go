package cfg

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTree is returned when the syntax tree does not have the
	// shape a construct requires, e.g. a method body without a statement block.
	ErrMalformedTree = errors.New("malformed syntax tree")

	// ErrUnsupportedConstruct is returned for statements outside the modeled
	// subset such as while, switch, try, break and continue.
	ErrUnsupportedConstruct = errors.New("unsupported construct")

	// ErrNoBody is returned by BuildMethod for abstract and interface methods.
	ErrNoBody = errors.New("method has no body")
)

// UnsupportedError names the construct that stopped a method build.
type UnsupportedError struct {
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedConstruct, e.Construct)
}

// Is makes errors.Is(err, ErrUnsupportedConstruct) hold.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupportedConstruct
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedTree, fmt.Sprintf(format, args...))
}

// Err joins the errors of every failed method, or returns nil.
func (r *FileResult) Err() error {
	var errs []error
	for _, m := range r.Methods {
		if m.Err != nil {
			errs = append(errs, m.Err)
		}
	}
	return errors.Join(errs...)
}

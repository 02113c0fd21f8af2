package storage

import "errors"

// ErrNilWidget is returned when Put is handed a nil widget.
var ErrNilWidget = errors.New("cannot store nil widget")

// NotFoundError is returned when a widget doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "widget not found"
	}

	return "widget not found: " + e.ID
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

package livedata

import (
	"errors"
	"fmt"
)

// Sentinel errors for store mutations.
var (
	// ErrInvalidArgument indicates a mutation was given nil or a value of the
	// wrong shape.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateID indicates Add was given an id that is already present.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUpdateNonexistentItem indicates UpdateOnly was given an id with no
	// matching item.
	ErrUpdateNonexistentItem = errors.New("updating non-existent items is not allowed")

	// ErrMissingID indicates an item reached an update path without an id.
	ErrMissingID = errors.New("item has no id")
)

// Sentinel errors for queries and views.
var (
	// ErrInvalidOrder indicates an order option that is neither a field name
	// nor a comparator.
	ErrInvalidOrder = errors.New("order must be a field name or a comparator")

	// ErrDisposedView indicates a view was used after Dispose.
	ErrDisposedView = errors.New("this data view has already been disposed of")
)

// DuplicateIDError reports the id that collided.
type DuplicateIDError struct {
	ID ID
}

// Error implements the error interface.
func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("cannot add item: item with id %v already exists", e.ID)
}

// Unwrap returns ErrDuplicateID for errors.Is support.
func (e *DuplicateIDError) Unwrap() error {
	return ErrDuplicateID
}

// UpdateNonexistentItemError reports the id that had no item.
type UpdateNonexistentItemError struct {
	ID ID
}

// Error implements the error interface.
func (e *UpdateNonexistentItemError) Error() string {
	return fmt.Sprintf("cannot update item: no item with id %v found", e.ID)
}

// Unwrap returns ErrUpdateNonexistentItem for errors.Is support.
func (e *UpdateNonexistentItemError) Unwrap() error {
	return ErrUpdateNonexistentItem
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

package framesource

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/hupe1980/framesource/schema"
	"github.com/hupe1980/framesource/store"
)

var (
	// ErrConfig is returned by New for an unusable configuration: no files,
	// files whose entry counts cannot be determined, or bad option values.
	ErrConfig = errors.New("framesource: invalid configuration")

	// ErrStoreUnavailable is returned when a backing file is missing,
	// corrupt or unreadable. It is fatal for the run.
	ErrStoreUnavailable = errors.New("framesource: store unavailable")

	// ErrInvalidSequence is returned for lifecycle calls made out of order.
	ErrInvalidSequence = errors.New("framesource: invalid call sequence")

	// ErrColumnNotFound is returned when binding a column the registry does not hold.
	ErrColumnNotFound = errors.New("framesource: column not found")
)

// TypeMismatchError is returned when a column is bound with a type other
// than the one it holds.
type TypeMismatchError struct {
	Column string
	Want   reflect.Type
	Got    reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("framesource: column %q holds %s, not %s", e.Column, e.Want, e.Got)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Already part of the taxonomy.
	if errors.Is(err, ErrConfig) || errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrInvalidSequence) || errors.Is(err, ErrColumnNotFound) {
		return err
	}

	switch {
	case errors.Is(err, store.ErrStoreUnavailable):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	case errors.Is(err, store.ErrNoFiles),
		errors.Is(err, store.ErrKindConflict),
		errors.Is(err, schema.ErrDuplicateColumn):
		return fmt.Errorf("%w: %w", ErrConfig, err)
	case errors.Is(err, store.ErrSessionOpen), errors.Is(err, store.ErrSessionClosed):
		return fmt.Errorf("%w: %w", ErrInvalidSequence, err)
	}
	return err
}

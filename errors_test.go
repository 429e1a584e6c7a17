package framesource

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/hupe1980/framesource/schema"
	"github.com/hupe1980/framesource/store"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	other := errors.New("other")
	assert.Same(t, other, translateError(other))

	tests := []struct {
		in   error
		want error
	}{
		{fmt.Errorf("%w: x.frm: boom", store.ErrStoreUnavailable), ErrStoreUnavailable},
		{fmt.Errorf("%w: %w", store.ErrStoreUnavailable, store.ErrKindConflict), ErrStoreUnavailable},
		{store.ErrNoFiles, ErrConfig},
		{store.ErrKindConflict, ErrConfig},
		{schema.ErrDuplicateColumn, ErrConfig},
		{store.ErrSessionOpen, ErrInvalidSequence},
		{store.ErrSessionClosed, ErrInvalidSequence},
	}
	for _, tt := range tests {
		got := translateError(tt.in)
		assert.ErrorIs(t, got, tt.want, tt.in.Error())
		assert.ErrorIs(t, got, tt.in, "cause is kept")
	}

	already := fmt.Errorf("%w: x", ErrConfig)
	assert.Same(t, already, translateError(already))
}

func TestTypeMismatchError(t *testing.T) {
	err := &TypeMismatchError{Column: "x", Want: reflect.TypeFor[float64](), Got: reflect.TypeFor[string]()}
	assert.Equal(t, `framesource: column "x" holds float64, not string`, err.Error())
}

package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "plain error", err: base, want: Internal},
		{name: "new", err: New(NotFound, "post not found"), want: NotFound},
		{name: "wrapped storage", err: Wrap(Storage, "failed to load post", base), want: Storage},
		{name: "fmt wrapped", err: fmt.Errorf("favorite: %w", New(Forbidden, "nope")), want: Forbidden},
		{name: "nil", err: nil, want: Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	err := Wrap(Conflict, "slug already exists", errors.New("duplicated key"))

	assert.True(t, Is(err, Conflict))
	assert.False(t, Is(err, Storage))
	assert.False(t, Is(nil, Internal))
}

func TestErrorMessage(t *testing.T) {
	base := errors.New("timeout")

	assert.Equal(t, "comment not found", New(NotFound, "comment not found").Error())
	assert.Equal(t, "failed to delete comment: timeout", Wrap(Storage, "failed to delete comment", base).Error())
	assert.ErrorIs(t, Wrap(Storage, "failed to delete comment", base), base)
	assert.Equal(t, "validation", Validation.String())
}

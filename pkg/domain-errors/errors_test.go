package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeNotFound, "record not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", New(CodePreconditionFailed, "profile required"))
		assert.True(t, HasCode(err, CodePreconditionFailed))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeServiceUnavailable, "identity verifier unavailable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeServiceUnavailable, CodeOf(err))
	assert.Equal(t, "identity verifier unavailable", MessageOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

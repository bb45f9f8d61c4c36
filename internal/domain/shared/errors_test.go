package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	err := NewDomainError("SOME_CODE", "something happened")
	assert.Equal(t, "something happened", err.Error())
	assert.Equal(t, "SOME_CODE", err.Code)
}

func TestDomainError_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("%w: extra detail", ErrInvalidInput)

	assert.True(t, errors.Is(wrapped, ErrInvalidInput))
	assert.False(t, errors.Is(wrapped, ErrNotFound))

	var de *DomainError
	assert.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "INVALID_INPUT", de.Code)
}

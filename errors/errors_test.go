package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestTaxonomyIsDistinct(t *testing.T) {
	sentinels := []error{ErrEndpoint, ErrParse, ErrConflict, ErrNotFound, ErrNotLoaded, ErrInvalidRequest}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "%v must not match %v", a, b)
		}
	}
}

func TestMarkEndpoint(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := MarkEndpoint(cause, "probe endpoint")

	require.Error(t, err)
	assert.True(t, IsEndpointError(err))
	assert.True(t, Is(err, cause), "mark must keep the cause in the chain")
	assert.Contains(t, err.Error(), "probe endpoint")
	assert.Contains(t, err.Error(), "connection refused")

	assert.NoError(t, MarkEndpoint(nil, "nothing"))
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("subject %q", "P9")

	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), `subject "P9"`)
}

func TestNewInvalidRequestError(t *testing.T) {
	err := NewInvalidRequestError("unknown study %q", "Nope")

	assert.True(t, IsInvalidRequestError(err))
	assert.False(t, IsNotFoundError(err))
}

func TestWithHint(t *testing.T) {
	err := WithHint(ErrEndpoint, "is the SPARQL endpoint running?")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.True(t, Is(err, ErrEndpoint))
}

func TestNilChecks(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsInvalidRequestError(nil))
	assert.False(t, IsEndpointError(nil))
}

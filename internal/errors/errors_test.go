package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("invalid input")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Nil(t, err.Cause)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "invalid input")
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("session not found")

	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
}

func TestProcessingError(t *testing.T) {
	cause := errors.New("failed to decode target image")
	err := ProcessingError("mosaic generation failed", cause)

	assert.Equal(t, TypeProcessing, err.Type)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "failed to decode target image")
	assert.ErrorIs(t, err, cause)
}

func TestWithField(t *testing.T) {
	err := ValidationError("bad tile size").
		WithField("tile_size", 999).
		WithField("session_id", "abc")

	assert.Equal(t, 999, err.Context["tile_size"])
	assert.Equal(t, "abc", err.Context["session_id"])
}

func TestToResponse(t *testing.T) {
	err := ValidationError("bad value").WithField("field", "style")
	resp := err.ToResponse()

	assert.Equal(t, "bad value", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, "style", resp.Context["field"])
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("already structured", func(t *testing.T) {
		original := NotFoundError("gone")
		got := AsStructuredError(original)
		assert.Same(t, original, got)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		plain := errors.New("boom")
		got := AsStructuredError(plain)
		require.NotNil(t, got)
		assert.Equal(t, TypeInternal, got.Type)
		assert.ErrorIs(t, got, plain)
	})
}

package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorDefaultsToInternal(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Nil(t, FromError(nil))
}

func TestIsKindMatchesWrappedCodes(t *testing.T) {
	notFound := Clone(ErrNotFound, "class not found")
	wrapped := fmt.Errorf("load page: %w", notFound)

	assert.True(t, IsKind(wrapped, ErrNotFound))
	assert.False(t, IsKind(wrapped, ErrValidation))
	assert.False(t, IsKind(sql.ErrNoRows, ErrNotFound))
	assert.False(t, IsKind(nil, ErrNotFound))
}

func TestWithDetailsCopies(t *testing.T) {
	details := []string{"record 1: title is required"}
	err := WithDetails(ErrPartialBatch, "", details)
	details[0] = "mutated"

	assert.Equal(t, ErrPartialBatch.Message, err.Message)
	assert.Equal(t, []string{"record 1: title is required"}, err.Details)
	assert.Nil(t, ErrPartialBatch.Details)
}

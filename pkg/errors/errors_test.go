package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneMatchesPredefined(t *testing.T) {
	err := fmt.Errorf("lookup: %w", Clone(ErrNotFound, "class not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "class not found", FromError(err).Message)
}

func TestValidationCollectsFieldDetails(t *testing.T) {
	type entry struct {
		Score float64 `validate:"gte=0"`
	}
	type payload struct {
		Name    string  `validate:"required"`
		Entries []entry `validate:"dive"`
	}
	err := validator.New().Struct(payload{Entries: []entry{{Score: -1}}})
	require.Error(t, err)

	appErr := Validation(err, "invalid payload")
	assert.Equal(t, ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 2)
	assert.Equal(t, FieldError{Field: "Name", Rule: "required"}, appErr.Details[0])
	assert.Equal(t, FieldError{Field: "Entries[0].Score", Rule: "gte", Param: "0"}, appErr.Details[1])
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}

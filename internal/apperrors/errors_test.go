package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"recipebox/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	cases := map[apperrors.Code]int{
		apperrors.CodeValidation:         http.StatusBadRequest,
		apperrors.CodeInvalidCredentials: http.StatusBadRequest,
		apperrors.CodeUnauthorized:       http.StatusUnauthorized,
		apperrors.CodeNotFound:           http.StatusNotFound,
		apperrors.CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
		apperrors.CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.HTTPStatus(), string(code))
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("load recipe: %w", apperrors.NotFound("recipe"))

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.False(t, errors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(errors.New("boom")))
}

func TestValidation_Details(t *testing.T) {
	err := apperrors.FieldError("email", "is required")
	assert.Equal(t, map[string]string{"email": "is required"}, err.Details)

	bare := apperrors.Validation("bad", nil)
	assert.Nil(t, bare.Details)
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := apperrors.Internal("could not save image", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

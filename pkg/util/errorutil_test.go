package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThrough(t *testing.T) {
	t.Parallel()

	err := NewConflict("user with this email already exists", nil)
	mapped := ToDomainError(err)
	require.Equal(t, "CONFLICT", mapped.Code)
	require.Equal(t, http.StatusConflict, mapped.HTTPStatus)
}

func TestToDomainError_NoRowsBecomesNotFound(t *testing.T) {
	t.Parallel()

	mapped := ToDomainError(pgx.ErrNoRows)
	require.Equal(t, "NOT_FOUND", mapped.Code)
	require.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainError_GenericBecomesInternal(t *testing.T) {
	t.Parallel()

	mapped := ToDomainError(errors.New("boom"))
	require.Equal(t, "INTERNAL_ERROR", mapped.Code)
	require.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
	require.NotContains(t, mapped.Message, "boom")
}

func TestStatusesPerTaxonomy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
	}{
		{NewUnauthenticated("bad credentials"), http.StatusUnauthorized},
		{NewForbidden("insufficient access rights"), http.StatusForbidden},
		{NewNotFound("contact", nil), http.StatusNotFound},
		{NewUnprocessable("invalid token"), http.StatusUnprocessableEntity},
		{NewValidationError("bad input", nil), http.StatusBadRequest},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, ToDomainError(tc.err).HTTPStatus)
	}
}

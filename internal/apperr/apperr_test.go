package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		nil:                              http.StatusOK,
		ErrNotFound:                      http.StatusNotFound,
		ErrConflict:                      http.StatusBadRequest,
		ErrInvalid:                       http.StatusBadRequest,
		ErrUnauthorized:                  http.StatusUnauthorized,
		ErrForbidden:                     http.StatusForbidden,
		Upstream("put", errors.New("x")): http.StatusBadGateway,
		Encoding("pdf", errors.New("y")): http.StatusInternalServerError,
		errors.New("something else"):     http.StatusInternalServerError,
	}
	for err, want := range cases {
		require.Equal(t, want, HTTPStatus(err), "err=%v", err)
	}
}

func TestWrappersKeepCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upstream("s3 put", cause)
	require.ErrorIs(t, err, ErrUpstream)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "s3 put")

	require.NoError(t, Upstream("noop", nil))
	require.NoError(t, Encoding("noop", nil))
	require.ErrorIs(t, Encoding("pdf", cause), ErrEncoding)
}

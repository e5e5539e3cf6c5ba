package errorbank

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    *AppError
		status int
		code   codes.Code
	}{
		{"bad request", BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{"conflict", Conflict("conflict"), http.StatusConflict, codes.AlreadyExists},
		{"not found", NotFound("missing"), http.StatusNotFound, codes.NotFound},
		{"invalid transition", InvalidTransition("stale"), http.StatusConflict, codes.FailedPrecondition},
		{"unprocessable", Unprocessable("nope"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{"internal", Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.StatusCode())
			assert.Equal(t, tc.code, tc.err.GRPCCode())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("disk full")
	appErr := From(cause)

	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)
}

func TestFromPreservesAppErrors(t *testing.T) {
	orig := InvalidTransition("order is no longer pending", WithDetail("order_id", "ORD-1"))

	appErr := From(orig)

	assert.Same(t, orig, appErr)
	assert.Equal(t, "ORD-1", appErr.Details()["order_id"])
}

func TestMessageDefaultsToKind(t *testing.T) {
	appErr := New(KindConflict, "")
	assert.Equal(t, "conflict", appErr.Message())
}

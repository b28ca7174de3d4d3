package ledgerapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/code-payments/instruction-server/pkg/solana"
	"github.com/code-payments/instruction-server/pkg/testutil"
)

func TestHandleErrorInWebContext(t *testing.T) {
	statusCode, err := HandleErrorInWebContext(nil)
	assert.Equal(t, http.StatusOK, statusCode)
	assert.NoError(t, err)

	for _, tc := range []struct {
		err        error
		statusCode int
		message    string
	}{
		{errors.Wrap(solana.ErrInvalidEncoding, "bad"), http.StatusBadRequest, "bad: invalid encoding"},
		{errors.Wrap(solana.ErrInvalidLength, "short"), http.StatusBadRequest, "short: invalid length"},
		{solana.ErrInvalidPublicKey, http.StatusBadRequest, "invalid public key"},
		{solana.ErrSigningFailure, http.StatusBadRequest, "signing failure"},
		{ErrMissingField, http.StatusBadRequest, "missing required fields"},
		{ErrInvalidAmount, http.StatusBadRequest, "invalid amount"},
		{newCollaboratorError(errors.New("node is behind")), http.StatusBadGateway, "node is behind"},
		{errRateLimited, http.StatusTooManyRequests, "rate limited"},
		{errNetworkEndpointsDisabled, http.StatusNotImplemented, "network endpoints are disabled"},
		{errSenderUnavailable, http.StatusInternalServerError, "could not load sender keypair"},
		{context.DeadlineExceeded, http.StatusRequestTimeout, "request timed out"},
		{errors.Wrap(context.Canceled, "client went away"), http.StatusRequestTimeout, "request timed out"},
		{status.Error(codes.NotFound, "nope"), http.StatusNotFound, "nope"},
		{errors.New("secret internals"), http.StatusInternalServerError, "internal server error"},
	} {
		statusCode, err := HandleErrorInWebContext(tc.err)
		assert.Equal(t, tc.statusCode, statusCode, tc.err.Error())
		require.Error(t, err)
		assert.Equal(t, tc.message, err.Error())
	}
}

func TestToStatusError(t *testing.T) {
	testutil.AssertStatusErrorWithCode(t, toStatusError(ErrMissingField), codes.InvalidArgument)
	testutil.AssertStatusErrorWithCode(t, toStatusError(errors.New("unknown")), codes.Internal)
	testutil.AssertStatusErrorWithCode(t, toStatusError(errRateLimited), codes.ResourceExhausted)
	testutil.AssertStatusErrorWithCode(t, newCollaboratorError(errors.New("rpc")), codes.Unavailable)
	assert.NoError(t, newCollaboratorError(nil))
}

func TestGenericApiResponseBody(t *testing.T) {
	success := NewGenericApiSuccessResponseBody(map[string]any{"valid": true})
	assert.JSONEq(t, `{"success":true,"data":{"valid":true}}`, success.ToString())

	failure := NewGenericApiFailureResponseBody(ErrMissingField)
	assert.JSONEq(t, `{"success":false,"error":"missing required fields"}`, failure.ToString())
}

func TestSolToLamports(t *testing.T) {
	lamports, err := solToLamports(1)
	require.NoError(t, err)
	assert.EqualValues(t, solana.LamportsPerSol, lamports)

	lamports, err = solToLamports(2.5)
	require.NoError(t, err)
	assert.EqualValues(t, 2_500_000_000, lamports)
}

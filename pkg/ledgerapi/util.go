package ledgerapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/code-payments/instruction-server/pkg/solana"
)

const (
	successJsonKey = "success"
	dataJsonKey    = "data"
	errorJsonKey   = "error"
)

var (
	// ErrMissingField indicates a required request field was empty or absent.
	ErrMissingField = errors.New("missing required fields")

	// ErrInvalidAmount indicates a SOL amount that cannot be converted to
	// lamports.
	ErrInvalidAmount = errors.New("invalid amount")

	errNetworkEndpointsDisabled = status.Error(codes.Unimplemented, "network endpoints are disabled")
	errRateLimited              = status.Error(codes.ResourceExhausted, "rate limited")
	errSenderUnavailable        = status.Error(codes.FailedPrecondition, "could not load sender keypair")
)

type GenericApiResponseBody map[string]any

func NewGenericApiSuccessResponseBody(data any) GenericApiResponseBody {
	return map[string]any{
		successJsonKey: true,
		dataJsonKey:    data,
	}
}

func NewGenericApiFailureResponseBody(err error) GenericApiResponseBody {
	return map[string]any{
		successJsonKey: false,
		errorJsonKey:   err.Error(),
	}
}

func (b *GenericApiResponseBody) ToString() string {
	marshalled, _ := json.Marshal(b)
	return string(marshalled)
}

// newCollaboratorError marks a ledger RPC failure. Its message is surfaced to
// the client verbatim.
func newCollaboratorError(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(codes.Unavailable, err.Error())
}

// toStatusError classifies err into a gRPC status error. Errors already
// carrying a status are returned as is.
func toStatusError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, solana.ErrInvalidEncoding),
		errors.Is(err, solana.ErrInvalidLength),
		errors.Is(err, solana.ErrInvalidPublicKey),
		errors.Is(err, solana.ErrSigningFailure),
		errors.Is(err, ErrMissingField),
		errors.Is(err, ErrInvalidAmount):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// HandleErrorInWebContext maps err to the HTTP status code and the error
// surfaced in the response body.
func HandleErrorInWebContext(err error) (int, error) {
	if err == nil {
		return http.StatusOK, nil
	}

	statusErr, _ := status.FromError(toStatusError(err))

	switch statusErr.Code() {
	case codes.OK:
		return http.StatusOK, nil
	case codes.InvalidArgument:
		return http.StatusBadRequest, err
	case codes.NotFound:
		return http.StatusNotFound, errors.New(statusErr.Message())
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, errors.New(statusErr.Message())
	case codes.Unavailable:
		return http.StatusBadGateway, errors.New(statusErr.Message())
	case codes.FailedPrecondition:
		return http.StatusInternalServerError, errors.New(statusErr.Message())
	case codes.Unimplemented:
		return http.StatusNotImplemented, errors.New(statusErr.Message())
	case codes.Canceled, codes.DeadlineExceeded:
		return http.StatusRequestTimeout, errors.New("request timed out")
	default:
		return http.StatusInternalServerError, errors.New("internal server error")
	}
}

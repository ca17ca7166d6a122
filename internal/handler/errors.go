package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
	"github.com/aleixjf/ms-orders-management-sub000/internal/repository"
)

// Stable error kinds exposed at the transport boundary.
const (
	KindValidation        = "VALIDATION_ERROR"
	KindNotFound          = "NOT_FOUND"
	KindInvalidTransition = "INVALID_TRANSITION"
	KindConflict          = "CONFLICT"
	KindTimeout           = "TIMEOUT"
	KindUnknown           = "INTERNAL_SERVER_ERROR"
)

// Kind classifies any error raised by the core into one stable kind.
// Malformed request bodies count as validation failures, same as
// schema-invalid ones. Infrastructure errors fall through to
// INTERNAL_SERVER_ERROR unmodified.
func Kind(err error) string {
	var transition *domain.TransitionError
	var validation validator.ValidationErrors
	var syntax *json.SyntaxError
	var unmarshalType *json.UnmarshalTypeError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &syntax), errors.As(err, &unmarshalType),
		errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return KindValidation
	case errors.Is(err, domain.ErrOrderNotFound):
		return KindNotFound
	case errors.As(err, &transition):
		return KindInvalidTransition
	case errors.Is(err, repository.ErrVersionConflict):
		return KindConflict
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindUnknown
	}
}

// HTTPStatus is total over kinds; unknown inputs map to 500.
func HTTPStatus(kind string) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition:
		return http.StatusConflict
	case KindConflict:
		return http.StatusConflict
	case KindTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode is total over kinds; unknown inputs map to codes.Unknown.
func GRPCCode(kind string) codes.Code {
	switch kind {
	case KindValidation:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindInvalidTransition:
		return codes.FailedPrecondition
	case KindConflict:
		return codes.Aborted
	case KindTimeout:
		return codes.DeadlineExceeded
	default:
		return codes.Unknown
	}
}

// KindFromGRPCCode is the reverse direction, total over every grpc code.
func KindFromGRPCCode(code codes.Code) string {
	switch code {
	case codes.InvalidArgument:
		return KindValidation
	case codes.NotFound:
		return KindNotFound
	case codes.FailedPrecondition:
		return KindInvalidTransition
	case codes.Aborted, codes.AlreadyExists:
		return KindConflict
	case codes.DeadlineExceeded:
		return KindTimeout
	default:
		return KindUnknown
	}
}

// ErrorBody is the synchronous-boundary error envelope.
type ErrorBody struct {
	Code      string `json:"code"`
	Status    int    `json:"status"`
	Exception string `json:"exception"`
	Message   string `json:"message"`
	Cause     string `json:"cause,omitempty"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	Method    string `json:"method"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func respondError(c *gin.Context, err error) {
	kind := Kind(err)
	status := HTTPStatus(kind)

	var cause string
	if wrapped := errors.Unwrap(err); wrapped != nil {
		cause = wrapped.Error()
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:      kind,
			Status:    status,
			Exception: fmt.Sprintf("%T", err),
			Message:   err.Error(),
			Cause:     cause,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      c.Request.URL.Path,
			Method:    c.Request.Method,
		},
	})
}

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/agri-platform/subsidy-matcher/internal/llm"
	"github.com/agri-platform/subsidy-matcher/pkg/circuitbreaker"
)

// ErrorCode classifies recommendation failures, including the AI failures
// that are answered with rule-based results.
type ErrorCode string

const (
	CodeInvalidProfile      ErrorCode = "INVALID_PROFILE"
	CodeAITimeout           ErrorCode = "AI_TIMEOUT"
	CodeAITransport         ErrorCode = "AI_TRANSPORT"
	CodeAIBadStatus         ErrorCode = "AI_BAD_STATUS"
	CodeAIMalformedResponse ErrorCode = "AI_MALFORMED_RESPONSE"
	CodeAICircuitOpen       ErrorCode = "AI_CIRCUIT_OPEN"
	CodeInternal            ErrorCode = "INTERNAL"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewInputError(err error) *Error {
	return &Error{Code: CodeInvalidProfile, Message: "invalid farmer profile", Err: err}
}

// IsInputError reports whether err was caused by the caller's profile.
func IsInputError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeInvalidProfile
}

// classifyAIError maps a delegation failure to its error code.
func classifyAIError(err error) *Error {
	code := CodeAITransport
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = CodeAITimeout
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		code = CodeAICircuitOpen
	case errors.Is(err, llm.ErrBadStatus):
		code = CodeAIBadStatus
	case errors.Is(err, llm.ErrMalformedResponse):
		code = CodeAIMalformedResponse
	}
	return &Error{Code: code, Message: "ai scoring failed", Err: err}
}

package release

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the error taxonomy for the release orchestrator.
type ErrorCode string

const (
	ErrCodeConfig       ErrorCode = "CONFIG_ERROR"
	ErrCodeResolution   ErrorCode = "RESOLUTION_ERROR"
	ErrCodePlan         ErrorCode = "PLAN_ERROR"
	ErrCodePlugin       ErrorCode = "PLUGIN_ERROR"
	ErrCodeCancellation ErrorCode = "CANCELLATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Error is the domain error type threaded through the resolver, planner and
// runner. It stays free of infrastructure concerns; adapters translate
// os/yaml/http errors into one of these at the boundary.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Message == other.Message
}

// WithContext returns a copy of the error with additional context merged in.
func (e *Error) WithContext(ctx map[string]interface{}) *Error {
	if e == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return &Error{Code: e.Code, Message: e.Message, Cause: e.Cause, Context: merged}
}

func newError(code ErrorCode, message string, cause error, context map[string]interface{}) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Context: context}
}

func NewConfigError(message string, cause error, context map[string]interface{}) *Error {
	return newError(ErrCodeConfig, message, cause, context)
}

func NewResolutionError(message string, context map[string]interface{}) *Error {
	return newError(ErrCodeResolution, message, nil, context)
}

func NewPlanError(message string, context map[string]interface{}) *Error {
	return newError(ErrCodePlan, message, nil, context)
}

func NewPluginError(message string, cause error, context map[string]interface{}) *Error {
	return newError(ErrCodePlugin, message, cause, context)
}

func NewCancellationError(message string, context map[string]interface{}) *Error {
	return newError(ErrCodeCancellation, message, nil, context)
}

func NewNotFoundError(message string, context map[string]interface{}) *Error {
	return newError(ErrCodeNotFound, message, nil, context)
}

func NewInvalidStateError(message string, context map[string]interface{}) *Error {
	return newError(ErrCodeInvalidState, message, nil, context)
}

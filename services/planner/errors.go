package planner

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced in session error records and API responses.
const (
	CodeInvalidInput      = "invalidInput"
	CodeNotFound          = "notFound"
	CodeContractViolation = "stageContractViolation"
	CodeTimeout           = "timeout"
)

// PlanError carries an error kind alongside the message so the
// boundary can map it to the right response without string matching.
type PlanError struct {
	Code    string
	Message string
	Fields  []string
}

func (e *PlanError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidInputError reports every missing or malformed field at once.
func NewInvalidInputError(fields []string) error {
	return &PlanError{
		Code:    CodeInvalidInput,
		Message: "missing or invalid fields",
		Fields:  fields,
	}
}

func NewNotFoundError(sessionID string) error {
	return &PlanError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("session %s not found", sessionID),
	}
}

func NewContractViolationError(msg string) error {
	return &PlanError{
		Code:    CodeContractViolation,
		Message: msg,
	}
}

func NewTimeoutError(msg string) error {
	return &PlanError{
		Code:    CodeTimeout,
		Message: msg,
	}
}

// ErrorCode extracts the plan error kind, or empty for foreign errors.
func ErrorCode(err error) string {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

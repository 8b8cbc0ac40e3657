package core

import "fmt"

// Error codes for scan pipeline failures.
const (
	ErrCodeConnection = "connection_error"
	ErrCodeQuery      = "query_error"
	ErrCodeArtifact   = "artifact_error"
	ErrCodeDelivery   = "delivery_error"
)

// ScanError is a pipeline failure tagged with the stage kind that caused
// it. All scan errors stop at the orchestrator boundary; none reach the
// scheduler.
type ScanError struct {
	Code    string
	Message string
	Err     error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ScanError) Unwrap() error { return e.Err }

// NewConnectionError marks a database or mail relay connection failure.
func NewConnectionError(message string, err error) *ScanError {
	return &ScanError{Code: ErrCodeConnection, Message: message, Err: err}
}

// NewQueryError marks an aggregation or lookup failure.
func NewQueryError(message string, err error) *ScanError {
	return &ScanError{Code: ErrCodeQuery, Message: message, Err: err}
}

// NewArtifactError marks a report serialization or file write failure.
func NewArtifactError(message string, err error) *ScanError {
	return &ScanError{Code: ErrCodeArtifact, Message: message, Err: err}
}

// NewDeliveryError marks a mail dispatch failure.
func NewDeliveryError(message string, err error) *ScanError {
	return &ScanError{Code: ErrCodeDelivery, Message: message, Err: err}
}

// Package errors provides standardized error handling for the intake
// collaborator layer. The extraction core itself never returns errors; these
// codes cover the webhook, persistence, and notification surfaces around it.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidWebhookPayload ErrorCode = "INVALID_WEBHOOK_PAYLOAD"
	ErrCodeUnauthorizedWebhook   ErrorCode = "UNAUTHORIZED_WEBHOOK"
	ErrCodeDuplicateCall         ErrorCode = "DUPLICATE_CALL"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeProjectBootstrapFailed   ErrorCode = "PROJECT_BOOTSTRAP_FAILED"

	ErrCodeArchiveIndexFailed     ErrorCode = "ARCHIVE_INDEX_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewInvalidWebhookPayloadError creates a non-retryable payload error.
func NewInvalidWebhookPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidWebhookPayload,
		Message:   "Webhook payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedWebhookError creates a non-retryable auth error.
func NewUnauthorizedWebhookError() *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorizedWebhook,
		Message:   "Webhook secret missing or wrong",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateCallError marks a replayed call ID; the delivery succeeded
// before, so the sender must not retry.
func NewDuplicateCallError(callID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateCall,
		Message:   "Call was already processed",
		Details:   fmt.Sprintf("callId: %s", callID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable persistence error.
func NewDatabaseInsertFailedError(table string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert failed",
		Details:   fmt.Sprintf("table: %s, error: %s", table, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProjectBootstrapFailedError creates a retryable startup error.
func NewProjectBootstrapFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectBootstrapFailed,
		Message:   "Project lookup-or-create failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewArchiveIndexFailedError creates a retryable archive error.
func NewArchiveIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArchiveIndexFailed,
		Message:   "Transcript archive indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification dispatch failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize ensures any error is a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return NewInternalError(err)
}

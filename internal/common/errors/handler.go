package errors

import "net/http"

// HTTPStatus maps internal error codes onto webhook response statuses. The
// call platform retries 5xx deliveries, so only retryable failures map
// there; everything the sender cannot fix by retrying answers 4xx.
func HTTPStatus(err error) int {
	stdErr := Normalize(err)
	switch stdErr.Code {
	case ErrCodeInvalidWebhookPayload:
		return http.StatusBadRequest
	case ErrCodeUnauthorizedWebhook:
		return http.StatusUnauthorized
	case ErrCodeDuplicateCall:
		return http.StatusConflict
	default:
		if stdErr.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
}

// Response is the JSON error body returned by the webhook surface.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ToResponse converts any error into a response body.
func ToResponse(err error) Response {
	stdErr := Normalize(err)
	return Response{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
	}
}

package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed API call. It is assigned once at the client
// boundary and passed through unchanged by the domain services.
type Kind string

const (
	KindNetwork      Kind = "network" // no response, timeout
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindServer       Kind = "server"
	KindUnknown      Kind = "unknown"
)

// Default user-facing messages per kind, used when the response body
// carries no message field. The strings are the product's Korean copy.
var defaultMessages = map[Kind]string{
	KindNetwork:      "네트워크 연결을 확인해주세요.",
	KindBadRequest:   "잘못된 요청입니다.",
	KindUnauthorized: "로그인이 필요합니다.",
	KindForbidden:    "접근 권한이 없습니다.",
	KindNotFound:     "요청한 정보를 찾을 수 없습니다.",
	KindServer:       "서버 오류가 발생했습니다.",
	KindUnknown:      "알 수 없는 오류가 발생했습니다.",
}

// APIError is the normalized form of every failed API call.
type APIError struct {
	Kind    Kind
	Status  int    // HTTP status, 0 when no response was received
	Message string // user-facing message
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api error (%s, HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%s): %s", e.Kind, e.Message)
}

// KindOf returns the kind of err, or KindUnknown when err is not an APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsNetworkError reports whether err represents a no-response failure.
func IsNetworkError(err error) bool {
	return KindOf(err) == KindNetwork
}

// MessageOf returns the user-facing message of err, falling back to the
// unknown-kind default for non-API errors.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return defaultMessages[KindUnknown]
}

// kindForStatus maps an HTTP status code to the error taxonomy.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusInternalServerError:
		return KindServer
	default:
		return KindUnknown
	}
}

// newStatusError builds an APIError from a non-2xx response. The message is
// taken from the body's "message" field when present.
func newStatusError(status int, body []byte) *APIError {
	kind := kindForStatus(status)
	message := defaultMessages[kind]

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		message = envelope.Message
	}

	return &APIError{Kind: kind, Status: status, Message: message}
}

// newNetworkError wraps a transport-level failure (timeout, refused
// connection, DNS) as a network-kind APIError.
func newNetworkError() *APIError {
	return &APIError{Kind: KindNetwork, Message: defaultMessages[KindNetwork]}
}

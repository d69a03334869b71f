package provider

import "fmt"

// ErrorKind classifies provider failures so callers can tell "try again
// later" from "fix your credentials" from "temporary outage".
type ErrorKind string

const (
	KindNetwork            ErrorKind = "network"
	KindTimeout            ErrorKind = "timeout"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindBadRequest         ErrorKind = "bad_request"
	KindServerError        ErrorKind = "server_error"
	KindRateLimited        ErrorKind = "rate_limited"
)

// Error is a classified provider failure carrying the provider's raw message
// for diagnostics.
type Error struct {
	Provider string
	Kind     ErrorKind
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// classifyStatus maps a non-2xx provider response to an ErrorKind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindInvalidCredentials
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindServerError
	default:
		return KindBadRequest
	}
}

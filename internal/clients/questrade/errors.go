package questrade

import "fmt"

// The client reports failures through one typed error per failure mode so
// callers can decide propagation with errors.As instead of string matching.

// NetworkError is a transport-level failure: connection refused, timeout,
// DNS. The request never produced an HTTP status.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("questrade network error: %v (endpoint: %s)", e.Err, e.Endpoint)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AuthError is a non-2xx response from the token or data endpoints,
// carrying the server's error payload.
type AuthError struct {
	StatusCode int
	Body       string
	Endpoint   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("questrade API error: %s (status: %d, endpoint: %s)", e.Body, e.StatusCode, e.Endpoint)
}

// ParseError is a 2xx response whose body is not the expected JSON shape.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("questrade parse error: %v (endpoint: %s)", e.Err, e.Endpoint)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NotFoundError is a well-formed response with no data for the requested
// entity (e.g. a symbol lookup returning an empty list).
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("questrade %s %q not found", e.Kind, e.ID)
}

package habitica

import "errors"

var (
	// ErrAPI is returned for non-2xx responses and envelopes with success=false.
	ErrAPI = errors.New("habitica api error")

	// ErrMalformedResponse is returned when a response body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed habitica response")

	// ErrNoData is returned when a successful envelope carries no data.
	ErrNoData = errors.New("no data in habitica response")
)

// Package types holds the wire envelopes shared by every API handler.
package types

// SuccessEnvelope wraps every 2xx payload under a data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details are included only for codes
// whose metadata allows leaking them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx payload under an error key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// OKResponse is the bare acknowledgment body used by the commerce
// compatibility endpoints, which predate the envelope convention.
type OKResponse struct {
	OK bool `json:"ok"`
}

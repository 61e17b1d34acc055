package core

import "errors"

// Error classes surfaced to the HTTP boundary. Layers wrap these with
// fmt.Errorf("%w: ...") and handlers classify them with errors.Is.
var (
	ErrValidation   = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStorage      = errors.New("storage unavailable")
	ErrGeneration   = errors.New("suggestion generation failed")
)

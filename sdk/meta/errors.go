package meta

import (
	"encoding/json"
	"fmt"
)

// ErrAuthentication represents an error wherein a request could not be
// authenticated.
type ErrAuthentication struct {
	// Reason is a natural language explanation for why the request could not be
	// authenticated.
	Reason string `json:"reason"`
}

func (e *ErrAuthentication) Error() string {
	return fmt.Sprintf("Could not authenticate the request: %s", e.Reason)
}

// MarshalJSON amends ErrAuthentication instances with type metadata.
func (e ErrAuthentication) MarshalJSON() ([]byte, error) {
	type Alias ErrAuthentication
	return json.Marshal(
		struct {
			TypeMeta `json:",inline"`
			Alias    `json:",inline"`
		}{
			TypeMeta: TypeMeta{
				APIVersion: APIVersion,
				Kind:       "AuthenticationError",
			},
			Alias: (Alias)(e),
		},
	)
}

// ErrBadRequest represents an error wherein a request was invalid.
type ErrBadRequest struct {
	// Reason is a natural language explanation for why the request was invalid.
	Reason string `json:"reason"`
	// Details optionally enumerates specific problems with the request.
	Details []string `json:"details,omitempty"`
}

func (e *ErrBadRequest) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("Bad request: %s", e.Reason)
	}
	msg := fmt.Sprintf("Bad request: %s:", e.Reason)
	for i, detail := range e.Details {
		msg = fmt.Sprintf("%s\n  %d. %s", msg, i, detail)
	}
	return msg
}

// MarshalJSON amends ErrBadRequest instances with type metadata.
func (e ErrBadRequest) MarshalJSON() ([]byte, error) {
	type Alias ErrBadRequest
	return json.Marshal(
		struct {
			TypeMeta `json:",inline"`
			Alias    `json:",inline"`
		}{
			TypeMeta: TypeMeta{
				APIVersion: APIVersion,
				Kind:       "BadRequestError",
			},
			Alias: (Alias)(e),
		},
	)
}

// ErrNotFound represents an error wherein a requested resource was not found.
type ErrNotFound struct {
	// Type identifies the type of the requested resource.
	Type string `json:"type"`
	// ID identifies the requested resource.
	ID string `json:"id"`
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found.", e.Type, e.ID)
}

// MarshalJSON amends ErrNotFound instances with type metadata.
func (e ErrNotFound) MarshalJSON() ([]byte, error) {
	type Alias ErrNotFound
	return json.Marshal(
		struct {
			TypeMeta `json:",inline"`
			Alias    `json:",inline"`
		}{
			TypeMeta: TypeMeta{
				APIVersion: APIVersion,
				Kind:       "NotFoundError",
			},
			Alias: (Alias)(e),
		},
	)
}

// ErrConflict represents an error wherein a request cannot be completed
// because it conflicts with some existing resource.
type ErrConflict struct {
	// Type identifies the type of the conflicting resource.
	Type string `json:"type"`
	// ID identifies the conflicting resource.
	ID string `json:"id"`
	// Reason is a natural language explanation of the conflict.
	Reason string `json:"reason"`
}

func (e *ErrConflict) Error() string {
	return e.Reason
}

// MarshalJSON amends ErrConflict instances with type metadata.
func (e ErrConflict) MarshalJSON() ([]byte, error) {
	type Alias ErrConflict
	return json.Marshal(
		struct {
			TypeMeta `json:",inline"`
			Alias    `json:",inline"`
		}{
			TypeMeta: TypeMeta{
				APIVersion: APIVersion,
				Kind:       "ConflictError",
			},
			Alias: (Alias)(e),
		},
	)
}

// ErrNotSupported represents an error wherein a request cannot be completed
// because the server does not support some requested feature.
type ErrNotSupported struct {
	// Details is a natural language explanation of what was not supported.
	Details string `json:"details"`
}

func (e *ErrNotSupported) Error() string {
	return e.Details
}

// MarshalJSON amends ErrNotSupported instances with type metadata.
func (e ErrNotSupported) MarshalJSON() ([]byte, error) {
	type Alias ErrNotSupported
	return json.Marshal(
		struct {
			TypeMeta `json:",inline"`
			Alias    `json:",inline"`
		}{
			TypeMeta: TypeMeta{
				APIVersion: APIVersion,
				Kind:       "NotSupportedError",
			},
			Alias: (Alias)(e),
		},
	)
}

// ErrInternalServer represents a condition wherein the server encountered an
// unexpected problem and cannot elaborate further.
type ErrInternalServer struct{}

func (e *ErrInternalServer) Error() string {
	return "An internal server error occurred."
}

// MarshalJSON amends ErrInternalServer instances with type metadata.
func (e ErrInternalServer) MarshalJSON() ([]byte, error) {
	type Alias ErrInternalServer
	return json.Marshal(
		struct {
			TypeMeta `json:",inline"`
			Alias    `json:",inline"`
		}{
			TypeMeta: TypeMeta{
				APIVersion: APIVersion,
				Kind:       "InternalServerError",
			},
			Alias: (Alias)(e),
		},
	)
}

// ErrConnection represents a failure to obtain any well-formed response from
// the API server-- whether because the server could not be reached at all or
// because what came back could not be interpreted. Clients that need to
// distinguish "the network failed" from "the server answered nonsense" can
// examine the Malformed field.
type ErrConnection struct {
	// Malformed is true when a response was received but could not be decoded.
	Malformed bool `json:"malformed"`
	// Reason is a natural language explanation of the failure.
	Reason string `json:"reason"`
}

func (e *ErrConnection) Error() string {
	if e.Malformed {
		return fmt.Sprintf(
			"Received a malformed response from the API server: %s",
			e.Reason,
		)
	}
	return fmt.Sprintf("Could not reach the API server: %s", e.Reason)
}

// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"errors"
	"strings"
)

// APIKeyErrorMessage is shown wherever AI features are disabled by a bad credential.
const APIKeyErrorMessage = "API Key is missing or invalid. Please ensure it's correctly configured in your environment (e.g., process.env.API_KEY)."

// GeneralErrorMessage prefixes human-readable errors surfaced next to degraded content.
const GeneralErrorMessage = "An error occurred"

var (
	// ErrCredentialMissingOrInvalid means no usable provider credential is available.
	// It is terminal for the current credential.
	ErrCredentialMissingOrInvalid = errors.New(APIKeyErrorMessage)

	// ErrSessionNotInitialized is returned when a chat turn is sent before a session exists.
	ErrSessionNotInitialized = errors.New("chat session not initialized")

	// ErrParseFailure means a provider reply could not be decoded into the expected shape.
	ErrParseFailure = errors.New("could not parse structured content from provider response")
)

// Class is the outcome of classifying an error.
type Class int

const (
	// ClassOther covers network, parse, quota and every other non-credential error.
	ClassOther Class = iota
	// ClassCredentialInvalid means the provider rejected the credential.
	ClassCredentialInvalid
)

func (c Class) String() string {
	if c == ClassCredentialInvalid {
		return "credential_invalid"
	}
	return "other"
}

// Classifier decides whether an error invalidates the active credential.
type Classifier func(err error) Class

// InvalidCredentialMarkers are the substrings the provider emits on authentication failure.
// Matching on message text is the documented policy; the provider exposes no stable code.
var InvalidCredentialMarkers = []string{
	"API key not valid",
	"API_KEY_INVALID",
}

// MarkerClassifier returns a Classifier that reports ClassCredentialInvalid when the
// error message contains any of markers, or when the error wraps ErrCredentialMissingOrInvalid.
func MarkerClassifier(markers ...string) Classifier {
	return func(err error) Class {
		if err == nil {
			return ClassOther
		}
		if errors.Is(err, ErrCredentialMissingOrInvalid) {
			return ClassCredentialInvalid
		}
		msg := err.Error()
		for _, m := range markers {
			if m != "" && strings.Contains(msg, m) {
				return ClassCredentialInvalid
			}
		}
		return ClassOther
	}
}

// DefaultClassifier matches the provider's invalid-credential markers.
var DefaultClassifier = MarkerClassifier(InvalidCredentialMarkers...)

// IsCredentialError reports whether DefaultClassifier marks err as a credential failure.
func IsCredentialError(err error) bool {
	return DefaultClassifier(err) == ClassCredentialInvalid
}

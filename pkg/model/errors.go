package model

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrStorageDecode means a persisted value could not be decoded. Readers
	// recover from it locally and fall back to an empty value.
	ErrStorageDecode = goerr.New("stored value is corrupted")

	// ErrGateway means the AI gateway failed or returned data that does not
	// match the expected schema.
	ErrGateway = goerr.New("ai gateway failed")

	// ErrIdentification and ErrChatReply tell the two gateway uses apart.
	// Both match ErrGateway with errors.Is.
	ErrIdentification = goerr.Wrap(ErrGateway, "plant identification failed")
	ErrChatReply      = goerr.Wrap(ErrGateway, "chat reply failed")

	ErrPermissionDenied = goerr.New("permission denied")
	ErrDeviceNotFound   = goerr.New("device not found")
	ErrInsecureContext  = goerr.New("insecure context")

	// ErrValidation is returned for input rejected at the boundary. Such input
	// is never persisted.
	ErrValidation = goerr.New("validation failed")

	ErrNotFound = goerr.New("not found")

	// ErrBusy is returned when a chat session already has a request in flight.
	ErrBusy = goerr.New("request already in progress")
)

// UserMessage converts an error into the short, retry-oriented text shown to
// the user. Unclassified errors get a generic message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrChatReply):
		return "the assistant could not answer, please ask again."
	case errors.Is(err, ErrIdentification):
		return "identification failed, retry with clearer photo."
	case errors.Is(err, ErrGateway):
		return "the plant assistant is unavailable, please try again later."
	case errors.Is(err, ErrPermissionDenied):
		return "permission was denied, allow access in your settings or use a manual alternative."
	case errors.Is(err, ErrDeviceNotFound):
		return "no device found, try uploading a photo instead."
	case errors.Is(err, ErrInsecureContext):
		return "access requires a secure connection, try uploading a photo instead."
	case errors.Is(err, ErrValidation):
		return "invalid input: " + err.Error()
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrBusy):
		return "please wait for the current reply to finish."
	default:
		return "something went wrong, please try again."
	}
}

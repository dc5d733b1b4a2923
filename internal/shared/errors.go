package shared

import (
	"context"
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("%w: access token expired or revoked", ErrNotAuthenticated)
	ErrMissingVerifier  = fmt.Errorf("no pending code verifier for this session")
	ErrStateMismatch    = fmt.Errorf("state parameter does not match")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Network errors worth retrying
	ErrTransient = fmt.Errorf("temporary network failure")

	// API and service errors
	ErrFetchFailed        = fmt.Errorf("playlist fetch failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Remote data did not match the documented contract
	ErrDataContract   = fmt.Errorf("unexpected response from service")
	ErrPaginationLoop = fmt.Errorf("%w: pagination did not terminate", ErrDataContract)

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// IsUserError reports whether err was caused by user input rather than the remote services.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrMissingArgument) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrMissingVerifier) ||
		errors.Is(err, ErrStateMismatch)
}

// UserMessage converts an error into the message shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingArgument), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidArgument):
		return fmt.Sprintf("Please check your input: %v", err)
	case errors.Is(err, ErrMissingVerifier), errors.Is(err, ErrStateMismatch):
		return "This login link is stale or belongs to another session. Please log in again."
	case errors.Is(err, ErrTokenExpired):
		return "Your Spotify session expired. Please log in again."
	case errors.Is(err, ErrNotAuthenticated):
		return "Please log in with Spotify first."
	case errors.Is(err, ErrAuthFailed):
		return fmt.Sprintf("Spotify login failed, please log in again: %v", err)
	case errors.Is(err, ErrTransient), errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Network problem talking to Spotify, please retry: %v", err)
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, ErrDataContract):
		return fmt.Sprintf("Spotify returned data we could not read: %v", err)
	case errors.Is(err, ErrFetchFailed):
		return fmt.Sprintf("Could not fetch the playlist: %v", err)
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

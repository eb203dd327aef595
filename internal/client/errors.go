package client

import (
	"errors"
	"fmt"

	"sc2monitor/ingestion/internal/models"
)

// ErrInvalidProfileURL is returned when a profile URL matches neither of the
// supported grammars.
var ErrInvalidProfileURL = errors.New("invalid profile url")

// AuthError reports a rejected OAuth token request. It is not retried: an
// explicit rejection by the auth endpoint is not a transient failure.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token request rejected with status %d", e.Status)
}

// RequestError reports a non-200 response from a substantive API request.
// The status is surfaced as-is; the caller decides whether to skip or abort.
type RequestError struct {
	Status int
	URL    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("api request %s returned status %d", e.URL, e.Status)
}

// ReconcileError reports a ladder response in which the target profile could
// not be placed in any team. Retrying cannot fix an inconsistent response, so
// the ladder fetch for this player is aborted.
type ReconcileError struct {
	LadderID int
	Profile  models.ProfileRef
	Rank     int
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("ladder %d: no team found for profile %s (rank entry %d)",
		e.LadderID, e.Profile, e.Rank)
}

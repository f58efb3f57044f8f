// Package gapi holds the pieces shared by the Sheets and Drive wrappers:
// client options derived from a credentials.Client and the mapping of Google
// API failures onto the apperr taxonomy.
package gapi

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"releasedesk/internal/credentials"
	"releasedesk/internal/pkg/apperr"
)

// ClientOptions builds the option set for one remote call. endpoint is empty
// in production and points at a fake server in tests.
func ClientOptions(c *credentials.Client, endpoint string) []option.ClientOption {
	opts := []option.ClientOption{option.WithHTTPClient(c.HTTP)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}

// Classify wraps err with op context and the matching taxonomy kind.
func Classify(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return apperr.New(op, id, kindOf(err), err)
}

func kindOf(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return apperr.ErrUnauthenticated
		case http.StatusForbidden:
			return apperr.ErrPermissionDenied
		case http.StatusNotFound:
			return apperr.ErrNotFound
		case http.StatusBadRequest:
			// Sheets answers a range on a missing tab with 400.
			if strings.Contains(gerr.Message, "Unable to parse range") {
				return apperr.ErrNotFound
			}
		}
	}
	// transport failures, timeouts and 5xx
	return apperr.ErrRemoteUnavailable
}

// Package auth resolves the caller identity. Authentication itself happens
// at the edge: an identity-aware proxy verifies the session and forwards the
// account email in a trusted header. This service never sees credentials.
package auth

import (
	"net/http"
	"strings"
)

// Identity is the authenticated caller. Absent on anonymous requests.
type Identity struct {
	Email string
}

// Extractor pulls an Identity out of an incoming request.
type Extractor interface {
	// Extract returns nil when the request carries no identity.
	Extract(r *http.Request) *Identity
}

// HeaderExtractor trusts an email header set by the edge proxy. The header
// must be stripped from external traffic at that proxy, or anyone can
// impersonate anyone.
type HeaderExtractor struct {
	header string
}

func NewHeaderExtractor(header string) *HeaderExtractor {
	return &HeaderExtractor{header: header}
}

func (e *HeaderExtractor) Extract(r *http.Request) *Identity {
	email := strings.ToLower(strings.TrimSpace(r.Header.Get(e.header)))
	if email == "" {
		return nil
	}
	return &Identity{Email: email}
}

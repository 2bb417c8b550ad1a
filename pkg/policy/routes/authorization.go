package routes

import (
	"fmt"
	"net/netip"
	"strings"
)

// AuthorizationRefType distinguishes default authorizations from authorization policies
type AuthorizationRefType int

const (
	// AuthorizationRefDefault references an authorization synthesized by the controller
	AuthorizationRefDefault AuthorizationRefType = iota

	// AuthorizationRefPolicy references an AuthorizationPolicy resource
	AuthorizationRefPolicy
)

// AuthorizationRef identifies an authorization
type AuthorizationRef struct {
	Type AuthorizationRefType
	Name string
}

// DefaultAuthorizationRef references a synthesized authorization
func DefaultAuthorizationRef(name string) AuthorizationRef {
	return AuthorizationRef{Type: AuthorizationRefDefault, Name: name}
}

// PolicyAuthorizationRef references an AuthorizationPolicy
func PolicyAuthorizationRef(name string) AuthorizationRef {
	return AuthorizationRef{Type: AuthorizationRefPolicy, Name: name}
}

func (r AuthorizationRef) String() string {
	if r.Type == AuthorizationRefDefault {
		return fmt.Sprintf("default:%s", r.Name)
	}
	return fmt.Sprintf("authorizationpolicy:%s", r.Name)
}

// Network is a client network with excluded sub-networks
type Network struct {
	Net    netip.Prefix
	Except []netip.Prefix
}

// ClientAuthenticationType is the authentication a client must present
type ClientAuthenticationType int

const (
	// Unauthenticated clients are allowed
	Unauthenticated ClientAuthenticationType = iota

	// TLSUnauthenticated requires TLS without a mesh identity
	TLSUnauthenticated

	// TLSAuthenticated requires a mesh identity matching one of the identities
	TLSAuthenticated
)

func (t ClientAuthenticationType) String() string {
	switch t {
	case Unauthenticated:
		return "unauthenticated"
	case TLSUnauthenticated:
		return "tls-unauthenticated"
	default:
		return "tls-authenticated"
	}
}

// IdentityMatchType is the type of an identity match
type IdentityMatchType int

const (
	// IdentityMatchExact matches a single identity
	IdentityMatchExact IdentityMatchType = iota

	// IdentityMatchSuffix matches identities ending with the suffix labels, an empty suffix matches all
	IdentityMatchSuffix
)

// IdentityMatch matches a mesh TLS client identity
type IdentityMatch struct {
	Type   IdentityMatchType
	Exact  string
	Suffix []string
}

// ParseIdentityMatch parses "*", "*.suffix" or an exact identity
func ParseIdentityMatch(id string) IdentityMatch {
	if id == "*" {
		return IdentityMatch{Type: IdentityMatchSuffix, Suffix: []string{}}
	}
	if suffix, ok := strings.CutPrefix(id, "*."); ok {
		return IdentityMatch{Type: IdentityMatchSuffix, Suffix: strings.Split(suffix, ".")}
	}
	return IdentityMatch{Type: IdentityMatchExact, Exact: id}
}

func (m IdentityMatch) String() string {
	if m.Type == IdentityMatchExact {
		return m.Exact
	}
	if len(m.Suffix) == 0 {
		return "*"
	}
	return "*." + strings.Join(m.Suffix, ".")
}

// ClientAuthentication is the authentication requirement of an authorization
type ClientAuthentication struct {
	Type       ClientAuthenticationType
	Identities []IdentityMatch
}

// ClientAuthorization allows clients from the networks presenting the authentication
type ClientAuthorization struct {
	Networks       []Network
	Authentication ClientAuthentication
}


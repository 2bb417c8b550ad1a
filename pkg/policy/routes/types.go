// Package routes implements the canonical inbound route model shared by every route source.
// Routes never reference their parents, parent association lives in route bindings.
package routes

import (
	"fmt"
	"time"
)

// Match is the constraint satisfied by the match predicate types of a route
type Match interface {
	HTTPRouteMatch | GRPCRouteMatch
}

// InboundRoute is a protocol generic route served by a Server
type InboundRoute[M Match] struct {
	// Hostnames are matched against the request authority, an empty list matches any host
	Hostnames []HostMatch

	// Rules are evaluated in order
	Rules []InboundRouteRule[M]

	// Authorizations are resolved by the policy index
	Authorizations map[AuthorizationRef]ClientAuthorization

	// CreationTimestamp is only used to order competing routes
	CreationTimestamp *time.Time
}

// InboundRouteRule is a list of match predicates, OR'd together, and the filters
// applied to the matching requests
type InboundRouteRule[M Match] struct {
	Matches []M
	Filters []Filter
}

// WithAuthorizations returns a copy of the route carrying the given authorizations
func (r InboundRoute[M]) WithAuthorizations(authzs map[AuthorizationRef]ClientAuthorization) InboundRoute[M] {
	r.Authorizations = authzs
	return r
}

// RouteRefType distinguishes routes backed by a resource from synthesized routes
type RouteRefType int

const (
	// RouteRefResource references a route resource
	RouteRefResource RouteRefType = iota

	// RouteRefDefault references a route synthesized by the controller
	RouteRefDefault
)

// RouteRef identifies a route served by a Server
type RouteRef struct {
	Type  RouteRefType
	Group string
	Kind  string
	Name  string
}

// ResourceRouteRef returns a reference to a route resource
func ResourceRouteRef(group, kind, name string) RouteRef {
	return RouteRef{Type: RouteRefResource, Group: group, Kind: kind, Name: name}
}

// DefaultRouteRef returns a reference to a synthesized route
func DefaultRouteRef(name string) RouteRef {
	return RouteRef{Type: RouteRefDefault, Name: name}
}

func (r RouteRef) String() string {
	if r.Type == RouteRefDefault {
		return fmt.Sprintf("default:%s", r.Name)
	}
	return fmt.Sprintf("%s.%s:%s", r.Kind, r.Group, r.Name)
}

// Package inbound converts the route resources served by Servers into route bindings: a canonical
// route, the Servers it attaches to and the statuses this controller previously recorded for it.
package inbound

import (
	"github.com/pkg/errors"

	"github.com/flomesh-io/fsm-policy/pkg/logger"
	"github.com/flomesh-io/fsm-policy/pkg/policy/routes"
)

var log = logger.New("policy-inbound")

var (
	// ErrServerInAnotherNamespace is returned when a route references a Server outside of its namespace
	ErrServerInAnotherNamespace = errors.New("route may not reference a parent Server in another namespace")

	// ErrSpecifiesPort is returned when a route references a Server by port
	ErrSpecifiesPort = errors.New("route may not reference a parent Server by port")

	// ErrSpecifiesSection is returned when a route references a Server by section name
	ErrSpecifiesSection = errors.New("route may not reference a parent Server by section name")
)

// ParentRef references a Server in the namespace of the route
type ParentRef struct {
	Server string
}

// ConditionType is the type of a route parent condition
type ConditionType string

const (
	// ConditionAccepted records whether the parent accepted the route
	ConditionAccepted ConditionType = "Accepted"
)

// Condition is a route parent condition
type Condition struct {
	Type   ConditionType
	Status bool
}

// Status is the set of conditions recorded by this controller for one parent
type Status struct {
	Parent     ParentRef
	Conditions []Condition
}

// RouteBinding is a route with the Servers it references and its recorded statuses
type RouteBinding[M routes.Match] struct {
	Parents  []ParentRef
	Route    routes.InboundRoute[M]
	Statuses []Status
}

// TypedRouteBinding is either an HTTP or a gRPC route binding, i.e. one of
// *RouteBinding[routes.HTTPRouteMatch] or *RouteBinding[routes.GRPCRouteMatch]
type TypedRouteBinding interface {
	// SelectsServer returns true if the route references the Server
	SelectsServer(name string) bool

	// AcceptedByServer returns true if the recorded status shows the Server accepted the route
	AcceptedByServer(name string) bool

	// ParentRefs returns the Servers referenced by the route
	ParentRefs() []ParentRef

	isTypedRouteBinding()
}

var (
	_ TypedRouteBinding = (*RouteBinding[routes.HTTPRouteMatch])(nil)
	_ TypedRouteBinding = (*RouteBinding[routes.GRPCRouteMatch])(nil)
)

// SelectsServer returns true if any parent reference names the Server
func (b *RouteBinding[M]) SelectsServer(name string) bool {
	for _, p := range b.Parents {
		if p.Server == name {
			return true
		}
	}
	return false
}

// AcceptedByServer returns true if a status recorded for the Server has a true Accepted condition
func (b *RouteBinding[M]) AcceptedByServer(name string) bool {
	for _, s := range b.Statuses {
		if s.Parent.Server != name {
			continue
		}
		for _, c := range s.Conditions {
			if c.Type == ConditionAccepted && c.Status {
				return true
			}
		}
	}
	return false
}

// ParentRefs returns the Servers referenced by the route
func (b *RouteBinding[M]) ParentRefs() []ParentRef {
	return b.Parents
}

func (b *RouteBinding[M]) isTypedRouteBinding() {}

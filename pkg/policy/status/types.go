// Package status computes the Server parent statuses of routes and writes them back to the
// status subresource of the routes.
package status

import (
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/logger"
	"github.com/flomesh-io/fsm-policy/pkg/policy/inbound"
)

var log = logger.New("policy-status")

// ServerLookup reports whether a Server exists
type ServerLookup interface {
	ServerExists(namespace, name string) bool
}

// RouteIndex is the view of the policy index used to reconcile route statuses
type RouteIndex interface {
	ServerLookup

	// RouteBinding returns the binding of a route, false if the route is absent or invalid
	RouteBinding(key events.RouteKey) (inbound.TypedRouteBinding, bool)

	// RouteKeys returns the keys of every valid route
	RouteKeys() []events.RouteKey
}

// Mutator returns a copy of the object with an updated status
type Mutator interface {
	Mutate(obj client.Object) client.Object
}

// MutatorFunc adapts a function to a Mutator
type MutatorFunc func(client.Object) client.Object

// Mutate calls f(obj)
func (f MutatorFunc) Mutate(obj client.Object) client.Object {
	return f(obj)
}

// Update is a status update of one resource
type Update struct {
	NamespacedName types.NamespacedName
	Resource       client.Object
	Mutator        Mutator
}

// Updater sends status updates
type Updater interface {
	Send(Update)
}

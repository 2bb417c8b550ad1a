// Package events implements the eventing types used to relay kubernetes events and index
// announcements within the policy controller.
package events

import (
	"k8s.io/apimachinery/pkg/types"

	"github.com/flomesh-io/fsm-policy/pkg/announcements"
)

// PubSubMessage represents a common messages abstraction to pass through the PubSub interface
type PubSubMessage struct {
	Kind   announcements.Kind
	OldObj interface{}
	NewObj interface{}
}

// RouteKey identifies a route resource by group, kind, namespace and name
type RouteKey struct {
	Group string
	Kind  string
	types.NamespacedName
}

func (k RouteKey) String() string {
	return k.Group + "/" + k.Kind + "/" + k.Namespace + "/" + k.Name
}

// RouteStatusMessage is published by the index when the status of the given routes may have changed
type RouteStatusMessage struct {
	Routes []RouteKey
}

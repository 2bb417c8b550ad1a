// Package announcements provides the types and constants required to contextualize events received from the
// Kubernetes API server that are propagated internally within the control plane to trigger policy changes.
package announcements

// Kind is used to record the kind of announcement
type Kind string

func (at Kind) String() string {
	return string(at)
}

const (
	// RouteStatusUpdate is the event kind used to trigger the status reconciliation of a route
	RouteStatusUpdate Kind = "route-status-update"

	// ---

	// PodAdded is the type of announcement emitted when we observe an addition of a Kubernetes Pod
	PodAdded Kind = "pod-added"

	// PodDeleted the type of announcement emitted when we observe the deletion of a Kubernetes Pod
	PodDeleted Kind = "pod-deleted"

	// PodUpdated is the type of announcement emitted when we observe an update to a Kubernetes Pod
	PodUpdated Kind = "pod-updated"

	// ---

	// ServerAdded is the type of announcement emitted when we observe an addition of a Server
	ServerAdded Kind = "server-added"

	// ServerDeleted the type of announcement emitted when we observe the deletion of a Server
	ServerDeleted Kind = "server-deleted"

	// ServerUpdated is the type of announcement emitted when we observe an update to a Server
	ServerUpdated Kind = "server-updated"

	// ---

	// RouteAdded is the type of announcement emitted when we observe an addition of an HTTPRoute or GRPCRoute
	RouteAdded Kind = "route-added"

	// RouteDeleted the type of announcement emitted when we observe the deletion of an HTTPRoute or GRPCRoute
	RouteDeleted Kind = "route-deleted"

	// RouteUpdated is the type of announcement emitted when we observe an update to an HTTPRoute or GRPCRoute
	RouteUpdated Kind = "route-updated"

	// ---

	// AuthorizationAdded is the type of announcement emitted when we observe an addition of an authorization resource
	AuthorizationAdded Kind = "authorization-added"

	// AuthorizationDeleted the type of announcement emitted when we observe the deletion of an authorization resource
	AuthorizationDeleted Kind = "authorization-deleted"

	// AuthorizationUpdated is the type of announcement emitted when we observe an update to an authorization resource
	AuthorizationUpdated Kind = "authorization-updated"
)

// Package constants defines the constants that are used by multiple other packages within fsm-policy.
package constants

import "time"

const (
	// DefaultFSMLogLevel is the default log level if none is specified
	DefaultFSMLogLevel = "info"

	// FSMHTTPServerPort is the port on which fsm-policy-controller serves HTTP requests for metrics, health probes etc.
	FSMHTTPServerPort = 9091

	// MetricsPath is the path at which metrics are exposed
	MetricsPath = "/metrics"

	// FSMControllerReadinessPath is the path at which the controller exposes its readiness endpoint
	FSMControllerReadinessPath = "/health/ready"

	// FSMControllerLivenessPath is the path at which the controller exposes its liveness endpoint
	FSMControllerLivenessPath = "/health/alive"

	// VersionPath is the path at which the controller exposes its version
	VersionPath = "/version"
)

// Policy API constants
const (
	// PolicyController is the name written into the controllerName of route parent statuses
	PolicyController = "policy.flomesh.io/policy-controller"

	// FlomeshPolicyAPIGroup is the API group of the Server, AuthorizationPolicy and policy HTTPRoute resources
	FlomeshPolicyAPIGroup = "policy.flomesh.io"

	// GatewayAPIGroup is the API group of the Gateway API resources
	GatewayAPIGroup = "gateway.networking.k8s.io"

	// ServerKind is the kind of the Server resource
	ServerKind = "Server"

	// HTTPRouteKind is the kind of the HTTPRoute resource
	HTTPRouteKind = "HTTPRoute"

	// GRPCRouteKind is the kind of the GRPCRoute resource
	GRPCRouteKind = "GRPCRoute"

	// AuthorizationPolicyKind is the kind of the AuthorizationPolicy resource
	AuthorizationPolicyKind = "AuthorizationPolicy"

	// MeshTLSAuthenticationKind is the kind of the MeshTLSAuthentication resource
	MeshTLSAuthenticationKind = "MeshTLSAuthentication"

	// NetworkAuthenticationKind is the kind of the NetworkAuthentication resource
	NetworkAuthenticationKind = "NetworkAuthentication"

	// NamespaceKind is the kind of the Namespace resource
	NamespaceKind = "Namespace"

	// ServiceAccountKind is the kind of the ServiceAccount resource
	ServiceAccountKind = "ServiceAccount"
)

// Route status constants
const (
	// RouteConditionAccepted is the type of the condition written for each parent of a route
	RouteConditionAccepted = "Accepted"

	// RouteReasonAccepted is the reason used when a route is accepted by its parent
	RouteReasonAccepted = "Accepted"

	// RouteReasonNoMatchingParent is the reason used when the parent of a route does not exist
	RouteReasonNoMatchingParent = "NoMatchingParent"
)

// Default policy constants
const (
	// DefaultInboundPolicyAnnotation overrides the cluster default inbound policy for a pod
	DefaultInboundPolicyAnnotation = "policy.flomesh.io/default-inbound-policy"

	// ProbeAuthorizationName is the name of the default authorization for probe routes
	ProbeAuthorizationName = "probe"

	// ProbeRouteName is the name of the default route that allows probes
	ProbeRouteName = "probe"

	// DefaultProbePath is used when an HTTP probe does not declare a path
	DefaultProbePath = "/"

	// DefaultDetectTimeout is the protocol detection timeout used for ports without a Server
	DefaultDetectTimeout = 10 * time.Second

	// DefaultTrustDomain is the trust domain used to build service account identities
	DefaultTrustDomain = "cluster.local"
)

// Default inbound policy names
const (
	// AllUnauthenticatedPolicy allows all traffic
	AllUnauthenticatedPolicy = "all-unauthenticated"

	// AllAuthenticatedPolicy allows traffic from meshed clients in any network
	AllAuthenticatedPolicy = "all-authenticated"

	// ClusterUnauthenticatedPolicy allows traffic from the cluster networks
	ClusterUnauthenticatedPolicy = "cluster-unauthenticated"

	// ClusterAuthenticatedPolicy allows traffic from meshed clients in the cluster networks
	ClusterAuthenticatedPolicy = "cluster-authenticated"

	// DenyPolicy denies all traffic
	DenyPolicy = "deny"
)

const (
	// PolicyControllerLeaderElectionID is the name of the lease used to elect the status writer
	PolicyControllerLeaderElectionID = "fsm-policy-controller.flomesh.io"

	// HTTPServerShutdownTimeout bounds the graceful shutdown of the metrics and health server
	HTTPServerShutdownTimeout = 5 * time.Second
)

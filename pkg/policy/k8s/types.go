// Package k8s watches the resources consumed by the policy index. A single InformerCollection
// runs the shared informers for pods, gateway API routes and the policy resources, and its
// event handlers feed the index.
package k8s

import (
	"time"

	"github.com/pkg/errors"
	"k8s.io/client-go/tools/cache"

	"github.com/flomesh-io/fsm-policy/pkg/logger"
)

var log = logger.New("policy-k8s")

// InformerKey stores the different Informers we keep for K8s resources
type InformerKey string

const (
	// InformerKeyPod is the InformerKey for a Pod informer
	InformerKeyPod InformerKey = "Pod"

	// InformerKeyGatewayAPIHTTPRoute is the InformerKey for a gateway API HTTPRoute informer
	InformerKeyGatewayAPIHTTPRoute InformerKey = "HTTPRoute-gwapi"
	// InformerKeyGatewayAPIGRPCRoute is the InformerKey for a gateway API GRPCRoute informer
	InformerKeyGatewayAPIGRPCRoute InformerKey = "GRPCRoute-gwapi"

	// InformerKeyServer is the InformerKey for a Server informer
	InformerKeyServer InformerKey = "Server"
	// InformerKeyPolicyHTTPRoute is the InformerKey for a policy HTTPRoute informer
	InformerKeyPolicyHTTPRoute InformerKey = "HTTPRoute-policy"
	// InformerKeyAuthorizationPolicy is the InformerKey for an AuthorizationPolicy informer
	InformerKeyAuthorizationPolicy InformerKey = "AuthorizationPolicy"
	// InformerKeyMeshTLSAuthentication is the InformerKey for a MeshTLSAuthentication informer
	InformerKeyMeshTLSAuthentication InformerKey = "MeshTLSAuthentication"
	// InformerKeyNetworkAuthentication is the InformerKey for a NetworkAuthentication informer
	InformerKeyNetworkAuthentication InformerKey = "NetworkAuthentication"
)

const (
	// DefaultKubeEventResyncInterval is the default resync interval for k8s events.
	// The index is event driven and never needs resyncs.
	DefaultKubeEventResyncInterval = 0 * time.Second
)

var (
	errInitInformers = errors.New("informer not initialized")
	errSyncingCaches = errors.New("failed initial cache sync for informers")
)

// InformerCollection is an abstraction around a set of informers
// initialized with the clients stored in its fields. This data
// type should only be passed around as a pointer
type InformerCollection struct {
	informers map[InformerKey]cache.SharedIndexInformer
}

// Store is the view of the policy index updated by the informer event handlers
type Store interface {
	Apply(obj interface{}) error
	Delete(obj interface{}) error
}

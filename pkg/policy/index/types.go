// Package index implements the policy index: an incremental join of pods, Servers, routes and
// authorization policies that derives and publishes one InboundServer per pod port.
package index

import (
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/flomesh-io/fsm-policy/pkg/configurator"
	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/logger"
	"github.com/flomesh-io/fsm-policy/pkg/policy/inbound"
	"github.com/flomesh-io/fsm-policy/pkg/policy/routes"
	"github.com/flomesh-io/fsm-policy/pkg/policy/watch"
)

var log = logger.New("policy-index")

var (
	// ErrNotFound is returned when subscribing to a pod that is not indexed
	ErrNotFound = errors.New("not found")

	// ErrInvalidPort is returned when subscribing to a port outside of 1-65535
	ErrInvalidPort = errors.New("invalid port")

	// ErrUnknownResource is returned when the index is handed a resource it does not store
	ErrUnknownResource = errors.New("unknown resource")

	// ErrUnsupportedTarget is returned for authorization policies with a target the index can not resolve
	ErrUnsupportedTarget = errors.New("unsupported policy target")

	// ErrUnsupportedAuthentication is returned for authorization policies requiring an unknown authentication kind
	ErrUnsupportedAuthentication = errors.New("unsupported authentication reference")
)

// ServerRefType distinguishes Server resources from default policies
type ServerRefType int

const (
	// ServerRefServer references a Server resource
	ServerRefServer ServerRefType = iota

	// ServerRefDefault references a default inbound policy
	ServerRefDefault
)

// ServerRef identifies the source of an InboundServer
type ServerRef struct {
	Type ServerRefType
	Name string
}

// ProxyProtocolKind is the protocol a proxy expects on an inbound port
type ProxyProtocolKind int

const (
	// ProtocolDetect lets the proxy detect the protocol within DetectTimeout
	ProtocolDetect ProxyProtocolKind = iota

	// ProtocolHTTP1 is HTTP/1.x
	ProtocolHTTP1

	// ProtocolHTTP2 is HTTP/2
	ProtocolHTTP2

	// ProtocolGRPC is gRPC
	ProtocolGRPC

	// ProtocolOpaque is an opaque TCP stream
	ProtocolOpaque

	// ProtocolTLS is a TLS stream that is not terminated
	ProtocolTLS
)

func (k ProxyProtocolKind) String() string {
	switch k {
	case ProtocolDetect:
		return "detect"
	case ProtocolHTTP1:
		return "http1"
	case ProtocolHTTP2:
		return "http2"
	case ProtocolGRPC:
		return "grpc"
	case ProtocolOpaque:
		return "opaque"
	case ProtocolTLS:
		return "tls"
	default:
		return "unknown"
	}
}

// ProxyProtocol is the protocol of an inbound port and the routes served on it.
// HTTPRoutes is only set for the detect and HTTP protocols, GRPCRoutes only for gRPC.
type ProxyProtocol struct {
	Kind          ProxyProtocolKind
	DetectTimeout time.Duration
	HTTPRoutes    map[routes.RouteRef]routes.InboundRoute[routes.HTTPRouteMatch]
	GRPCRoutes    map[routes.RouteRef]routes.InboundRoute[routes.GRPCRouteMatch]
}

// InboundServer is the policy derived for one pod port
type InboundServer struct {
	Reference      ServerRef
	Protocol       ProxyProtocol
	Authorizations map[routes.AuthorizationRef]routes.ClientAuthorization
}

// ResourceKey identifies a resource handed to the index
type ResourceKey struct {
	Group     string
	Kind      string
	Namespace string
	Name      string
}

func (k ResourceKey) String() string {
	return k.Group + "/" + k.Kind + "/" + k.Namespace + "/" + k.Name
}

// RouteStatusPublisher is notified of the routes whose status may have changed
type RouteStatusPublisher interface {
	PublishRouteStatusUpdate(keys []events.RouteKey)
}

// Index is the policy index. It is safe for concurrent use, mutations are serialized.
type Index struct {
	mu sync.RWMutex

	cfg       configurator.Configurator
	publisher RouteStatusPublisher

	namespaces map[string]*namespaceState
	endpoints  map[endpointKey]*endpoint

	// reverse indices
	nsEndpoints        map[string]mapset.Set[endpointKey]
	podEndpoints       map[types.NamespacedName]mapset.Set[endpointKey]
	serverEndpoints    map[types.NamespacedName]mapset.Set[endpointKey]
	serverRoutes       map[types.NamespacedName]mapset.Set[events.RouteKey]
	serverPolicies     map[types.NamespacedName]mapset.Set[string]
	routePolicies      map[events.RouteKey]mapset.Set[string]
	namespacePolicies  map[string]mapset.Set[string]
	authenticationRefs map[authnKey]mapset.Set[types.NamespacedName]

	derivations uint64
}

type namespaceState struct {
	pods                   map[string]*podState
	servers                map[string]*serverState
	routes                 map[events.RouteKey]*routeEntry
	policies               map[string]*policyState
	meshTLSAuthentications map[string][]routes.IdentityMatch
	networkAuthentications map[string][]routes.Network
}

func newNamespaceState() *namespaceState {
	return &namespaceState{
		pods:                   make(map[string]*podState),
		servers:                make(map[string]*serverState),
		routes:                 make(map[events.RouteKey]*routeEntry),
		policies:               make(map[string]*policyState),
		meshTLSAuthentications: make(map[string][]routes.IdentityMatch),
		networkAuthentications: make(map[string][]routes.Network),
	}
}

type podState struct {
	labels        labels.Set
	namedPorts    map[string]int32
	probePaths    map[int32][]string
	defaultPolicy string
}

type serverState struct {
	name     string
	selector labels.Selector
	port     intstr.IntOrString
	protocol ProxyProtocolKind
}

type routeEntry struct {
	http *inbound.HTTPBinding
	grpc *inbound.GRPCBinding
}

func (e *routeEntry) binding() inbound.TypedRouteBinding {
	if e.http != nil {
		return e.http
	}
	return e.grpc
}

type targetType int

const (
	targetServer targetType = iota
	targetNamespace
	targetRoute
)

type policyState struct {
	name            string
	target          targetType
	targetName      string
	targetRoute     events.RouteKey
	authentications []authnKey
}

type authnKey struct {
	Kind string
	types.NamespacedName
}

type endpointKey struct {
	Namespace string
	Pod       string
	Port      int32
}

type endpoint struct {
	tx     *watch.Sender[*InboundServer]
	server string
}

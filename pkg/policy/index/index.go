package index

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
	gwv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"
	gwv1beta1 "sigs.k8s.io/gateway-api/apis/v1beta1"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/configurator"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/errcode"
	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/metricsstore"
	"github.com/flomesh-io/fsm-policy/pkg/policy/inbound"
	"github.com/flomesh-io/fsm-policy/pkg/policy/watch"
)

const podKind = "Pod"

// NewIndex returns an empty index. publisher may be nil.
func NewIndex(cfg configurator.Configurator, publisher RouteStatusPublisher) *Index {
	return &Index{
		cfg:                cfg,
		publisher:          publisher,
		namespaces:         make(map[string]*namespaceState),
		endpoints:          make(map[endpointKey]*endpoint),
		nsEndpoints:        make(map[string]mapset.Set[endpointKey]),
		podEndpoints:       make(map[types.NamespacedName]mapset.Set[endpointKey]),
		serverEndpoints:    make(map[types.NamespacedName]mapset.Set[endpointKey]),
		serverRoutes:       make(map[types.NamespacedName]mapset.Set[events.RouteKey]),
		serverPolicies:     make(map[types.NamespacedName]mapset.Set[string]),
		routePolicies:      make(map[events.RouteKey]mapset.Set[string]),
		namespacePolicies:  make(map[string]mapset.Set[string]),
		authenticationRefs: make(map[authnKey]mapset.Set[types.NamespacedName]),
	}
}

// KeyFor returns the key of a resource stored by the index
func KeyFor(obj interface{}) (ResourceKey, error) {
	var meta metav1.ObjectMeta
	var group, kind string

	switch o := obj.(type) {
	case *corev1.Pod:
		meta, kind = o.ObjectMeta, podKind
	case *policyv1beta3.Server:
		meta, group, kind = o.ObjectMeta, constants.FlomeshPolicyAPIGroup, constants.ServerKind
	case *policyv1beta3.AuthorizationPolicy:
		meta, group, kind = o.ObjectMeta, constants.FlomeshPolicyAPIGroup, constants.AuthorizationPolicyKind
	case *policyv1beta3.MeshTLSAuthentication:
		meta, group, kind = o.ObjectMeta, constants.FlomeshPolicyAPIGroup, constants.MeshTLSAuthenticationKind
	case *policyv1beta3.NetworkAuthentication:
		meta, group, kind = o.ObjectMeta, constants.FlomeshPolicyAPIGroup, constants.NetworkAuthenticationKind
	case *policyv1beta3.HTTPRoute:
		meta, group, kind = o.ObjectMeta, constants.FlomeshPolicyAPIGroup, constants.HTTPRouteKind
	case *gwv1.HTTPRoute:
		meta, group, kind = o.ObjectMeta, constants.GatewayAPIGroup, constants.HTTPRouteKind
	case *gwv1beta1.HTTPRoute:
		meta, group, kind = o.ObjectMeta, constants.GatewayAPIGroup, constants.HTTPRouteKind
	case *gwv1.GRPCRoute:
		meta, group, kind = o.ObjectMeta, constants.GatewayAPIGroup, constants.GRPCRouteKind
	case *gwv1alpha2.GRPCRoute:
		meta, group, kind = o.ObjectMeta, constants.GatewayAPIGroup, constants.GRPCRouteKind
	default:
		return ResourceKey{}, errors.Wrapf(ErrUnknownResource, "%T", obj)
	}

	return ResourceKey{Group: group, Kind: kind, Namespace: meta.Namespace, Name: meta.Name}, nil
}

func routeKey(key ResourceKey) events.RouteKey {
	return events.RouteKey{
		Group:          key.Group,
		Kind:           key.Kind,
		NamespacedName: types.NamespacedName{Namespace: key.Namespace, Name: key.Name},
	}
}

// Apply inserts or updates a resource and republishes the affected endpoints.
// A route that fails conversion is removed from the index and the conversion error is returned.
func (idx *Index) Apply(obj interface{}) error {
	key, err := KeyFor(obj)
	if err != nil {
		log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrUnknownResource)).
			Msg("Cannot apply resource")
		return err
	}

	metricsstore.DefaultMetricsStore.IndexMutationCounter.WithLabelValues(key.Kind, "apply").Inc()

	idx.mu.Lock()
	announce, err := idx.apply(key, obj)
	idx.mu.Unlock()

	idx.announce(announce)
	return err
}

func (idx *Index) apply(key ResourceKey, obj interface{}) ([]events.RouteKey, error) {
	controllerName := idx.cfg.GetControllerName()

	switch o := obj.(type) {
	case *corev1.Pod:
		idx.applyPod(o)
		return nil, nil

	case *policyv1beta3.Server:
		return idx.applyServer(o), nil

	case *policyv1beta3.AuthorizationPolicy:
		return nil, idx.applyPolicy(o)

	case *policyv1beta3.MeshTLSAuthentication:
		return nil, idx.applyMeshTLSAuthentication(o)

	case *policyv1beta3.NetworkAuthentication:
		return nil, idx.applyNetworkAuthentication(o)

	case *policyv1beta3.HTTPRoute:
		b, err := inbound.HTTPRouteBindingFromPolicy(o, controllerName)
		return idx.applyRoute(routeKey(key), &routeEntry{http: b}, err)

	case *gwv1.HTTPRoute:
		b, err := inbound.HTTPRouteBindingFromGateway(o, controllerName)
		return idx.applyRoute(routeKey(key), &routeEntry{http: b}, err)

	case *gwv1beta1.HTTPRoute:
		b, err := inbound.HTTPRouteBindingFromGatewayV1beta1(o, controllerName)
		return idx.applyRoute(routeKey(key), &routeEntry{http: b}, err)

	case *gwv1.GRPCRoute:
		b, err := inbound.GRPCRouteBindingFromGateway(o, controllerName)
		return idx.applyRoute(routeKey(key), &routeEntry{grpc: b}, err)

	case *gwv1alpha2.GRPCRoute:
		b, err := inbound.GRPCRouteBindingFromGatewayV1alpha2(o, controllerName)
		return idx.applyRoute(routeKey(key), &routeEntry{grpc: b}, err)
	}

	return nil, errors.Wrapf(ErrUnknownResource, "%T", obj)
}

// Delete removes a resource and republishes the affected endpoints
func (idx *Index) Delete(obj interface{}) error {
	key, err := KeyFor(obj)
	if err != nil {
		log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrUnknownResource)).
			Msg("Cannot delete resource")
		return err
	}
	return idx.DeleteKey(key)
}

// DeleteKey removes the resource with the given key and republishes the affected endpoints
func (idx *Index) DeleteKey(key ResourceKey) error {
	metricsstore.DefaultMetricsStore.IndexMutationCounter.WithLabelValues(key.Kind, "delete").Inc()

	idx.mu.Lock()
	announce, err := idx.deleteKey(key)
	idx.mu.Unlock()

	idx.announce(announce)
	return err
}

func (idx *Index) deleteKey(key ResourceKey) ([]events.RouteKey, error) {
	name := types.NamespacedName{Namespace: key.Namespace, Name: key.Name}

	switch {
	case key.Group == "" && key.Kind == podKind:
		idx.deletePod(name)
		return nil, nil

	case key.Group == constants.FlomeshPolicyAPIGroup && key.Kind == constants.ServerKind:
		return idx.deleteServer(name), nil

	case key.Group == constants.FlomeshPolicyAPIGroup && key.Kind == constants.AuthorizationPolicyKind:
		idx.deletePolicy(name)
		return nil, nil

	case key.Group == constants.FlomeshPolicyAPIGroup && key.Kind == constants.MeshTLSAuthenticationKind:
		if ns, ok := idx.namespaces[key.Namespace]; ok {
			delete(ns.meshTLSAuthentications, key.Name)
		}
		idx.recompute(idx.authenticationEndpoints(authnKey{Kind: key.Kind, NamespacedName: name}))
		return nil, nil

	case key.Group == constants.FlomeshPolicyAPIGroup && key.Kind == constants.NetworkAuthenticationKind:
		if ns, ok := idx.namespaces[key.Namespace]; ok {
			delete(ns.networkAuthentications, key.Name)
		}
		idx.recompute(idx.authenticationEndpoints(authnKey{Kind: key.Kind, NamespacedName: name}))
		return nil, nil

	case key.Kind == constants.HTTPRouteKind && (key.Group == constants.FlomeshPolicyAPIGroup || key.Group == constants.GatewayAPIGroup),
		key.Kind == constants.GRPCRouteKind && key.Group == constants.GatewayAPIGroup:
		idx.recompute(idx.removeRoute(routeKey(key)))
		return nil, nil
	}

	return nil, errors.Wrapf(ErrUnknownResource, "%s", key)
}

// Subscribe returns a receiver of the policy of a pod port. The receiver holds the current policy.
func (idx *Index) Subscribe(namespace, pod string, port int32) (*watch.Receiver[*InboundServer], error) {
	if port < 1 || port > 65535 {
		return nil, errors.Wrapf(ErrInvalidPort, "%d", port)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ns, ok := idx.namespaces[namespace]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "pod %s/%s", namespace, pod)
	}
	p, ok := ns.pods[pod]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "pod %s/%s", namespace, pod)
	}

	key := endpointKey{Namespace: namespace, Pod: pod, Port: port}
	if ep, ok := idx.endpoints[key]; ok {
		return ep.tx.Subscribe(), nil
	}

	srv := matchServer(ns, p, port)
	ep := &endpoint{}
	if srv != nil {
		ep.server = srv.name
		setAdd(idx.serverEndpoints, types.NamespacedName{Namespace: namespace, Name: srv.name}, key)
	}

	tx, rx := watch.New(idx.derive(namespace, ns, srv, p, port))
	ep.tx = tx

	idx.endpoints[key] = ep
	setAdd(idx.nsEndpoints, namespace, key)
	setAdd(idx.podEndpoints, types.NamespacedName{Namespace: namespace, Name: pod}, key)
	metricsstore.DefaultMetricsStore.SubscriptionGauge.Set(float64(len(idx.endpoints)))

	log.Debug().Msgf("Subscribed to %s/%s:%d", namespace, pod, port)
	return rx, nil
}

// ServerExists returns true if the Server is indexed
func (idx *Index) ServerExists(namespace, name string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ns, ok := idx.namespaces[namespace]
	if !ok {
		return false
	}
	_, ok = ns.servers[name]
	return ok
}

// RouteBinding returns the binding of a route, false if the route is not indexed or failed conversion
func (idx *Index) RouteBinding(key events.RouteKey) (inbound.TypedRouteBinding, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ns, ok := idx.namespaces[key.Namespace]
	if !ok {
		return nil, false
	}
	entry, ok := ns.routes[key]
	if !ok {
		return nil, false
	}
	return entry.binding(), true
}

// RoutesForServer returns the routes referencing the Server, whether or not it exists
func (idx *Index) RoutesForServer(namespace, name string) []events.RouteKey {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.routesReferencing(types.NamespacedName{Namespace: namespace, Name: name})
}

// RouteKeys returns the keys of every valid route in the index
func (idx *Index) RouteKeys() []events.RouteKey {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var keys []events.RouteKey
	for _, ns := range idx.namespaces {
		for key := range ns.routes {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// DerivationCount returns the number of endpoint derivations performed
func (idx *Index) DerivationCount() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.derivations
}

func (idx *Index) announce(keys []events.RouteKey) {
	if idx.publisher == nil || len(keys) == 0 {
		return
	}
	idx.publisher.PublishRouteStatusUpdate(keys)
}

func (idx *Index) namespace(name string) *namespaceState {
	ns, ok := idx.namespaces[name]
	if !ok {
		ns = newNamespaceState()
		idx.namespaces[name] = ns
	}
	return ns
}

func (idx *Index) routesReferencing(server types.NamespacedName) []events.RouteKey {
	set, ok := idx.serverRoutes[server]
	if !ok {
		return nil
	}

	keys := set.ToSlice()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

func setAdd[K comparable, V comparable](m map[K]mapset.Set[V], k K, v V) {
	s, ok := m[k]
	if !ok {
		s = mapset.NewSet[V]()
		m[k] = s
	}
	s.Add(v)
}

func setRemove[K comparable, V comparable](m map[K]mapset.Set[V], k K, v V) {
	s, ok := m[k]
	if !ok {
		return
	}
	s.Remove(v)
	if s.Cardinality() == 0 {
		delete(m, k)
	}
}

func addAll[T comparable](dst mapset.Set[T], src mapset.Set[T]) {
	if src == nil {
		return
	}
	for _, v := range src.ToSlice() {
		dst.Add(v)
	}
}

package index

import (
	mapset "github.com/deckarep/golang-set/v2"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/types"

	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/errcode"
	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/metricsstore"
	"github.com/flomesh-io/fsm-policy/pkg/policy/inbound"
	"github.com/flomesh-io/fsm-policy/pkg/policy/routes"
)

// recompute derives the policy of each endpoint and publishes it if it changed
func (idx *Index) recompute(keys mapset.Set[endpointKey]) {
	if keys == nil {
		return
	}
	for _, key := range keys.ToSlice() {
		idx.recomputeEndpoint(key)
	}
}

func (idx *Index) recomputeEndpoint(key endpointKey) {
	ep, ok := idx.endpoints[key]
	if !ok {
		return
	}
	ns, ok := idx.namespaces[key.Namespace]
	if !ok {
		return
	}
	pod, ok := ns.pods[key.Pod]
	if !ok {
		return
	}

	srv := matchServer(ns, pod, key.Port)
	name := ""
	if srv != nil {
		name = srv.name
	}
	if name != ep.server {
		if ep.server != "" {
			setRemove(idx.serverEndpoints, types.NamespacedName{Namespace: key.Namespace, Name: ep.server}, key)
		}
		if name != "" {
			setAdd(idx.serverEndpoints, types.NamespacedName{Namespace: key.Namespace, Name: name}, key)
		}
		ep.server = name
	}

	next := idx.derive(key.Namespace, ns, srv, pod, key.Port)
	published := ep.tx.SendIfModified(func(current *InboundServer) (*InboundServer, bool) {
		if equality.Semantic.DeepEqual(current, next) {
			return current, false
		}
		return next, true
	})
	if published {
		metricsstore.DefaultMetricsStore.PublicationCounter.Inc()
		log.Debug().Msgf("Published policy of %s/%s:%d", key.Namespace, key.Pod, key.Port)
	}
}

// matchServer returns the Server exposing the pod port, the least name wins when several do
func matchServer(ns *namespaceState, pod *podState, port int32) *serverState {
	var match *serverState
	for _, srv := range ns.servers {
		if !srv.selects(pod, port) {
			continue
		}
		if match == nil || srv.name < match.name {
			match = srv
		}
	}
	return match
}

func (idx *Index) derive(namespace string, ns *namespaceState, srv *serverState, pod *podState, port int32) *InboundServer {
	idx.derivations++
	metricsstore.DefaultMetricsStore.DerivationCounter.Inc()

	if srv == nil {
		policy := idx.cfg.GetDefaultPolicy()
		if pod.defaultPolicy != "" {
			policy = pod.defaultPolicy
		}

		return &InboundServer{
			Reference: ServerRef{Type: ServerRefDefault, Name: policy},
			Protocol: ProxyProtocol{
				Kind:          ProtocolDetect,
				DetectTimeout: idx.cfg.GetDetectTimeout(),
				HTTPRoutes:    probeRoutes(pod, port, idx.cfg.GetProbeNetworks()),
			},
			Authorizations: defaultAuthorizations(policy, idx.cfg.GetClusterNetworks()),
		}
	}

	protocol := ProxyProtocol{Kind: srv.protocol}
	switch srv.protocol {
	case ProtocolDetect, ProtocolHTTP1, ProtocolHTTP2:
		if srv.protocol == ProtocolDetect {
			protocol.DetectTimeout = idx.cfg.GetDetectTimeout()
		}
		protocol.HTTPRoutes = acceptedRoutes(idx, namespace, ns, srv.name, func(e *routeEntry) *inbound.HTTPBinding { return e.http })
		if len(protocol.HTTPRoutes) == 0 {
			protocol.HTTPRoutes = probeRoutes(pod, port, idx.cfg.GetProbeNetworks())
		}

	case ProtocolGRPC:
		protocol.GRPCRoutes = acceptedRoutes(idx, namespace, ns, srv.name, func(e *routeEntry) *inbound.GRPCBinding { return e.grpc })
	}

	return &InboundServer{
		Reference:      ServerRef{Type: ServerRefServer, Name: srv.name},
		Protocol:       protocol,
		Authorizations: make(map[routes.AuthorizationRef]routes.ClientAuthorization),
	}
}

// acceptedRoutes returns the routes of one kind referencing the Server and accepted by it
func acceptedRoutes[M routes.Match](
	idx *Index,
	namespace string,
	ns *namespaceState,
	server string,
	binding func(*routeEntry) *inbound.RouteBinding[M],
) map[routes.RouteRef]routes.InboundRoute[M] {
	result := make(map[routes.RouteRef]routes.InboundRoute[M])

	keys, ok := idx.serverRoutes[types.NamespacedName{Namespace: namespace, Name: server}]
	if !ok {
		return result
	}

	for _, key := range keys.ToSlice() {
		entry, ok := ns.routes[key]
		if !ok {
			continue
		}
		b := binding(entry)
		if b == nil || !b.AcceptedByServer(server) {
			continue
		}

		ref := routes.ResourceRouteRef(key.Group, key.Kind, key.Name)
		result[ref] = b.Route.WithAuthorizations(idx.routeAuthorizations(namespace, ns, server, key))
	}

	return result
}

// routeAuthorizations resolves the policies targeting the Server, the namespace or the route itself
func (idx *Index) routeAuthorizations(namespace string, ns *namespaceState, server string, route events.RouteKey) map[routes.AuthorizationRef]routes.ClientAuthorization {
	names := mapset.NewSet[string]()
	addAll(names, idx.serverPolicies[types.NamespacedName{Namespace: namespace, Name: server}])
	addAll(names, idx.namespacePolicies[namespace])
	addAll(names, idx.routePolicies[route])

	authzs := make(map[routes.AuthorizationRef]routes.ClientAuthorization, names.Cardinality())
	for _, name := range names.ToSlice() {
		p, ok := ns.policies[name]
		if !ok {
			continue
		}
		if authz, ok := idx.resolvePolicy(namespace, p); ok {
			authzs[routes.PolicyAuthorizationRef(name)] = authz
		}
	}
	return authzs
}

// resolvePolicy returns the client authorization of a policy, false if it requires a missing authentication
func (idx *Index) resolvePolicy(namespace string, p *policyState) (routes.ClientAuthorization, bool) {
	var networks []routes.Network
	var identities []routes.IdentityMatch
	requiresIdentity := false

	for _, ref := range p.authentications {
		switch ref.Kind {
		case constants.MeshTLSAuthenticationKind:
			ids, ok := idx.meshTLSAuthentication(ref.NamespacedName)
			if !ok {
				idx.logMissingAuthentication(namespace, p, ref)
				return routes.ClientAuthorization{}, false
			}
			identities = append(identities, ids...)
			requiresIdentity = true

		case constants.NetworkAuthenticationKind:
			nets, ok := idx.networkAuthentication(ref.NamespacedName)
			if !ok {
				idx.logMissingAuthentication(namespace, p, ref)
				return routes.ClientAuthorization{}, false
			}
			networks = append(networks, nets...)

		case constants.ServiceAccountKind:
			identities = append(identities, routes.ParseIdentityMatch(serviceAccountIdentity(ref.Namespace, ref.Name, idx.cfg.GetTrustDomain())))
			requiresIdentity = true
		}
	}

	if len(networks) == 0 {
		networks = toNetworks(allNetworks)
	}

	authn := routes.ClientAuthentication{Type: routes.Unauthenticated}
	if requiresIdentity {
		authn = routes.ClientAuthentication{Type: routes.TLSAuthenticated, Identities: identities}
	}

	return routes.ClientAuthorization{Networks: networks, Authentication: authn}, true
}

func (idx *Index) meshTLSAuthentication(name types.NamespacedName) ([]routes.IdentityMatch, bool) {
	ns, ok := idx.namespaces[name.Namespace]
	if !ok {
		return nil, false
	}
	ids, ok := ns.meshTLSAuthentications[name.Name]
	return ids, ok
}

func (idx *Index) networkAuthentication(name types.NamespacedName) ([]routes.Network, bool) {
	ns, ok := idx.namespaces[name.Namespace]
	if !ok {
		return nil, false
	}
	nets, ok := ns.networkAuthentications[name.Name]
	return nets, ok
}

func (idx *Index) logMissingAuthentication(namespace string, p *policyState, ref authnKey) {
	log.Error().Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrMissingAuthentication)).
		Msgf("AuthorizationPolicy %s/%s requires missing %s %s", namespace, p.name, ref.Kind, ref.NamespacedName)
}

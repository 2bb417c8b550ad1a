package index

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/errcode"
	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/metricsstore"
)

func (idx *Index) applyPod(pod *corev1.Pod) {
	ns := idx.namespace(pod.Namespace)
	ns.pods[pod.Name] = newPodState(pod)

	idx.recompute(idx.podEndpoints[types.NamespacedName{Namespace: pod.Namespace, Name: pod.Name}])
}

func (idx *Index) deletePod(name types.NamespacedName) {
	if ns, ok := idx.namespaces[name.Namespace]; ok {
		delete(ns.pods, name.Name)
	}

	keys, ok := idx.podEndpoints[name]
	if !ok {
		return
	}

	for _, key := range keys.ToSlice() {
		if ep, ok := idx.endpoints[key]; ok {
			if ep.server != "" {
				setRemove(idx.serverEndpoints, types.NamespacedName{Namespace: key.Namespace, Name: ep.server}, key)
			}
			ep.tx.Close()
		}
		delete(idx.endpoints, key)
		setRemove(idx.nsEndpoints, key.Namespace, key)
	}
	delete(idx.podEndpoints, name)

	metricsstore.DefaultMetricsStore.SubscriptionGauge.Set(float64(len(idx.endpoints)))
}

// applyServer returns the routes referencing the Server when it is created
func (idx *Index) applyServer(srv *policyv1beta3.Server) []events.RouteKey {
	ns := idx.namespace(srv.Namespace)
	name := types.NamespacedName{Namespace: srv.Namespace, Name: srv.Name}

	_, existed := ns.servers[srv.Name]
	state := newServerState(srv)
	ns.servers[srv.Name] = state

	// endpoints currently bound to the Server and the endpoints it now selects
	affected := mapset.NewSet[endpointKey]()
	addAll(affected, idx.serverEndpoints[name])
	if keys, ok := idx.nsEndpoints[srv.Namespace]; ok {
		for _, key := range keys.ToSlice() {
			if pod, ok := ns.pods[key.Pod]; ok && state.selects(pod, key.Port) {
				affected.Add(key)
			}
		}
	}
	idx.recompute(affected)

	if existed {
		return nil
	}
	return idx.routesReferencing(name)
}

// deleteServer returns the routes referencing the deleted Server
func (idx *Index) deleteServer(name types.NamespacedName) []events.RouteKey {
	ns, ok := idx.namespaces[name.Namespace]
	if !ok {
		return nil
	}
	if _, ok := ns.servers[name.Name]; !ok {
		return nil
	}
	delete(ns.servers, name.Name)

	idx.recompute(idx.serverEndpoints[name])
	return idx.routesReferencing(name)
}

// applyRoute stores the route entry, or removes the route if conversion failed
func (idx *Index) applyRoute(key events.RouteKey, entry *routeEntry, convErr error) ([]events.RouteKey, error) {
	affected := idx.removeRoute(key)

	if convErr != nil {
		metricsstore.DefaultMetricsStore.ConversionErrorCounter.WithLabelValues(key.Kind).Inc()
		log.Error().Err(convErr).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrConvertingRoute)).
			Msgf("Error converting %s", key)
		idx.recompute(affected)
		return nil, errors.Wrapf(convErr, "invalid %s", key)
	}

	ns := idx.namespace(key.Namespace)
	ns.routes[key] = entry
	for _, parent := range entry.binding().ParentRefs() {
		server := types.NamespacedName{Namespace: key.Namespace, Name: parent.Server}
		setAdd(idx.serverRoutes, server, key)
		addAll(affected, idx.serverEndpoints[server])
	}

	idx.recompute(affected)
	return []events.RouteKey{key}, nil
}

// removeRoute removes the route and returns the endpoints behind its parents
func (idx *Index) removeRoute(key events.RouteKey) mapset.Set[endpointKey] {
	affected := mapset.NewSet[endpointKey]()

	ns, ok := idx.namespaces[key.Namespace]
	if !ok {
		return affected
	}
	old, ok := ns.routes[key]
	if !ok {
		return affected
	}

	for _, parent := range old.binding().ParentRefs() {
		server := types.NamespacedName{Namespace: key.Namespace, Name: parent.Server}
		setRemove(idx.serverRoutes, server, key)
		addAll(affected, idx.serverEndpoints[server])
	}
	delete(ns.routes, key)

	return affected
}

func (idx *Index) applyPolicy(p *policyv1beta3.AuthorizationPolicy) error {
	name := types.NamespacedName{Namespace: p.Namespace, Name: p.Name}
	affected := idx.removePolicy(name)

	state, err := newPolicyState(p)
	if err != nil {
		log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrInvalidAuthorizationPolicy)).
			Msgf("Invalid AuthorizationPolicy %s", name)
		idx.recompute(affected)
		return errors.Wrapf(err, "invalid AuthorizationPolicy %s", name)
	}

	ns := idx.namespace(p.Namespace)
	ns.policies[p.Name] = state

	switch state.target {
	case targetServer:
		setAdd(idx.serverPolicies, types.NamespacedName{Namespace: p.Namespace, Name: state.targetName}, p.Name)
	case targetNamespace:
		setAdd(idx.namespacePolicies, p.Namespace, p.Name)
	case targetRoute:
		setAdd(idx.routePolicies, state.targetRoute, p.Name)
	}
	for _, authn := range state.authentications {
		if authn.Kind != constants.ServiceAccountKind {
			setAdd(idx.authenticationRefs, authn, name)
		}
	}

	addAll(affected, idx.policyEndpoints(p.Namespace, state))
	idx.recompute(affected)
	return nil
}

func (idx *Index) deletePolicy(name types.NamespacedName) {
	idx.recompute(idx.removePolicy(name))
}

// removePolicy removes the policy and returns the endpoints it applied to
func (idx *Index) removePolicy(name types.NamespacedName) mapset.Set[endpointKey] {
	affected := mapset.NewSet[endpointKey]()

	ns, ok := idx.namespaces[name.Namespace]
	if !ok {
		return affected
	}
	old, ok := ns.policies[name.Name]
	if !ok {
		return affected
	}

	addAll(affected, idx.policyEndpoints(name.Namespace, old))

	switch old.target {
	case targetServer:
		setRemove(idx.serverPolicies, types.NamespacedName{Namespace: name.Namespace, Name: old.targetName}, name.Name)
	case targetNamespace:
		setRemove(idx.namespacePolicies, name.Namespace, name.Name)
	case targetRoute:
		setRemove(idx.routePolicies, old.targetRoute, name.Name)
	}
	for _, authn := range old.authentications {
		setRemove(idx.authenticationRefs, authn, name)
	}
	delete(ns.policies, name.Name)

	return affected
}

// policyEndpoints returns the endpoints whose routes the policy applies to
func (idx *Index) policyEndpoints(namespace string, p *policyState) mapset.Set[endpointKey] {
	affected := mapset.NewSet[endpointKey]()
	ns, ok := idx.namespaces[namespace]
	if !ok {
		return affected
	}

	switch p.target {
	case targetServer:
		addAll(affected, idx.serverEndpoints[types.NamespacedName{Namespace: namespace, Name: p.targetName}])

	case targetNamespace:
		for server := range ns.servers {
			addAll(affected, idx.serverEndpoints[types.NamespacedName{Namespace: namespace, Name: server}])
		}

	case targetRoute:
		if entry, ok := ns.routes[p.targetRoute]; ok {
			for _, parent := range entry.binding().ParentRefs() {
				addAll(affected, idx.serverEndpoints[types.NamespacedName{Namespace: namespace, Name: parent.Server}])
			}
		}
	}

	return affected
}

func (idx *Index) applyMeshTLSAuthentication(authn *policyv1beta3.MeshTLSAuthentication) error {
	ns := idx.namespace(authn.Namespace)
	key := authnKey{
		Kind:           constants.MeshTLSAuthenticationKind,
		NamespacedName: types.NamespacedName{Namespace: authn.Namespace, Name: authn.Name},
	}

	identities, err := parseMeshTLSAuthentication(authn, idx.cfg.GetTrustDomain())
	if err != nil {
		log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrInvalidMeshTLSAuthentication)).
			Msgf("Invalid MeshTLSAuthentication %s", key.NamespacedName)
		delete(ns.meshTLSAuthentications, authn.Name)
		idx.recompute(idx.authenticationEndpoints(key))
		return errors.Wrapf(err, "invalid MeshTLSAuthentication %s", key.NamespacedName)
	}

	ns.meshTLSAuthentications[authn.Name] = identities
	idx.recompute(idx.authenticationEndpoints(key))
	return nil
}

func (idx *Index) applyNetworkAuthentication(authn *policyv1beta3.NetworkAuthentication) error {
	ns := idx.namespace(authn.Namespace)
	key := authnKey{
		Kind:           constants.NetworkAuthenticationKind,
		NamespacedName: types.NamespacedName{Namespace: authn.Namespace, Name: authn.Name},
	}

	networks, err := parseNetworkAuthentication(authn)
	if err != nil {
		log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrInvalidNetwork)).
			Msgf("Invalid NetworkAuthentication %s", key.NamespacedName)
		delete(ns.networkAuthentications, authn.Name)
		idx.recompute(idx.authenticationEndpoints(key))
		return errors.Wrapf(err, "invalid NetworkAuthentication %s", key.NamespacedName)
	}

	ns.networkAuthentications[authn.Name] = networks
	idx.recompute(idx.authenticationEndpoints(key))
	return nil
}

// authenticationEndpoints returns the endpoints of the policies requiring the authentication
func (idx *Index) authenticationEndpoints(key authnKey) mapset.Set[endpointKey] {
	affected := mapset.NewSet[endpointKey]()

	policies, ok := idx.authenticationRefs[key]
	if !ok {
		return affected
	}

	for _, name := range policies.ToSlice() {
		ns, ok := idx.namespaces[name.Namespace]
		if !ok {
			continue
		}
		if p, ok := ns.policies[name.Name]; ok {
			addAll(affected, idx.policyEndpoints(name.Namespace, p))
		}
	}

	return affected
}

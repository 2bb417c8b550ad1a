package index

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/intstr"
	gwv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/configurator"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/errcode"
	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/policy/routes"
)

var errNoMatchingPort = errors.New("no matching port")

func newPodState(pod *corev1.Pod) *podState {
	p := &podState{
		labels:     labels.Set{},
		namedPorts: make(map[string]int32),
		probePaths: make(map[int32][]string),
	}

	for k, v := range pod.Labels {
		p.labels[k] = v
	}

	if policy, ok := pod.Annotations[constants.DefaultInboundPolicyAnnotation]; ok {
		if configurator.IsValidDefaultPolicy(policy) {
			p.defaultPolicy = policy
		} else {
			log.Warn().Msgf("Ignoring unknown default inbound policy %q on pod %s/%s", policy, pod.Namespace, pod.Name)
		}
	}

	for _, c := range pod.Spec.Containers {
		for _, port := range c.Ports {
			if port.Name != "" {
				p.namedPorts[port.Name] = port.ContainerPort
			}
		}
	}

	paths := make(map[int32]map[string]struct{})
	for _, c := range pod.Spec.Containers {
		for _, probe := range []*corev1.Probe{c.LivenessProbe, c.ReadinessProbe} {
			if probe == nil || probe.HTTPGet == nil {
				continue
			}

			port, err := getPort(probe.HTTPGet.Port, c.Ports)
			if err != nil {
				log.Debug().Err(err).Msgf("Skipping probe of container %s in pod %s/%s", c.Name, pod.Namespace, pod.Name)
				continue
			}

			path := probe.HTTPGet.Path
			if path == "" {
				path = constants.DefaultProbePath
			}
			if paths[port] == nil {
				paths[port] = make(map[string]struct{})
			}
			paths[port][path] = struct{}{}
		}
	}

	for port, set := range paths {
		for path := range set {
			p.probePaths[port] = append(p.probePaths[port], path)
		}
		sort.Strings(p.probePaths[port])
	}

	return p
}

func getPort(namedPort intstr.IntOrString, containerPorts []corev1.ContainerPort) (int32, error) {
	// Maybe this is not a named port
	if namedPort.Type == intstr.Int {
		if namedPort.IntVal > 0 {
			return namedPort.IntVal, nil
		}
		return 0, errNoMatchingPort
	}

	portName := namedPort.String()
	for _, p := range containerPorts {
		if p.Name != "" && p.Name == portName {
			return p.ContainerPort, nil
		}
	}

	return 0, errNoMatchingPort
}

func newServerState(srv *policyv1beta3.Server) *serverState {
	selector, err := metav1.LabelSelectorAsSelector(srv.Spec.PodSelector)
	if err != nil {
		log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrInvalidServerSelector)).
			Msgf("Invalid pod selector on Server %s/%s", srv.Namespace, srv.Name)
		selector = labels.Nothing()
	}

	protocol := ProtocolDetect
	if srv.Spec.ProxyProtocol != nil {
		switch *srv.Spec.ProxyProtocol {
		case policyv1beta3.ProxyProtocolHTTP1:
			protocol = ProtocolHTTP1
		case policyv1beta3.ProxyProtocolHTTP2:
			protocol = ProtocolHTTP2
		case policyv1beta3.ProxyProtocolGRPC:
			protocol = ProtocolGRPC
		case policyv1beta3.ProxyProtocolOpaque:
			protocol = ProtocolOpaque
		case policyv1beta3.ProxyProtocolTLS:
			protocol = ProtocolTLS
		}
	}

	return &serverState{
		name:     srv.Name,
		selector: selector,
		port:     srv.Spec.Port,
		protocol: protocol,
	}
}

// selects returns true if the Server exposes the port of the pod
func (s *serverState) selects(pod *podState, port int32) bool {
	if !s.selector.Matches(pod.labels) {
		return false
	}

	if s.port.Type == intstr.Int {
		return s.port.IntVal == port
	}

	named, ok := pod.namedPorts[s.port.StrVal]
	return ok && named == port
}

func newPolicyState(p *policyv1beta3.AuthorizationPolicy) (*policyState, error) {
	state := &policyState{name: p.Name}

	ref := p.Spec.TargetRef
	group, kind, name := string(ref.Group), string(ref.Kind), string(ref.Name)
	switch {
	case group == constants.FlomeshPolicyAPIGroup && kind == constants.ServerKind:
		state.target = targetServer
		state.targetName = name

	case (group == "" || group == "core") && kind == constants.NamespaceKind:
		if name != p.Namespace {
			return nil, errors.Wrapf(ErrUnsupportedTarget, "namespace %s is not the namespace of the policy", name)
		}
		state.target = targetNamespace
		state.targetName = name

	case kind == constants.HTTPRouteKind && (group == constants.FlomeshPolicyAPIGroup || group == constants.GatewayAPIGroup),
		kind == constants.GRPCRouteKind && group == constants.GatewayAPIGroup:
		state.target = targetRoute
		state.targetName = name
		state.targetRoute = events.RouteKey{
			Group:          group,
			Kind:           kind,
			NamespacedName: types.NamespacedName{Namespace: p.Namespace, Name: name},
		}

	default:
		return nil, errors.Wrapf(ErrUnsupportedTarget, "%s.%s", kind, group)
	}

	for _, ref := range p.Spec.RequiredAuthenticationRefs {
		key, err := parseAuthenticationRef(p.Namespace, ref)
		if err != nil {
			return nil, err
		}
		state.authentications = append(state.authentications, key)
	}

	return state, nil
}

func parseAuthenticationRef(namespace string, ref gwv1alpha2.NamespacedPolicyTargetReference) (authnKey, error) {
	if ref.Namespace != nil && *ref.Namespace != "" {
		namespace = string(*ref.Namespace)
	}
	key := authnKey{
		Kind:           string(ref.Kind),
		NamespacedName: types.NamespacedName{Namespace: namespace, Name: string(ref.Name)},
	}

	group := string(ref.Group)
	switch {
	case group == constants.FlomeshPolicyAPIGroup && key.Kind == constants.MeshTLSAuthenticationKind,
		group == constants.FlomeshPolicyAPIGroup && key.Kind == constants.NetworkAuthenticationKind,
		(group == "" || group == "core") && key.Kind == constants.ServiceAccountKind:
		return key, nil
	default:
		return key, errors.Wrapf(ErrUnsupportedAuthentication, "%s.%s", key.Kind, group)
	}
}

// serviceAccountIdentity returns the mesh TLS identity of the service account
func serviceAccountIdentity(namespace, name, trustDomain string) string {
	return fmt.Sprintf("%s.%s.serviceaccount.identity.%s", name, namespace, trustDomain)
}

func parseMeshTLSAuthentication(authn *policyv1beta3.MeshTLSAuthentication, trustDomain string) ([]routes.IdentityMatch, error) {
	identities := make([]routes.IdentityMatch, 0, len(authn.Spec.Identities)+len(authn.Spec.IdentityRefs))

	for _, id := range authn.Spec.Identities {
		identities = append(identities, routes.ParseIdentityMatch(id))
	}

	for _, ref := range authn.Spec.IdentityRefs {
		namespace := authn.Namespace
		if ref.Namespace != nil && *ref.Namespace != "" {
			namespace = string(*ref.Namespace)
		}

		switch string(ref.Kind) {
		case constants.ServiceAccountKind:
			identities = append(identities, routes.ParseIdentityMatch(serviceAccountIdentity(namespace, string(ref.Name), trustDomain)))
		case constants.NamespaceKind:
			identities = append(identities, routes.ParseIdentityMatch(serviceAccountIdentity(string(ref.Name), "*", trustDomain)))
		default:
			return nil, errors.Wrapf(ErrUnsupportedAuthentication, "identity reference %s", ref.Kind)
		}
	}

	return identities, nil
}

func parseNetworkAuthentication(authn *policyv1beta3.NetworkAuthentication) ([]routes.Network, error) {
	networks := make([]routes.Network, 0, len(authn.Spec.Networks))

	for _, n := range authn.Spec.Networks {
		nets, err := configurator.ParseNetworks([]string{n.Cidr})
		if err != nil {
			return nil, err
		}
		if len(nets) != 1 {
			return nil, errors.Errorf("invalid network %q", n.Cidr)
		}

		except, err := configurator.ParseNetworks(n.Except)
		if err != nil {
			return nil, err
		}

		networks = append(networks, routes.Network{Net: nets[0], Except: except})
	}

	return networks, nil
}

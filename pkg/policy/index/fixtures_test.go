package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
	gwv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/configurator"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
)

const (
	testNamespace      = "ns-0"
	testControllerName = constants.PolicyController
)

type recordingPublisher struct {
	keys [][]events.RouteKey
}

func (p *recordingPublisher) PublishRouteStatusUpdate(keys []events.RouteKey) {
	p.keys = append(p.keys, keys)
}

func (p *recordingPublisher) published() []events.RouteKey {
	var all []events.RouteKey
	for _, keys := range p.keys {
		all = append(all, keys...)
	}
	return all
}

func newTestConfigurator(t *testing.T, defaultPolicy string) configurator.Configurator {
	t.Helper()
	cfg, err := configurator.NewConfigurator(configurator.Config{
		ControllerName:  testControllerName,
		ClusterDomain:   "cluster.local",
		TrustDomain:     "cluster.local",
		ClusterNetworks: []string{"10.0.0.0/8"},
		ProbeNetworks:   []string{"192.168.0.0/16"},
		DefaultPolicy:   defaultPolicy,
		DetectTimeout:   10 * time.Second,
		StatusWorkers:   1,
	})
	require.NoError(t, err)
	return cfg
}

func newTestIndex(t *testing.T) (*Index, *recordingPublisher) {
	t.Helper()
	publisher := &recordingPublisher{}
	return NewIndex(newTestConfigurator(t, constants.AllUnauthenticatedPolicy), publisher), publisher
}

func newPod(name string, labels map[string]string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: testNamespace,
			Name:      name,
			Labels:    labels,
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{
				Name: "app",
				Ports: []corev1.ContainerPort{
					{Name: "http", ContainerPort: 8080},
					{Name: "admin", ContainerPort: 9990},
				},
				LivenessProbe: &corev1.Probe{
					ProbeHandler: corev1.ProbeHandler{
						HTTPGet: &corev1.HTTPGetAction{Path: "/live", Port: intstr.FromInt32(8080)},
					},
				},
				ReadinessProbe: &corev1.Probe{
					ProbeHandler: corev1.ProbeHandler{
						HTTPGet: &corev1.HTTPGetAction{Path: "/ready", Port: intstr.FromString("http")},
					},
				},
			}},
		},
	}
}

func newServer(name string, port intstr.IntOrString, protocol policyv1beta3.ProxyProtocol, matchLabels map[string]string) *policyv1beta3.Server {
	return &policyv1beta3.Server{
		ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: name},
		Spec: policyv1beta3.ServerSpec{
			PodSelector:   &metav1.LabelSelector{MatchLabels: matchLabels},
			Port:          port,
			ProxyProtocol: ptr.To(protocol),
		},
	}
}

func serverParentRef(name string) gwv1.ParentReference {
	return gwv1.ParentReference{
		Group: ptr.To(gwv1.Group(constants.FlomeshPolicyAPIGroup)),
		Kind:  ptr.To(gwv1.Kind(constants.ServerKind)),
		Name:  gwv1.ObjectName(name),
	}
}

func acceptedStatus(servers ...string) gwv1.RouteStatus {
	var parents []gwv1.RouteParentStatus
	for _, s := range servers {
		parents = append(parents, gwv1.RouteParentStatus{
			ParentRef:      serverParentRef(s),
			ControllerName: gwv1.GatewayController(testControllerName),
			Conditions: []metav1.Condition{{
				Type:   constants.RouteConditionAccepted,
				Status: metav1.ConditionTrue,
				Reason: constants.RouteReasonAccepted,
			}},
		})
	}
	return gwv1.RouteStatus{Parents: parents}
}

func newHTTPRoute(name string, parents []gwv1.ParentReference, status gwv1.RouteStatus) *gwv1.HTTPRoute {
	return &gwv1.HTTPRoute{
		ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: name},
		Spec: gwv1.HTTPRouteSpec{
			CommonRouteSpec: gwv1.CommonRouteSpec{ParentRefs: parents},
			Rules: []gwv1.HTTPRouteRule{{
				Matches: []gwv1.HTTPRouteMatch{{
					Path: &gwv1.HTTPPathMatch{
						Type:  ptr.To(gwv1.PathMatchPathPrefix),
						Value: ptr.To("/" + name),
					},
				}},
			}},
		},
		Status: gwv1.HTTPRouteStatus{RouteStatus: status},
	}
}

func newGRPCRoute(name string, parents []gwv1.ParentReference, status gwv1.RouteStatus) *gwv1.GRPCRoute {
	return &gwv1.GRPCRoute{
		ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: name},
		Spec: gwv1.GRPCRouteSpec{
			CommonRouteSpec: gwv1.CommonRouteSpec{ParentRefs: parents},
			Rules: []gwv1.GRPCRouteRule{{
				Matches: []gwv1.GRPCRouteMatch{{
					Method: &gwv1.GRPCMethodMatch{Service: ptr.To("foo.Bar")},
				}},
			}},
		},
		Status: gwv1.GRPCRouteStatus{RouteStatus: status},
	}
}

func newPolicy(name string, target gwv1alpha2.LocalPolicyTargetReference, authns ...gwv1alpha2.NamespacedPolicyTargetReference) *policyv1beta3.AuthorizationPolicy {
	return &policyv1beta3.AuthorizationPolicy{
		ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: name},
		Spec: policyv1beta3.AuthorizationPolicySpec{
			TargetRef:                  target,
			RequiredAuthenticationRefs: authns,
		},
	}
}

func serverTarget(name string) gwv1alpha2.LocalPolicyTargetReference {
	return gwv1alpha2.LocalPolicyTargetReference{
		Group: constants.FlomeshPolicyAPIGroup,
		Kind:  constants.ServerKind,
		Name:  gwv1alpha2.ObjectName(name),
	}
}

func authnRef(group, kind, name string) gwv1alpha2.NamespacedPolicyTargetReference {
	return gwv1alpha2.NamespacedPolicyTargetReference{
		Group: gwv1alpha2.Group(group),
		Kind:  gwv1alpha2.Kind(kind),
		Name:  gwv1alpha2.ObjectName(name),
	}
}

func httpRouteKey(name string) events.RouteKey {
	return routeKey(ResourceKey{Group: constants.GatewayAPIGroup, Kind: constants.HTTPRouteKind, Namespace: testNamespace, Name: name})
}

func namespaceTarget(name string) gwv1alpha2.LocalPolicyTargetReference {
	return gwv1alpha2.LocalPolicyTargetReference{
		Kind: constants.NamespaceKind,
		Name: gwv1alpha2.ObjectName(name),
	}
}

func httpRouteTarget(name string) gwv1alpha2.LocalPolicyTargetReference {
	return gwv1alpha2.LocalPolicyTargetReference{
		Group: constants.GatewayAPIGroup,
		Kind:  constants.HTTPRouteKind,
		Name:  gwv1alpha2.ObjectName(name),
	}
}

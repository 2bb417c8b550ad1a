package status

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
	gwv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/configurator"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/messaging"
	"github.com/flomesh-io/fsm-policy/pkg/policy/index"
)

type recordingUpdater struct {
	mu      sync.Mutex
	updates []Update
}

func (u *recordingUpdater) Send(upd Update) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.updates = append(u.updates, upd)
}

func (u *recordingUpdater) sent() []Update {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Update(nil), u.updates...)
}

type discardPublisher struct{}

func (discardPublisher) PublishRouteStatusUpdate([]events.RouteKey) {}

func newTestIndex(t *testing.T, publisher index.RouteStatusPublisher) *index.Index {
	t.Helper()
	cfg, err := configurator.NewConfigurator(configurator.Config{
		ControllerName:  testControllerName,
		ClusterDomain:   "cluster.local",
		TrustDomain:     "cluster.local",
		ClusterNetworks: []string{"10.0.0.0/8"},
		DefaultPolicy:   constants.AllUnauthenticatedPolicy,
		DetectTimeout:   10 * time.Second,
		StatusWorkers:   1,
	})
	require.NoError(t, err)
	return index.NewIndex(cfg, publisher)
}

func testServer(name string) *policyv1beta3.Server {
	return &policyv1beta3.Server{
		ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: name},
		Spec: policyv1beta3.ServerSpec{
			PodSelector:   &metav1.LabelSelector{MatchLabels: map[string]string{"app": "web"}},
			Port:          intstr.FromInt32(8080),
			ProxyProtocol: ptr.To(policyv1beta3.ProxyProtocolHTTP1),
		},
	}
}

func testHTTPRoute(name string, parents ...gwv1.ParentReference) *gwv1.HTTPRoute {
	return &gwv1.HTTPRoute{
		ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: name},
		Spec: gwv1.HTTPRouteSpec{
			CommonRouteSpec: gwv1.CommonRouteSpec{ParentRefs: parents},
		},
	}
}

func testRouteKey(name string) events.RouteKey {
	return events.RouteKey{
		Group:          constants.GatewayAPIGroup,
		Kind:           constants.HTTPRouteKind,
		NamespacedName: types.NamespacedName{Namespace: testNamespace, Name: name},
	}
}

func serverRef(name string) gwv1.ParentReference {
	return gwv1.ParentReference{
		Group: ptr.To(gwv1.Group(constants.FlomeshPolicyAPIGroup)),
		Kind:  ptr.To(gwv1.Kind(constants.ServerKind)),
		Name:  gwv1.ObjectName(name),
	}
}

func newTestController(idx RouteIndex, updater Updater) *Controller {
	c := NewController(NewReconciler(testControllerName, idx), idx, nil, updater, 1, true)
	c.now = func() metav1.Time { return now }
	return c
}

func TestReconcileServerLifecycle(t *testing.T) {
	assert := tassert.New(t)

	idx := newTestIndex(t, discardPublisher{})
	updater := &recordingUpdater{}
	c := newTestController(idx, updater)

	require.NoError(t, idx.Apply(testServer("srv")))
	require.NoError(t, idx.Apply(testHTTPRoute("route", serverRef("srv"))))

	key := testRouteKey("route")
	require.NoError(t, c.Reconcile(key))

	updates := updater.sent()
	require.Len(t, updates, 1)
	assert.Equal(key.NamespacedName, updates[0].NamespacedName)
	assert.IsType(&gwv1.HTTPRoute{}, updates[0].Resource)

	mutator, ok := updates[0].Mutator.(*RouteStatusUpdate)
	require.True(t, ok)
	require.Len(t, mutator.RouteParentStatuses, 1)
	assert.Equal(now, mutator.TransitionTime)
	assert.Equal(metav1.ConditionTrue, mutator.RouteParentStatuses[0].Conditions[0].Status)
	assert.Equal(constants.RouteReasonAccepted, mutator.RouteParentStatuses[0].Conditions[0].Reason)

	require.NoError(t, idx.Delete(testServer("srv")))
	require.NoError(t, c.Reconcile(key))

	updates = updater.sent()
	require.Len(t, updates, 2)
	mutator = updates[1].Mutator.(*RouteStatusUpdate)
	require.Len(t, mutator.RouteParentStatuses, 1)
	assert.Equal(metav1.ConditionFalse, mutator.RouteParentStatuses[0].Conditions[0].Status)
	assert.Equal(constants.RouteReasonNoMatchingParent, mutator.RouteParentStatuses[0].Conditions[0].Reason)
}

func TestReconcileSkipsInvalidRoutes(t *testing.T) {
	assert := tassert.New(t)

	idx := newTestIndex(t, discardPublisher{})
	updater := &recordingUpdater{}
	c := newTestController(idx, updater)

	ref := serverRef("srv")
	ref.Namespace = ptr.To(gwv1.Namespace("other"))
	assert.Error(idx.Apply(testHTTPRoute("route", ref)))

	assert.NoError(c.Reconcile(testRouteKey("route")))
	assert.NoError(c.Reconcile(testRouteKey("missing")))
	assert.Empty(updater.sent())
}

func TestReconcileUnknownKind(t *testing.T) {
	assert := tassert.New(t)
	mockCtrl := gomock.NewController(t)
	mockIndex := NewMockRouteIndex(mockCtrl)
	mockUpdater := NewMockUpdater(mockCtrl)

	key := events.RouteKey{
		Group:          "example.com",
		Kind:           "TCPRoute",
		NamespacedName: types.NamespacedName{Namespace: testNamespace, Name: "route"},
	}
	mockIndex.EXPECT().RouteBinding(key).Return(httpBinding("srv"), true)

	c := newTestController(mockIndex, mockUpdater)
	err := c.Reconcile(key)
	assert.ErrorIs(err, ErrUnknownRouteKind)
}

func TestNewRouteObject(t *testing.T) {
	grpcKey := events.RouteKey{Group: constants.GatewayAPIGroup, Kind: constants.GRPCRouteKind}
	policyKey := events.RouteKey{Group: constants.FlomeshPolicyAPIGroup, Kind: constants.HTTPRouteKind}

	testCases := []struct {
		name        string
		key         events.RouteKey
		grpcRouteV1 bool
		expected    interface{}
	}{
		{name: "gateway HTTPRoute", key: testRouteKey("route"), grpcRouteV1: true, expected: &gwv1.HTTPRoute{}},
		{name: "v1 GRPCRoute", key: grpcKey, grpcRouteV1: true, expected: &gwv1.GRPCRoute{}},
		{name: "v1alpha2 GRPCRoute", key: grpcKey, grpcRouteV1: false, expected: &gwv1alpha2.GRPCRoute{}},
		{name: "policy HTTPRoute", key: policyKey, grpcRouteV1: false, expected: &policyv1beta3.HTTPRoute{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewController(nil, nil, nil, nil, 1, tc.grpcRouteV1)
			obj, err := c.newRouteObject(tc.key)
			tassert.NoError(t, err)
			tassert.IsType(t, tc.expected, obj)
		})
	}
}

func TestControllerStart(t *testing.T) {
	assert := tassert.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	broker := messaging.NewBroker(stop)

	idx := newTestIndex(t, broker)
	updater := &recordingUpdater{}
	c := NewController(NewReconciler(testControllerName, idx), idx, broker, updater, 2, true)

	done := make(chan error)
	go func() {
		done <- c.Start(ctx)
	}()

	require.NoError(t, idx.Apply(testServer("srv")))
	require.NoError(t, idx.Apply(testHTTPRoute("route", serverRef("srv"))))

	assert.Eventually(func() bool {
		if len(updater.sent()) > 0 {
			return true
		}
		broker.PublishRouteStatusUpdate([]events.RouteKey{testRouteKey("route")})
		return false
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(<-done)
	assert.Equal(types.NamespacedName{Namespace: testNamespace, Name: "route"}, updater.sent()[0].NamespacedName)
}

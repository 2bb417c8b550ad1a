package status

import (
	"testing"
	"time"

	tassert "github.com/stretchr/testify/assert"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
	gwv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"
	gwv1beta1 "sigs.k8s.io/gateway-api/apis/v1beta1"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
)

var (
	earlier = metav1.NewTime(time.Unix(1600000000, 0))
	now     = metav1.NewTime(time.Unix(1700000000, 0))
)

func newStatusUpdate(statuses ...gwv1.RouteParentStatus) *RouteStatusUpdate {
	return &RouteStatusUpdate{
		FullName:            types.NamespacedName{Namespace: testNamespace, Name: "route"},
		Reconciler:          NewReconciler(testControllerName, nil),
		RouteParentStatuses: statuses,
		TransitionTime:      now,
	}
}

func withTransitionTime(ps gwv1.RouteParentStatus, t metav1.Time) gwv1.RouteParentStatus {
	ps = *ps.DeepCopy()
	for i := range ps.Conditions {
		ps.Conditions[i].LastTransitionTime = t
	}
	return ps
}

func withGeneration(ps gwv1.RouteParentStatus, generation int64) gwv1.RouteParentStatus {
	ps = *ps.DeepCopy()
	for i := range ps.Conditions {
		ps.Conditions[i].ObservedGeneration = generation
	}
	return ps
}

func TestMutateHTTPRoute(t *testing.T) {
	accepted := parentStatus(testControllerName, "srv", metav1.ConditionTrue, constants.RouteReasonAccepted)
	rejected := parentStatus(testControllerName, "srv", metav1.ConditionFalse, constants.RouteReasonNoMatchingParent)
	stale := parentStatus(testControllerName, "gone", metav1.ConditionTrue, constants.RouteReasonAccepted)
	other := gatewayStatus("example.com/gateway", "gw")

	testCases := []struct {
		name      string
		current   []gwv1.RouteParentStatus
		desired   []gwv1.RouteParentStatus
		expected  []gwv1.RouteParentStatus
		unchanged bool
	}{
		{
			name:    "adds a status",
			current: nil,
			desired: []gwv1.RouteParentStatus{accepted},
			expected: []gwv1.RouteParentStatus{
				withGeneration(withTransitionTime(accepted, now), 2),
			},
		},
		{
			name:      "up to date",
			current:   []gwv1.RouteParentStatus{withGeneration(withTransitionTime(accepted, earlier), 2)},
			desired:   []gwv1.RouteParentStatus{accepted},
			unchanged: true,
		},
		{
			name:    "new generation keeps the transition time",
			current: []gwv1.RouteParentStatus{withGeneration(withTransitionTime(accepted, earlier), 1)},
			desired: []gwv1.RouteParentStatus{accepted},
			expected: []gwv1.RouteParentStatus{
				withGeneration(withTransitionTime(accepted, earlier), 2),
			},
		},
		{
			name:    "changed condition moves the transition time",
			current: []gwv1.RouteParentStatus{withGeneration(withTransitionTime(accepted, earlier), 2)},
			desired: []gwv1.RouteParentStatus{rejected},
			expected: []gwv1.RouteParentStatus{
				withGeneration(withTransitionTime(rejected, now), 2),
			},
		},
		{
			name:    "keeps statuses of other controllers",
			current: []gwv1.RouteParentStatus{other},
			desired: []gwv1.RouteParentStatus{accepted},
			expected: []gwv1.RouteParentStatus{
				withGeneration(withTransitionTime(accepted, now), 2),
				other,
			},
		},
		{
			name:    "drops stale statuses",
			current: []gwv1.RouteParentStatus{other, withGeneration(stale, 2)},
			desired: []gwv1.RouteParentStatus{accepted},
			expected: []gwv1.RouteParentStatus{
				withGeneration(withTransitionTime(accepted, now), 2),
				other,
			},
		},
		{
			name:     "removes all statuses of this controller",
			current:  []gwv1.RouteParentStatus{withGeneration(accepted, 2), other},
			desired:  nil,
			expected: []gwv1.RouteParentStatus{other},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := tassert.New(t)

			route := &gwv1.HTTPRoute{
				ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: "route", Generation: 2},
			}
			route.Status.Parents = tc.current
			before := route.DeepCopy()

			result := newStatusUpdate(tc.desired...).Mutate(route)

			assert.Equal(before, route)
			if tc.unchanged {
				assert.Same(route, result)
				return
			}

			assert.NotSame(route, result)
			updated, ok := result.(*gwv1.HTTPRoute)
			assert.True(ok)
			assert.Equal(tc.expected, updated.Status.Parents)
		})
	}
}

func TestMutateRouteKinds(t *testing.T) {
	accepted := parentStatus(testControllerName, "srv", metav1.ConditionTrue, constants.RouteReasonAccepted)
	meta := metav1.ObjectMeta{Namespace: testNamespace, Name: "route", Generation: 1}

	testCases := []struct {
		name  string
		route client.Object
	}{
		{name: "gateway v1 HTTPRoute", route: &gwv1.HTTPRoute{ObjectMeta: meta}},
		{name: "gateway v1beta1 HTTPRoute", route: &gwv1beta1.HTTPRoute{ObjectMeta: meta}},
		{name: "gateway v1 GRPCRoute", route: &gwv1.GRPCRoute{ObjectMeta: meta}},
		{name: "gateway v1alpha2 GRPCRoute", route: &gwv1alpha2.GRPCRoute{ObjectMeta: meta}},
		{name: "policy HTTPRoute", route: &policyv1beta3.HTTPRoute{ObjectMeta: meta}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := tassert.New(t)

			result := newStatusUpdate(accepted).Mutate(tc.route)
			assert.NotSame(tc.route, result)
			assert.IsType(tc.route, result)

			status, ok := routeStatus(result)
			assert.True(ok)
			assert.Equal([]gwv1.RouteParentStatus{withGeneration(withTransitionTime(accepted, now), 1)}, status.Parents)

			assert.Same(result, newStatusUpdate(accepted).Mutate(result))
		})
	}
}

func TestMutateUnsupportedKind(t *testing.T) {
	assert := tassert.New(t)

	assert.Panics(func() {
		newStatusUpdate().Mutate(&gwv1.Gateway{ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: "gw"}})
	})
}

package status

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"

	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/policy/inbound"
)

// Reconciler computes the Server parent statuses of routes
type Reconciler struct {
	controllerName string
	servers        ServerLookup
}

// NewReconciler returns a reconciler writing statuses as controllerName
func NewReconciler(controllerName string, servers ServerLookup) *Reconciler {
	return &Reconciler{controllerName: controllerName, servers: servers}
}

// ControllerName returns the controller name recorded in the statuses
func (r *Reconciler) ControllerName() string {
	return r.controllerName
}

// ParentReference returns the status parent reference of a Server in the namespace
func ParentReference(namespace, server string) gwv1.ParentReference {
	return gwv1.ParentReference{
		Group:     ptr.To(gwv1.Group(constants.FlomeshPolicyAPIGroup)),
		Kind:      ptr.To(gwv1.Kind(constants.ServerKind)),
		Namespace: ptr.To(gwv1.Namespace(namespace)),
		Name:      gwv1.ObjectName(server),
	}
}

// RouteParentStatuses returns one status per distinct Server referenced by the binding, in reference order.
// The route is accepted by a Server that exists and rejected with NoMatchingParent otherwise.
func (r *Reconciler) RouteParentStatuses(namespace string, binding inbound.TypedRouteBinding, generation int64) []gwv1.RouteParentStatus {
	parents := binding.ParentRefs()
	statuses := make([]gwv1.RouteParentStatus, 0, len(parents))
	seen := mapset.NewThreadUnsafeSet[string]()

	for _, parent := range parents {
		if !seen.Add(parent.Server) {
			continue
		}
		cond := metav1.Condition{
			Type:               constants.RouteConditionAccepted,
			Status:             metav1.ConditionTrue,
			Reason:             constants.RouteReasonAccepted,
			ObservedGeneration: generation,
		}
		if !r.servers.ServerExists(namespace, parent.Server) {
			cond.Status = metav1.ConditionFalse
			cond.Reason = constants.RouteReasonNoMatchingParent
		}

		statuses = append(statuses, gwv1.RouteParentStatus{
			ParentRef:      ParentReference(namespace, parent.Server),
			ControllerName: gwv1.GatewayController(r.controllerName),
			Conditions:     []metav1.Condition{cond},
		})
	}

	return statuses
}

// IsOwnStatus returns true if the parent status was written by this controller for a Server
func (r *Reconciler) IsOwnStatus(ps gwv1.RouteParentStatus) bool {
	return string(ps.ControllerName) == r.controllerName && inbound.IsServerParentRef(ps.ParentRef)
}

// NeedsUpdate returns true if the statuses written by this controller differ from the desired
// ones. Condition transition times are ignored.
func (r *Reconciler) NeedsUpdate(current, desired []gwv1.RouteParentStatus) bool {
	var own []gwv1.RouteParentStatus
	for _, ps := range current {
		if r.IsOwnStatus(ps) {
			own = append(own, ps)
		}
	}

	return !cmp.Equal(own, desired,
		cmpopts.IgnoreFields(metav1.Condition{}, "LastTransitionTime"),
		cmpopts.EquateEmpty(),
	)
}

package status

import (
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
	gwv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"
	gwv1beta1 "sigs.k8s.io/gateway-api/apis/v1beta1"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
)

// RouteStatusUpdate replaces the statuses written by this controller on a route and keeps the
// statuses of other controllers
type RouteStatusUpdate struct {
	FullName            types.NamespacedName
	Reconciler          *Reconciler
	RouteParentStatuses []gwv1.RouteParentStatus
	TransitionTime      metav1.Time
}

var _ Mutator = &RouteStatusUpdate{}

// Mutate returns a copy of the route with the new statuses, or the route itself if they are unchanged
func (r *RouteStatusUpdate) Mutate(obj client.Object) client.Object {
	switch o := obj.(type) {
	case *gwv1.HTTPRoute:
		if !r.needsUpdate(o.Status.Parents, o.Generation) {
			return o
		}
		route := o.DeepCopy()
		route.Status.Parents = r.merge(o.Status.Parents, o.Generation)
		return route

	case *gwv1beta1.HTTPRoute:
		if !r.needsUpdate(o.Status.Parents, o.Generation) {
			return o
		}
		route := o.DeepCopy()
		route.Status.Parents = r.merge(o.Status.Parents, o.Generation)
		return route

	case *gwv1.GRPCRoute:
		if !r.needsUpdate(o.Status.Parents, o.Generation) {
			return o
		}
		route := o.DeepCopy()
		route.Status.Parents = r.merge(o.Status.Parents, o.Generation)
		return route

	case *gwv1alpha2.GRPCRoute:
		if !r.needsUpdate(o.Status.Parents, o.Generation) {
			return o
		}
		route := o.DeepCopy()
		route.Status.Parents = r.merge(o.Status.Parents, o.Generation)
		return route

	case *policyv1beta3.HTTPRoute:
		if !r.needsUpdate(o.Status.Parents, o.Generation) {
			return o
		}
		route := o.DeepCopy()
		route.Status.Parents = r.merge(o.Status.Parents, o.Generation)
		return route

	default:
		panic(fmt.Sprintf("Unsupported %T object %s/%s in RouteStatusUpdate status mutator", obj, r.FullName.Namespace, r.FullName.Name))
	}
}

func (r *RouteStatusUpdate) desired(generation int64) []gwv1.RouteParentStatus {
	statuses := make([]gwv1.RouteParentStatus, 0, len(r.RouteParentStatuses))
	for _, rps := range r.RouteParentStatuses {
		ps := *rps.DeepCopy()
		for i := range ps.Conditions {
			ps.Conditions[i].ObservedGeneration = generation
		}
		statuses = append(statuses, ps)
	}
	return statuses
}

func (r *RouteStatusUpdate) needsUpdate(current []gwv1.RouteParentStatus, generation int64) bool {
	return r.Reconciler.NeedsUpdate(current, r.desired(generation))
}

// merge returns the desired statuses followed by the statuses of other controllers. A condition
// that did not change keeps its transition time.
func (r *RouteStatusUpdate) merge(current []gwv1.RouteParentStatus, generation int64) []gwv1.RouteParentStatus {
	statuses := r.desired(generation)

	for i := range statuses {
		for j := range statuses[i].Conditions {
			cond := &statuses[i].Conditions[j]
			cond.LastTransitionTime = r.TransitionTime

			for _, ps := range current {
				if !r.Reconciler.IsOwnStatus(ps) || !sameParent(ps.ParentRef, statuses[i].ParentRef) {
					continue
				}
				for _, old := range ps.Conditions {
					if old.Type == cond.Type && old.Status == cond.Status && old.Reason == cond.Reason {
						cond.LastTransitionTime = old.LastTransitionTime
					}
				}
			}
		}
	}

	for _, ps := range current {
		if !r.Reconciler.IsOwnStatus(ps) {
			statuses = append(statuses, ps)
		}
	}

	return statuses
}

func sameParent(a, b gwv1.ParentReference) bool {
	return a.Name == b.Name
}

func routeStatus(obj client.Object) (gwv1.RouteStatus, bool) {
	switch o := obj.(type) {
	case *gwv1.HTTPRoute:
		return o.Status.RouteStatus, true
	case *gwv1beta1.HTTPRoute:
		return o.Status.RouteStatus, true
	case *gwv1.GRPCRoute:
		return o.Status.RouteStatus, true
	case *gwv1alpha2.GRPCRoute:
		return o.Status.RouteStatus, true
	case *policyv1beta3.HTTPRoute:
		return o.Status.RouteStatus, true
	default:
		return gwv1.RouteStatus{}, false
	}
}

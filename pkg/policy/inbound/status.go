package inbound

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"

	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/errcode"
)

// CollectStatuses returns the Server parent statuses written by controllerName. Conditions with
// an unexpected type or status are dropped with an error log.
func CollectStatuses(status gwv1.RouteStatus, controllerName string) []Status {
	var statuses []Status

	for _, ps := range status.Parents {
		if string(ps.ControllerName) != controllerName {
			continue
		}
		if ps.ParentRef.Kind == nil || string(*ps.ParentRef.Kind) != constants.ServerKind {
			continue
		}

		statuses = append(statuses, Status{
			Parent:     ParentRef{Server: string(ps.ParentRef.Name)},
			Conditions: collectConditions(string(ps.ParentRef.Name), ps.Conditions),
		})
	}

	return statuses
}

func collectConditions(parent string, conditions []metav1.Condition) []Condition {
	var result []Condition

	for _, c := range conditions {
		if c.Type != string(ConditionAccepted) {
			log.Error().Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrUnexpectedRouteStatus)).
				Str("parent", parent).Str("type", c.Type).
				Msg("Unexpected condition type found in parent status")
			continue
		}

		switch c.Status {
		case metav1.ConditionTrue:
			result = append(result, Condition{Type: ConditionAccepted, Status: true})
		case metav1.ConditionFalse:
			result = append(result, Condition{Type: ConditionAccepted, Status: false})
		default:
			log.Error().Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrUnexpectedRouteStatus)).
				Str("parent", parent).Str("type", c.Type).Str("status", string(c.Status)).
				Msg("Unexpected condition status found in parent status")
		}
	}

	return result
}

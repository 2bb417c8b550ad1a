package inbound

import (
	"time"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
	gwv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"
	gwv1beta1 "sigs.k8s.io/gateway-api/apis/v1beta1"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/policy/routes"
)

// HTTPBinding is a route binding of an HTTP route
type HTTPBinding = RouteBinding[routes.HTTPRouteMatch]

// GRPCBinding is a route binding of a gRPC route
type GRPCBinding = RouteBinding[routes.GRPCRouteMatch]

func creationTimestamp(meta metav1.ObjectMeta) *time.Time {
	if meta.CreationTimestamp.IsZero() {
		return nil
	}
	t := meta.CreationTimestamp.Time
	return &t
}

func newBinding[M routes.Match](
	meta metav1.ObjectMeta,
	parentRefs []gwv1.ParentReference,
	hostnames []gwv1.Hostname,
	status gwv1.RouteStatus,
	controllerName string,
	convertRules func() ([]routes.InboundRouteRule[M], error),
) (*RouteBinding[M], error) {
	parents, err := CollectParentRefs(meta.Namespace, parentRefs)
	if err != nil {
		return nil, err
	}

	hosts, err := routes.ParseHostMatches(hostnames)
	if err != nil {
		return nil, err
	}

	rules, err := convertRules()
	if err != nil {
		return nil, err
	}

	return &RouteBinding[M]{
		Parents: parents,
		Route: routes.InboundRoute[M]{
			Hostnames:         hosts,
			Rules:             rules,
			CreationTimestamp: creationTimestamp(meta),
		},
		Statuses: CollectStatuses(status, controllerName),
	}, nil
}

func convertHTTPRule[F any](i int, matches []gwv1.HTTPRouteMatch, filters []F, convertFilter func(F) (routes.Filter, error)) (routes.InboundRouteRule[routes.HTTPRouteMatch], error) {
	rule := routes.InboundRouteRule[routes.HTTPRouteMatch]{}

	for _, m := range matches {
		match, err := routes.ParseHTTPRouteMatch(m)
		if err != nil {
			return rule, errors.Wrapf(err, "rule %d", i)
		}
		rule.Matches = append(rule.Matches, match)
	}

	for _, f := range filters {
		filter, err := convertFilter(f)
		if err != nil {
			return rule, errors.Wrapf(err, "rule %d", i)
		}
		rule.Filters = append(rule.Filters, filter)
	}

	return rule, nil
}

// HTTPRouteBindingFromGateway converts a Gateway API v1 HTTPRoute
func HTTPRouteBindingFromGateway(route *gwv1.HTTPRoute, controllerName string) (*HTTPBinding, error) {
	return newBinding(route.ObjectMeta, route.Spec.ParentRefs, route.Spec.Hostnames, route.Status.RouteStatus, controllerName,
		func() ([]routes.InboundRouteRule[routes.HTTPRouteMatch], error) {
			var rules []routes.InboundRouteRule[routes.HTTPRouteMatch]
			for i, r := range route.Spec.Rules {
				rule, err := convertHTTPRule(i, r.Matches, r.Filters, routes.ParseHTTPFilter)
				if err != nil {
					return nil, err
				}
				rules = append(rules, rule)
			}
			return rules, nil
		})
}

// HTTPRouteBindingFromGatewayV1beta1 converts a Gateway API v1beta1 HTTPRoute
func HTTPRouteBindingFromGatewayV1beta1(route *gwv1beta1.HTTPRoute, controllerName string) (*HTTPBinding, error) {
	return HTTPRouteBindingFromGateway(&gwv1.HTTPRoute{
		ObjectMeta: route.ObjectMeta,
		Spec:       route.Spec,
		Status:     route.Status,
	}, controllerName)
}

// HTTPRouteBindingFromPolicy converts a policy.flomesh.io HTTPRoute
func HTTPRouteBindingFromPolicy(route *policyv1beta3.HTTPRoute, controllerName string) (*HTTPBinding, error) {
	return newBinding(route.ObjectMeta, route.Spec.ParentRefs, route.Spec.Hostnames, route.Status.RouteStatus, controllerName,
		func() ([]routes.InboundRouteRule[routes.HTTPRouteMatch], error) {
			var rules []routes.InboundRouteRule[routes.HTTPRouteMatch]
			for i, r := range route.Spec.Rules {
				rule, err := convertHTTPRule(i, r.Matches, r.Filters, convertPolicyFilter)
				if err != nil {
					return nil, err
				}
				rules = append(rules, rule)
			}
			return rules, nil
		})
}

func convertPolicyFilter(f policyv1beta3.HTTPRouteFilter) (routes.Filter, error) {
	switch f.Type {
	case policyv1beta3.HTTPRouteFilterRequestHeaderModifier:
		m, err := routes.ParseHeaderModifier(f.RequestHeaderModifier)
		if err != nil {
			return routes.Filter{}, err
		}
		return routes.RequestHeaderModifier(m), nil

	case policyv1beta3.HTTPRouteFilterResponseHeaderModifier:
		m, err := routes.ParseHeaderModifier(f.ResponseHeaderModifier)
		if err != nil {
			return routes.Filter{}, err
		}
		return routes.ResponseHeaderModifier(m), nil

	case policyv1beta3.HTTPRouteFilterRequestRedirect:
		r, err := routes.ParseRequestRedirect(f.RequestRedirect)
		if err != nil {
			return routes.Filter{}, err
		}
		return routes.RequestRedirect(r), nil

	default:
		return routes.Filter{}, errors.Wrapf(routes.ErrUnsupportedFilter, "%s", f.Type)
	}
}

// GRPCRouteBindingFromGateway converts a Gateway API v1 GRPCRoute
func GRPCRouteBindingFromGateway(route *gwv1.GRPCRoute, controllerName string) (*GRPCBinding, error) {
	return newBinding(route.ObjectMeta, route.Spec.ParentRefs, route.Spec.Hostnames, route.Status.RouteStatus, controllerName,
		func() ([]routes.InboundRouteRule[routes.GRPCRouteMatch], error) {
			var rules []routes.InboundRouteRule[routes.GRPCRouteMatch]
			for i, r := range route.Spec.Rules {
				rule := routes.InboundRouteRule[routes.GRPCRouteMatch]{}

				for _, m := range r.Matches {
					match, err := routes.ParseGRPCRouteMatch(m)
					if err != nil {
						return nil, errors.Wrapf(err, "rule %d", i)
					}
					rule.Matches = append(rule.Matches, match)
				}

				for _, f := range r.Filters {
					filter, err := routes.ParseGRPCFilter(f)
					if err != nil {
						return nil, errors.Wrapf(err, "rule %d", i)
					}
					rule.Filters = append(rule.Filters, filter)
				}

				rules = append(rules, rule)
			}
			return rules, nil
		})
}

// GRPCRouteBindingFromGatewayV1alpha2 converts a Gateway API v1alpha2 GRPCRoute
func GRPCRouteBindingFromGatewayV1alpha2(route *gwv1alpha2.GRPCRoute, controllerName string) (*GRPCBinding, error) {
	return GRPCRouteBindingFromGateway(&gwv1.GRPCRoute{
		ObjectMeta: route.ObjectMeta,
		Spec:       route.Spec,
		Status:     route.Status,
	}, controllerName)
}

package routes

import (
	"strings"

	"github.com/pkg/errors"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
)

// GRPCMethodMatch matches the service and method of a gRPC request. Unset names match any value.
type GRPCMethodMatch struct {
	Type    ValueMatchType
	Service string
	Method  string
}

// GRPCRouteMatch matches a gRPC request
type GRPCRouteMatch struct {
	Headers []HeaderMatch
	Method  *GRPCMethodMatch
}

// ParseGRPCMethodMatch converts a Gateway API gRPC method match
func ParseGRPCMethodMatch(m *gwv1.GRPCMethodMatch) (*GRPCMethodMatch, error) {
	if m == nil {
		return nil, nil
	}

	match := &GRPCMethodMatch{Type: ValueMatchExact}
	if m.Service != nil {
		match.Service = *m.Service
	}
	if m.Method != nil {
		match.Method = *m.Method
	}

	matchType := "Exact"
	if m.Type != nil {
		matchType = string(*m.Type)
	}

	switch matchType {
	case "Exact":
		if strings.Contains(match.Method, "/") || strings.Contains(match.Service, "/") {
			return nil, errors.Errorf("gRPC service %q and method %q may not contain '/'", match.Service, match.Method)
		}
	case "RegularExpression":
		match.Type = ValueMatchRegex
		for _, expr := range []string{match.Service, match.Method} {
			if expr == "" {
				continue
			}
			if _, err := CompileRegex(expr); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.Errorf("unknown gRPC method match type %q", matchType)
	}

	return match, nil
}

// ParseGRPCRouteMatch converts a Gateway API gRPC route match
func ParseGRPCRouteMatch(m gwv1.GRPCRouteMatch) (GRPCRouteMatch, error) {
	var headers []HeaderMatch
	for _, h := range m.Headers {
		var matchType string
		if h.Type != nil {
			matchType = string(*h.Type)
		}

		t, err := parseValueMatch("header", string(h.Name), matchType, h.Value)
		if err != nil {
			return GRPCRouteMatch{}, err
		}
		headers = append(headers, HeaderMatch{Name: strings.ToLower(string(h.Name)), Type: t, Value: h.Value})
	}

	method, err := ParseGRPCMethodMatch(m.Method)
	if err != nil {
		return GRPCRouteMatch{}, err
	}

	return GRPCRouteMatch{Headers: headers, Method: method}, nil
}


package routes

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
)

// PathMatchType is the type of a path match
type PathMatchType int

const (
	// PathMatchExact matches the path exactly
	PathMatchExact PathMatchType = iota

	// PathMatchPrefix matches a path prefix by path segments
	PathMatchPrefix

	// PathMatchRegex matches the path against a regular expression
	PathMatchRegex
)

// PathMatch matches the path of a request
type PathMatch struct {
	Type  PathMatchType
	Value string
}

// ValueMatchType is the type of a header or query parameter match
type ValueMatchType int

const (
	// ValueMatchExact matches the value exactly
	ValueMatchExact ValueMatchType = iota

	// ValueMatchRegex matches the value against a regular expression
	ValueMatchRegex
)

// HeaderMatch matches a request header value
type HeaderMatch struct {
	Name  string
	Type  ValueMatchType
	Value string
}

// QueryParamMatch matches a request query parameter value
type QueryParamMatch struct {
	Name  string
	Type  ValueMatchType
	Value string
}

// HTTPRouteMatch matches an HTTP request. All the set predicates must match.
type HTTPRouteMatch struct {
	Path        *PathMatch
	Headers     []HeaderMatch
	QueryParams []QueryParamMatch
	Method      string
}

// ParsePathMatch converts a Gateway API path match, an unset type defaults to PathPrefix
// and an unset value to "/"
func ParsePathMatch(m *gwv1.HTTPPathMatch) (*PathMatch, error) {
	if m == nil {
		return nil, nil
	}

	value := "/"
	if m.Value != nil {
		value = *m.Value
	}

	matchType := gwv1.PathMatchPathPrefix
	if m.Type != nil {
		matchType = *m.Type
	}

	switch matchType {
	case gwv1.PathMatchExact:
		if !strings.HasPrefix(value, "/") {
			return nil, errors.Errorf("exact path %q must be absolute", value)
		}
		return &PathMatch{Type: PathMatchExact, Value: value}, nil

	case gwv1.PathMatchPathPrefix:
		if !strings.HasPrefix(value, "/") {
			return nil, errors.Errorf("path prefix %q must be absolute", value)
		}
		return &PathMatch{Type: PathMatchPrefix, Value: value}, nil

	case gwv1.PathMatchRegularExpression:
		if _, err := CompileRegex(value); err != nil {
			return nil, err
		}
		return &PathMatch{Type: PathMatchRegex, Value: value}, nil

	default:
		return nil, errors.Errorf("unknown path match type %q", matchType)
	}
}

func parseValueMatch(kind, name, matchType, value string) (ValueMatchType, error) {
	if !httpguts.ValidHeaderFieldName(name) {
		return 0, errors.Errorf("invalid %s name %q", kind, name)
	}

	switch matchType {
	case "", "Exact":
		return ValueMatchExact, nil
	case "RegularExpression":
		if _, err := CompileRegex(value); err != nil {
			return 0, err
		}
		return ValueMatchRegex, nil
	default:
		return 0, errors.Errorf("unknown %s match type %q", kind, matchType)
	}
}

// ParseHeaderMatch converts a Gateway API header match
func ParseHeaderMatch(m gwv1.HTTPHeaderMatch) (HeaderMatch, error) {
	var matchType string
	if m.Type != nil {
		matchType = string(*m.Type)
	}

	t, err := parseValueMatch("header", string(m.Name), matchType, m.Value)
	if err != nil {
		return HeaderMatch{}, err
	}
	return HeaderMatch{Name: strings.ToLower(string(m.Name)), Type: t, Value: m.Value}, nil
}

// ParseQueryParamMatch converts a Gateway API query parameter match
func ParseQueryParamMatch(m gwv1.HTTPQueryParamMatch) (QueryParamMatch, error) {
	var matchType string
	if m.Type != nil {
		matchType = string(*m.Type)
	}

	t, err := parseValueMatch("query parameter", string(m.Name), matchType, m.Value)
	if err != nil {
		return QueryParamMatch{}, err
	}
	return QueryParamMatch{Name: string(m.Name), Type: t, Value: m.Value}, nil
}

// ParseMethod validates an HTTP method token
func ParseMethod(m *gwv1.HTTPMethod) (string, error) {
	if m == nil {
		return "", nil
	}

	method := string(*m)
	if !httpguts.ValidHeaderFieldName(method) {
		return "", errors.Errorf("invalid method %q", method)
	}
	return method, nil
}

// ParseHTTPRouteMatch converts a Gateway API HTTP route match, a malformed predicate fails the match
func ParseHTTPRouteMatch(m gwv1.HTTPRouteMatch) (HTTPRouteMatch, error) {
	path, err := ParsePathMatch(m.Path)
	if err != nil {
		return HTTPRouteMatch{}, err
	}

	var headers []HeaderMatch
	for _, h := range m.Headers {
		hm, err := ParseHeaderMatch(h)
		if err != nil {
			return HTTPRouteMatch{}, err
		}
		headers = append(headers, hm)
	}

	var params []QueryParamMatch
	for _, q := range m.QueryParams {
		qm, err := ParseQueryParamMatch(q)
		if err != nil {
			return HTTPRouteMatch{}, err
		}
		params = append(params, qm)
	}

	method, err := ParseMethod(m.Method)
	if err != nil {
		return HTTPRouteMatch{}, err
	}

	return HTTPRouteMatch{
		Path:        path,
		Headers:     headers,
		QueryParams: params,
		Method:      method,
	}, nil
}


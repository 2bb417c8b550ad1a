package routes

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
)

// ErrUnsupportedFilter is returned for route filters the inbound proxy cannot apply
var ErrUnsupportedFilter = errors.New("filter is not supported")

// FilterType is the type of a route filter
type FilterType int

const (
	// FilterRequestHeaderModifier modifies the request headers
	FilterRequestHeaderModifier FilterType = iota

	// FilterResponseHeaderModifier modifies the response headers
	FilterResponseHeaderModifier

	// FilterRequestRedirect responds with a redirect
	FilterRequestRedirect
)

// Filter is applied to the requests matched by a rule
type Filter struct {
	Type FilterType

	// HeaderModifier is set for the header modifier filters
	HeaderModifier *HeaderModifierFilter

	// RequestRedirect is set for the redirect filter
	RequestRedirect *RequestRedirectFilter
}

// Header is a header name and value
type Header struct {
	Name  string
	Value string
}

// HeaderModifierFilter adds, sets and removes headers
type HeaderModifierFilter struct {
	Add    []Header
	Set    []Header
	Remove []string
}

// PathModifierType is the type of a redirect path modifier
type PathModifierType int

const (
	// PathModifierFull replaces the whole path
	PathModifierFull PathModifierType = iota

	// PathModifierPrefix replaces the matched path prefix
	PathModifierPrefix
)

// PathModifier rewrites the path of a redirect location
type PathModifier struct {
	Type  PathModifierType
	Value string
}

// RequestRedirectFilter responds with a redirect, unset fields keep the request value
type RequestRedirectFilter struct {
	Scheme     string
	Host       string
	Path       *PathModifier
	Port       uint16
	StatusCode int
}

// RequestHeaderModifier returns a filter modifying the request headers
func RequestHeaderModifier(m *HeaderModifierFilter) Filter {
	return Filter{Type: FilterRequestHeaderModifier, HeaderModifier: m}
}

// ResponseHeaderModifier returns a filter modifying the response headers
func ResponseHeaderModifier(m *HeaderModifierFilter) Filter {
	return Filter{Type: FilterResponseHeaderModifier, HeaderModifier: m}
}

// RequestRedirect returns a redirect filter
func RequestRedirect(r *RequestRedirectFilter) Filter {
	return Filter{Type: FilterRequestRedirect, RequestRedirect: r}
}

func parseHeaders(headers []gwv1.HTTPHeader) ([]Header, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	result := make([]Header, 0, len(headers))
	for _, h := range headers {
		if !httpguts.ValidHeaderFieldName(string(h.Name)) {
			return nil, errors.Errorf("invalid header name %q", h.Name)
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return nil, errors.Errorf("invalid value for header %q", h.Name)
		}
		result = append(result, Header{Name: strings.ToLower(string(h.Name)), Value: h.Value})
	}
	return result, nil
}

// ParseHeaderModifier converts a Gateway API header filter
func ParseHeaderModifier(f *gwv1.HTTPHeaderFilter) (*HeaderModifierFilter, error) {
	if f == nil {
		return nil, errors.New("header modifier filter is missing its configuration")
	}

	add, err := parseHeaders(f.Add)
	if err != nil {
		return nil, err
	}

	set, err := parseHeaders(f.Set)
	if err != nil {
		return nil, err
	}

	var remove []string
	for _, name := range f.Remove {
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, errors.Errorf("invalid header name %q", name)
		}
		remove = append(remove, strings.ToLower(name))
	}

	return &HeaderModifierFilter{Add: add, Set: set, Remove: remove}, nil
}

// ParseRequestRedirect converts a Gateway API redirect filter
func ParseRequestRedirect(f *gwv1.HTTPRequestRedirectFilter) (*RequestRedirectFilter, error) {
	if f == nil {
		return nil, errors.New("request redirect filter is missing its configuration")
	}

	redirect := &RequestRedirectFilter{StatusCode: http.StatusFound}

	if f.Scheme != nil {
		switch scheme := strings.ToLower(*f.Scheme); scheme {
		case "http", "https":
			redirect.Scheme = scheme
		default:
			return nil, errors.Errorf("invalid redirect scheme %q", *f.Scheme)
		}
	}

	if f.Hostname != nil {
		host, err := ParseHostMatch(string(*f.Hostname))
		if err != nil {
			return nil, err
		}
		if host.Type != HostMatchExact {
			return nil, errors.Errorf("redirect hostname %q may not be a wildcard", *f.Hostname)
		}
		redirect.Host = host.Exact
	}

	if f.Path != nil {
		switch f.Path.Type {
		case gwv1.FullPathHTTPPathModifier:
			if f.Path.ReplaceFullPath == nil {
				return nil, errors.New("redirect full path modifier is missing its path")
			}
			redirect.Path = &PathModifier{Type: PathModifierFull, Value: *f.Path.ReplaceFullPath}
		case gwv1.PrefixMatchHTTPPathModifier:
			if f.Path.ReplacePrefixMatch == nil {
				return nil, errors.New("redirect prefix modifier is missing its prefix")
			}
			redirect.Path = &PathModifier{Type: PathModifierPrefix, Value: *f.Path.ReplacePrefixMatch}
		default:
			return nil, errors.Errorf("unknown redirect path modifier %q", f.Path.Type)
		}
	}

	if f.Port != nil {
		if *f.Port < 1 || *f.Port > 65535 {
			return nil, errors.Errorf("invalid redirect port %d", *f.Port)
		}
		redirect.Port = uint16(*f.Port)
	}

	if f.StatusCode != nil {
		switch *f.StatusCode {
		case http.StatusMovedPermanently, http.StatusFound:
			redirect.StatusCode = *f.StatusCode
		default:
			return nil, errors.Errorf("invalid redirect status code %d", *f.StatusCode)
		}
	}

	return redirect, nil
}

// ParseHTTPFilter converts a Gateway API HTTP route filter. Mirror, rewrite and extension
// filters fail with ErrUnsupportedFilter.
func ParseHTTPFilter(f gwv1.HTTPRouteFilter) (Filter, error) {
	switch f.Type {
	case gwv1.HTTPRouteFilterRequestHeaderModifier:
		m, err := ParseHeaderModifier(f.RequestHeaderModifier)
		if err != nil {
			return Filter{}, err
		}
		return RequestHeaderModifier(m), nil

	case gwv1.HTTPRouteFilterResponseHeaderModifier:
		m, err := ParseHeaderModifier(f.ResponseHeaderModifier)
		if err != nil {
			return Filter{}, err
		}
		return ResponseHeaderModifier(m), nil

	case gwv1.HTTPRouteFilterRequestRedirect:
		r, err := ParseRequestRedirect(f.RequestRedirect)
		if err != nil {
			return Filter{}, err
		}
		return RequestRedirect(r), nil

	default:
		return Filter{}, errors.Wrapf(ErrUnsupportedFilter, "%s", f.Type)
	}
}

// ParseGRPCFilter converts a Gateway API gRPC route filter. Mirror and extension filters
// fail with ErrUnsupportedFilter.
func ParseGRPCFilter(f gwv1.GRPCRouteFilter) (Filter, error) {
	switch f.Type {
	case gwv1.GRPCRouteFilterRequestHeaderModifier:
		m, err := ParseHeaderModifier(f.RequestHeaderModifier)
		if err != nil {
			return Filter{}, err
		}
		return RequestHeaderModifier(m), nil

	case gwv1.GRPCRouteFilterResponseHeaderModifier:
		m, err := ParseHeaderModifier(f.ResponseHeaderModifier)
		if err != nil {
			return Filter{}, err
		}
		return ResponseHeaderModifier(m), nil

	default:
		return Filter{}, errors.Wrapf(ErrUnsupportedFilter, "%s", f.Type)
	}
}

package routes

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	tassert "github.com/stretchr/testify/assert"
	"k8s.io/utils/ptr"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
)

func TestParseHTTPFilter(t *testing.T) {
	testCases := []struct {
		name        string
		filter      gwv1.HTTPRouteFilter
		expected    Filter
		unsupported bool
		expectErr   bool
	}{
		{
			name: "request header modifier",
			filter: gwv1.HTTPRouteFilter{
				Type: gwv1.HTTPRouteFilterRequestHeaderModifier,
				RequestHeaderModifier: &gwv1.HTTPHeaderFilter{
					Set:    []gwv1.HTTPHeader{{Name: "X-Foo", Value: "bar"}},
					Add:    []gwv1.HTTPHeader{{Name: "X-Trace", Value: "1"}},
					Remove: []string{"X-Debug"},
				},
			},
			expected: RequestHeaderModifier(&HeaderModifierFilter{
				Set:    []Header{{Name: "x-foo", Value: "bar"}},
				Add:    []Header{{Name: "x-trace", Value: "1"}},
				Remove: []string{"x-debug"},
			}),
		},
		{
			name: "response header modifier",
			filter: gwv1.HTTPRouteFilter{
				Type:                   gwv1.HTTPRouteFilterResponseHeaderModifier,
				ResponseHeaderModifier: &gwv1.HTTPHeaderFilter{Remove: []string{"Server"}},
			},
			expected: ResponseHeaderModifier(&HeaderModifierFilter{Remove: []string{"server"}}),
		},
		{
			name: "request redirect",
			filter: gwv1.HTTPRouteFilter{
				Type: gwv1.HTTPRouteFilterRequestRedirect,
				RequestRedirect: &gwv1.HTTPRequestRedirectFilter{
					Scheme:     ptr.To("https"),
					Hostname:   ptr.To(gwv1.PreciseHostname("secure.example.com")),
					Path:       &gwv1.HTTPPathModifier{Type: gwv1.PrefixMatchHTTPPathModifier, ReplacePrefixMatch: ptr.To("/v2")},
					Port:       ptr.To(gwv1.PortNumber(8443)),
					StatusCode: ptr.To(http.StatusMovedPermanently),
				},
			},
			expected: RequestRedirect(&RequestRedirectFilter{
				Scheme:     "https",
				Host:       "secure.example.com",
				Path:       &PathModifier{Type: PathModifierPrefix, Value: "/v2"},
				Port:       8443,
				StatusCode: http.StatusMovedPermanently,
			}),
		},
		{
			name: "request redirect defaults to found",
			filter: gwv1.HTTPRouteFilter{
				Type:            gwv1.HTTPRouteFilterRequestRedirect,
				RequestRedirect: &gwv1.HTTPRequestRedirectFilter{Scheme: ptr.To("HTTP")},
			},
			expected: RequestRedirect(&RequestRedirectFilter{
				Scheme:     "http",
				StatusCode: http.StatusFound,
			}),
		},
		{
			name: "redirect with invalid status",
			filter: gwv1.HTTPRouteFilter{
				Type:            gwv1.HTTPRouteFilterRequestRedirect,
				RequestRedirect: &gwv1.HTTPRequestRedirectFilter{StatusCode: ptr.To(http.StatusTemporaryRedirect)},
			},
			expectErr: true,
		},
		{
			name: "header modifier without config",
			filter: gwv1.HTTPRouteFilter{
				Type: gwv1.HTTPRouteFilterRequestHeaderModifier,
			},
			expectErr: true,
		},
		{
			name:        "request mirror",
			filter:      gwv1.HTTPRouteFilter{Type: gwv1.HTTPRouteFilterRequestMirror},
			unsupported: true,
		},
		{
			name:        "url rewrite",
			filter:      gwv1.HTTPRouteFilter{Type: gwv1.HTTPRouteFilterURLRewrite},
			unsupported: true,
		},
		{
			name:        "extension ref",
			filter:      gwv1.HTTPRouteFilter{Type: gwv1.HTTPRouteFilterExtensionRef},
			unsupported: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := tassert.New(t)
			actual, err := ParseHTTPFilter(tc.filter)
			switch {
			case tc.unsupported:
				a.True(errors.Is(err, ErrUnsupportedFilter), "expected unsupported filter error, got %v", err)
			case tc.expectErr:
				a.Error(err)
				a.False(errors.Is(err, ErrUnsupportedFilter))
			default:
				a.NoError(err)
				a.Equal(tc.expected, actual)
			}
		})
	}
}

func TestParseGRPCFilter(t *testing.T) {
	a := tassert.New(t)

	f, err := ParseGRPCFilter(gwv1.GRPCRouteFilter{
		Type:                  gwv1.GRPCRouteFilterRequestHeaderModifier,
		RequestHeaderModifier: &gwv1.HTTPHeaderFilter{Set: []gwv1.HTTPHeader{{Name: "X-Foo", Value: "bar"}}},
	})
	a.NoError(err)
	a.Equal(FilterRequestHeaderModifier, f.Type)

	_, err = ParseGRPCFilter(gwv1.GRPCRouteFilter{Type: gwv1.GRPCRouteFilterRequestMirror})
	a.True(errors.Is(err, ErrUnsupportedFilter))

	_, err = ParseGRPCFilter(gwv1.GRPCRouteFilter{Type: gwv1.GRPCRouteFilterExtensionRef})
	a.True(errors.Is(err, ErrUnsupportedFilter))
}

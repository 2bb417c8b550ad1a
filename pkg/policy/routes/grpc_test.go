package routes

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"k8s.io/utils/ptr"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
)

func TestParseGRPCRouteMatch(t *testing.T) {
	testCases := []struct {
		name      string
		match     gwv1.GRPCRouteMatch
		expected  GRPCRouteMatch
		expectErr bool
	}{
		{
			name: "exact method",
			match: gwv1.GRPCRouteMatch{
				Method: &gwv1.GRPCMethodMatch{
					Service: ptr.To("io.flomesh.testing"),
					Method:  ptr.To("Test"),
				},
			},
			expected: GRPCRouteMatch{
				Method: &GRPCMethodMatch{Type: ValueMatchExact, Service: "io.flomesh.testing", Method: "Test"},
			},
		},
		{
			name: "regex method with header",
			match: gwv1.GRPCRouteMatch{
				Method: &gwv1.GRPCMethodMatch{
					Type:    ptr.To(gwv1.GRPCMethodMatchRegularExpression),
					Service: ptr.To(`io\.flomesh\..*`),
				},
				Headers: []gwv1.GRPCHeaderMatch{{Name: "X-Tenant", Value: "a"}},
			},
			expected: GRPCRouteMatch{
				Headers: []HeaderMatch{{Name: "x-tenant", Type: ValueMatchExact, Value: "a"}},
				Method:  &GRPCMethodMatch{Type: ValueMatchRegex, Service: `io\.flomesh\..*`},
			},
		},
		{
			name: "invalid regex",
			match: gwv1.GRPCRouteMatch{
				Method: &gwv1.GRPCMethodMatch{
					Type:   ptr.To(gwv1.GRPCMethodMatchRegularExpression),
					Method: ptr.To("Get("),
				},
			},
			expectErr: true,
		},
		{
			name: "exact method with slash",
			match: gwv1.GRPCRouteMatch{
				Method: &gwv1.GRPCMethodMatch{Service: ptr.To("svc/x")},
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := tassert.New(t)
			actual, err := ParseGRPCRouteMatch(tc.match)
			if tc.expectErr {
				a.Error(err)
				return
			}
			a.NoError(err)
			a.Equal(tc.expected, actual)
		})
	}
}


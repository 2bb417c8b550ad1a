package routes

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
)

func TestParseHostMatch(t *testing.T) {
	testCases := []struct {
		hostname  string
		expected  HostMatch
		expectErr bool
	}{
		{hostname: "foo.example.com", expected: ExactHost("foo.example.com")},
		{hostname: "Foo.Example.com", expected: ExactHost("foo.example.com")},
		{hostname: "*.example.com", expected: HostMatch{Type: HostMatchSuffix, ReverseLabels: []string{"com", "example"}}},
		{hostname: "foo.*.com", expectErr: true},
		{hostname: "*.*.com", expectErr: true},
		{hostname: "foo_bar.com", expectErr: true},
		{hostname: "-foo.com", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.hostname, func(t *testing.T) {
			a := tassert.New(t)
			actual, err := ParseHostMatch(tc.hostname)
			if tc.expectErr {
				a.Error(err)
				return
			}
			a.NoError(err)
			a.Equal(tc.expected, actual)
		})
	}
}

func TestParseHostMatchesFailsFast(t *testing.T) {
	a := tassert.New(t)

	matches, err := ParseHostMatches(nil)
	a.NoError(err)
	a.Nil(matches)

	_, err = ParseHostMatches([]gwv1.Hostname{"foo.example.com", "bad*.example.com"})
	a.Error(err)
}


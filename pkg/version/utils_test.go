package version

import (
	"testing"

	"github.com/blang/semver"
	tassert "github.com/stretchr/testify/assert"
	k8sversion "k8s.io/apimachinery/pkg/version"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes/fake"
)

func TestParseServerVersion(t *testing.T) {
	testCases := []struct {
		gitVersion string
		expected   semver.Version
		expectErr  bool
	}{
		{gitVersion: "v1.29.2", expected: semver.Version{Major: 1, Minor: 29, Patch: 2}},
		{gitVersion: "v1.27.10-eks-508b6b3", expected: semver.Version{Major: 1, Minor: 27, Patch: 10}},
		{gitVersion: "1.30.0+k3s1", expected: semver.Version{Major: 1, Minor: 30, Patch: 0}},
		{gitVersion: "not-a-version", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.gitVersion, func(t *testing.T) {
			a := tassert.New(t)
			ver, err := ParseServerVersion(tc.gitVersion)
			if tc.expectErr {
				a.Error(err)
				return
			}
			a.NoError(err)
			a.True(tc.expected.EQ(ver), "expected %s, got %s", tc.expected, ver)
		})
	}
}

func TestIsSupportedK8sVersion(t *testing.T) {
	testCases := []struct {
		name        string
		gitVersion  string
		supported   bool
		grpcRouteV1 bool
	}{
		{name: "too old", gitVersion: "v1.19.3", supported: false, grpcRouteV1: false},
		{name: "v1alpha2 grpc only", gitVersion: "v1.23.0", supported: true, grpcRouteV1: false},
		{name: "current", gitVersion: "v1.30.1", supported: true, grpcRouteV1: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := tassert.New(t)
			resetServerVersion()
			defer resetServerVersion()

			client := fake.NewSimpleClientset()
			client.Discovery().(*fakediscovery.FakeDiscovery).FakedServerVersion = &k8sversion.Info{GitVersion: tc.gitVersion}

			err := IsSupportedK8sVersion(client)
			if tc.supported {
				a.NoError(err)
			} else {
				a.Error(err)
			}
			a.Equal(tc.grpcRouteV1, IsGRPCRouteV1Supported(client))
		})
	}
}

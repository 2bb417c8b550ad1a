// Package version reports the build information of the policy controller and gates
// startup on the version of the Kubernetes API server.
package version

import (
	"strings"
	"sync"

	"github.com/blang/semver"
	"github.com/pkg/errors"
	"k8s.io/client-go/kubernetes"

	"github.com/flomesh-io/fsm-policy/pkg/logger"
)

var log = logger.New("version")

// Build information, set via -ldflags at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	// MinK8sVersion is the minimum API server version the controller supports
	MinK8sVersion = semver.Version{Major: 1, Minor: 21, Patch: 0}

	// MinK8sVersionForGRPCRouteV1 is the minimum API server version serving the v1 GRPCRoute CRD
	// with CEL validation, below it only v1alpha2 GRPCRoute is watched
	MinK8sVersionForGRPCRouteV1 = semver.Version{Major: 1, Minor: 25, Patch: 0}
)

var (
	serverVersion     semver.Version
	serverVersionOnce sync.Once
	serverVersionErr  error
)

// Info describes the build of the running binary
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
}

// GetInfo returns the build information of the running binary
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

// ParseServerVersion parses a git version reported by the API server, ex. v1.29.2-eks-5e0fdde
func ParseServerVersion(gitVersion string) (semver.Version, error) {
	gitVersion = strings.TrimPrefix(gitVersion, "v")
	ver, err := semver.ParseTolerant(gitVersion)
	if err != nil {
		return semver.Version{}, errors.Wrapf(err, "invalid server version %q", gitVersion)
	}

	// pre-release suffixes of managed distributions must not fail GTE checks
	ver.Pre = nil
	ver.Build = nil
	return ver, nil
}

func getServerVersion(kubeClient kubernetes.Interface) (semver.Version, error) {
	serverVersionOnce.Do(func() {
		info, err := kubeClient.Discovery().ServerVersion()
		if err != nil {
			log.Error().Err(err).Msg("Unable to get server version")
			serverVersionErr = err
			return
		}

		serverVersion, serverVersionErr = ParseServerVersion(info.GitVersion)
	})

	return serverVersion, serverVersionErr
}

// IsSupportedK8sVersion returns nil if the API server is at least MinK8sVersion
func IsSupportedK8sVersion(kubeClient kubernetes.Interface) error {
	ver, err := getServerVersion(kubeClient)
	if err != nil {
		return err
	}

	if ver.LT(MinK8sVersion) {
		return errors.Errorf("kubernetes server version %s is not supported, requires at least %s", ver, MinK8sVersion)
	}

	return nil
}

// IsGRPCRouteV1Supported returns true if the v1 GRPCRoute should be watched
func IsGRPCRouteV1Supported(kubeClient kubernetes.Interface) bool {
	ver, err := getServerVersion(kubeClient)
	if err != nil {
		return false
	}

	return ver.GTE(MinK8sVersionForGRPCRouteV1)
}

func resetServerVersion() {
	serverVersionOnce = sync.Once{}
	serverVersion = semver.Version{}
	serverVersionErr = nil
}

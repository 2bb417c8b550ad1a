// Package configurator implements the Configurator interface that provides APIs to retrieve
// the policy controller configuration.
package configurator

import (
	"net/netip"
	"time"

	"github.com/flomesh-io/fsm-policy/pkg/logger"
)

var (
	log = logger.New("configurator")
)

// envPrefix is the prefix of the environment variables the configuration is loaded from
const envPrefix = "FSM_POLICY"

// Config is the raw configuration of the policy controller, loaded from the environment
// and overridden by command line flags
type Config struct {
	// ControllerName is the identity recorded in the route parent statuses written by this controller
	ControllerName string `envconfig:"CONTROLLER_NAME" default:"policy.flomesh.io/policy-controller"`

	// ClusterDomain is the DNS suffix of the cluster
	ClusterDomain string `envconfig:"CLUSTER_DOMAIN" default:"cluster.local"`

	// TrustDomain is the suffix of the mesh identities of service accounts
	TrustDomain string `envconfig:"TRUST_DOMAIN" default:"cluster.local"`

	// ClusterNetworks are the CIDRs of the cluster pod and node networks
	ClusterNetworks []string `envconfig:"CLUSTER_NETWORKS" default:"10.0.0.0/8,100.64.0.0/10,172.16.0.0/12,192.168.0.0/16,fd00::/8"`

	// ProbeNetworks are the CIDRs the kubelet sends probes from
	ProbeNetworks []string `envconfig:"PROBE_NETWORKS" default:"0.0.0.0/0,::/0"`

	// DefaultPolicy is the inbound policy of ports without a Server
	DefaultPolicy string `envconfig:"DEFAULT_POLICY" default:"all-unauthenticated"`

	// DetectTimeout bounds the protocol detection of ports without a declared protocol
	DetectTimeout time.Duration `envconfig:"DETECT_TIMEOUT" default:"10s"`

	// MetricsAddr is the listen address of the metrics and health HTTP server
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9091"`

	// StatusWorkers is the number of goroutines reconciling route statuses
	StatusWorkers int `envconfig:"STATUS_WORKERS" default:"2"`

	// LogLevel is the verbosity of the controller logs
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Configurator is the interface used by the policy controller components to retrieve
// the validated configuration
type Configurator interface {
	// GetControllerName returns the identity recorded in route parent statuses
	GetControllerName() string

	// GetClusterDomain returns the DNS suffix of the cluster
	GetClusterDomain() string

	// GetTrustDomain returns the suffix of service account identities
	GetTrustDomain() string

	// GetClusterNetworks returns the parsed cluster networks
	GetClusterNetworks() []netip.Prefix

	// GetProbeNetworks returns the parsed probe networks
	GetProbeNetworks() []netip.Prefix

	// GetDefaultPolicy returns the name of the default inbound policy
	GetDefaultPolicy() string

	// GetDetectTimeout returns the protocol detection timeout
	GetDetectTimeout() time.Duration

	// GetMetricsAddr returns the listen address of the metrics server
	GetMetricsAddr() string

	// GetStatusWorkers returns the number of status reconciliation workers
	GetStatusWorkers() int
}

// Client implements Configurator over a validated Config
type Client struct {
	cfg             Config
	clusterNetworks []netip.Prefix
	probeNetworks   []netip.Prefix
}

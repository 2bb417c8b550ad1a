package configurator

import (
	"net/netip"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/errcode"
)

var validDefaultPolicies = map[string]bool{
	constants.AllUnauthenticatedPolicy:     true,
	constants.AllAuthenticatedPolicy:       true,
	constants.ClusterUnauthenticatedPolicy: true,
	constants.ClusterAuthenticatedPolicy:   true,
	constants.DenyPolicy:                   true,
}

// IsValidDefaultPolicy returns true if name is one of the default inbound policies
func IsValidDefaultPolicy(name string) bool {
	return validDefaultPolicies[name]
}

// LoadFromEnv reads the configuration from FSM_POLICY_* environment variables, applying defaults
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, errors.Wrap(err, "error loading configuration from the environment")
	}
	return cfg, nil
}

// NewConfigurator validates the given configuration and returns a Client serving it
func NewConfigurator(cfg Config) (*Client, error) {
	var result *multierror.Error

	if cfg.ControllerName == "" {
		result = multierror.Append(result, errors.New("controller name must not be empty"))
	} else if !strings.Contains(cfg.ControllerName, "/") {
		result = multierror.Append(result, errors.Errorf("controller name %q must be a domain prefixed path", cfg.ControllerName))
	}

	for _, domain := range []string{cfg.ClusterDomain, cfg.TrustDomain} {
		if errs := validation.IsDNS1123Subdomain(domain); len(errs) > 0 {
			result = multierror.Append(result, errors.Errorf("invalid domain %q: %s", domain, strings.Join(errs, ", ")))
		}
	}

	clusterNetworks, err := ParseNetworks(cfg.ClusterNetworks)
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "invalid cluster networks"))
	}

	probeNetworks, err := ParseNetworks(cfg.ProbeNetworks)
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "invalid probe networks"))
	}

	if !IsValidDefaultPolicy(cfg.DefaultPolicy) {
		result = multierror.Append(result, errors.Errorf("unknown default policy %q", cfg.DefaultPolicy))
	}

	if cfg.DetectTimeout <= 0 {
		result = multierror.Append(result, errors.Errorf("detect timeout must be positive, got %s", cfg.DetectTimeout))
	}

	if cfg.StatusWorkers < 1 {
		result = multierror.Append(result, errors.Errorf("status workers must be at least 1, got %d", cfg.StatusWorkers))
	}

	if err := result.ErrorOrNil(); err != nil {
		log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrInvalidCLIArgument)).
			Msg("Invalid policy controller configuration")
		return nil, err
	}

	return &Client{
		cfg:             cfg,
		clusterNetworks: clusterNetworks,
		probeNetworks:   probeNetworks,
	}, nil
}

// ParseNetworks parses a list of CIDRs. Bare addresses are accepted as single host networks.
func ParseNetworks(cidrs []string) ([]netip.Prefix, error) {
	var result *multierror.Error
	networks := make([]netip.Prefix, 0, len(cidrs))

	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}

		if !strings.Contains(cidr, "/") {
			addr, err := netip.ParseAddr(cidr)
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "invalid network %q", cidr))
				continue
			}
			networks = append(networks, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}

		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "invalid network %q", cidr))
			continue
		}
		networks = append(networks, prefix.Masked())
	}

	return networks, result.ErrorOrNil()
}

// The functions below implement the configurator.Configurator interface

// GetControllerName returns the identity recorded in route parent statuses
func (c *Client) GetControllerName() string {
	return c.cfg.ControllerName
}

// GetClusterDomain returns the DNS suffix of the cluster
func (c *Client) GetClusterDomain() string {
	return c.cfg.ClusterDomain
}

// GetTrustDomain returns the suffix of service account identities
func (c *Client) GetTrustDomain() string {
	return c.cfg.TrustDomain
}

// GetClusterNetworks returns the parsed cluster networks
func (c *Client) GetClusterNetworks() []netip.Prefix {
	return c.clusterNetworks
}

// GetProbeNetworks returns the parsed probe networks
func (c *Client) GetProbeNetworks() []netip.Prefix {
	return c.probeNetworks
}

// GetDefaultPolicy returns the name of the default inbound policy
func (c *Client) GetDefaultPolicy() string {
	return c.cfg.DefaultPolicy
}

// GetDetectTimeout returns the protocol detection timeout
func (c *Client) GetDetectTimeout() time.Duration {
	return c.cfg.DetectTimeout
}

// GetMetricsAddr returns the listen address of the metrics server
func (c *Client) GetMetricsAddr() string {
	return c.cfg.MetricsAddr
}

// GetStatusWorkers returns the number of status reconciliation workers
func (c *Client) GetStatusWorkers() int {
	return c.cfg.StatusWorkers
}

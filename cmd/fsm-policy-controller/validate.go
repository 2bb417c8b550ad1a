package main

import (
	"github.com/pkg/errors"
)

// validateCLIParams contains all checks necessary that various permutations of the CLI flags are consistent
func validateCLIParams() error {
	if enableLeaderElection && leaderElectionNamespace == "" {
		return errors.New("please specify the leader election namespace using --leader-election-namespace or POD_NAMESPACE")
	}

	if cfg.MetricsAddr == "" {
		return errors.New("please specify the metrics listen address using --metrics-addr")
	}

	return nil
}

package main

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
)

func TestValidateCLIParams(t *testing.T) {
	testCases := []struct {
		name                    string
		enableLeaderElection    bool
		leaderElectionNamespace string
		metricsAddr             string
		expectError             bool
	}{
		{
			name:                    "none of the necessary CLI params are empty",
			enableLeaderElection:    true,
			leaderElectionNamespace: "fsm-system",
			metricsAddr:             ":9091",
			expectError:             false,
		},
		{
			name:                    "leader election namespace is empty",
			enableLeaderElection:    true,
			leaderElectionNamespace: "",
			metricsAddr:             ":9091",
			expectError:             true,
		},
		{
			name:                    "leader election disabled",
			enableLeaderElection:    false,
			leaderElectionNamespace: "",
			metricsAddr:             ":9091",
			expectError:             false,
		},
		{
			name:                    "metrics address is empty",
			enableLeaderElection:    true,
			leaderElectionNamespace: "fsm-system",
			metricsAddr:             "",
			expectError:             true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := tassert.New(t)
			enableLeaderElection = tc.enableLeaderElection
			leaderElectionNamespace = tc.leaderElectionNamespace
			cfg.MetricsAddr = tc.metricsAddr
			err := validateCLIParams()
			assert.Equal(err != nil, tc.expectError)
		})
	}
}

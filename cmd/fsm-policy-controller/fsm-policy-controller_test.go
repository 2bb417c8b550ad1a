package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/pflag"
	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flomesh-io/fsm-policy/pkg/configurator"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/version"
)

func TestBindFlags(t *testing.T) {
	assert := tassert.New(t)

	t.Setenv("FSM_POLICY_DEFAULT_POLICY", constants.DenyPolicy)
	t.Setenv("FSM_POLICY_STATUS_WORKERS", "4")

	defaults, err := configurator.LoadFromEnv()
	require.NoError(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindFlags(fs, defaults)
	require.NoError(t, fs.Parse([]string{
		"--probe-networks=10.1.0.0/16,10.2.0.0/16",
		"--detect-timeout=3s",
		"--leader-elect=false",
	}))

	assert.Equal(constants.DenyPolicy, cfg.DefaultPolicy)
	assert.Equal(4, cfg.StatusWorkers)
	assert.Equal([]string{"10.1.0.0/16", "10.2.0.0/16"}, cfg.ProbeNetworks)
	assert.Equal(3*time.Second, cfg.DetectTimeout)
	assert.Equal(constants.PolicyController, cfg.ControllerName)
	assert.False(enableLeaderElection)

	_, err = configurator.NewConfigurator(cfg)
	assert.NoError(err)
}

func TestHTTPHandlers(t *testing.T) {
	assert := tassert.New(t)

	srv := newHTTPServer(":0", map[string]http.Handler{
		constants.FSMControllerLivenessPath: healthHandler(),
		constants.VersionPath:               versionHandler(),
	})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, constants.FSMControllerLivenessPath, nil))
	assert.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, constants.VersionPath, nil))
	assert.Equal(http.StatusOK, rec.Code)

	var info version.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(version.GetInfo(), info)

	rec = httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(http.StatusNotFound, rec.Code)
	assert.False(srv.NeedLeaderElection())
}

// Package main implements the main entrypoint for fsm-policy-controller and utility routines to
// bootstrap its internal components.
// fsm-policy-controller indexes the inbound policies of pods and writes the Server parent statuses of routes.
package main

import (
	"net/http"
	"os"

	"github.com/go-logr/zerologr"
	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/cache"
	"k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	gatewayApiClientset "sigs.k8s.io/gateway-api/pkg/client/clientset/versioned"
	gwscheme "sigs.k8s.io/gateway-api/pkg/client/clientset/versioned/scheme"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/configurator"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/errcode"
	"github.com/flomesh-io/fsm-policy/pkg/logger"
	"github.com/flomesh-io/fsm-policy/pkg/messaging"
	"github.com/flomesh-io/fsm-policy/pkg/metricsstore"
	"github.com/flomesh-io/fsm-policy/pkg/policy/index"
	"github.com/flomesh-io/fsm-policy/pkg/policy/k8s"
	"github.com/flomesh-io/fsm-policy/pkg/policy/status"
	"github.com/flomesh-io/fsm-policy/pkg/version"
)

var (
	kubeConfigPath          string
	enableLeaderElection    bool
	leaderElectionNamespace string

	// Defaults loaded from the FSM_POLICY_* environment, overridden by flags
	cfg configurator.Config

	scheme = runtime.NewScheme()
)

var (
	flags = pflag.NewFlagSet(`fsm-policy-controller`, pflag.ExitOnError)
	log   = logger.New("fsm-policy-controller/main")
)

func init() {
	_ = clientgoscheme.AddToScheme(scheme)
	_ = gwscheme.AddToScheme(scheme)
	_ = policyv1beta3.AddToScheme(scheme)
}

// bindFlags registers the command line flags, using the values of defaults as flag defaults
func bindFlags(fs *pflag.FlagSet, defaults configurator.Config) {
	cfg = defaults

	fs.StringVarP(&cfg.LogLevel, "verbosity", "v", defaults.LogLevel, "Set log verbosity level")
	fs.StringVar(&kubeConfigPath, "kubeconfig", "", "Path to a kubeconfig, in-cluster configuration is used when empty")
	fs.BoolVar(&enableLeaderElection, "leader-elect", true, "Elect a single writer of route statuses")
	fs.StringVar(&leaderElectionNamespace, "leader-election-namespace", os.Getenv("POD_NAMESPACE"), "Namespace of the leader election lease")

	fs.StringVar(&cfg.ControllerName, "controller-name", defaults.ControllerName, "Controller name written into route parent statuses")
	fs.StringVar(&cfg.ClusterDomain, "cluster-domain", defaults.ClusterDomain, "DNS suffix of the cluster")
	fs.StringVar(&cfg.TrustDomain, "trust-domain", defaults.TrustDomain, "Trust domain of service account identities")
	fs.StringSliceVar(&cfg.ClusterNetworks, "cluster-networks", defaults.ClusterNetworks, "CIDRs of the cluster networks")
	fs.StringSliceVar(&cfg.ProbeNetworks, "probe-networks", defaults.ProbeNetworks, "CIDRs the kubelet sends probes from")
	fs.StringVar(&cfg.DefaultPolicy, "default-policy", defaults.DefaultPolicy, "Inbound policy of ports without a Server")
	fs.DurationVar(&cfg.DetectTimeout, "detect-timeout", defaults.DetectTimeout, "Protocol detection timeout of ports without a declared protocol")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", defaults.MetricsAddr, "Listen address of the metrics and health server")
	fs.IntVar(&cfg.StatusWorkers, "status-workers", defaults.StatusWorkers, "Number of route status reconciliation workers")
}

func parseFlags() error {
	defaults, err := configurator.LoadFromEnv()
	if err != nil {
		return err
	}
	bindFlags(flags, defaults)
	return flags.Parse(os.Args)
}

func main() {
	log.Info().Msgf("Starting fsm-policy-controller %s; %s; %s", version.Version, version.GitCommit, version.BuildDate)
	if err := parseFlags(); err != nil {
		log.Fatal().Err(err).Str(errcode.Kind, errcode.ErrInvalidCLIArgument.String()).Msg("Error parsing cmd line arguments")
	}

	if err := logger.SetLogLevel(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Str(errcode.Kind, errcode.ErrSettingLogLevel.String()).Msg("Error setting log level")
	}

	// This ensures CLI parameters (and dependent values) are correct.
	if err := validateCLIParams(); err != nil {
		log.Fatal().Err(err).Str(errcode.Kind, errcode.ErrInvalidCLIArgument.String()).Msg("Error validating CLI parameters")
	}

	policyCfg, err := configurator.NewConfigurator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error validating configuration")
	}

	// Initialize kube config and client
	kubeConfig, err := clientcmd.BuildConfigFromFlags("", kubeConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str(errcode.Kind, errcode.ErrParsingKubeConfig.String()).Msg("Error creating kube configs")
	}

	kubeClient := kubernetes.NewForConfigOrDie(kubeConfig)
	gatewayAPIClient := gatewayApiClientset.NewForConfigOrDie(kubeConfig)
	dynamicClient := dynamic.NewForConfigOrDie(kubeConfig)

	if err := version.IsSupportedK8sVersion(kubeClient); err != nil {
		log.Fatal().Err(err).Msg("Unsupported Kubernetes version")
	}
	grpcRouteV1 := version.IsGRPCRouteV1Supported(kubeClient)

	ctx := ctrl.SetupSignalHandler()
	stop := ctx.Done()

	// Start the default metrics store
	metricsstore.DefaultMetricsStore.Start()

	msgBroker := messaging.NewBroker(stop)
	policyIndex := index.NewIndex(policyCfg, msgBroker)

	informerCollection, err := k8s.NewInformerCollection(stop,
		k8s.WithKubeClient(kubeClient),
		k8s.WithGatewayAPIClient(gatewayAPIClient, grpcRouteV1),
		k8s.WithPolicyClient(dynamicClient),
	)
	if err != nil {
		log.Fatal().Err(err).Str(errcode.Kind, errcode.ErrStartingInformers.String()).Msg("Error creating informer collection")
	}

	handlersSynced, err := k8s.RegisterIndexHandlers(informerCollection, policyIndex)
	if err != nil {
		log.Fatal().Err(err).Str(errcode.Kind, errcode.ErrStartingInformers.String()).Msg("Error registering index event handlers")
	}
	if !cache.WaitForCacheSync(stop, handlersSynced...) {
		log.Fatal().Str(errcode.Kind, errcode.ErrStartingInformers.String()).Msg("Error waiting for the index to sync")
	}
	log.Info().Msgf("Indexed %d routes", len(policyIndex.RouteKeys()))

	ctrl.SetLogger(zerologr.New(&log))
	mgr, err := ctrl.NewManager(kubeConfig, ctrl.Options{
		Scheme:                  scheme,
		LeaderElection:          enableLeaderElection,
		LeaderElectionNamespace: leaderElectionNamespace,
		LeaderElectionID:        constants.PolicyControllerLeaderElectionID,
		Metrics:                 metricsserver.Options{BindAddress: "0"},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating manager")
	}

	updateHandler := status.NewUpdateHandler(mgr.GetClient())
	statusController := status.NewController(
		status.NewReconciler(policyCfg.GetControllerName(), policyIndex),
		policyIndex,
		msgBroker,
		updateHandler.Writer(),
		policyCfg.GetStatusWorkers(),
		grpcRouteV1,
	)

	httpServer := newHTTPServer(policyCfg.GetMetricsAddr(), map[string]http.Handler{
		constants.MetricsPath:                metricsstore.DefaultMetricsStore.Handler(),
		constants.FSMControllerReadinessPath: healthHandler(),
		constants.FSMControllerLivenessPath:  healthHandler(),
		constants.VersionPath:                versionHandler(),
	})

	for _, runnable := range []manager.Runnable{httpServer, updateHandler, statusController} {
		if err := mgr.Add(runnable); err != nil {
			log.Fatal().Err(err).Msg("Error adding runnable to manager")
		}
	}

	if err := mgr.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Problem running manager")
	}

	log.Info().Msgf("Stopping fsm-policy-controller %s; %s; %s", version.Version, version.GitCommit, version.BuildDate)
}

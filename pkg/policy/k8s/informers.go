package k8s

import (
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/dynamic/dynamicinformer"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"
	gatewayApiClientset "sigs.k8s.io/gateway-api/pkg/client/clientset/versioned"
	gatewayApiInformers "sigs.k8s.io/gateway-api/pkg/client/informers/externalversions"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
)

// InformerCollectionOption is a function that modifies an informer collection
type InformerCollectionOption func(*InformerCollection)

// NewInformerCollection creates a new InformerCollection and waits for the caches of its
// informers to sync
func NewInformerCollection(stop <-chan struct{}, opts ...InformerCollectionOption) (*InformerCollection, error) {
	ic := &InformerCollection{
		informers: map[InformerKey]cache.SharedIndexInformer{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ic)
		}
	}

	if err := ic.run(stop); err != nil {
		log.Error().Err(err).Msg("Could not start informer collection")
		return nil, err
	}

	return ic, nil
}

// WithKubeClient sets the kubeClient for the InformerCollection
func WithKubeClient(kubeClient kubernetes.Interface) InformerCollectionOption {
	return func(ic *InformerCollection) {
		informerFactory := informers.NewSharedInformerFactory(kubeClient, DefaultKubeEventResyncInterval)
		ic.informers[InformerKeyPod] = informerFactory.Core().V1().Pods().Informer()
	}
}

// WithGatewayAPIClient sets the gateway API client for the InformerCollection. grpcRouteV1
// selects the v1 GRPCRoute over the v1alpha2 one.
func WithGatewayAPIClient(gatewayAPIClient gatewayApiClientset.Interface, grpcRouteV1 bool) InformerCollectionOption {
	return func(ic *InformerCollection) {
		informerFactory := gatewayApiInformers.NewSharedInformerFactory(gatewayAPIClient, DefaultKubeEventResyncInterval)

		ic.informers[InformerKeyGatewayAPIHTTPRoute] = informerFactory.Gateway().V1().HTTPRoutes().Informer()
		if grpcRouteV1 {
			ic.informers[InformerKeyGatewayAPIGRPCRoute] = informerFactory.Gateway().V1().GRPCRoutes().Informer()
		} else {
			ic.informers[InformerKeyGatewayAPIGRPCRoute] = informerFactory.Gateway().V1alpha2().GRPCRoutes().Informer()
		}
	}
}

// WithPolicyClient sets the dynamic client watching the policy resources for the InformerCollection
func WithPolicyClient(dynamicClient dynamic.Interface) InformerCollectionOption {
	return func(ic *InformerCollection) {
		informerFactory := dynamicinformer.NewDynamicSharedInformerFactory(dynamicClient, DefaultKubeEventResyncInterval)

		ic.informers[InformerKeyServer] = informerFactory.ForResource(policyv1beta3.ServersResource).Informer()
		ic.informers[InformerKeyPolicyHTTPRoute] = informerFactory.ForResource(policyv1beta3.HTTPRoutesResource).Informer()
		ic.informers[InformerKeyAuthorizationPolicy] = informerFactory.ForResource(policyv1beta3.AuthorizationPoliciesResource).Informer()
		ic.informers[InformerKeyMeshTLSAuthentication] = informerFactory.ForResource(policyv1beta3.MeshTLSAuthenticationsResource).Informer()
		ic.informers[InformerKeyNetworkAuthentication] = informerFactory.ForResource(policyv1beta3.NetworkAuthenticationsResource).Informer()
	}
}

func (ic *InformerCollection) run(stop <-chan struct{}) error {
	log.Info().Msg("InformerCollection started")
	var hasSynced []cache.InformerSynced
	var names []string

	if len(ic.informers) == 0 {
		return errInitInformers
	}

	for name, informer := range ic.informers {
		if informer == nil {
			continue
		}

		go informer.Run(stop)
		names = append(names, string(name))
		log.Info().Msgf("Waiting for %s informer cache sync...", name)
		hasSynced = append(hasSynced, informer.HasSynced)
	}

	if !cache.WaitForCacheSync(stop, hasSynced...) {
		return errSyncingCaches
	}

	log.Info().Msgf("Caches for %v synced successfully", names)

	return nil
}

// AddEventHandler adds an handler to the informer indexed by the given InformerKey
func (ic *InformerCollection) AddEventHandler(informerKey InformerKey, handler cache.ResourceEventHandler) (cache.ResourceEventHandlerRegistration, error) {
	i, ok := ic.informers[informerKey]
	if !ok {
		log.Info().Msgf("attempted to add event handler for nil informer %s", informerKey)
		return nil, nil
	}

	return i.AddEventHandler(handler)
}

// Keys returns the keys of the informers of the collection
func (ic *InformerCollection) Keys() []InformerKey {
	keys := make([]InformerKey, 0, len(ic.informers))
	for key := range ic.informers {
		keys = append(keys, key)
	}
	return keys
}

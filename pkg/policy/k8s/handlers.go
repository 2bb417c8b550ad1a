package k8s

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/cache"

	"github.com/flomesh-io/fsm-policy/pkg/announcements"
	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/errcode"
)

// EventTypes is a struct helping pass the correct types to GetEventHandlerFuncs()
type EventTypes struct {
	Add    announcements.Kind
	Update announcements.Kind
	Delete announcements.Kind
}

var (
	podEventTypes = EventTypes{
		Add:    announcements.PodAdded,
		Update: announcements.PodUpdated,
		Delete: announcements.PodDeleted,
	}
	serverEventTypes = EventTypes{
		Add:    announcements.ServerAdded,
		Update: announcements.ServerUpdated,
		Delete: announcements.ServerDeleted,
	}
	routeEventTypes = EventTypes{
		Add:    announcements.RouteAdded,
		Update: announcements.RouteUpdated,
		Delete: announcements.RouteDeleted,
	}
	authorizationEventTypes = EventTypes{
		Add:    announcements.AuthorizationAdded,
		Update: announcements.AuthorizationUpdated,
		Delete: announcements.AuthorizationDeleted,
	}
)

// eventTypesFor returns the announcement kinds logged for the events of an informer
func eventTypesFor(key InformerKey) EventTypes {
	switch key {
	case InformerKeyPod:
		return podEventTypes
	case InformerKeyServer:
		return serverEventTypes
	case InformerKeyGatewayAPIHTTPRoute, InformerKeyGatewayAPIGRPCRoute, InformerKeyPolicyHTTPRoute:
		return routeEventTypes
	default:
		return authorizationEventTypes
	}
}

// newTypedObject returns an empty typed object for the resources watched through the dynamic client
func newTypedObject(key InformerKey) (runtime.Object, bool) {
	switch key {
	case InformerKeyServer:
		return &policyv1beta3.Server{}, true
	case InformerKeyPolicyHTTPRoute:
		return &policyv1beta3.HTTPRoute{}, true
	case InformerKeyAuthorizationPolicy:
		return &policyv1beta3.AuthorizationPolicy{}, true
	case InformerKeyMeshTLSAuthentication:
		return &policyv1beta3.MeshTLSAuthentication{}, true
	case InformerKeyNetworkAuthentication:
		return &policyv1beta3.NetworkAuthentication{}, true
	}
	return nil, false
}

// decode converts the unstructured objects of the dynamic informers into typed policy resources.
// Typed objects are returned as is.
func decode(key InformerKey, obj interface{}) (interface{}, error) {
	u, ok := obj.(*unstructured.Unstructured)
	if !ok {
		return obj, nil
	}

	typed, ok := newTypedObject(key)
	if !ok {
		return nil, errors.Errorf("no typed resource for unstructured %s", u.GroupVersionKind())
	}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.UnstructuredContent(), typed); err != nil {
		return nil, errors.Wrapf(err, "decoding %s %s/%s", u.GetKind(), u.GetNamespace(), u.GetName())
	}
	return typed, nil
}

// GetEventHandlerFuncs returns the event handlers applying the objects of the informer
// identified by key to the store
func GetEventHandlerFuncs(key InformerKey, store Store) cache.ResourceEventHandlerFuncs {
	eventTypes := eventTypesFor(key)

	apply := func(event announcements.Kind, obj interface{}) {
		logResourceEvent(log, event, obj)
		typed, err := decode(key, obj)
		if err != nil {
			log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrDecodingResource)).
				Msgf("Ignoring %s event", event)
			return
		}
		if err := store.Apply(typed); err != nil {
			log.Debug().Err(err).Msgf("Applied %s event with error", event)
		}
	}

	return cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			apply(eventTypes.Add, obj)
		},

		UpdateFunc: func(oldObj, newObj interface{}) {
			apply(eventTypes.Update, newObj)
		},

		DeleteFunc: func(obj interface{}) {
			if tombstone, ok := obj.(cache.DeletedFinalStateUnknown); ok {
				obj = tombstone.Obj
			}
			logResourceEvent(log, eventTypes.Delete, obj)
			typed, err := decode(key, obj)
			if err != nil {
				log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrDecodingResource)).
					Msgf("Ignoring %s event", eventTypes.Delete)
				return
			}
			if err := store.Delete(typed); err != nil {
				log.Debug().Err(err).Msgf("Deleted with error on %s event", eventTypes.Delete)
			}
		},
	}
}

// RegisterIndexHandlers feeds the store with the objects of every informer of the collection.
// The returned functions report whether the handlers processed the initial objects.
func RegisterIndexHandlers(ic *InformerCollection, store Store) ([]cache.InformerSynced, error) {
	var synced []cache.InformerSynced

	for _, key := range ic.Keys() {
		reg, err := ic.AddEventHandler(key, GetEventHandlerFuncs(key, store))
		if err != nil {
			return nil, errors.Wrapf(err, "adding event handler for %s informer", key)
		}
		if reg != nil {
			synced = append(synced, reg.HasSynced)
		}
	}

	return synced, nil
}

func logResourceEvent(parent zerolog.Logger, event announcements.Kind, obj interface{}) {
	log := parent.With().Str("event", event.String()).Logger()
	o, err := meta.Accessor(obj)
	if err != nil {
		log.Error().Err(err).Msg("error parsing object, ignoring")
		return
	}
	name := o.GetName()
	if o.GetNamespace() != "" {
		name = o.GetNamespace() + "/" + name
	}
	log.Debug().Str("resource_name", name).Msg("received kubernetes resource event")
}

package status

import (
	"context"
	"time"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/workqueue"
	"sigs.k8s.io/controller-runtime/pkg/client"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
	gwv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/messaging"
	"github.com/flomesh-io/fsm-policy/pkg/metricsstore"
)

// ErrUnknownRouteKind is returned for route keys of a kind the controller does not write statuses for
var ErrUnknownRouteKind = errors.New("unknown route kind")

// Controller reconciles the statuses of the routes announced by the policy index
type Controller struct {
	reconciler  *Reconciler
	index       RouteIndex
	broker      *messaging.Broker
	updater     Updater
	workers     int
	grpcRouteV1 bool
	queue       workqueue.TypedRateLimitingInterface[events.RouteKey]
	now         func() metav1.Time
}

// NewController returns a status controller. grpcRouteV1 selects the served version of GRPCRoute.
func NewController(reconciler *Reconciler, index RouteIndex, broker *messaging.Broker, updater Updater, workers int, grpcRouteV1 bool) *Controller {
	return &Controller{
		reconciler:  reconciler,
		index:       index,
		broker:      broker,
		updater:     updater,
		workers:     workers,
		grpcRouteV1: grpcRouteV1,
		queue: workqueue.NewTypedRateLimitingQueueWithConfig(
			workqueue.DefaultTypedControllerRateLimiter[events.RouteKey](),
			workqueue.TypedRateLimitingQueueConfig[events.RouteKey]{Name: "route-status"},
		),
		now: metav1.Now,
	}
}

// NeedLeaderElection implements the controller-runtime LeaderElectionRunnable interface
func (c *Controller) NeedLeaderElection() bool {
	return true
}

// Start consumes route status announcements until ctx is done
func (c *Controller) Start(ctx context.Context) error {
	ch := c.broker.SubscribeRouteStatusUpdates()
	defer c.broker.Unsub(c.broker.GetRouteStatusPubSub(), ch)
	defer c.queue.ShutDown()

	for i := 0; i < c.workers; i++ {
		go wait.UntilWithContext(ctx, c.runWorker, time.Second)
	}

	// Routes announced before the subscription
	c.Enqueue(c.index.RouteKeys()...)

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			m, ok := msg.(events.RouteStatusMessage)
			if !ok {
				log.Error().Msgf("Received unexpected message %T on the route status topic", msg)
				continue
			}
			c.Enqueue(m.Routes...)
		}
	}
}

// Enqueue queues the routes for reconciliation
func (c *Controller) Enqueue(keys ...events.RouteKey) {
	for _, key := range keys {
		c.queue.Add(key)
	}
	metricsstore.DefaultMetricsStore.StatusQueueDepth.Set(float64(c.queue.Len()))
}

func (c *Controller) runWorker(ctx context.Context) {
	for c.processNextItem() {
	}
}

func (c *Controller) processNextItem() bool {
	key, quit := c.queue.Get()
	if quit {
		return false
	}
	defer c.queue.Done(key)
	metricsstore.DefaultMetricsStore.StatusQueueDepth.Set(float64(c.queue.Len()))

	if err := c.Reconcile(key); err != nil {
		log.Error().Err(err).Msgf("Error reconciling status of %s", key)
	}
	c.queue.Forget(key)
	return true
}

// Reconcile sends a status update for the route. Routes that are absent from the index, or
// failed conversion, are skipped.
func (c *Controller) Reconcile(key events.RouteKey) error {
	binding, ok := c.index.RouteBinding(key)
	if !ok {
		log.Debug().Msgf("Skipping status of %s, no valid binding", key)
		return nil
	}

	resource, err := c.newRouteObject(key)
	if err != nil {
		return err
	}

	c.updater.Send(Update{
		NamespacedName: key.NamespacedName,
		Resource:       resource,
		Mutator: &RouteStatusUpdate{
			FullName:            key.NamespacedName,
			Reconciler:          c.reconciler,
			RouteParentStatuses: c.reconciler.RouteParentStatuses(key.Namespace, binding, 0),
			TransitionTime:      c.now(),
		},
	})
	return nil
}

func (c *Controller) newRouteObject(key events.RouteKey) (client.Object, error) {
	switch {
	case key.Group == constants.GatewayAPIGroup && key.Kind == constants.HTTPRouteKind:
		return &gwv1.HTTPRoute{}, nil
	case key.Group == constants.GatewayAPIGroup && key.Kind == constants.GRPCRouteKind:
		if c.grpcRouteV1 {
			return &gwv1.GRPCRoute{}, nil
		}
		return &gwv1alpha2.GRPCRoute{}, nil
	case key.Group == constants.FlomeshPolicyAPIGroup && key.Kind == constants.HTTPRouteKind:
		return &policyv1beta3.HTTPRoute{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownRouteKind, "%s", key)
	}
}

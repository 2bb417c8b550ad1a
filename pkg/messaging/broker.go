package messaging

import (
	"github.com/cskr/pubsub"

	"github.com/flomesh-io/fsm-policy/pkg/announcements"
	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/metricsstore"
)

// NewBroker returns a new message broker instance. The broker shuts its PubSub instances
// down once stopCh is closed.
func NewBroker(stopCh <-chan struct{}) *Broker {
	b := &Broker{
		routeStatusPubSub: pubsub.New(1024 * 10),
	}

	go func() {
		<-stopCh
		b.routeStatusPubSub.Shutdown()
	}()

	return b
}

// GetRouteStatusPubSub returns the PubSub instance corresponding to route status update events
func (b *Broker) GetRouteStatusPubSub() *pubsub.PubSub {
	return b.routeStatusPubSub
}

// PublishRouteStatusUpdate announces that the status of the given routes may have changed
func (b *Broker) PublishRouteStatusUpdate(keys []events.RouteKey) {
	if len(keys) == 0 {
		return
	}

	metricsstore.DefaultMetricsStore.RouteStatusEventCounter.Inc()
	metricsstore.DefaultMetricsStore.RouteStatusKeyCounter.Add(float64(len(keys)))
	log.Trace().Msgf("Publishing route status update for %d routes", len(keys))

	b.routeStatusPubSub.Pub(events.RouteStatusMessage{Routes: keys}, announcements.RouteStatusUpdate.String())
}

// SubscribeRouteStatusUpdates returns a channel receiving events.RouteStatusMessage values
func (b *Broker) SubscribeRouteStatusUpdates() chan interface{} {
	return b.routeStatusPubSub.Sub(announcements.RouteStatusUpdate.String())
}

// Unsub unsubscribes the given channel from the PubSub instance
func (b *Broker) Unsub(pubSub *pubsub.PubSub, ch chan interface{}) {
	// Unsubscription should be performed from a different goroutine and
	// existing messages on the subscribed channel must be drained as noted
	// in https://github.com/cskr/pubsub/blob/v1.0.2/pubsub.go#L95.
	go pubSub.Unsub(ch)
	for range ch {
		// Drain channel until 'Unsub' results in a close on the subscribed channel
	}
}

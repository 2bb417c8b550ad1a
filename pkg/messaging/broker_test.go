package messaging

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	tassert "github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/types"

	"github.com/flomesh-io/fsm-policy/pkg/k8s/events"
	"github.com/flomesh-io/fsm-policy/pkg/metricsstore"
)

func TestPublishRouteStatusUpdate(t *testing.T) {
	a := tassert.New(t)
	stop := make(chan struct{})
	defer close(stop)

	b := NewBroker(stop)
	ch := b.SubscribeRouteStatusUpdates()
	defer b.Unsub(b.GetRouteStatusPubSub(), ch)

	key := events.RouteKey{
		Group:          "gateway.networking.k8s.io",
		Kind:           "GRPCRoute",
		NamespacedName: types.NamespacedName{Namespace: "ns-0", Name: "route-foo"},
	}

	eventsBefore := testutil.ToFloat64(metricsstore.DefaultMetricsStore.RouteStatusEventCounter)
	keysBefore := testutil.ToFloat64(metricsstore.DefaultMetricsStore.RouteStatusKeyCounter)

	// empty updates are not published
	b.PublishRouteStatusUpdate(nil)
	b.PublishRouteStatusUpdate([]events.RouteKey{key})

	select {
	case msg := <-ch:
		a.Equal(events.RouteStatusMessage{Routes: []events.RouteKey{key}}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for route status message")
	}

	a.Equal(eventsBefore+1, testutil.ToFloat64(metricsstore.DefaultMetricsStore.RouteStatusEventCounter))
	a.Equal(keysBefore+1, testutil.ToFloat64(metricsstore.DefaultMetricsStore.RouteStatusKeyCounter))
}

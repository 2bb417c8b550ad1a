// Package messaging implements the messaging infrastructure between different
// components within the policy controller.
package messaging

import (
	"github.com/cskr/pubsub"

	"github.com/flomesh-io/fsm-policy/pkg/logger"
)

var (
	log = logger.New("message-broker")
)

// Broker implements the message broker functionality
type Broker struct {
	routeStatusPubSub *pubsub.PubSub
}

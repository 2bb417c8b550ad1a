package status

import (
	"context"

	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/flomesh-io/fsm-policy/pkg/errcode"
	"github.com/flomesh-io/fsm-policy/pkg/metricsstore"
)

const updateChannelSize = 100

// UpdateHandler applies the status updates it receives to the API server
type UpdateHandler struct {
	client        client.Client
	sendUpdates   chan struct{}
	updateChannel chan Update
}

// NewUpdateHandler returns an update handler writing through the given client
func NewUpdateHandler(c client.Client) *UpdateHandler {
	return &UpdateHandler{
		client:        c,
		sendUpdates:   make(chan struct{}),
		updateChannel: make(chan Update, updateChannelSize),
	}
}

func (u *UpdateHandler) apply(ctx context.Context, upd Update) {
	skipped := false

	err := retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		obj := upd.Resource.DeepCopyObject().(client.Object)
		if err := u.client.Get(ctx, upd.NamespacedName, obj); err != nil {
			if apierrors.IsNotFound(err) {
				log.Debug().Msgf("%T %s no longer exists, skipping status update", obj, upd.NamespacedName)
				skipped = true
				return nil
			}
			log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrFetchingRoute)).
				Msgf("Unable to get %T %s", obj, upd.NamespacedName)
			return err
		}

		newObj := upd.Mutator.Mutate(obj)
		if newObj == obj || isStatusEqual(obj, newObj) {
			log.Debug().Msgf("Update of %T %s was a no-op", obj, upd.NamespacedName)
			skipped = true
			return nil
		}

		return u.client.Status().Patch(ctx, newObj, client.MergeFrom(obj))
	})

	switch {
	case err != nil:
		metricsstore.DefaultMetricsStore.StatusPatchCounter.WithLabelValues("error").Inc()
		log.Error().Err(err).Str(errcode.Kind, errcode.GetErrCodeWithMetric(errcode.ErrPatchingRouteStatus)).
			Msgf("Unable to update status of %s", upd.NamespacedName)
	case skipped:
		metricsstore.DefaultMetricsStore.StatusPatchCounter.WithLabelValues("skipped").Inc()
	default:
		metricsstore.DefaultMetricsStore.StatusPatchCounter.WithLabelValues("patched").Inc()
	}
}

// NeedLeaderElection implements the controller-runtime LeaderElectionRunnable interface
func (u *UpdateHandler) NeedLeaderElection() bool {
	return true
}

// Start runs the update handler until ctx is done
func (u *UpdateHandler) Start(ctx context.Context) error {
	log.Info().Msg("Started status update handler")
	defer log.Info().Msg("Stopped status update handler")

	// Enable Updaters to start sending updates to this handler
	close(u.sendUpdates)

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd := <-u.updateChannel:
			log.Debug().Msgf("Received a status update for %s", upd.NamespacedName)
			u.apply(ctx, upd)
		}
	}
}

// Writer returns an Updater sending updates to this handler
func (u *UpdateHandler) Writer() Updater {
	return &UpdateWriter{
		enabled:       u.sendUpdates,
		updateChannel: u.updateChannel,
	}
}

// UpdateWriter sends updates to an UpdateHandler
type UpdateWriter struct {
	enabled       <-chan struct{}
	updateChannel chan<- Update
}

// Send sends the update to the handler, blocking until the handler is started
func (w *UpdateWriter) Send(update Update) {
	<-w.enabled
	w.updateChannel <- update
}

func isStatusEqual(objA, objB client.Object) bool {
	a, okA := routeStatus(objA)
	b, okB := routeStatus(objB)
	if !okA || !okB {
		return false
	}
	return equality.Semantic.DeepEqual(a, b)
}

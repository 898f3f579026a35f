package k8sitem

import (
	"context"
	"fmt"
	"time"

	"sigs.k8s.io/cli-utils/pkg/kstatus/polling"
	"sigs.k8s.io/cli-utils/pkg/kstatus/polling/aggregator"
	"sigs.k8s.io/cli-utils/pkg/kstatus/polling/collector"
	pollEvent "sigs.k8s.io/cli-utils/pkg/kstatus/polling/event"
	kstatus "sigs.k8s.io/cli-utils/pkg/kstatus/status"
	"sigs.k8s.io/cli-utils/pkg/object"

	"github.com/hashmap-kz/peaceform/internal/item"
)

// waitReady polls a single applied resource until it reaches kstatus
// Current, or the caller's context is done — the per-resource counterpart
// of internal/apply/apply.go's waitStatus/statusObserver, narrowed from a
// whole plan to the one object this item just applied.
func waitReady(fnCtx item.FnCtx, clients *Clients, applied State) error {
	cancelCtx, cancel := context.WithCancel(fnCtx.Ctx)
	defer cancel()

	id, err := object.RuntimeToObjMeta(applied.Object)
	if err != nil {
		return fmt.Errorf("k8sitem: resolving object id for status polling: %w", err)
	}
	resourceIDs := []object.ObjMetadata{id}

	poller := polling.NewStatusPoller(clients.Reader, clients.Mapper, polling.Options{})
	eventCh := poller.Poll(cancelCtx, resourceIDs, polling.PollOptions{PollInterval: 2 * time.Second})

	statusCollector := collector.NewResourceStatusCollector(resourceIDs)
	done := statusCollector.ListenWithObserver(eventCh, readyObserver(cancel, fnCtx))
	<-done

	if statusCollector.Error != nil {
		return statusCollector.Error
	}
	if fnCtx.Ctx.Err() != nil {
		return fnCtx.Ctx.Err()
	}
	return nil
}

// readyObserver cancels the poller once every tracked resource reaches
// kstatus Current, ticking progress with the first non-ready resource in
// the meantime — the single-resource analogue of apply.go's statusObserver.
func readyObserver(cancel context.CancelFunc, fnCtx item.FnCtx) collector.ObserverFunc {
	return func(c *collector.ResourceStatusCollector, _ pollEvent.Event) {
		var statuses []*pollEvent.ResourceStatus
		for _, rs := range c.ResourceStatuses {
			if rs != nil {
				statuses = append(statuses, rs)
			}
		}

		if aggregator.AggregateStatus(statuses, kstatus.CurrentStatus) == kstatus.CurrentStatus {
			cancel()
			return
		}
		if len(statuses) > 0 {
			fnCtx.Progress.Tick(fmt.Sprintf("waiting: %s -> %s", statuses[0].Identifier.Name, statuses[0].Status))
		}
	}
}

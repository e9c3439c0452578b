package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/servicex-id/netops/metrics"
	"github.com/servicex-id/netops/types"
)

// RunBandwidthSync pushes a plan's new rate to every ACTIVE subscriber's
// simple queue, then writes the plan row so new subscribers inherit the
// rate even if live sync partially failed. The aggregate counts are the
// primary return value; per-customer detail is not reported for this
// workflow.
func (e *Engine) RunBandwidthSync(ctx context.Context, planID uuid.UUID, newBandwidth string) (*types.BatchResult, error) {
	if newBandwidth == "" {
		return nil, fmt.Errorf("bandwidth is required")
	}
	metrics.WorkflowRuns.WithLabelValues("bandwidth_sync").Inc()
	timer := prometheus.NewTimer(metrics.WorkflowDuration.WithLabelValues("bandwidth_sync"))
	defer timer.ObserveDuration()

	customers, err := e.store.ActiveCustomersOnPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("select plan subscribers: %w", err)
	}

	synced := make([]bool, len(customers))
	forEachLimited(ctx, len(customers), e.cfg.WorkerLimit, e.elementTimeout(), func(ctx context.Context, i int) {
		cust := &customers[i]
		router, _, rerr := e.store.RouterForCustomer(ctx, cust)
		if rerr != nil {
			e.log.Warn().Err(rerr).Str("username", cust.Username).Msg("no router for qos sync")
			return
		}
		client := e.RouterDial(router.Endpoint(e.cfg.DeviceTimeout))
		defer client.Disconnect()
		dctx, cancel := e.deviceBudget(ctx)
		defer cancel()
		if serr := runBounded(dctx, client.Disconnect, func() error {
			if cerr := client.Connect(); cerr != nil {
				return cerr
			}
			return client.SetSimpleQueue(cust.Username, newBandwidth)
		}); serr != nil {
			e.log.Warn().Err(serr).Str("username", cust.Username).Msg("queue update failed")
			return
		}
		synced[i] = true
	})

	result := &types.BatchResult{}
	for _, ok := range synced {
		if ok {
			result.Succeeded++
		} else {
			result.Failed++
		}
		metrics.ObserveSync("bandwidth_sync", ok)
	}

	// The plan row is authoritative for future subscribers regardless of
	// how the live fleet fared.
	if err := e.store.UpdatePlanBandwidth(ctx, planID, newBandwidth); err != nil {
		return result, fmt.Errorf("update plan bandwidth: %w", err)
	}

	e.log.Info().
		Str("plan", planID.String()).
		Str("bandwidth", newBandwidth).
		Int("updated", result.Succeeded).
		Int("failed", result.Failed).
		Msg("bandwidth sync complete")
	return result, nil
}

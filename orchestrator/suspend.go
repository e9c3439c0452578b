package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/servicex-id/netops/metrics"
	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/types"
)

// RunSuspension executes the auto-isolir sweep: every UNPAID invoice past
// due gets its customer's PPPoE secret forced onto the walled-garden
// profile, and the customer row switched to ISOLIR regardless of whether
// the router cooperated.
//
// Re-running on the same overdue set is safe: the device step re-applies
// the same profile and the row re-writes the same status.
func (e *Engine) RunSuspension(ctx context.Context) (*types.BatchResult, error) {
	metrics.WorkflowRuns.WithLabelValues("suspension").Inc()
	timer := prometheus.NewTimer(metrics.WorkflowDuration.WithLabelValues("suspension"))
	defer timer.ObserveDuration()

	invoices, err := e.store.OverdueInvoices(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("select overdue invoices: %w", err)
	}

	outcomes := make([]types.SyncOutcome, len(invoices))
	forEachLimited(ctx, len(invoices), e.cfg.WorkerLimit, e.elementTimeout(), func(ctx context.Context, i int) {
		outcomes[i] = e.suspendOne(ctx, &invoices[i])
	})

	result := &types.BatchResult{}
	for _, o := range outcomes {
		result.Add(o)
		metrics.ObserveSync("suspension", o.Synced)
	}
	e.log.Info().
		Int("overdue", len(invoices)).
		Int("synced", result.Succeeded).
		Int("server_only", result.Failed).
		Msg("suspension sweep complete")
	return result, nil
}

func (e *Engine) suspendOne(ctx context.Context, inv *model.Invoice) types.SyncOutcome {
	cust := inv.Customer
	if cust == nil {
		return types.SyncOutcome{
			CustomerID: inv.CustomerID.String(),
			Status:     "SKIPPED (invoice has no customer)",
		}
	}

	out := types.SyncOutcome{CustomerID: cust.ID.String(), Name: cust.Name}

	switch cust.Type {
	case types.SubscriptionHotspot:
		// Hotspot access is gated at the voucher layer; only the billing
		// state transitions here.
		out.Synced = true
		out.Status = "SUSPENDED_OVERDUE (Hotspot: voucher-managed)"
	default:
		synced, note := e.suspendOnRouter(ctx, cust)
		out.Synced = synced
		if synced {
			out.Status = "SUSPENDED_OVERDUE (Router Sync: OK)" + note
		} else {
			out.Status = "SUSPENDED_OVERDUE (Router Sync: SERVER-ONLY)" + note
		}
	}

	// The billing transition happens no matter what the device said.
	if err := e.store.SetCustomerStatus(ctx, cust.ID, model.CustomerIsolir); err != nil {
		e.log.Error().Err(err).Str("customer", cust.ID.String()).Msg("isolir status write failed")
		out.Status = "FAILED (status write: " + err.Error() + ")"
		out.Synced = false
	}
	return out
}

// suspendOnRouter applies the isolir profile on the customer's router.
// Returns whether the device accepted the change plus an outcome note.
func (e *Engine) suspendOnRouter(ctx context.Context, cust *model.Customer) (bool, string) {
	router, fellBack, err := e.store.RouterForCustomer(ctx, cust)
	if err != nil {
		e.log.Warn().Err(err).Str("username", cust.Username).Msg("no router for suspension")
		return false, " (no router)"
	}
	note := ""
	if fellBack {
		note = " (tenant-default router)"
	}

	client := e.RouterDial(router.Endpoint(e.cfg.DeviceTimeout))
	defer client.Disconnect()
	dctx, cancel := e.deviceBudget(ctx)
	defer cancel()
	err = runBounded(dctx, client.Disconnect, func() error {
		if cerr := client.Connect(); cerr != nil {
			return cerr
		}
		return client.SetPppoeProfile(cust.Username, e.isolirProfile(cust.Tenant))
	})
	if err != nil {
		e.log.Warn().Err(err).Str("username", cust.Username).Msg("suspension profile set failed")
		return false, note
	}
	return true, note
}

// Throttle applies a one-off bandwidth cap to a single customer (fair-use
// enforcement), addressed by an explicit router.
func (e *Engine) Throttle(ctx context.Context, customerID, routerID uuid.UUID, maxLimit string) (bool, error) {
	cust, err := e.store.CustomerByID(ctx, customerID)
	if err != nil {
		return false, fmt.Errorf("customer %s: %w", customerID, err)
	}
	router, err := e.store.RouterByID(ctx, routerID)
	if err != nil {
		return false, err
	}

	client := e.RouterDial(router.Endpoint(e.cfg.DeviceTimeout))
	defer client.Disconnect()
	dctx, cancel := e.deviceBudget(ctx)
	defer cancel()
	err = runBounded(dctx, client.Disconnect, func() error {
		if cerr := client.Connect(); cerr != nil {
			return cerr
		}
		return client.SetSimpleQueue(cust.Username, maxLimit)
	})
	if err != nil {
		e.log.Warn().Err(err).Str("username", cust.Username).Msg("throttle failed")
		return false, nil
	}
	return true, nil
}

// elementTimeout bounds one batch element: a connect plus a short command
// burst plus the row update.
func (e *Engine) elementTimeout() time.Duration {
	return 3 * e.cfg.DeviceTimeout
}

// deviceBudget bounds the device-session part of an element, leaving the
// rest of the element timeout as headroom so the authoritative row update
// still runs after a watchdog fires.
func (e *Engine) deviceBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*e.cfg.DeviceTimeout)
}

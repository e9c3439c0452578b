package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/servicex-id/netops/metrics"
	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/types"
)

// BankMutation is one entry from the bank-mutation feed. Only credit
// entries ("CR") are considered.
type BankMutation struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// UnmarshalJSON accepts the amount as either a JSON number or a quoted
// string; mutation feeds are inconsistent about which they send.
func (m *BankMutation) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type   string          `json:"type"`
		Amount json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Type = wire.Type
	if len(wire.Amount) == 0 {
		return nil
	}
	text := strings.Trim(string(wire.Amount), `"`)
	if text == "" {
		return nil
	}
	amount, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("amount %s: %w", wire.Amount, err)
	}
	m.Amount = amount
	return nil
}

// ReconcileResult aggregates one feed batch. Unmatched counts credits with
// no exact-amount invoice (a billing-data question); Failed counts storage
// errors during matching or settlement (an infrastructure question).
type ReconcileResult struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Failed    int `json:"failed"`
	Restored  int `json:"restored"`
}

// RunReconciliation settles incoming bank credits against UNPAID invoices
// by exact amount. Matching is amount-keyed, not customer-keyed: invoice
// amounts carry unique trailing digits precisely so the transfer amount
// alone identifies the payer. Zero or multiple candidates is a logged
// no-op, never an auto-resolve.
//
// A matched invoice whose customer sits in ISOLIR additionally triggers the
// mirror image of the suspension device step: the customer goes ACTIVE and
// the original plan profile is re-applied best-effort.
func (e *Engine) RunReconciliation(ctx context.Context, mutations []BankMutation) (*ReconcileResult, error) {
	metrics.WorkflowRuns.WithLabelValues("reconciliation").Inc()
	timer := prometheus.NewTimer(metrics.WorkflowDuration.WithLabelValues("reconciliation"))
	defer timer.ObserveDuration()

	res := &ReconcileResult{}
	for _, mut := range mutations {
		if mut.Type != "CR" {
			continue
		}
		res.Processed++

		inv, err := e.store.MatchInvoiceByAmount(ctx, mut.Amount)
		if err != nil {
			if errors.Is(err, types.ErrAmbiguous) {
				res.Unmatched++
				e.log.Warn().Float64("amount", mut.Amount).Msg("credit mutation did not match exactly one unpaid invoice")
			} else {
				res.Failed++
				e.log.Error().Err(err).Float64("amount", mut.Amount).Msg("invoice match query failed")
			}
			continue
		}

		if err := e.store.MarkInvoicePaid(ctx, inv.ID, time.Now()); err != nil {
			e.log.Error().Err(err).Str("invoice", inv.ID.String()).Msg("invoice paid write failed")
			res.Failed++
			continue
		}
		res.Matched++
		e.log.Info().
			Str("invoice", inv.ID.String()).
			Float64("amount", mut.Amount).
			Msg("payment settled")

		if inv.Customer != nil && inv.Customer.Status == model.CustomerIsolir {
			if e.restoreCustomer(ctx, inv.Customer) {
				res.Restored++
			}
		}
	}
	return res, nil
}

// restoreCustomer is the un-isolir transition. The billing state commits
// first; the device step is best-effort and only logged on failure.
func (e *Engine) restoreCustomer(ctx context.Context, cust *model.Customer) bool {
	if err := e.store.SetCustomerStatus(ctx, cust.ID, model.CustomerActive); err != nil {
		e.log.Error().Err(err).Str("customer", cust.ID.String()).Msg("restore status write failed")
		return false
	}

	if cust.Type == types.SubscriptionHotspot {
		metrics.ObserveSync("restoration", true)
		return true
	}

	synced := false
	router, _, err := e.store.RouterForCustomer(ctx, cust)
	if err != nil {
		e.log.Warn().Err(err).Str("username", cust.Username).Msg("no router for restoration")
	} else {
		client := e.RouterDial(router.Endpoint(e.cfg.DeviceTimeout))
		dctx, cancel := e.deviceBudget(ctx)
		serr := runBounded(dctx, client.Disconnect, func() error {
			if cerr := client.Connect(); cerr != nil {
				return cerr
			}
			return client.SetPppoeProfile(cust.Username, cust.PlanName())
		})
		cancel()
		client.Disconnect()
		if serr != nil {
			e.log.Warn().Err(serr).Str("username", cust.Username).Msg("restoration profile set failed")
		} else {
			synced = true
		}
	}
	metrics.ObserveSync("restoration", synced)
	return true
}

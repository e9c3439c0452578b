package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/servicex-id/netops/metrics"
	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/store"
)

// ProvisionRequest is a technician's zero-touch provisioning submission.
type ProvisionRequest struct {
	SerialNumber string     `json:"onuSerialNumber"`
	CustomerID   uuid.UUID  `json:"customerId"`
	RouterID     uuid.UUID  `json:"routerId"`
	OltID        *uuid.UUID `json:"oltId,omitempty"`

	// PonPort is the OLT-side interface the ONU hangs off, in the
	// vendor's own notation (e.g. "gpon-olt_1/2/1").
	PonPort     string `json:"ponPort"`
	LineProfile string `json:"lineProfile"`
	SrvProfile  string `json:"srvProfile"`

	MACAddress string `json:"macAddress,omitempty"`
	Model      string `json:"model,omitempty"`
}

// ProvisionResult reports each degradable step independently: either side
// can fall back to MOCK without blocking the other or the DB transition.
type ProvisionResult struct {
	OltSynced    bool             `json:"oltSynced"`
	RouterSynced bool             `json:"routerSynced"`
	Message      string           `json:"message"`
	Device       *model.OntDevice `json:"device,omitempty"`
}

// RunProvisioning executes the zero-touch flow: bind the ONU on the OLT,
// upsert the device inventory row, inject the plan profile on the router,
// then activate the customer. Steps run strictly in that order; OLT and
// router failures downgrade to warnings so a flaky device session never
// blocks an install.
func (e *Engine) RunProvisioning(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	if req.SerialNumber == "" || req.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("serial number and customer id are required")
	}
	metrics.WorkflowRuns.WithLabelValues("provisioning").Inc()
	timer := prometheus.NewTimer(metrics.WorkflowDuration.WithLabelValues("provisioning"))
	defer timer.ObserveDuration()

	cust, err := e.store.CustomerByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", req.CustomerID, err)
	}
	router, err := e.store.RouterByID(ctx, req.RouterID)
	if err != nil {
		return nil, err
	}

	res := &ProvisionResult{}

	// Step A: bind the serial on the OLT.
	res.OltSynced = e.provisionOnOlt(ctx, cust, req)

	// Step B: device inventory upsert, keyed by serial. Re-submitting the
	// same serial is a pure update.
	ont, err := e.store.UpsertOnt(ctx, store.OntUpsert{
		SerialNumber: req.SerialNumber,
		TenantID:     cust.TenantID,
		CustomerID:   &cust.ID,
		MACAddress:   req.MACAddress,
		Model:        req.Model,
		OltID:        req.OltID,
		PonPort:      req.PonPort,
	}, time.Now())
	if err != nil {
		return nil, fmt.Errorf("upsert ont %s: %w", req.SerialNumber, err)
	}
	res.Device = ont

	// Step C: activate the plan profile on the router.
	res.RouterSynced = e.provisionOnRouter(ctx, cust, router)

	// Step D: the customer goes ACTIVE no matter how A and C fared.
	if err := e.store.SetCustomerStatus(ctx, cust.ID, model.CustomerActive); err != nil {
		return res, fmt.Errorf("activate customer: %w", err)
	}

	metrics.ObserveSync("provisioning", res.OltSynced && res.RouterSynced)
	res.Message = fmt.Sprintf("ONU Provisioned. OLT Sync: %s, Router Sync: %s",
		mockOr(res.OltSynced), mockOr(res.RouterSynced))
	e.log.Info().
		Str("serial", req.SerialNumber).
		Str("customer", cust.ID.String()).
		Bool("olt_synced", res.OltSynced).
		Bool("router_synced", res.RouterSynced).
		Msg("provisioning complete")
	return res, nil
}

func (e *Engine) provisionOnOlt(ctx context.Context, cust *model.Customer, req ProvisionRequest) bool {
	var olt *model.OltDevice
	var err error
	if req.OltID != nil {
		olt, err = e.store.OltByID(ctx, *req.OltID)
	} else {
		olt, err = e.store.OltForOnt(ctx, &model.OntDevice{TenantID: cust.TenantID})
	}
	if err != nil {
		e.log.Warn().Err(err).Str("serial", req.SerialNumber).Msg("no olt, provisioning degrades to mock")
		return false
	}

	client := e.OltDial(olt.Endpoint(e.cfg.DeviceTimeout))
	defer client.Disconnect()
	dctx, cancel := e.deviceBudget(ctx)
	defer cancel()
	if err := runBounded(dctx, client.Disconnect, func() error {
		if cerr := client.Connect(); cerr != nil {
			return cerr
		}
		return client.ProvisionOnu(req.PonPort, req.SerialNumber, req.LineProfile, req.SrvProfile)
	}); err != nil {
		e.log.Warn().Err(err).Str("serial", req.SerialNumber).Msg("olt provisioning failed, continuing in mock mode")
		return false
	}
	return true
}

func (e *Engine) provisionOnRouter(ctx context.Context, cust *model.Customer, router *model.Router) bool {
	client := e.RouterDial(router.Endpoint(e.cfg.DeviceTimeout))
	defer client.Disconnect()
	dctx, cancel := e.deviceBudget(ctx)
	defer cancel()
	if err := runBounded(dctx, client.Disconnect, func() error {
		if cerr := client.Connect(); cerr != nil {
			return cerr
		}
		return client.SetPppoeProfile(cust.Username, cust.PlanName())
	}); err != nil {
		e.log.Warn().Err(err).Str("username", cust.Username).Msg("router profile injection failed, continuing in mock mode")
		return false
	}
	return true
}

func mockOr(ok bool) string {
	if ok {
		return "OK"
	}
	return "MOCK"
}

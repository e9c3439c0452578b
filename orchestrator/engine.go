// Package orchestrator implements the four device orchestration workflows:
// suspension (auto-isolir), bandwidth sync, zero-touch provisioning and
// payment reconciliation/restoration.
//
// All four share one shape: select the affected customers, fan each one out
// through a short-lived device session, absorb every device-side error into
// a per-entity outcome, and write the authoritative state to the relational
// store regardless. The database is always the source of truth; device
// synchronization is best-effort and its failure never blocks a billing
// transition.
package orchestrator

import (
	"github.com/rs/zerolog"

	"github.com/servicex-id/netops/config"
	"github.com/servicex-id/netops/drivers/oltcli"
	"github.com/servicex-id/netops/drivers/routeros"
	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/store"
	"github.com/servicex-id/netops/types"
)

// RouterClient is the router session surface the workflows depend on.
// Implemented by drivers/routeros; tests substitute fakes.
type RouterClient interface {
	Connect() error
	Disconnect()
	SetPppoeProfile(username, profile string) error
	SetSimpleQueue(username, maxLimit string) error
	ActivePppoeSessions() ([]routeros.Session, error)
	ActiveHotspotSessions() ([]routeros.Session, error)
	Interfaces() ([]routeros.Interface, error)
	SystemResource() (routeros.SystemResource, error)
	TrafficRate(iface string) (routeros.TrafficRate, error)
}

// OltClient is the OLT session surface the workflows depend on.
type OltClient interface {
	Connect() error
	Disconnect()
	ExecuteCommand(command string) (string, error)
	ProvisionOnu(port, serial, lineProfile, srvProfile string) error
	GetOpticalPower(port, onuID string, losOverride float64) types.OpticalReading
}

// Engine runs the workflows against one store and device fleet.
type Engine struct {
	store *store.Store
	cfg   *config.Config
	log   zerolog.Logger

	// Dial seams; tests replace them with fakes.
	RouterDial func(types.DeviceEndpoint) RouterClient
	OltDial    func(types.DeviceEndpoint) OltClient
}

// New builds an engine with the production device dialers.
func New(st *store.Store, cfg *config.Config, log zerolog.Logger) *Engine {
	e := &Engine{
		store: st,
		cfg:   cfg,
		log:   log.With().Str("component", "orchestrator").Logger(),
	}
	e.RouterDial = func(ep types.DeviceEndpoint) RouterClient {
		return routeros.New(ep, log)
	}
	e.OltDial = func(ep types.DeviceEndpoint) OltClient {
		return oltcli.New(ep, log)
	}
	return e
}

// Store exposes the engine's store to webhook handlers.
func (e *Engine) Store() *store.Store {
	return e.store
}

// isolirProfile resolves the suspension profile: tenant override first,
// then the configured default.
func (e *Engine) isolirProfile(t *model.Tenant) string {
	if t != nil && t.IsolirProfile != "" {
		return t.IsolirProfile
	}
	return e.cfg.IsolirProfile
}

package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servicex-id/netops/drivers/routeros"
	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/types"
)

// RouterHealth is one router's live status snapshot for the NMS view.
type RouterHealth struct {
	RouterID  string `json:"routerId"`
	Name      string `json:"name"`
	IPAddress string `json:"ipAddress"`
	Online    bool   `json:"isOnline"`
	LatencyMs int64  `json:"latency"`
	CPULoad   int    `json:"cpuLoad"`
	RxMbps    uint64 `json:"rxMbps"`
	TxMbps    uint64 `json:"txMbps"`
}

// RouterFleetHealth probes every router of a tenant concurrently. Dead
// routers come back with Online=false, never as an error.
func (e *Engine) RouterFleetHealth(ctx context.Context, tenantID uuid.UUID) ([]RouterHealth, error) {
	routers, err := e.store.Routers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	health := make([]RouterHealth, len(routers))
	forEachLimited(ctx, len(routers), e.cfg.WorkerLimit, e.elementTimeout(), func(ctx context.Context, i int) {
		health[i] = e.probeRouter(ctx, &routers[i])
	})
	return health, nil
}

func (e *Engine) probeRouter(ctx context.Context, r *model.Router) RouterHealth {
	h := RouterHealth{
		RouterID:  r.ID.String(),
		Name:      r.Name,
		IPAddress: r.IPAddress,
	}

	client := e.RouterDial(r.Endpoint(e.cfg.DeviceTimeout))
	defer client.Disconnect()

	// The probe snapshot is only adopted when the session finished inside
	// the deadline; a hung router reports as plain offline.
	probe := h
	err := runBounded(ctx, client.Disconnect, func() error {
		start := time.Now()
		if cerr := client.Connect(); cerr != nil {
			return nil
		}
		probe.Online = true
		probe.LatencyMs = time.Since(start).Milliseconds()

		if res, rerr := client.SystemResource(); rerr == nil {
			probe.CPULoad = res.CPULoad
		}

		// Sample the uplink: prefer an interface that looks like WAN,
		// else the first one.
		ifaces, ierr := client.Interfaces()
		if ierr != nil || len(ifaces) == 0 {
			return nil
		}
		wan := ifaces[0]
		for _, iface := range ifaces {
			name := strings.ToLower(iface.Name)
			if strings.Contains(name, "wan") || strings.Contains(name, "ether1") {
				wan = iface
				break
			}
		}
		if rate, terr := client.TrafficRate(wan.Name); terr == nil {
			probe.RxMbps = rate.RxBitsPerSecond / 1024 / 1024
			probe.TxMbps = rate.TxBitsPerSecond / 1024 / 1024
		}
		return nil
	})
	if err == nil {
		h = probe
	}
	return h
}

// ActiveSessions lists a router's live PPPoE and hotspot sessions.
func (e *Engine) ActiveSessions(ctx context.Context, routerID uuid.UUID) (pppoe, hotspot []routeros.Session, err error) {
	router, err := e.store.RouterByID(ctx, routerID)
	if err != nil {
		return nil, nil, err
	}
	client := e.RouterDial(router.Endpoint(e.cfg.DeviceTimeout))
	defer client.Disconnect()
	dctx, cancel := e.deviceBudget(ctx)
	defer cancel()

	var p, h []routeros.Session
	err = runBounded(dctx, client.Disconnect, func() error {
		if cerr := client.Connect(); cerr != nil {
			return cerr
		}
		var serr error
		if p, serr = client.ActivePppoeSessions(); serr != nil {
			return serr
		}
		h, serr = client.ActiveHotspotSessions()
		return serr
	})
	if err != nil {
		return nil, nil, err
	}
	return p, h, nil
}

// ReadOpticalPower resolves an ONT's serving OLT and reads its optical
// signal. OLT resolution failures surface as errors; device-side failures
// come back inside the reading as UNREACHABLE.
func (e *Engine) ReadOpticalPower(ctx context.Context, ontID uuid.UUID) (types.OpticalReading, error) {
	ont, err := e.store.OntByID(ctx, ontID)
	if err != nil {
		return types.OpticalReading{}, fmt.Errorf("ont %s: %w", ontID, err)
	}
	if ont.PonPort == "" {
		return types.OpticalReading{}, fmt.Errorf("ont %s has no pon port recorded", ont.SerialNumber)
	}
	olt, err := e.store.OltForOnt(ctx, ont)
	if err != nil {
		return types.OpticalReading{}, err
	}

	client := e.OltDial(olt.Endpoint(e.cfg.DeviceTimeout))
	defer client.Disconnect()
	dctx, cancel := e.deviceBudget(ctx)
	defer cancel()

	var reading types.OpticalReading
	if err := runBounded(dctx, client.Disconnect, func() error {
		reading = client.GetOpticalPower(ont.PonPort, strconv.Itoa(ont.OnuID), e.cfg.LOSThresholdDBm)
		return nil
	}); err != nil {
		return types.OpticalReading{Alarm: types.AlarmUnreachable}, nil
	}
	return reading, nil
}

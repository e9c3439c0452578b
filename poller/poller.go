// Package poller periodically reads ONT optical levels over SNMP and folds
// them back into the device inventory. SNMP is monitoring-only here; all
// configuration goes through the CLI and API drivers.
package poller

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/rs/zerolog"

	"github.com/servicex-id/netops/config"
	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/store"
	"github.com/servicex-id/netops/types"
)

// Rx power OID bases, indexed by pon port and onu id. Values are reported
// in hundredths of a dBm.
const (
	huaweiRxPowerOID = "1.3.6.1.4.1.2011.6.128.1.1.2.51.1.4"
	zteRxPowerOID    = "1.3.6.1.4.1.3902.1012.3.50.12.1.1.10"
)

// snmpGetter is the single-OID read surface the poller needs. Tests
// substitute a map-backed fake.
type snmpGetter interface {
	Get(oid string) (interface{}, error)
	Close() error
}

// Poller walks every SNMP-enabled OLT on a fixed interval.
type Poller struct {
	store *store.Store
	cfg   *config.Config
	log   zerolog.Logger

	// Dial seam; tests replace it.
	Dial func(olt *model.OltDevice) (snmpGetter, error)
}

func New(st *store.Store, cfg *config.Config, log zerolog.Logger) *Poller {
	p := &Poller{
		store: st,
		cfg:   cfg,
		log:   log.With().Str("component", "poller").Logger(),
	}
	p.Dial = dialSNMP
	return p
}

// Run blocks until ctx is cancelled, sweeping once immediately and then on
// every tick.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info().Dur("interval", p.cfg.PollInterval).Msg("optical poller started")
	p.Sweep(ctx)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("optical poller stopped")
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep polls every pollable OLT once. A dead OLT marks its ONTs offline
// and never aborts the sweep.
func (p *Poller) Sweep(ctx context.Context) {
	olts, err := p.store.PollableOlts(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("listing pollable olts")
		return
	}
	for i := range olts {
		if ctx.Err() != nil {
			return
		}
		p.pollOlt(ctx, &olts[i])
	}
}

func (p *Poller) pollOlt(ctx context.Context, olt *model.OltDevice) {
	onts, err := p.store.OntsOnOlt(ctx, olt.ID)
	if err != nil {
		p.log.Error().Err(err).Str("olt", olt.Name).Msg("listing onts")
		return
	}
	if len(onts) == 0 {
		return
	}

	conn, err := p.Dial(olt)
	if err != nil {
		p.log.Warn().Err(err).Str("olt", olt.Name).Msg("snmp unreachable, marking onts offline")
		now := time.Now()
		for i := range onts {
			if err := p.store.SetOntSignal(ctx, onts[i].ID, model.OntOffline, nil, now); err != nil {
				p.log.Error().Err(err).Str("serial", onts[i].SerialNumber).Msg("recording offline")
			}
		}
		return
	}
	defer conn.Close()

	for i := range onts {
		p.pollOnt(ctx, conn, olt, &onts[i])
	}
}

func (p *Poller) pollOnt(ctx context.Context, conn snmpGetter, olt *model.OltDevice, ont *model.OntDevice) {
	now := time.Now()
	oid, err := rxPowerOID(olt.Vendor, ont)
	if err != nil {
		p.log.Debug().Err(err).Str("serial", ont.SerialNumber).Msg("skipping ont")
		return
	}

	raw, err := conn.Get(oid)
	if err != nil {
		p.recordSignal(ctx, ont, model.OntOffline, nil, now)
		return
	}
	rx, ok := decodeRxPower(raw)
	if !ok {
		p.recordSignal(ctx, ont, model.OntOffline, nil, now)
		return
	}
	p.recordSignal(ctx, ont, model.OntOnline, &rx, now)
}

func (p *Poller) recordSignal(ctx context.Context, ont *model.OntDevice, status string, rx *float64, now time.Time) {
	if err := p.store.SetOntSignal(ctx, ont.ID, status, rx, now); err != nil {
		p.log.Error().Err(err).Str("serial", ont.SerialNumber).Msg("recording signal")
	}
}

// rxPowerOID builds the per-ONT instance OID. Both vendors index the optical
// table by an interface-style index; the pon port column of the inventory
// stores that index.
func rxPowerOID(vendor types.Vendor, ont *model.OntDevice) (string, error) {
	if ont.PonPort == "" {
		return "", fmt.Errorf("ont %s has no pon port index", ont.SerialNumber)
	}
	if _, err := strconv.Atoi(ont.PonPort); err != nil {
		return "", fmt.Errorf("pon port %q is not an snmp index", ont.PonPort)
	}
	switch vendor {
	case types.VendorHuawei:
		return fmt.Sprintf("%s.%s.%d", huaweiRxPowerOID, ont.PonPort, ont.OnuID), nil
	default:
		return fmt.Sprintf("%s.%s.%d", zteRxPowerOID, ont.PonPort, ont.OnuID), nil
	}
}

// dialSNMP opens a v2c session against the OLT's management address.
func dialSNMP(olt *model.OltDevice) (snmpGetter, error) {
	port := olt.SNMPPort
	if port <= 0 || port > 65535 {
		port = 161
	}
	client := &gosnmp.GoSNMP{
		Target:    olt.IPAddress,
		Port:      uint16(port),
		Community: olt.SNMPCommunity,
		Version:   gosnmp.Version2c,
		Timeout:   5 * time.Second,
		Retries:   2,
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("snmp connect %s: %w", olt.IPAddress, err)
	}
	return &snmpConn{client: client}, nil
}

type snmpConn struct {
	client *gosnmp.GoSNMP
}

func (c *snmpConn) Get(oid string) (interface{}, error) {
	packet, err := c.client.Get([]string{oid})
	if err != nil {
		return nil, err
	}
	if len(packet.Variables) == 0 {
		return nil, fmt.Errorf("empty response for %s", oid)
	}
	v := packet.Variables[0]
	if v.Type == gosnmp.NoSuchObject || v.Type == gosnmp.NoSuchInstance {
		return nil, fmt.Errorf("no such instance %s", oid)
	}
	return v.Value, nil
}

func (c *snmpConn) Close() error {
	if c.client.Conn != nil {
		return c.client.Conn.Close()
	}
	return nil
}

// Package routeros implements the router control client: one short-lived
// authenticated session per instance against the router's binary API port.
//
// Session discipline: connect, run a small burst of commands, disconnect.
// Instances are never shared across customers or workflow runs, so one hung
// connection costs only its own element's timeout.
package routeros

import (
	"fmt"
	"sync"
	"time"

	ros "github.com/go-routeros/routeros/v3"
	"github.com/rs/zerolog"

	"github.com/servicex-id/netops/types"
)

// apiConn is the slice of the underlying API client the wrapper depends on.
// Tests substitute a fake.
type apiConn interface {
	RunArgs(sentence []string) (*ros.Reply, error)
	Close() error
}

var _ apiConn = (*ros.Client)(nil)

// Client drives one router endpoint. Disconnect may be called from a
// watchdog goroutine while a command is in flight, so session state is
// mutex-guarded and a closed client never re-dials.
type Client struct {
	endpoint types.DeviceEndpoint
	log      zerolog.Logger
	dial     func(types.DeviceEndpoint) (apiConn, error)

	mu     sync.Mutex
	conn   apiConn
	closed bool
}

// New builds a client for the given endpoint. No connection is made until
// Connect.
func New(endpoint types.DeviceEndpoint, log zerolog.Logger) *Client {
	if endpoint.Port == 0 {
		endpoint.Port = 8728
	}
	if endpoint.Timeout == 0 {
		endpoint.Timeout = 5 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		log: log.With().
			Str("component", "routeros").
			Str("host", endpoint.Host).
			Logger(),
		dial: dialAPI,
	}
}

func dialAPI(e types.DeviceEndpoint) (apiConn, error) {
	c, err := ros.DialTimeout(e.Addr(), e.Username, e.Password, e.Timeout)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Connect opens the TCP session and performs the login handshake. Failure
// means "device unreachable", never a panic: callers run this inside large
// batches.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("%w: session closed", types.ErrUnreachable)
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, err := c.dial(c.endpoint)
	if err != nil {
		c.log.Warn().Err(err).Msg("router connect failed")
		return fmt.Errorf("%w: %v", types.ErrUnreachable, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return fmt.Errorf("%w: session closed", types.ErrUnreachable)
	}
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Disconnect closes the session and marks the client done. Safe to call
// when never connected, repeatedly, or concurrently with an in-flight
// command (the close unblocks its read).
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.closed = true
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Row is one key/value result sentence from the device. The open-map shape
// stays confined to this package; callers get typed structs.
type Row map[string]string

// WriteCommand sends one command with its arguments and returns the result
// rows. Transport and protocol errors come back as ErrUnreachable.
func (c *Client) WriteCommand(command string, args ...string) ([]Row, error) {
	if err := c.Connect(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("%w: %s: session closed", types.ErrUnreachable, command)
	}
	sentence := append([]string{command}, args...)
	reply, err := conn.RunArgs(sentence)
	if err != nil {
		c.log.Warn().Err(err).Str("command", command).Msg("router command failed")
		return nil, fmt.Errorf("%w: %s: %v", types.ErrUnreachable, command, err)
	}
	rows := make([]Row, 0, len(reply.Re))
	for _, re := range reply.Re {
		row := make(Row, len(re.Map))
		for k, v := range re.Map {
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SetPppoeProfile looks up the PPP secret by username and rewrites its
// profile field. ErrNotFound means billing DB and device disagree about the
// subscriber's existence.
func (c *Client) SetPppoeProfile(username, profile string) error {
	rows, err := c.WriteCommand("/ppp/secret/print", "?name="+username)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("ppp secret %q: %w", username, types.ErrNotFound)
	}
	_, err = c.WriteCommand("/ppp/secret/set",
		"=.id="+rows[0][".id"],
		"=profile="+profile,
	)
	if err != nil {
		return err
	}
	// Kick any live session so the new profile applies immediately.
	if active, aerr := c.WriteCommand("/ppp/active/print", "?name="+username); aerr == nil && len(active) > 0 {
		_, _ = c.WriteCommand("/ppp/active/remove", "=.id="+active[0][".id"])
	}
	return nil
}

// SetSimpleQueue updates the subscriber's bandwidth queue max-limit.
func (c *Client) SetSimpleQueue(username, maxLimit string) error {
	rows, err := c.WriteCommand("/queue/simple/print", "?name="+username)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("simple queue %q: %w", username, types.ErrNotFound)
	}
	_, err = c.WriteCommand("/queue/simple/set",
		"=.id="+rows[0][".id"],
		"=max-limit="+maxLimit,
	)
	return err
}

// ActivePppoeSessions lists currently connected PPPoE subscribers.
func (c *Client) ActivePppoeSessions() ([]Session, error) {
	rows, err := c.WriteCommand("/ppp/active/print")
	if err != nil {
		return nil, err
	}
	sessions := make([]Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, sessionFromRow(r, "name"))
	}
	return sessions, nil
}

// ActiveHotspotSessions lists currently connected hotspot users.
func (c *Client) ActiveHotspotSessions() ([]Session, error) {
	rows, err := c.WriteCommand("/ip/hotspot/active/print")
	if err != nil {
		return nil, err
	}
	sessions := make([]Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, sessionFromRow(r, "user"))
	}
	return sessions, nil
}

// Interfaces lists the router's interfaces with their byte counters.
func (c *Client) Interfaces() ([]Interface, error) {
	rows, err := c.WriteCommand("/interface/print")
	if err != nil {
		return nil, err
	}
	ifaces := make([]Interface, 0, len(rows))
	for _, r := range rows {
		ifaces = append(ifaces, Interface{
			Name:    r["name"],
			Type:    r["type"],
			Running: r["running"] == "true",
			RxByte:  parseUint(r["rx-byte"]),
			TxByte:  parseUint(r["tx-byte"]),
		})
	}
	return ifaces, nil
}

// SystemResource reads basic device health.
func (c *Client) SystemResource() (SystemResource, error) {
	rows, err := c.WriteCommand("/system/resource/print")
	if err != nil {
		return SystemResource{}, err
	}
	if len(rows) == 0 {
		return SystemResource{}, fmt.Errorf("system resource: %w", types.ErrNotFound)
	}
	r := rows[0]
	return SystemResource{
		Version:     r["version"],
		BoardName:   r["board-name"],
		Uptime:      r["uptime"],
		CPULoad:     parseInt(r["cpu-load"]),
		FreeMemory:  parseUint(r["free-memory"]),
		TotalMemory: parseUint(r["total-memory"]),
	}, nil
}

// TrafficRate samples the live bit rate of one interface.
func (c *Client) TrafficRate(iface string) (TrafficRate, error) {
	rows, err := c.WriteCommand("/interface/monitor-traffic",
		"=interface="+iface,
		"=once=",
	)
	if err != nil {
		return TrafficRate{}, err
	}
	if len(rows) == 0 {
		return TrafficRate{}, fmt.Errorf("monitor-traffic %q: %w", iface, types.ErrNotFound)
	}
	return TrafficRate{
		RxBitsPerSecond: parseUint(rows[0]["rx-bits-per-second"]),
		TxBitsPerSecond: parseUint(rows[0]["tx-bits-per-second"]),
	}, nil
}

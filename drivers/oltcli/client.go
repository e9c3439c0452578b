// Package oltcli implements the OLT command client: one SSH session per
// instance, executing interactive CLI commands and handing raw output to the
// vendor parsers.
package oltcli

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/servicex-id/netops/types"
	"github.com/servicex-id/netops/vendors"
)

// Legacy algorithm lists. OLT firmware is frequently years out of date and
// still negotiates SHA-1 key exchanges and CBC ciphers.
var (
	legacyKeyExchanges = []string{
		"diffie-hellman-group1-sha1",
		"diffie-hellman-group14-sha1",
		"diffie-hellman-group-exchange-sha1",
		"diffie-hellman-group-exchange-sha256",
		"curve25519-sha256",
		"ecdh-sha2-nistp256",
	}
	legacyCiphers = []string{
		"aes128-cbc", "aes192-cbc", "aes256-cbc",
		"aes128-ctr", "aes192-ctr", "aes256-ctr",
	}
)

// commandSession is the interactive session surface. Tests substitute a
// fake; production uses the expect session below.
type commandSession interface {
	Execute(command string) (string, error)
	Close() error
}

// Client drives one OLT endpoint. Disconnect may be called from a watchdog
// goroutine while a command is in flight, so session state is mutex-guarded
// and a closed client never re-dials.
type Client struct {
	endpoint types.DeviceEndpoint
	profile  vendors.Profile
	log      zerolog.Logger

	dial func(*Client) (commandSession, *ssh.Client, error)

	mu        sync.Mutex
	sshClient *ssh.Client
	session   commandSession
	closed    bool
}

// New builds a client for the given endpoint. The endpoint's vendor tag
// selects the CLI dialect.
func New(endpoint types.DeviceEndpoint, log zerolog.Logger) *Client {
	if endpoint.Port == 0 {
		endpoint.Port = 22
	}
	if endpoint.Timeout == 0 {
		endpoint.Timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		profile:  vendors.ForVendor(endpoint.Vendor),
		log: log.With().
			Str("component", "oltcli").
			Str("host", endpoint.Host).
			Str("vendor", string(endpoint.Vendor)).
			Logger(),
		dial: dialSSH,
	}
}

func dialSSH(c *Client) (commandSession, *ssh.Client, error) {
	// Keyboard-interactive fallback: some OLTs reject plain password auth.
	keyboardInteractive := ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = c.endpoint.Password
		}
		return answers, nil
	})

	sshConfig := &ssh.ClientConfig{
		User: c.endpoint.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(c.endpoint.Password),
			keyboardInteractive,
		},
		Config: ssh.Config{
			KeyExchanges: legacyKeyExchanges,
			Ciphers:      legacyCiphers,
		},
		Timeout:         c.endpoint.Timeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // management VLAN, legacy devices have no host key management
	}

	client, err := ssh.Dial("tcp", c.endpoint.Addr(), sshConfig)
	if err != nil {
		return nil, nil, err
	}

	session, err := newExpectSession(client, c.profile, c.endpoint.Timeout)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return session, client, nil
}

// Connect opens the SSH session and performs the login handshake.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("%w: session closed", types.ErrUnreachable)
	}
	if c.session != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	session, sshClient, err := c.dial(c)
	if err != nil {
		c.log.Warn().Err(err).Msg("olt connect failed")
		return fmt.Errorf("%w: %v", types.ErrUnreachable, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = session.Close()
		if sshClient != nil {
			_ = sshClient.Close()
		}
		return fmt.Errorf("%w: session closed", types.ErrUnreachable)
	}
	c.session = session
	c.sshClient = sshClient
	c.mu.Unlock()
	return nil
}

// Disconnect terminates the session and marks the client done. Safe to call
// when never connected, repeatedly, or concurrently with an in-flight
// command.
func (c *Client) Disconnect() {
	c.mu.Lock()
	session := c.session
	sshClient := c.sshClient
	c.session = nil
	c.sshClient = nil
	c.closed = true
	c.mu.Unlock()

	if session != nil {
		_ = session.Close()
	}
	if sshClient != nil {
		_ = sshClient.Close()
	}
}

// ExecuteCommand runs one CLI command to completion and returns its output.
func (c *Client) ExecuteCommand(command string) (string, error) {
	if err := c.Connect(); err != nil {
		return "", err
	}
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return "", fmt.Errorf("%w: %s: session closed", types.ErrUnreachable, command)
	}
	out, err := session.Execute(command)
	if err != nil {
		c.log.Warn().Err(err).Str("command", command).Msg("olt command failed")
		return out, fmt.Errorf("%w: %s: %v", types.ErrUnreachable, command, err)
	}
	return out, nil
}

// GetOpticalPower reads and classifies one ONU's optical signal. Execution
// failure reports UNREACHABLE rather than an error: callers poll fleets and
// must not abort on one dead OLT. losOverride, when non-zero, replaces the
// vendor profile's LOS threshold.
func (c *Client) GetOpticalPower(port, onuID string, losOverride float64) types.OpticalReading {
	raw, err := c.ExecuteCommand(c.profile.OpticalCmd(port, onuID))
	if err != nil {
		return types.OpticalReading{Alarm: types.AlarmUnreachable}
	}
	return vendors.ParseOptical(c.profile, vendors.StripANSI(raw), losOverride)
}

// ProvisionOnu runs the vendor command sequence binding an ONU serial to
// line and service profiles on the given PON port.
func (c *Client) ProvisionOnu(port, serial, lineProfile, srvProfile string) error {
	for _, cmd := range c.profile.ProvisionCmds(port, serial, lineProfile, srvProfile) {
		if _, err := c.ExecuteCommand(cmd); err != nil {
			return err
		}
	}
	return nil
}

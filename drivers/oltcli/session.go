package oltcli

import (
	"fmt"
	"strings"
	"time"

	expect "github.com/google/goexpect"
	"golang.org/x/crypto/ssh"

	"github.com/servicex-id/netops/vendors"
)

// expectSession wraps a PTY expect session over SSH. OLT CLIs are
// interactive: commands echo, output ends at a prompt, and long tables page
// unless the pager is disabled up front.
type expectSession struct {
	expecter *expect.GExpect
	profile  vendors.Profile
	timeout  time.Duration
}

func newExpectSession(client *ssh.Client, profile vendors.Profile, timeout time.Duration) (*expectSession, error) {
	exp, _, err := expect.SpawnSSH(client, timeout,
		expect.Verbose(false),
		expect.CheckDuration(500*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("spawn ssh expect session: %w", err)
	}

	s := &expectSession{
		expecter: exp,
		profile:  profile,
		timeout:  timeout,
	}

	// Wait for the login prompt before sending anything.
	if _, _, err := exp.Expect(profile.Prompt, timeout); err != nil {
		exp.Close()
		return nil, fmt.Errorf("initial prompt not detected: %w", err)
	}

	// Pager disable is best effort; a failure just means long output may
	// truncate at a --More-- marker.
	if profile.PagerDisable != "" {
		_, _ = s.Execute(profile.PagerDisable)
	}

	return s, nil
}

// Execute sends one command and returns everything printed up to the next
// prompt, with the command echo and prompt lines removed.
func (s *expectSession) Execute(command string) (string, error) {
	if err := s.expecter.Send(command + "\n"); err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}
	output, _, err := s.expecter.Expect(s.profile.Prompt, s.timeout)
	if err != nil {
		return output, fmt.Errorf("prompt not seen after %q: %w", command, err)
	}
	return s.cleanOutput(output, command), nil
}

func (s *expectSession) cleanOutput(output, command string) string {
	lines := strings.Split(vendors.StripANSI(output), "\n")
	var cleaned []string
	for i, line := range lines {
		if i == 0 && strings.Contains(line, command) {
			continue
		}
		if s.profile.Prompt.MatchString(strings.TrimSpace(line)) {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func (s *expectSession) Close() error {
	if s.expecter != nil {
		return s.expecter.Close()
	}
	return nil
}

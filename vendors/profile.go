// Package vendors holds the per-vendor OLT profiles: CLI prompt shape, pager
// handling, provisioning command sequences, optical-info parsing and the
// loss-of-signal threshold. Everything tunable lives in the profile table so
// vendor behavior changes never touch the parser or the client.
package vendors

import (
	"fmt"
	"regexp"

	"github.com/servicex-id/netops/types"
)

// Profile describes one OLT vendor dialect.
type Profile struct {
	Vendor types.Vendor

	// Prompt matches the CLI prompt, both user and privileged modes.
	Prompt *regexp.Regexp

	// PagerDisable is sent once after login so long output is not paged.
	PagerDisable string

	// OpticalCmd renders the "show optical info" command for one ONU.
	OpticalCmd func(port string, onuID string) string

	// RxPowerRe and TxPowerRe extract the dBm values from the command
	// output. The first capture group is the numeric reading.
	RxPowerRe *regexp.Regexp
	TxPowerRe *regexp.Regexp

	// LOSThresholdDBm: receive power at or below this reports LOS ALARM.
	// A business rule, not a protocol fact; override per deployment via
	// configuration.
	LOSThresholdDBm float64

	// ProvisionCmds renders the command sequence that binds an ONU serial
	// to line and service profiles.
	ProvisionCmds func(port, serial, lineProfile, srvProfile string) []string
}

var profiles = map[types.Vendor]Profile{
	types.VendorZTE: {
		Vendor:       types.VendorZTE,
		Prompt:       regexp.MustCompile(`(?m)(<[\w\-]+>|\[[\w\-~]+\]|[\w\-]+[#>])\s*$`),
		PagerDisable: "terminal length 0",
		OpticalCmd: func(port, onuID string) string {
			return fmt.Sprintf("show gpon ont optical-info %s %s", port, onuID)
		},
		RxPowerRe:       regexp.MustCompile(`(?i)Rx optical power\s*\(dBm\)\s*:\s*(-?\d+\.\d+)`),
		TxPowerRe:       regexp.MustCompile(`(?i)Tx optical power\s*\(dBm\)\s*:\s*(-?\d+\.\d+)`),
		LOSThresholdDBm: -30.0,
		ProvisionCmds: func(port, serial, lineProfile, srvProfile string) []string {
			return []string{
				fmt.Sprintf("interface %s", port),
				fmt.Sprintf("onu add 1 %s sn-bind profile line %s service %s",
					serial, lineProfile, srvProfile),
				"exit",
			}
		},
	},
	types.VendorHuawei: {
		Vendor:       types.VendorHuawei,
		Prompt:       regexp.MustCompile(`(?m)(<[\w\-]+>|\[[\w\-~]+\])\s*$`),
		PagerDisable: "screen-length 0 temporary",
		OpticalCmd: func(port, onuID string) string {
			return fmt.Sprintf("display ont optical-info %s %s", port, onuID)
		},
		RxPowerRe:       regexp.MustCompile(`(?i)Rx\s*optical\s*power\s*\(dBm\)?[:\s]+(-?\d+\.?\d*)`),
		TxPowerRe:       regexp.MustCompile(`(?i)Tx\s*optical\s*power\s*\(dBm\)?[:\s]+(-?\d+\.?\d*)`),
		LOSThresholdDBm: -30.0,
		ProvisionCmds: func(port, serial, lineProfile, srvProfile string) []string {
			return []string{
				"enable",
				"config",
				fmt.Sprintf("interface gpon %s", port),
				fmt.Sprintf("ont add 1 sn-auth %s omci ont-lineprofile-name %s ont-srvprofile-name %s",
					serial, lineProfile, srvProfile),
				"quit",
				"quit",
			}
		},
	},
}

// ForVendor returns the profile for a vendor tag, falling back to ZTE for
// unknown tags so a typo'd row degrades to the most common dialect instead
// of a nil profile.
func ForVendor(v types.Vendor) Profile {
	if p, ok := profiles[v]; ok {
		return p
	}
	return profiles[types.VendorZTE]
}

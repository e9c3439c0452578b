package vendors

import (
	"strconv"

	"github.com/servicex-id/netops/types"
)

// ParseOptical extracts receive/transmit power from raw CLI output and
// classifies the alarm state.
//
// Decision policy: rx at or below the LOS threshold is a loss-of-signal
// alarm (likely fiber cut); unparsable rx means the ONU is offline or
// deregistered. losOverride, when non-zero, replaces the profile threshold.
func ParseOptical(p Profile, raw string, losOverride float64) types.OpticalReading {
	reading := types.OpticalReading{Alarm: types.AlarmOffline}

	if m := p.RxPowerRe.FindStringSubmatch(raw); len(m) > 1 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			reading.RxDBm = v
			reading.RxOK = true
		}
	}
	if m := p.TxPowerRe.FindStringSubmatch(raw); len(m) > 1 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			reading.TxDBm = v
			reading.TxOK = true
		}
	}

	if !reading.RxOK {
		return reading
	}

	threshold := p.LOSThresholdDBm
	if losOverride != 0 {
		threshold = losOverride
	}
	if reading.RxDBm <= threshold {
		reading.Alarm = types.AlarmLOS
	} else {
		reading.Alarm = types.AlarmNormal
	}
	return reading
}

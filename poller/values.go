package poller

// snmpInvalidValue is the sentinel several OLT firmwares report when the ONU
// is offline or the optical reading is unavailable.
const snmpInvalidValue int64 = 2147483647

// decodeRxPower converts a raw SNMP variable into dBm. Devices report the
// level in hundredths of a dBm as a signed integer.
func decodeRxPower(value interface{}) (float64, bool) {
	n, ok := toInt64(value)
	if !ok {
		return 0, false
	}
	if n == snmpInvalidValue || n == -snmpInvalidValue {
		return 0, false
	}
	return float64(n) / 100, true
}

// toInt64 normalizes the numeric types gosnmp hands back.
func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

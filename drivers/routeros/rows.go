package routeros

import "strconv"

// Session is one live PPPoE or hotspot connection, normalized into a stable
// shape regardless of which table it came from.
type Session struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Uptime   string `json:"uptime"`
	BytesIn  uint64 `json:"bytesIn"`
	BytesOut uint64 `json:"bytesOut"`
}

func sessionFromRow(r Row, identityKey string) Session {
	return Session{
		ID:       r[".id"],
		Name:     r[identityKey],
		Address:  r["address"],
		Uptime:   r["uptime"],
		BytesIn:  parseUint(r["bytes-in"]),
		BytesOut: parseUint(r["bytes-out"]),
	}
}

// Interface is one router interface row.
type Interface struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Running bool   `json:"running"`
	RxByte  uint64 `json:"rxByte"`
	TxByte  uint64 `json:"txByte"`
}

// SystemResource is the device health snapshot.
type SystemResource struct {
	Version     string `json:"version"`
	BoardName   string `json:"boardName"`
	Uptime      string `json:"uptime"`
	CPULoad     int    `json:"cpuLoad"`
	FreeMemory  uint64 `json:"freeMemory"`
	TotalMemory uint64 `json:"totalMemory"`
}

// TrafficRate is a live throughput sample for one interface.
type TrafficRate struct {
	RxBitsPerSecond uint64 `json:"rxBitsPerSecond"`
	TxBitsPerSecond uint64 `json:"txBitsPerSecond"`
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseUint(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

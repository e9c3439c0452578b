// Package types contains the shared value types passed between the store,
// the device clients and the orchestration workflows.
package types

import (
	"errors"
	"fmt"
	"time"
)

// Vendor identifies the OLT vendor, which selects the CLI dialect and the
// output-parsing profile.
type Vendor string

const (
	VendorZTE    Vendor = "zte"
	VendorHuawei Vendor = "huawei"
)

// SubscriptionType mirrors Customer.Type in the relational store.
type SubscriptionType string

const (
	SubscriptionPPPoE   SubscriptionType = "PPPOE"
	SubscriptionHotspot SubscriptionType = "HOTSPOT"
)

// DeviceEndpoint is a fully resolved device address plus credentials. It is
// built from a Router or OltDevice row and passed explicitly into the client
// constructors; nothing in the engine reads credentials ambiently.
type DeviceEndpoint struct {
	Host     string
	Port     int
	Username string
	Password string

	// Vendor is only meaningful for OLT endpoints.
	Vendor Vendor

	// Timeout bounds the connect attempt and each command round trip.
	Timeout time.Duration
}

// Addr returns the host:port dial target.
func (e DeviceEndpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Device error taxonomy. Transport failures and lookup misses are reported
// differently to operators: the former means the device was unreachable, the
// latter usually means billing DB and device have drifted.
var (
	// ErrUnreachable covers connect refused, auth rejected and session
	// resets. Always absorbed at the workflow boundary.
	ErrUnreachable = errors.New("device unreachable")

	// ErrNotFound means the device had no matching row (PPP secret, queue,
	// ONU) for the requested identity.
	ErrNotFound = errors.New("no matching entry on device")

	// ErrAmbiguous means a reconciliation query matched zero or more than
	// one candidate and no action was taken.
	ErrAmbiguous = errors.New("ambiguous match")
)

// SyncOutcome is the per-entity result of one workflow batch element. It is
// returned to the caller and never persisted.
type SyncOutcome struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Synced     bool   `json:"deviceSyncSucceeded"`
	Status     string `json:"status"`
}

// BatchResult aggregates a workflow run.
type BatchResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Outcomes  []SyncOutcome `json:"outcomes,omitempty"`
}

// Add records one element outcome.
func (r *BatchResult) Add(o SyncOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Synced {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// AlarmState classifies an optical power reading.
type AlarmState string

const (
	AlarmNormal      AlarmState = "NORMAL"
	AlarmLOS         AlarmState = "LOS ALARM"
	AlarmOffline     AlarmState = "OFFLINE"
	AlarmUnreachable AlarmState = "UNREACHABLE"
)

// OpticalReading is the parsed result of a vendor "show optical info"
// command for one ONU.
type OpticalReading struct {
	RxDBm float64    `json:"rx"`
	TxDBm float64    `json:"tx"`
	RxOK  bool       `json:"-"`
	TxOK  bool       `json:"-"`
	Alarm AlarmState `json:"status"`
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicex-id/netops/types"
)

// Router is a broadband router reachable over its binary control API.
// Credentials are opaque to the engine and must never be logged.
type Router struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;index;not null" json:"tenantId"`

	Name      string `gorm:"size:200" json:"name"`
	IPAddress string `gorm:"size:64;not null" json:"ipAddress"`
	APIPort   int    `gorm:"default:8728" json:"apiPort"`
	Username  string `gorm:"size:100" json:"-"`
	Password  string `gorm:"size:200" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Router) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Endpoint resolves the router into a dialable endpoint.
func (r *Router) Endpoint(timeout time.Duration) types.DeviceEndpoint {
	port := r.APIPort
	if port == 0 {
		port = 8728
	}
	return types.DeviceEndpoint{
		Host:     r.IPAddress,
		Port:     port,
		Username: r.Username,
		Password: r.Password,
		Timeout:  timeout,
	}
}

// OltDevice is a GPON head-end terminal driven over an interactive remote
// shell. The vendor tag selects the CLI dialect and parsing profile.
type OltDevice struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;index;not null" json:"tenantId"`

	Name      string       `gorm:"size:200" json:"name"`
	IPAddress string       `gorm:"size:64;not null" json:"ipAddress"`
	SSHPort   int          `gorm:"default:22" json:"sshPort"`
	Vendor    types.Vendor `gorm:"size:32;default:'zte'" json:"vendor"`
	Username  string       `gorm:"size:100" json:"-"`
	Password  string       `gorm:"size:200" json:"-"`

	// SNMPCommunity is used by the background ONU poller. Empty disables
	// SNMP polling for this OLT.
	SNMPCommunity string `gorm:"size:100" json:"-"`
	SNMPPort      int    `gorm:"default:161" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (o *OltDevice) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Endpoint resolves the OLT into a dialable SSH endpoint.
func (o *OltDevice) Endpoint(timeout time.Duration) types.DeviceEndpoint {
	port := o.SSHPort
	if port == 0 {
		port = 22
	}
	return types.DeviceEndpoint{
		Host:     o.IPAddress,
		Port:     port,
		Username: o.Username,
		Password: o.Password,
		Vendor:   o.Vendor,
		Timeout:  timeout,
	}
}

// ONT status values.
const (
	OntOnline  = "ONLINE"
	OntOffline = "OFFLINE"
)

// OntDevice is a customer-premises fiber terminal. The serial number, not
// the row id, is the device identity: registration upserts by serial.
type OntDevice struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;index" json:"tenantId"`

	SerialNumber string     `gorm:"size:64;uniqueIndex;not null" json:"serialNumber"`
	MACAddress   string     `gorm:"size:32" json:"macAddress"`
	Model        string     `gorm:"size:100" json:"model"`
	Status       string     `gorm:"size:20;default:'OFFLINE'" json:"status"`
	LastInform   *time.Time `json:"lastInform,omitempty"`

	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customerId,omitempty"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	// Filled in by the SNMP poller when the owning OLT reports it.
	OltID      *uuid.UUID `gorm:"type:uuid;index" json:"oltId,omitempty"`
	PonPort    string     `gorm:"size:32" json:"ponPort,omitempty"`
	OnuID      int        `json:"onuId,omitempty"`
	RxPowerDBm *float64   `gorm:"column:rx_power_dbm" json:"rxPowerDbm,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *OntDevice) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicex-id/netops/types"
)

// Customer status values. Status is the single authoritative indicator of
// whether the subscriber should have network access; device configuration
// converges to it but may lag.
const (
	CustomerPendingInstall = "PENDING_INSTALL"
	CustomerActive         = "ACTIVE"
	CustomerIsolir         = "ISOLIR"
	CustomerExpired        = "EXPIRED"
)

// Customer is one subscriber line.
type Customer struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;index;not null" json:"tenantId"`

	Name     string `gorm:"size:200;not null" json:"name"`
	Username string `gorm:"size:100;index;not null" json:"username"`
	Phone    string `gorm:"size:32;index" json:"phone"`

	Type   types.SubscriptionType `gorm:"size:16;default:'PPPOE'" json:"type"`
	Status string                 `gorm:"size:24;default:'PENDING_INSTALL';index" json:"status"`

	PlanID *uuid.UUID   `gorm:"type:uuid;index" json:"planId,omitempty"`
	Plan   *ServicePlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`

	// RouterID pins the customer to one access router. When nil, workflows
	// fall back to the tenant's first configured router and say so in the
	// outcome string.
	RouterID *uuid.UUID `gorm:"type:uuid;index" json:"routerId,omitempty"`

	Tenant *Tenant `gorm:"foreignKey:TenantID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// PlanName returns the plan name or a fallback profile for customers whose
// plan reference is missing.
func (c *Customer) PlanName() string {
	if c.Plan != nil && c.Plan.Name != "" {
		return c.Plan.Name
	}
	return "default"
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServicePlan describes a sellable bandwidth package. Bandwidth is the
// router-side rate string ("10M/10M" upload/download). Editing it must be
// followed by a bandwidth sync run or live queues drift from the plan.
type ServicePlan struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;index;not null" json:"tenantId"`

	Name      string  `gorm:"size:100;not null" json:"name"`
	Bandwidth string  `gorm:"size:64;not null" json:"bandwidth"`
	Price     float64 `json:"price"`
	Type      string  `gorm:"size:16;default:'PPPOE'" json:"type"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *ServicePlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Invoice status values.
const (
	InvoiceUnpaid    = "UNPAID"
	InvoicePaid      = "PAID"
	InvoiceCancelled = "CANCELLED"
)

// Invoice is one billing period for one customer. Amounts are made unique
// within the UNPAID set (entropy in the last digits) so an incoming bank
// transfer's amount alone identifies the payer.
type Invoice struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;index" json:"tenantId"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Amount  float64    `gorm:"not null" json:"amount"`
	Status  string     `gorm:"size:16;default:'UNPAID';index" json:"status"`
	DueDate time.Time  `gorm:"index" json:"dueDate"`
	PaidAt  *time.Time `json:"paidAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

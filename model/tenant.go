// Package model contains the persistence entities shared with the
// surrounding administrative application. The engine reads and writes these
// rows but does not own their schema evolution.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is an ISP operator account. The engine only consumes its device
// ownership and per-tenant policy overrides.
type Tenant struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string    `gorm:"size:200;not null" json:"name"`
	Domain string    `gorm:"size:200;uniqueIndex" json:"domain"`

	// IsolirProfile overrides the global suspension profile name for this
	// tenant. Empty means use the configured default.
	IsolirProfile string `gorm:"size:100" json:"isolirProfile"`

	Routers []Router `gorm:"foreignKey:TenantID" json:"routers,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

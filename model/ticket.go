package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket is a support case raised by a subscriber. The engine only creates
// tickets (chat-bot fault reports); triage and resolution belong to the
// surrounding CRM application.
type Ticket struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;index;not null" json:"tenantId"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`

	Subject string `gorm:"size:200" json:"subject"`
	Message string `gorm:"type:text" json:"message"`
	Status  string `gorm:"size:16;default:'OPEN'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ShortRef is the human-facing ticket reference used in bot replies.
func (t *Ticket) ShortRef() string {
	s := t.ID.String()
	if len(s) > 6 {
		s = s[:6]
	}
	return "#" + strings.ToUpper(s)
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicex-id/netops/model"
)

// OntUpsert carries the fields a registration or provisioning run may set.
// Zero-valued fields leave the existing row untouched.
type OntUpsert struct {
	SerialNumber string
	TenantID     uuid.UUID
	CustomerID   *uuid.UUID
	MACAddress   string
	Model        string
	OltID        *uuid.UUID
	PonPort      string
	OnuID        int
}

// UpsertOnt creates or refreshes the device row keyed by serial number. The
// serial, not the row id, is the device identity: re-registering an already
// known serial is a pure update, so re-submission never duplicates rows.
func (s *Store) UpsertOnt(ctx context.Context, u OntUpsert, now time.Time) (*model.OntDevice, error) {
	var ont model.OntDevice
	err := s.db.WithContext(ctx).
		Where("serial_number = ?", u.SerialNumber).
		First(&ont).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ont = model.OntDevice{
			SerialNumber: u.SerialNumber,
			TenantID:     u.TenantID,
			CustomerID:   u.CustomerID,
			MACAddress:   u.MACAddress,
			Model:        u.Model,
			OltID:        u.OltID,
			PonPort:      u.PonPort,
			OnuID:        u.OnuID,
			Status:       model.OntOnline,
			LastInform:   &now,
		}
		if ont.Model == "" {
			ont.Model = "auto-provisioned"
		}
		if cerr := s.db.WithContext(ctx).Create(&ont).Error; cerr != nil {
			return nil, cerr
		}
		return &ont, nil
	case err != nil:
		return nil, err
	}

	if u.CustomerID != nil {
		ont.CustomerID = u.CustomerID
	}
	if u.MACAddress != "" {
		ont.MACAddress = u.MACAddress
	}
	if u.Model != "" {
		ont.Model = u.Model
	}
	if u.OltID != nil {
		ont.OltID = u.OltID
	}
	if u.PonPort != "" {
		ont.PonPort = u.PonPort
	}
	if u.OnuID != 0 {
		ont.OnuID = u.OnuID
	}
	ont.Status = model.OntOnline
	ont.LastInform = &now
	if uerr := s.db.WithContext(ctx).Save(&ont).Error; uerr != nil {
		return nil, uerr
	}
	return &ont, nil
}

// OntBySerial fetches one device row.
func (s *Store) OntBySerial(ctx context.Context, serial string) (*model.OntDevice, error) {
	var ont model.OntDevice
	if err := s.db.WithContext(ctx).First(&ont, "serial_number = ?", serial).Error; err != nil {
		return nil, err
	}
	return &ont, nil
}

// OntByID fetches one device row by primary key.
func (s *Store) OntByID(ctx context.Context, id uuid.UUID) (*model.OntDevice, error) {
	var ont model.OntDevice
	if err := s.db.WithContext(ctx).First(&ont, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ont, nil
}

// Onts lists a tenant's registered devices, newest first.
func (s *Store) Onts(ctx context.Context, tenantID uuid.UUID) ([]model.OntDevice, error) {
	var onts []model.OntDevice
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Find(&onts).Error
	return onts, err
}

// OntsOnOlt lists the ONTs the poller should probe on one OLT.
func (s *Store) OntsOnOlt(ctx context.Context, oltID uuid.UUID) ([]model.OntDevice, error) {
	var onts []model.OntDevice
	err := s.db.WithContext(ctx).
		Where("olt_id = ? AND pon_port <> ''", oltID).
		Find(&onts).Error
	return onts, err
}

// SetOntSignal records a poller observation for one device.
func (s *Store) SetOntSignal(ctx context.Context, id uuid.UUID, status string, rxDBm *float64, seen time.Time) error {
	// A nil reading clears the column so an offline device never shows a
	// stale power level.
	updates := map[string]any{"status": status, "rx_power_dbm": rxDBm}
	if status == model.OntOnline {
		updates["last_inform"] = seen
	}
	return s.db.WithContext(ctx).
		Model(&model.OntDevice{}).
		Where("id = ?", id).
		Updates(updates).Error
}

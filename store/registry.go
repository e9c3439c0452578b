package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicex-id/netops/model"
)

// ErrNoDevice means no router/OLT is configured for the requested scope.
var ErrNoDevice = errors.New("no device configured")

// RouterForCustomer resolves the router serving a customer. An explicit
// Customer.RouterID wins; otherwise the tenant's first configured router is
// used and the second return value reports that the fallback happened, so
// workflows can flag the inference in their outcome strings.
func (s *Store) RouterForCustomer(ctx context.Context, c *model.Customer) (*model.Router, bool, error) {
	if c.RouterID != nil {
		r, err := s.RouterByID(ctx, *c.RouterID)
		return r, false, err
	}
	var r model.Router
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", c.TenantID).
		Order("created_at asc").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, true, fmt.Errorf("tenant %s: %w", c.TenantID, ErrNoDevice)
	}
	if err != nil {
		return nil, true, err
	}
	return &r, true, nil
}

// RouterByID fetches one router.
func (s *Store) RouterByID(ctx context.Context, id uuid.UUID) (*model.Router, error) {
	var r model.Router
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("router %s: %w", id, ErrNoDevice)
		}
		return nil, err
	}
	return &r, nil
}

// Routers lists a tenant's routers.
func (s *Store) Routers(ctx context.Context, tenantID uuid.UUID) ([]model.Router, error) {
	var rs []model.Router
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at asc").
		Find(&rs).Error
	return rs, err
}

// OltByID fetches one OLT.
func (s *Store) OltByID(ctx context.Context, id uuid.UUID) (*model.OltDevice, error) {
	var o model.OltDevice
	if err := s.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("olt %s: %w", id, ErrNoDevice)
		}
		return nil, err
	}
	return &o, nil
}

// OltForOnt resolves the OLT serving an ONT: the ONT's recorded OLT when
// known, else the tenant's first OLT.
func (s *Store) OltForOnt(ctx context.Context, ont *model.OntDevice) (*model.OltDevice, error) {
	if ont.OltID != nil {
		return s.OltByID(ctx, *ont.OltID)
	}
	var o model.OltDevice
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", ont.TenantID).
		Order("created_at asc").
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("tenant %s: %w", ont.TenantID, ErrNoDevice)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// PollableOlts lists OLTs with SNMP monitoring enabled.
func (s *Store) PollableOlts(ctx context.Context) ([]model.OltDevice, error) {
	var olts []model.OltDevice
	err := s.db.WithContext(ctx).
		Where("snmp_community <> ''").
		Find(&olts).Error
	return olts, err
}

// CustomerByID fetches one customer with plan preloaded.
func (s *Store) CustomerByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := s.db.WithContext(ctx).
		Preload("Plan").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CustomerByPhone looks a customer up by phone digits (chat-bot identity).
func (s *Store) CustomerByPhone(ctx context.Context, digits string) (*model.Customer, error) {
	var c model.Customer
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("phone LIKE ?", "%"+digits+"%").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TenantByID fetches one tenant.
func (s *Store) TenantByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	var t model.Tenant
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

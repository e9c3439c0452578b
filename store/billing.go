package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/types"
)

// OverdueInvoices returns all UNPAID invoices past their due date, with the
// owning customer, plan and tenant resolved.
func (s *Store) OverdueInvoices(ctx context.Context, now time.Time) ([]model.Invoice, error) {
	var invs []model.Invoice
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Customer.Plan").
		Preload("Customer.Tenant").
		Where("status = ? AND due_date < ?", model.InvoiceUnpaid, now).
		Find(&invs).Error
	return invs, err
}

// MatchInvoiceByAmount finds the single UNPAID invoice with exactly this
// amount. Billing makes amounts unique within the UNPAID set, so the amount
// alone identifies the payer; zero or multiple candidates is ErrAmbiguous
// and must not auto-settle.
func (s *Store) MatchInvoiceByAmount(ctx context.Context, amount float64) (*model.Invoice, error) {
	var invs []model.Invoice
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Customer.Plan").
		Preload("Customer.Tenant").
		Where("status = ? AND amount = ?", model.InvoiceUnpaid, amount).
		Limit(2).
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	if len(invs) != 1 {
		return nil, fmt.Errorf("%w: %d unpaid invoices with amount %.2f", types.ErrAmbiguous, len(invs), amount)
	}
	return &invs[0], nil
}

// MarkInvoicePaid transitions one invoice to PAID and stamps the time.
func (s *Store) MarkInvoicePaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  model.InvoicePaid,
			"paid_at": paidAt,
		}).Error
}

// UnpaidInvoices lists a customer's UNPAID invoices, earliest due first.
func (s *Store) UnpaidInvoices(ctx context.Context, customerID uuid.UUID) ([]model.Invoice, error) {
	var invs []model.Invoice
	err := s.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, model.InvoiceUnpaid).
		Order("due_date asc").
		Find(&invs).Error
	return invs, err
}

// SetCustomerStatus writes the authoritative access state. Single-row
// update; the store's own atomicity is the only locking the engine needs.
func (s *Store) SetCustomerStatus(ctx context.Context, customerID uuid.UUID, status string) error {
	return s.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", customerID).
		Update("status", status).Error
}

// ActiveCustomersOnPlan lists ACTIVE subscribers of one plan with their
// tenant resolved (for router fallback).
func (s *Store) ActiveCustomersOnPlan(ctx context.Context, planID uuid.UUID) ([]model.Customer, error) {
	var cs []model.Customer
	err := s.db.WithContext(ctx).
		Preload("Tenant").
		Where("plan_id = ? AND status = ?", planID, model.CustomerActive).
		Find(&cs).Error
	return cs, err
}

// UpdatePlanBandwidth writes the plan's new rate so new subscribers inherit
// it even when live sync to existing subscribers partially fails.
func (s *Store) UpdatePlanBandwidth(ctx context.Context, planID uuid.UUID, bandwidth string) error {
	return s.db.WithContext(ctx).
		Model(&model.ServicePlan{}).
		Where("id = ?", planID).
		Update("bandwidth", bandwidth).Error
}

// CreateTicket files a support ticket (chat-bot fault reports).
func (s *Store) CreateTicket(ctx context.Context, t *model.Ticket) error {
	return s.db.WithContext(ctx).Create(t).Error
}

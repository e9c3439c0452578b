// Package store wraps the shared relational store. The engine reads and
// writes the billing entities but does not own their schema; AutoMigrate
// exists for standalone/dev deployments only.
package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/servicex-id/netops/model"
)

// Store is the relational access layer used by workflows and webhooks.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and returns a store.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection (tests use in-memory sqlite).
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers that need raw queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates the engine's tables. Production deployments run the
// administrative application's migrations instead.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&model.Tenant{},
		&model.Router{},
		&model.OltDevice{},
		&model.ServicePlan{},
		&model.Customer{},
		&model.Invoice{},
		&model.OntDevice{},
		&model.Ticket{},
	)
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-registration/internal/models"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when no registration matches the lookup key.
var ErrNotFound = errors.New("registration not found")

type DB struct {
	Bun *bun.DB
}

// CreateRegistration → insert a new pending registration
func (d *DB) CreateRegistration(reg models.Registration) error {
	_, err := d.Bun.NewInsert().Model(&reg).Exec(context.Background())
	return err
}

// GetByReference → fetch one registration by its reference ID
func (d *DB) GetByReference(referenceID string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("reference_id = ?", referenceID).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetByPaymentID → fetch one registration by the gateway payment ID
func (d *DB) GetByPaymentID(paymentID string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("gateway_payment_id = ?", paymentID).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// UpdateRegistration → update mutable fields. Re-applying the confirmed
// status is a safe no-op write, which keeps webhook redeliveries idempotent.
func (d *DB) UpdateRegistration(reg models.Registration) error {
	reg.UpdatedAt = time.Now()
	_, err := d.Bun.NewUpdate().
		Model(&reg).
		Column("first_name", "last_name", "email", "identification_type",
			"identification_number", "amount", "status", "gateway_payment_id",
			"updated_at").
		Where("reference_id = ?", reg.ReferenceID).
		Exec(context.Background())
	return err
}

// ListRegistrations → all registrations, newest first
func (d *DB) ListRegistrations() ([]models.Registration, error) {
	var regs []models.Registration
	err := d.Bun.NewSelect().
		Model(&regs).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return regs, nil
}

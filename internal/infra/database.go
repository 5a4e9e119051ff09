package infra

import (
	"fmt"

	"cargoport/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies idempotent SQL patches that GORM
// cannot express (extensions, sequences).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates the schema. Also used by integration tests against a
// throwaway database.
func RunMigrations(db *gorm.DB) error {
	// gen_random_uuid() defaults need pgcrypto on PostgreSQL < 13.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Client{},
		&model.Warehouse{},
		&model.Line{},
		&model.Carrier{},
		&model.Company{},
		&model.VehicleTypeCoefficient{},
		&model.Container{},
		&model.Vehicle{},
		&model.CatalogEntry{},
		&model.ServiceAssignment{},
		&model.DeletedServiceMarker{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Payment{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	// Invoice numbering must stay atomic under concurrent issuance.
	if err := db.Exec(`CREATE SEQUENCE IF NOT EXISTS invoice_number_seq START 1`).Error; err != nil {
		return fmt.Errorf("invoice number sequence: %w", err)
	}
	return nil
}

package database

import (
	"fmt"
	"os"

	"github.com/haulbridge/freightex-api/internal/database/migrations"
	"github.com/haulbridge/freightex-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase() (*gorm.DB, error) {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "freightex.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate schemas
	err = db.AutoMigrate(
		&types.Shipper{},
		&types.Carrier{},
		&types.FinancialAccount{},
		&types.CarrierFinancialAccount{},
		&types.Exchange{},
		&types.Listing{},
		&types.Bid{},
		&types.Shipment{},
		&types.Contract{},
		&types.ContractInvoice{},
		&types.InterimInvoice{},
		&types.ShipmentInvoice{},
		&types.LedgerRecord{},
		&types.Vehicle{},
		&types.Driver{},
	)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.BackfillBoardListings(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := migrations.BackfillSavingsMetrics(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

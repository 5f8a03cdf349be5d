package types

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shipment statuses.
const (
	ShipmentStatusConfirmed = "CONFIRMED"
	ShipmentStatusCompleted = "COMPLETED"
	ShipmentStatusCancelled = "CANCELLED"
)

// Shipment is a confirmed physical movement. Spot acceptances produce exactly
// one; lane acceptances produce one per recurrence date under a contract.
type Shipment struct {
	gorm.Model `json:"-"`
	ShipmentID string `gorm:"uniqueIndex" json:"shipment_id"`
	ExchangeID string `gorm:"index" json:"exchange_id"`
	ContractID string `gorm:"index" json:"contract_id,omitempty"`
	ShipperID  string `json:"shipper_id"`
	CarrierID  string `json:"carrier_id"`
	PickupDate time.Time       `json:"pickup_date"`
	Price      decimal.Decimal `gorm:"type:decimal(20,2)" json:"price"`
	Status     string          `json:"status"`
	// Shipper-side leaf invoice covering this movement.
	InvoiceID string    `json:"invoice_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contract is the binding lane commitment created when a lane exchange
// settles. TotalShipments is fixed from the recurrence schedule at acceptance.
type Contract struct {
	gorm.Model      `json:"-"`
	ContractID      string          `gorm:"uniqueIndex" json:"contract_id"`
	ExchangeID      string          `gorm:"uniqueIndex" json:"exchange_id"`
	ShipperID       string          `json:"shipper_id"`
	CarrierID       string          `json:"carrier_id"`
	TotalShipments  int             `json:"total_shipments"`
	RatePerShipment decimal.Decimal `gorm:"type:decimal(20,2)" json:"rate_per_shipment"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_amount"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LedgerRecord is the settlement record for one shipment or one contract.
// Invariant: CarrierPayable + PlatformCommission == BookingAmount; the
// transaction fee is taken out of the commission, never out of the payable.
type LedgerRecord struct {
	gorm.Model `json:"-"`
	LedgerID   string `gorm:"uniqueIndex" json:"ledger_id"`
	ExchangeID string `gorm:"index" json:"exchange_id"`
	ShipmentID string `json:"shipment_id,omitempty"`
	ContractID string `json:"contract_id,omitempty"`

	BookingAmount      decimal.Decimal `gorm:"type:decimal(20,2)" json:"booking_amount"`
	PlatformCommission decimal.Decimal `gorm:"type:decimal(20,2)" json:"platform_commission"`
	TransactionFee     decimal.Decimal `gorm:"type:decimal(20,2)" json:"transaction_fee"`
	NetEarnings        decimal.Decimal `gorm:"type:decimal(20,2)" json:"net_earnings"`
	CarrierPayable     decimal.Decimal `gorm:"type:decimal(20,2)" json:"carrier_payable"`

	ShipperInvoiceID string `json:"shipper_invoice_id"`
	CarrierInvoiceID string `json:"carrier_invoice_id"`

	// Identity snapshot taken at assignment time; later fleet changes do not
	// rewrite history.
	CarrierID string    `json:"carrier_id"`
	VehicleID string    `json:"vehicle_id"`
	DriverID  string    `json:"driver_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vehicle and Driver are fleet records consumed read-only by settlement to
// snapshot identity onto the ledger. Matching lives outside this service.
type Vehicle struct {
	gorm.Model `json:"-"`
	VehicleID  string `gorm:"uniqueIndex" json:"vehicle_id"`
	CarrierID  string `gorm:"index" json:"carrier_id"`
	Plate      string `json:"plate"`
	Active     bool   `json:"active"`
}

type Driver struct {
	gorm.Model `json:"-"`
	DriverID   string `gorm:"uniqueIndex" json:"driver_id"`
	CarrierID  string `gorm:"index" json:"carrier_id"`
	Name       string `json:"name"`
	Active     bool   `json:"active"`
}

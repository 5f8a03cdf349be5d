package types

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice statuses.
const (
	InvoiceStatusPending   = "PENDING"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice sides. Every cascade exists twice: shipper-denominated in the baked
// booking amount and carrier-denominated in the carrier payable.
const (
	InvoiceSideShipper = "SHIPPER"
	InvoiceSideCarrier = "CARRIER"
)

// ContractInvoice covers the full commitment of a lane contract.
type ContractInvoice struct {
	gorm.Model  `json:"-"`
	InvoiceID   string          `gorm:"uniqueIndex" json:"invoice_id"`
	ContractID  string          `gorm:"index" json:"contract_id"`
	Side        string          `json:"side"` // SHIPPER or CARRIER
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_amount"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(20,2)" json:"paid_amount"`
	Outstanding decimal.Decimal `gorm:"type:decimal(20,2)" json:"outstanding"`
	DueDate     time.Time       `json:"due_date"`
	PaymentTerm string          `json:"payment_term"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InterimInvoice is one installment of a contract invoice. The amounts of all
// interim invoices under one contract invoice sum exactly to its total.
type InterimInvoice struct {
	gorm.Model        `json:"-"`
	InvoiceID         string          `gorm:"uniqueIndex" json:"invoice_id"`
	ContractInvoiceID string          `gorm:"index" json:"contract_invoice_id"`
	Side              string          `json:"side"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,2)" json:"amount"`
	PaidAmount        decimal.Decimal `gorm:"type:decimal(20,2)" json:"paid_amount"`
	Outstanding       decimal.Decimal `gorm:"type:decimal(20,2)" json:"outstanding"`
	DueDate           time.Time       `json:"due_date"`
	Status            string          `json:"status"`
	// Set once by the billing processor when the installment's cycle first
	// becomes active and it is folded into the account statement.
	BilledAt  *time.Time `json:"billed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ShipmentInvoice is the leaf of the cascade, one per physical movement.
// Under a recurring contract it references the installment that covers its
// pickup date; spot movements stand alone with an empty InterimInvoiceID.
type ShipmentInvoice struct {
	gorm.Model       `json:"-"`
	InvoiceID        string          `gorm:"uniqueIndex" json:"invoice_id"`
	ShipmentID       string          `gorm:"index" json:"shipment_id"`
	InterimInvoiceID string          `gorm:"index" json:"interim_invoice_id,omitempty"`
	Side             string          `json:"side"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,2)" json:"amount"`
	PaidAmount       decimal.Decimal `gorm:"type:decimal(20,2)" json:"paid_amount"`
	Outstanding      decimal.Decimal `gorm:"type:decimal(20,2)" json:"outstanding"`
	DueDate          time.Time       `json:"due_date"`
	PaymentTerm      string          `json:"payment_term"`
	Status           string          `json:"status"`
	BilledAt         *time.Time      `json:"billed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/haulbridge/freightex-api/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Engine builds invoice cascades. It is constructed over whatever *gorm.DB
// handle the caller is working with, typically the settlement transaction, so
// every write it makes commits or rolls back with the caller.
type Engine struct {
	db *gorm.DB
}

// NewEngine creates a billing engine bound to the given handle.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// GenerateContractInvoice creates the top-level invoice covering a contract's
// full commitment on one side of the booking. Its due date is the final
// billing date of the contract window.
func (e *Engine) GenerateContractInvoice(contract *types.Contract, side string, term string, total decimal.Decimal) (*types.ContractInvoice, error) {
	dates, err := BillingDates(contract.StartDate, contract.EndDate, term)
	if err != nil {
		return nil, err
	}

	invoice := &types.ContractInvoice{
		InvoiceID:   "INV_" + uuid.New().String(),
		ContractID:  contract.ContractID,
		Side:        side,
		TotalAmount: total,
		PaidAmount:  decimal.Zero,
		Outstanding: total,
		DueDate:     dates[len(dates)-1],
		PaymentTerm: term,
		Status:      types.InvoiceStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := e.db.Create(invoice).Error; err != nil {
		return nil, fmt.Errorf("failed to create contract invoice: %w", err)
	}
	return invoice, nil
}

// GenerateInterimInvoices creates one installment per billing date under the
// given contract invoice. The total is split evenly at two decimal places;
// the final installment absorbs the rounding remainder so the installments
// always sum exactly to the contract invoice total.
func (e *Engine) GenerateInterimInvoices(contractInvoice *types.ContractInvoice, dates []time.Time) ([]types.InterimInvoice, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: empty billing schedule", types.ErrInvalidState)
	}

	n := decimal.NewFromInt(int64(len(dates)))
	per := contractInvoice.TotalAmount.DivRound(n, 2)
	last := contractInvoice.TotalAmount.Sub(per.Mul(n.Sub(decimal.NewFromInt(1))))

	invoices := make([]types.InterimInvoice, 0, len(dates))
	for i, due := range dates {
		amount := per
		if i == len(dates)-1 {
			amount = last
		}
		invoices = append(invoices, types.InterimInvoice{
			InvoiceID:         "INV_" + uuid.New().String(),
			ContractInvoiceID: contractInvoice.InvoiceID,
			Side:              contractInvoice.Side,
			Amount:            amount,
			PaidAmount:        decimal.Zero,
			Outstanding:       amount,
			DueDate:           due,
			Status:            types.InvoiceStatusPending,
			CreatedAt:         time.Now(),
			UpdatedAt:         time.Now(),
		})
	}

	if err := e.db.Create(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to create interim invoices: %w", err)
	}
	return invoices, nil
}

// GenerateShipmentInvoice creates the leaf invoice for one physical movement.
// Under a recurring contract the movement attaches to the first installment
// whose due date is on or after the pickup date; a movement past the last
// installment cannot be billed. Spot movements stand alone and fall due on
// the next applicable date of the account's term.
func (e *Engine) GenerateShipmentInvoice(shipment *types.Shipment, side string, amount decimal.Decimal, term string, installments []types.InterimInvoice) (*types.ShipmentInvoice, error) {
	invoice := &types.ShipmentInvoice{
		InvoiceID:   "INV_" + uuid.New().String(),
		ShipmentID:  shipment.ShipmentID,
		Side:        side,
		Amount:      amount,
		PaidAmount:  decimal.Zero,
		Outstanding: amount,
		PaymentTerm: term,
		Status:      types.InvoiceStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if len(installments) > 0 {
		parent := firstCovering(installments, shipment.PickupDate)
		if parent == nil {
			return nil, fmt.Errorf("%w: pickup %s past final installment",
				types.ErrNoApplicableInstallment, shipment.PickupDate.Format("2006-01-02"))
		}
		invoice.InterimInvoiceID = parent.InvoiceID
		invoice.DueDate = parent.DueDate
	} else {
		due, err := NextDueDate(shipment.PickupDate, term)
		if err != nil {
			return nil, err
		}
		invoice.DueDate = due
	}

	if err := e.db.Create(invoice).Error; err != nil {
		return nil, fmt.Errorf("failed to create shipment invoice: %w", err)
	}
	return invoice, nil
}

// ContractCascade runs the full three-level cascade for one side of a lane
// settlement: contract invoice, interim installments, and one leaf invoice
// per sub-shipment. Shipment invoice amounts use the contract's per-shipment
// rate on the shipper side and a payable-denominated rate on the carrier
// side; the caller passes the side's total.
func (e *Engine) ContractCascade(contract *types.Contract, shipments []types.Shipment, side string, term string, total decimal.Decimal) (*types.ContractInvoice, []types.InterimInvoice, error) {
	logger := log.With().
		Str("contract_id", contract.ContractID).
		Str("side", side).
		Str("payment_term", term).
		Str("service", "billing").
		Logger()

	contractInvoice, err := e.GenerateContractInvoice(contract, side, term, total)
	if err != nil {
		return nil, nil, err
	}

	dates, err := BillingDates(contract.StartDate, contract.EndDate, term)
	if err != nil {
		return nil, nil, err
	}

	installments, err := e.GenerateInterimInvoices(contractInvoice, dates)
	if err != nil {
		return nil, nil, err
	}

	perShipment := perShipmentAmount(total, len(shipments))
	for i := range shipments {
		leaf, err := e.GenerateShipmentInvoice(&shipments[i], side, perShipment, term, installments)
		if err != nil {
			return nil, nil, err
		}
		if side == types.InvoiceSideShipper {
			shipments[i].InvoiceID = leaf.InvoiceID
			if err := e.db.Save(&shipments[i]).Error; err != nil {
				return nil, nil, fmt.Errorf("failed to link shipment invoice: %w", err)
			}
		}
	}

	logger.Info().
		Str("contract_invoice_id", contractInvoice.InvoiceID).
		Int("installments", len(installments)).
		Int("shipments", len(shipments)).
		Msg("generated contract invoice cascade")

	return contractInvoice, installments, nil
}

// firstCovering returns the first installment whose due date is on or after
// the pickup date. Installments arrive ordered by due date.
func firstCovering(installments []types.InterimInvoice, pickup time.Time) *types.InterimInvoice {
	day := dateOnly(pickup)
	for i := range installments {
		if !installments[i].DueDate.Before(day) {
			return &installments[i]
		}
	}
	return nil
}

func perShipmentAmount(total decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return total
	}
	return total.DivRound(decimal.NewFromInt(int64(count)), 2)
}

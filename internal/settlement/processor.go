package settlement

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haulbridge/freightex-api/internal/billing"
	"github.com/haulbridge/freightex-api/internal/types"
	"github.com/haulbridge/freightex-api/pkg/response"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Processor is the background billing loop. Each tick it folds pending
// shipper-side invoices whose due date sits inside the currently running
// billing cycle into the account statement, stamping each invoice exactly
// once.
type Processor struct {
	db           *Database
	processDelay time.Duration // Time between billing passes
}

func NewProcessor(db *Database) *Processor {
	return &Processor{
		db:           db,
		processDelay: 15 * time.Minute,
	}
}

// Start begins the billing processing loop.
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "billing_processor").Logger()
	logger.Info().Msg("starting billing processor")

	ticker := time.NewTicker(p.processDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down billing processor")
			return
		case <-ticker.C:
			if err := p.processDueInvoices(time.Now()); err != nil {
				logger.Error().Err(err).Msg("failed to process due invoices")
			}
		}
	}
}

// processDueInvoices runs one billing pass as of the given time.
func (p *Processor) processDueInvoices(now time.Time) error {
	logger := log.With().Str("component", "billing_processor").Logger()

	statement := decimal.Zero
	folded := 0

	var installments []types.InterimInvoice
	err := p.db.db.Where("status = ? AND side = ? AND billed_at IS NULL",
		types.InvoiceStatusPending, types.InvoiceSideShipper).Find(&installments).Error
	if err != nil {
		return err
	}
	for i := range installments {
		inv := &installments[i]
		var parent types.ContractInvoice
		if err := p.db.db.Where("invoice_id = ?", inv.ContractInvoiceID).First(&parent).Error; err != nil {
			logger.Error().Err(err).
				Str("invoice_id", inv.InvoiceID).
				Msg("installment has no parent contract invoice")
			continue
		}
		active, err := billing.IsBillingCycleActive(inv.DueDate, parent.PaymentTerm, now)
		if err != nil || !active {
			continue
		}
		if err := p.stampInstallment(inv, now); err != nil {
			logger.Error().Err(err).Str("invoice_id", inv.InvoiceID).Msg("failed to stamp installment")
			continue
		}
		statement = statement.Add(inv.Amount)
		folded++
	}

	var leaves []types.ShipmentInvoice
	err = p.db.db.Where("status = ? AND side = ? AND interim_invoice_id = ? AND billed_at IS NULL",
		types.InvoiceStatusPending, types.InvoiceSideShipper, "").Find(&leaves).Error
	if err != nil {
		return err
	}
	for i := range leaves {
		inv := &leaves[i]
		active, err := billing.IsBillingCycleActive(inv.DueDate, inv.PaymentTerm, now)
		if err != nil || !active {
			continue
		}
		if err := p.stampLeaf(inv, now); err != nil {
			logger.Error().Err(err).Str("invoice_id", inv.InvoiceID).Msg("failed to stamp shipment invoice")
			continue
		}
		statement = statement.Add(inv.Amount)
		folded++
	}

	if folded > 0 {
		logger.Info().
			Int("invoices_folded", folded).
			Str("statement_total", statement.String()).
			Msg("billing pass completed")
	}
	return nil
}

// RunPassHandler triggers one immediate billing pass outside the ticker
// schedule. Internal-only route.
func (p *Processor) RunPassHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.processDueInvoices(time.Now()); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"status": "completed"})
	}
}

func (p *Processor) stampInstallment(inv *types.InterimInvoice, now time.Time) error {
	inv.BilledAt = &now
	inv.UpdatedAt = now
	return p.db.db.Save(inv).Error
}

func (p *Processor) stampLeaf(inv *types.ShipmentInvoice, now time.Time) error {
	inv.BilledAt = &now
	inv.UpdatedAt = now
	return p.db.db.Save(inv).Error
}

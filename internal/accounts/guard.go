// Package accounts guards the shipper and carrier financial accounts: every
// balance mutation in the marketplace funnels through it.
package accounts

import (
	"errors"
	"fmt"

	"github.com/haulbridge/freightex-api/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Guard validates and mutates account balances under prepay/postpay rules.
// Bind it to the enclosing transaction so reservations and credits only
// become visible when the whole settlement commits.
type Guard struct {
	db *gorm.DB
}

// NewGuard creates a guard bound to the given handle.
func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// GetShipperAccount fetches a shipper's financial account.
func (g *Guard) GetShipperAccount(shipperID string) (*types.FinancialAccount, error) {
	var account types.FinancialAccount
	if err := g.db.Where("shipper_id = ?", shipperID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: financial account for shipper %s", types.ErrNotFound, shipperID)
		}
		return nil, err
	}
	return &account, nil
}

// GetCarrierAccount fetches a carrier's financial account.
func (g *Guard) GetCarrierAccount(carrierID string) (*types.CarrierFinancialAccount, error) {
	var account types.CarrierFinancialAccount
	if err := g.db.Where("carrier_id = ?", carrierID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: financial account for carrier %s", types.ErrNotFound, carrierID)
		}
		return nil, err
	}
	return &account, nil
}

// Reserve commits an amount against a shipper account. Prepay accounts must
// hold at least the amount in credit and are debited; postpay accounts must
// stay within their spending limit and have the amount added to outstanding.
func (g *Guard) Reserve(account *types.FinancialAccount, amount decimal.Decimal) error {
	if !account.Verified || !account.Active {
		return fmt.Errorf("%w: shipper account %s", types.ErrIneligibleAccount, account.AccountID)
	}

	switch account.PaymentMode {
	case types.PaymentModePrepay:
		if account.CreditBalance.LessThan(amount) {
			return fmt.Errorf("%w: balance %s, required %s",
				types.ErrInsufficientFunds, account.CreditBalance, amount)
		}
		account.CreditBalance = account.CreditBalance.Sub(amount)
	case types.PaymentModePostpay:
		if account.OutstandingBalance.Add(amount).GreaterThan(account.SpendingLimit) {
			return fmt.Errorf("%w: outstanding %s + %s exceeds limit %s",
				types.ErrLimitExceeded, account.OutstandingBalance, amount, account.SpendingLimit)
		}
		account.OutstandingBalance = account.OutstandingBalance.Add(amount)
	default:
		return fmt.Errorf("%w: unknown payment mode %q", types.ErrInvalidState, account.PaymentMode)
	}

	if err := g.db.Save(account).Error; err != nil {
		return fmt.Errorf("failed to persist reservation: %w", err)
	}

	log.Debug().
		Str("account_id", account.AccountID).
		Str("payment_mode", account.PaymentMode).
		Str("amount", amount.String()).
		Str("service", "accounts").
		Msg("reserved funds on shipper account")
	return nil
}

// CreditCarrier adds an amount to a carrier's holding balance.
// QUESTION: the holding balance grows without any ceiling or approval step.
// Confirm with product whether a cap was intended before bounding this.
func (g *Guard) CreditCarrier(account *types.CarrierFinancialAccount, amount decimal.Decimal) error {
	if !account.Verified || !account.Active {
		return fmt.Errorf("%w: carrier account %s", types.ErrIneligibleAccount, account.AccountID)
	}

	account.HoldingBalance = account.HoldingBalance.Add(amount)
	if err := g.db.Save(account).Error; err != nil {
		return fmt.Errorf("failed to persist carrier credit: %w", err)
	}

	log.Debug().
		Str("account_id", account.AccountID).
		Str("amount", amount.String()).
		Str("service", "accounts").
		Msg("credited carrier holding balance")
	return nil
}

package settlement

import (
	"time"

	"github.com/haulbridge/freightex-api/internal/types"
	"github.com/shopspring/decimal"
)

// AcceptResult is the response for a successful bid acceptance: the booking
// as materialized, the shipper-side invoice linkage, and the ledger record.
type AcceptResult struct {
	Exchange  *types.Exchange     `json:"exchange"`
	Bid       *types.Bid          `json:"bid"`
	Contract  *types.Contract     `json:"contract,omitempty"`
	Shipments []types.Shipment    `json:"shipments"`
	Ledger    *types.LedgerRecord `json:"ledger"`

	BookingAmount      decimal.Decimal `json:"booking_amount"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	CarrierPayable     decimal.Decimal `json:"carrier_payable"`
	Savings            decimal.Decimal `json:"savings"`
	Timestamp          time.Time       `json:"timestamp"`
}

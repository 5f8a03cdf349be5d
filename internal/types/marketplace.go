package types

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Exchange lifecycle statuses. CLOSED and CANCELLED are terminal; the mirrored
// board listing always carries the same status as its exchange.
const (
	ExchangeStatusOpen      = "OPEN"
	ExchangeStatusClosed    = "CLOSED"
	ExchangeStatusCancelled = "CANCELLED"
)

// Exchange types. Spot exchanges settle into a single shipment; lane exchanges
// settle into a contract with a recurrence-derived set of sub-shipments.
const (
	ExchangeTypeSpot = "SPOT"
	ExchangeTypeLane = "LANE"
)

// Bid statuses.
const (
	BidStatusPlaced    = "PLACED"
	BidStatusOutbidded = "OUTBIDDED"
	BidStatusAccepted  = "ACCEPTED"
)

// Exchange is an auction-style freight listing owned by a shipper. Carriers
// compete downward on price (reverse auction); the leading bid is the lowest
// raw amount among currently placed bids.
type Exchange struct {
	gorm.Model           `json:"-"`
	ExchangeID           string          `gorm:"uniqueIndex" json:"exchange_id"`
	ShipperID            string          `json:"shipper_id"`
	ExchangeType         string          `json:"exchange_type"` // SPOT or LANE
	Origin               string          `json:"origin"`
	Destination          string          `json:"destination"`
	CargoType            string          `json:"cargo_type"`
	EquipmentType        string          `json:"equipment_type"`
	MinInsuranceCoverage decimal.Decimal `gorm:"type:decimal(20,2)" json:"min_insurance_coverage"`
	// Distance and transit time are resolved upstream by the geocoding
	// collaborator and stored here as plain inputs.
	DistanceKM       float64 `json:"distance_km"`
	TransitTimeHours float64 `json:"transit_time_hours"`

	OfferPrice       decimal.Decimal `gorm:"type:decimal(20,2)" json:"offer_price"`
	BakedOfferPrice  decimal.Decimal `gorm:"type:decimal(20,2)" json:"baked_offer_price"`
	LeadingBidID     string          `json:"leading_bid_id"`
	LeadingBidAmount decimal.Decimal `gorm:"type:decimal(20,2)" json:"leading_bid_amount"`
	BidsSubmitted    int             `json:"bids_submitted"`
	Status           string          `json:"status"` // OPEN, CLOSED, CANCELLED
	Savings          decimal.Decimal `gorm:"type:decimal(20,2)" json:"savings"`

	// Recurrence policy, set only for LANE exchanges.
	Frequency            string    `json:"frequency,omitempty"` // DAILY or WEEKLY
	AllowedWeekdays      string    `json:"allowed_weekdays,omitempty"`
	StartDate            time.Time `json:"start_date,omitempty"`
	EndDate              time.Time `json:"end_date,omitempty"`
	ShipmentsPerInterval int       `json:"shipments_per_interval,omitempty"`
	SkipWeekends         bool      `json:"skip_weekends,omitempty"`
	TotalShipments       int       `json:"total_shipments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bid is a carrier's competing offer on an exchange. Amount is the carrier's
// raw ask; BakedAmount carries the platform markup and is what the shipper is
// charged. A bid is immutable once accepted.
type Bid struct {
	gorm.Model  `json:"-"`
	BidID       string          `gorm:"uniqueIndex" json:"bid_id"`
	ExchangeID  string          `gorm:"index" json:"exchange_id"`
	CarrierID   string          `json:"carrier_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2)" json:"amount"`
	BakedAmount decimal.Decimal `gorm:"type:decimal(20,2)" json:"baked_amount"`
	Notes       string          `json:"notes"`
	Status      string          `json:"status"` // PLACED, OUTBIDDED, ACCEPTED
	SubmittedAt time.Time       `json:"submitted_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Listing mirrors an exchange on the public board. Its status is kept in
// lock-step with the exchange's.
type Listing struct {
	gorm.Model `json:"-"`
	ListingID  string    `gorm:"uniqueIndex" json:"listing_id"`
	ExchangeID string    `gorm:"uniqueIndex" json:"exchange_id"`
	Status     string    `json:"status"` // OPEN, CLOSED, CANCELLED
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Shipper is the directory record for a freight owner.
type Shipper struct {
	gorm.Model `json:"-"`
	ShipperID  string `gorm:"uniqueIndex" json:"shipper_id"`
	Name       string `json:"name"`
	Verified   bool   `json:"verified"`
	Active     bool   `json:"active"`
}

// Carrier is the directory record for a hauler, including the insurance
// coverage figure checked against an exchange's declared minimum.
type Carrier struct {
	gorm.Model        `json:"-"`
	CarrierID         string          `gorm:"uniqueIndex" json:"carrier_id"`
	Name              string          `json:"name"`
	Verified          bool            `json:"verified"`
	Active            bool            `json:"active"`
	InsuranceCoverage decimal.Decimal `gorm:"type:decimal(20,2)" json:"insurance_coverage"`
}

// Payment modes for shipper financial accounts.
const (
	PaymentModePrepay  = "PREPAY"
	PaymentModePostpay = "POSTPAY"
)

// FinancialAccount is a shipper's platform account. Prepay accounts hold a
// credit balance debited on commitment; postpay accounts accumulate an
// outstanding balance bounded by SpendingLimit.
type FinancialAccount struct {
	gorm.Model         `json:"-"`
	AccountID          string          `gorm:"uniqueIndex" json:"account_id"`
	ShipperID          string          `gorm:"uniqueIndex" json:"shipper_id"`
	PaymentMode        string          `json:"payment_mode"` // PREPAY or POSTPAY
	PaymentTerm        string          `json:"payment_term"` // NET_7, NET_10, NET_15, EOM, PAB
	CreditBalance      decimal.Decimal `gorm:"type:decimal(20,2)" json:"credit_balance"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(20,2)" json:"outstanding_balance"`
	SpendingLimit      decimal.Decimal `gorm:"type:decimal(20,2)" json:"spending_limit"`
	Verified           bool            `json:"verified"`
	Active             bool            `json:"active"`
}

// CarrierFinancialAccount holds a carrier's payable balance. Credits are
// applied at settlement time.
type CarrierFinancialAccount struct {
	gorm.Model     `json:"-"`
	AccountID      string          `gorm:"uniqueIndex" json:"account_id"`
	CarrierID      string          `gorm:"uniqueIndex" json:"carrier_id"`
	PaymentTerm    string          `json:"payment_term"`
	HoldingBalance decimal.Decimal `gorm:"type:decimal(20,2)" json:"holding_balance"`
	Verified       bool            `json:"verified"`
	Active         bool            `json:"active"`
}

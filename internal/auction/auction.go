// Package auction implements the reverse-auction bid ledger: exchange and
// board-listing creation, bid submission, and leader ranking. Carriers compete
// downward; the lowest raw amount leads.
package auction

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/haulbridge/freightex-api/internal/auth"
	"github.com/haulbridge/freightex-api/internal/types"
	"github.com/haulbridge/freightex-api/pkg/response"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MarkupFactor is the platform's embedded markup. A carrier's raw ask is
// multiplied by it to produce the baked amount the shipper is charged.
var MarkupFactor = decimal.NewFromFloat(1.10)

// Service handles exchange creation and bid submission.
type Service struct {
	db    *Database
	locks *exchangeLocks
}

// NewService creates a new auction service with the given database connection.
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db:    NewDatabase(gormDB),
		locks: newExchangeLocks(),
	}
}

// CreateExchangeRequest carries the shipper's listing parameters. Distance
// and transit time arrive already resolved by the upstream geocoding service.
type CreateExchangeRequest struct {
	ExchangeType         string          `json:"exchange_type" binding:"required"`
	Origin               string          `json:"origin" binding:"required"`
	Destination          string          `json:"destination" binding:"required"`
	CargoType            string          `json:"cargo_type"`
	EquipmentType        string          `json:"equipment_type"`
	MinInsuranceCoverage decimal.Decimal `json:"min_insurance_coverage"`
	OfferPrice           decimal.Decimal `json:"offer_price" binding:"required"`
	DistanceKM           float64         `json:"distance_km"`
	TransitTimeHours     float64         `json:"transit_time_hours"`

	// Recurrence policy, required for LANE exchanges.
	Frequency            string    `json:"frequency"`
	AllowedWeekdays      string    `json:"allowed_weekdays"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	ShipmentsPerInterval int       `json:"shipments_per_interval"`
	SkipWeekends         bool      `json:"skip_weekends"`
	TotalShipments       int       `json:"total_shipments"`
}

// SubmitBidRequest carries a carrier's competing offer.
type SubmitBidRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Notes  string          `json:"notes"`
}

// CreateExchange opens a new auction for a verified, active shipper and
// mirrors it onto the public board.
func (s *Service) CreateExchange(shipperID string, req CreateExchangeRequest) (*types.Exchange, error) {
	shipper, err := s.db.GetShipper(shipperID)
	if err != nil {
		return nil, err
	}
	if !shipper.Verified || !shipper.Active {
		return nil, fmt.Errorf("%w: shipper %s", types.ErrIneligibleAccount, shipperID)
	}
	if req.ExchangeType != types.ExchangeTypeSpot && req.ExchangeType != types.ExchangeTypeLane {
		return nil, fmt.Errorf("%w: exchange type %q", types.ErrInvalidState, req.ExchangeType)
	}

	exchange := &types.Exchange{
		ExchangeID:           "EXC_" + uuid.New().String(),
		ShipperID:            shipperID,
		ExchangeType:         req.ExchangeType,
		Origin:               req.Origin,
		Destination:          req.Destination,
		CargoType:            req.CargoType,
		EquipmentType:        req.EquipmentType,
		MinInsuranceCoverage: req.MinInsuranceCoverage,
		DistanceKM:           req.DistanceKM,
		TransitTimeHours:     req.TransitTimeHours,
		OfferPrice:           req.OfferPrice,
		BakedOfferPrice:      req.OfferPrice.Mul(MarkupFactor).Round(2),
		LeadingBidAmount:     decimal.Zero,
		Status:               types.ExchangeStatusOpen,
		Savings:              decimal.Zero,
		Frequency:            req.Frequency,
		AllowedWeekdays:      req.AllowedWeekdays,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		ShipmentsPerInterval: req.ShipmentsPerInterval,
		SkipWeekends:         req.SkipWeekends,
		TotalShipments:       req.TotalShipments,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	listing := &types.Listing{
		ListingID:  "LST_" + uuid.New().String(),
		ExchangeID: exchange.ExchangeID,
		Status:     types.ExchangeStatusOpen,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.db.CreateExchangeWithListing(exchange, listing); err != nil {
		return nil, fmt.Errorf("failed to create exchange: %w", err)
	}

	log.Info().
		Str("exchange_id", exchange.ExchangeID).
		Str("shipper_id", shipperID).
		Str("exchange_type", exchange.ExchangeType).
		Str("offer_price", exchange.OfferPrice.String()).
		Str("service", "auction").
		Msg("opened exchange")

	return exchange, nil
}

// SubmitBid places a carrier's bid on an open exchange. The whole
// scan-then-write leader determination is serialized per exchange id, so two
// concurrent submissions can never both claim leadership.
func (s *Service) SubmitBid(exchangeID, carrierID string, req SubmitBidRequest) (*types.Bid, error) {
	logger := log.With().
		Str("exchange_id", exchangeID).
		Str("carrier_id", carrierID).
		Str("service", "auction").
		Logger()

	lock := s.locks.get(exchangeID)
	lock.Lock()
	defer lock.Unlock()

	exchange, err := s.db.GetExchange(exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.Status != types.ExchangeStatusOpen {
		return nil, fmt.Errorf("%w: exchange %s is %s", types.ErrInvalidState, exchangeID, exchange.Status)
	}

	listing, err := s.db.GetListingByExchange(exchangeID)
	if err != nil {
		return nil, err
	}
	if listing.Status != types.ExchangeStatusOpen {
		return nil, fmt.Errorf("%w: listing for exchange %s is %s", types.ErrInvalidState, exchangeID, listing.Status)
	}

	carrier, err := s.db.GetCarrier(carrierID)
	if err != nil {
		return nil, err
	}
	if !carrier.Verified || !carrier.Active {
		return nil, fmt.Errorf("%w: carrier %s", types.ErrIneligibleAccount, carrierID)
	}
	if carrier.InsuranceCoverage.LessThan(exchange.MinInsuranceCoverage) {
		return nil, fmt.Errorf("%w: insurance coverage %s below required %s",
			types.ErrIneligibleCounterparty, carrier.InsuranceCoverage, exchange.MinInsuranceCoverage)
	}

	carrierAccount, err := s.db.GetCarrierAccount(carrierID)
	if err != nil {
		return nil, err
	}
	if !carrierAccount.Verified || !carrierAccount.Active {
		return nil, fmt.Errorf("%w: carrier account %s", types.ErrIneligibleAccount, carrierAccount.AccountID)
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: bid amount must be positive", types.ErrInvalidState)
	}

	existing, err := s.db.GetBidsForExchange(exchangeID)
	if err != nil {
		return nil, err
	}

	// QUESTION: the leader comparison scans every existing bid regardless of
	// status, including ones already outbidded. Matching only the current
	// leader would suffice; confirm with product before changing.
	isNewLeader := true
	for _, other := range existing {
		if req.Amount.GreaterThanOrEqual(other.Amount) {
			isNewLeader = false
			break
		}
	}

	bid := &types.Bid{
		BidID:       "BID_" + uuid.New().String(),
		ExchangeID:  exchangeID,
		CarrierID:   carrierID,
		Amount:      req.Amount,
		BakedAmount: req.Amount.Mul(MarkupFactor).Round(2),
		Notes:       req.Notes,
		SubmittedAt: time.Now(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if isNewLeader {
		bid.Status = types.BidStatusPlaced
		exchange.LeadingBidID = bid.BidID
		exchange.LeadingBidAmount = bid.BakedAmount
	} else {
		bid.Status = types.BidStatusOutbidded
	}
	exchange.BidsSubmitted++
	exchange.UpdatedAt = time.Now()

	if err := s.db.InsertBid(bid, exchange, isNewLeader); err != nil {
		return nil, fmt.Errorf("failed to insert bid: %w", err)
	}

	logger.Info().
		Str("bid_id", bid.BidID).
		Str("amount", bid.Amount.String()).
		Str("baked_amount", bid.BakedAmount.String()).
		Bool("new_leader", isNewLeader).
		Int("bids_submitted", exchange.BidsSubmitted).
		Msg("bid submitted")

	return bid, nil
}

// GetExchange retrieves an exchange by its ID.
func (s *Service) GetExchange(exchangeID string) (*types.Exchange, error) {
	return s.db.GetExchange(exchangeID)
}

// GetBids retrieves all bids placed on an exchange.
func (s *Service) GetBids(exchangeID string) ([]types.Bid, error) {
	if _, err := s.db.GetExchange(exchangeID); err != nil {
		return nil, err
	}
	return s.db.GetBidsForExchange(exchangeID)
}

// ListOpenListings returns the public board.
func (s *Service) ListOpenListings() ([]types.Listing, error) {
	return s.db.ListOpenListings()
}

// ReleaseLock drops the per-exchange mutex once the exchange is terminal.
func (s *Service) ReleaseLock(exchangeID string) {
	s.locks.release(exchangeID)
}

// GinHandlers contains HTTP handlers for auction endpoints.
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for auction endpoints.
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// CreateExchangeHandler handles POST requests to open a new exchange.
// Requires a shipper JWT.
func (h *GinHandlers) CreateExchangeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}
		shipperID := auth.GetPartyID(claims)
		if shipperID == "" {
			response.Unauthorized(c, "Invalid party ID in token")
			return
		}

		var req CreateExchangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		exchange, err := h.service.CreateExchange(shipperID, req)
		response.Handle(c, exchange, err)
	}
}

// SubmitBidHandler handles POST requests to bid on an exchange.
// Requires a carrier JWT. URL parameter: exchange_id.
func (h *GinHandlers) SubmitBidHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}
		carrierID := auth.GetPartyID(claims)
		if carrierID == "" {
			response.Unauthorized(c, "Invalid party ID in token")
			return
		}

		var req SubmitBidRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		bid, err := h.service.SubmitBid(c.Param("exchange_id"), carrierID, req)
		response.Handle(c, bid, err)
	}
}

// GetExchangeHandler handles GET requests for a single exchange.
func (h *GinHandlers) GetExchangeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		exchange, err := h.service.GetExchange(c.Param("exchange_id"))
		response.Handle(c, exchange, err)
	}
}

// GetBidsHandler handles GET requests for an exchange's bids.
func (h *GinHandlers) GetBidsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		bids, err := h.service.GetBids(c.Param("exchange_id"))
		response.Handle(c, bids, err)
	}
}

// ListListingsHandler handles GET requests for the open board.
func (h *GinHandlers) ListListingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		listings, err := h.service.ListOpenListings()
		response.Handle(c, listings, err)
	}
}

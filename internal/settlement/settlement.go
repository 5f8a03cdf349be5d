// Package settlement turns a winning bid into a binding booking: funds
// reservation, shipment or contract materialization, the dual-sided invoice
// cascade, the ledger posting, and exchange closure, all inside a single
// transaction so a failure at any step leaves no trace.
package settlement

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/haulbridge/freightex-api/internal/accounts"
	"github.com/haulbridge/freightex-api/internal/auth"
	"github.com/haulbridge/freightex-api/internal/billing"
	"github.com/haulbridge/freightex-api/internal/fleet"
	"github.com/haulbridge/freightex-api/internal/schedule"
	"github.com/haulbridge/freightex-api/internal/types"
	"github.com/haulbridge/freightex-api/pkg/response"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LockReleaser frees the per-exchange bid-submission lock once an exchange is
// terminal and can take no further bids. The auction service implements it.
type LockReleaser interface {
	ReleaseLock(exchangeID string)
}

// Service orchestrates auction settlement.
type Service struct {
	gormDB *gorm.DB
	db     *Database
	fleet  fleet.Snapshotter
	locks  LockReleaser
}

// NewService creates a new settlement service with the given database
// connection, fleet snapshotter, and lock releaser. locks may be nil.
func NewService(gormDB *gorm.DB, snapshotter fleet.Snapshotter, locks LockReleaser) *Service {
	return &Service{
		gormDB: gormDB,
		db:     NewDatabase(gormDB),
		fleet:  snapshotter,
		locks:  locks,
	}
}

// AcceptBid settles an exchange on the given bid for the acting shipper.
// Every step from the funds reservation to the exchange closure runs in one
// transaction; nothing partial ever commits.
func (s *Service) AcceptBid(bidID, shipperID string) (*AcceptResult, error) {
	logger := log.With().
		Str("bid_id", bidID).
		Str("shipper_id", shipperID).
		Str("service", "settlement").
		Logger()

	logger.Info().Msg("starting settlement for bid")

	var result *AcceptResult
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		settled, err := s.settleInTx(tx, bidID, shipperID)
		if err != nil {
			return err
		}
		result = settled
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("settlement failed, all writes rolled back")
		return nil, err
	}

	// The exchange is CLOSED; its submission lock is no longer needed.
	if s.locks != nil {
		s.locks.ReleaseLock(result.Exchange.ExchangeID)
	}

	logger.Info().
		Str("ledger_id", result.Ledger.LedgerID).
		Str("booking_amount", result.BookingAmount.String()).
		Str("platform_commission", result.PlatformCommission.String()).
		Str("carrier_payable", result.CarrierPayable.String()).
		Int("shipments", len(result.Shipments)).
		Msg("settlement completed successfully")

	return result, nil
}

func (s *Service) settleInTx(tx *gorm.DB, bidID, shipperID string) (*AcceptResult, error) {
	db := NewDatabase(tx)
	guard := accounts.NewGuard(tx)
	engine := billing.NewEngine(tx)

	// Preconditions: ownership, party eligibility, live exchange and listing,
	// and the bid actually leading the auction.
	bid, err := db.GetBid(bidID)
	if err != nil {
		return nil, err
	}
	exchange, err := db.GetExchange(bid.ExchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.ShipperID != shipperID {
		return nil, fmt.Errorf("%w: shipper %s does not own exchange %s",
			types.ErrInvalidState, shipperID, exchange.ExchangeID)
	}
	shipper, err := db.GetShipper(shipperID)
	if err != nil {
		return nil, err
	}
	if !shipper.Verified || !shipper.Active {
		return nil, fmt.Errorf("%w: shipper %s", types.ErrIneligibleAccount, shipperID)
	}
	if exchange.Status != types.ExchangeStatusOpen {
		return nil, fmt.Errorf("%w: exchange %s is %s",
			types.ErrInvalidState, exchange.ExchangeID, exchange.Status)
	}
	listing, err := db.GetListingByExchange(exchange.ExchangeID)
	if err != nil {
		return nil, err
	}
	if listing.Status != types.ExchangeStatusOpen {
		return nil, fmt.Errorf("%w: listing for exchange %s is %s",
			types.ErrInvalidState, exchange.ExchangeID, listing.Status)
	}
	if exchange.LeadingBidID != bid.BidID {
		return nil, fmt.Errorf("%w: bid %s is not the current leader",
			types.ErrInvalidState, bid.BidID)
	}

	// Step 1: reserve the baked amount against the shipper account.
	shipperAccount, err := guard.GetShipperAccount(shipperID)
	if err != nil {
		return nil, err
	}
	if err := guard.Reserve(shipperAccount, bid.BakedAmount); err != nil {
		return nil, err
	}

	// Step 2: materialize the booking at the accepted price.
	contract, shipments, err := s.materialize(db, exchange, bid)
	if err != nil {
		return nil, err
	}

	// Step 3: shipper-side invoice cascade.
	shipperInvoiceID, err := s.shipperCascade(engine, db, contract, shipments, shipperAccount.PaymentTerm, bid.BakedAmount)
	if err != nil {
		return nil, err
	}

	// Step 4: ledger posting. The transaction fee is zero for
	// exchange-sourced bookings; it comes out of the commission when charged.
	commission := bid.BakedAmount.Sub(bid.Amount)
	ledger := &types.LedgerRecord{
		LedgerID:           "LGR_" + uuid.New().String(),
		ExchangeID:         exchange.ExchangeID,
		BookingAmount:      bid.BakedAmount,
		PlatformCommission: commission,
		TransactionFee:     decimal.Zero,
		NetEarnings:        commission,
		CarrierPayable:     bid.Amount,
		ShipperInvoiceID:   shipperInvoiceID,
		CarrierID:          bid.CarrierID,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	if contract != nil {
		ledger.ContractID = contract.ContractID
	} else {
		ledger.ShipmentID = shipments[0].ShipmentID
	}

	// Step 5: re-validate the winning carrier, credit the payable, and build
	// the carrier-side cascade.
	carrier, err := db.GetCarrier(bid.CarrierID)
	if err != nil {
		return nil, err
	}
	if !carrier.Verified || !carrier.Active {
		return nil, fmt.Errorf("%w: carrier %s", types.ErrIneligibleAccount, bid.CarrierID)
	}
	carrierAccount, err := guard.GetCarrierAccount(bid.CarrierID)
	if err != nil {
		return nil, err
	}
	if err := guard.CreditCarrier(carrierAccount, bid.Amount); err != nil {
		return nil, err
	}
	carrierInvoiceID, err := s.carrierCascade(engine, contract, shipments, carrierAccount.PaymentTerm, bid.Amount)
	if err != nil {
		return nil, err
	}
	ledger.CarrierInvoiceID = carrierInvoiceID

	snapshot, err := s.fleet.Snapshot(bid.CarrierID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot assignment: %w", err)
	}
	ledger.VehicleID = snapshot.VehicleID
	ledger.DriverID = snapshot.DriverID

	if err := db.CreateLedgerRecord(ledger); err != nil {
		return nil, fmt.Errorf("failed to create ledger record: %w", err)
	}

	// Step 6: close the exchange and listing, mark the winner, persist the
	// savings the auction produced for the shipper.
	savings := exchange.OfferPrice.Sub(bid.Amount)
	exchange.Status = types.ExchangeStatusClosed
	exchange.Savings = savings
	exchange.UpdatedAt = time.Now()
	if err := db.SaveExchange(exchange); err != nil {
		return nil, err
	}
	listing.Status = types.ExchangeStatusClosed
	listing.UpdatedAt = time.Now()
	if err := db.SaveListing(listing); err != nil {
		return nil, err
	}
	bid.Status = types.BidStatusAccepted
	bid.UpdatedAt = time.Now()
	if err := db.SaveBid(bid); err != nil {
		return nil, err
	}

	return &AcceptResult{
		Exchange:           exchange,
		Bid:                bid,
		Contract:           contract,
		Shipments:          shipments,
		Ledger:             ledger,
		BookingAmount:      bid.BakedAmount,
		PlatformCommission: commission,
		CarrierPayable:     bid.Amount,
		Savings:            savings,
		Timestamp:          time.Now(),
	}, nil
}

// materialize creates the confirmed movement(s): one shipment for a spot
// exchange, or a contract plus its recurrence-derived sub-shipments for a
// lane exchange.
func (s *Service) materialize(db *Database, exchange *types.Exchange, bid *types.Bid) (*types.Contract, []types.Shipment, error) {
	if exchange.ExchangeType == types.ExchangeTypeSpot {
		pickup := exchange.StartDate
		if pickup.IsZero() {
			pickup = time.Now()
		}
		shipments := []types.Shipment{{
			ShipmentID: "SHP_" + uuid.New().String(),
			ExchangeID: exchange.ExchangeID,
			ShipperID:  exchange.ShipperID,
			CarrierID:  bid.CarrierID,
			PickupDate: pickup,
			Price:      bid.BakedAmount,
			Status:     types.ShipmentStatusConfirmed,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}}
		// Persist and return the same slice: gorm writes the generated primary
		// key back into it, so the cascade's later save updates instead of
		// inserting a duplicate shipment_id.
		if err := db.CreateShipments(shipments); err != nil {
			return nil, nil, fmt.Errorf("failed to create shipment: %w", err)
		}
		return nil, shipments, nil
	}

	policy := schedule.PolicyFromExchange(exchange)
	dates, err := schedule.RecurrenceDates(policy)
	if err != nil {
		return nil, nil, err
	}
	if len(dates) == 0 {
		return nil, nil, fmt.Errorf("%w: recurrence policy yields no shipment dates", types.ErrInvalidState)
	}
	perInterval := policy.ShipmentsPerInterval
	if perInterval < 1 {
		perInterval = 1
	}
	committed := len(dates) * perInterval

	contract := &types.Contract{
		ContractID:      "CTR_" + uuid.New().String(),
		ExchangeID:      exchange.ExchangeID,
		ShipperID:       exchange.ShipperID,
		CarrierID:       bid.CarrierID,
		TotalShipments:  committed,
		RatePerShipment: bid.BakedAmount.DivRound(decimal.NewFromInt(int64(committed)), 2),
		TotalAmount:     bid.BakedAmount,
		StartDate:       exchange.StartDate,
		EndDate:         exchange.EndDate,
		Status:          types.ShipmentStatusConfirmed,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := db.CreateContract(contract); err != nil {
		return nil, nil, fmt.Errorf("failed to create contract: %w", err)
	}

	shipments := make([]types.Shipment, 0, committed)
	for _, date := range dates {
		for i := 0; i < perInterval; i++ {
			shipments = append(shipments, types.Shipment{
				ShipmentID: "SHP_" + uuid.New().String(),
				ExchangeID: exchange.ExchangeID,
				ContractID: contract.ContractID,
				ShipperID:  exchange.ShipperID,
				CarrierID:  bid.CarrierID,
				PickupDate: date,
				Price:      contract.RatePerShipment,
				Status:     types.ShipmentStatusConfirmed,
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			})
		}
	}
	if err := db.CreateShipments(shipments); err != nil {
		return nil, nil, fmt.Errorf("failed to create contract shipments: %w", err)
	}

	return contract, shipments, nil
}

// shipperCascade builds the shipper-denominated invoices and returns the id
// linked onto the ledger: the contract invoice for lanes, the leaf for spots.
func (s *Service) shipperCascade(engine *billing.Engine, db *Database, contract *types.Contract, shipments []types.Shipment, term string, total decimal.Decimal) (string, error) {
	if contract == nil {
		leaf, err := engine.GenerateShipmentInvoice(&shipments[0], types.InvoiceSideShipper, total, term, nil)
		if err != nil {
			return "", err
		}
		shipments[0].InvoiceID = leaf.InvoiceID
		if err := s.saveShipment(db, &shipments[0]); err != nil {
			return "", err
		}
		return leaf.InvoiceID, nil
	}

	contractInvoice, _, err := engine.ContractCascade(contract, shipments, types.InvoiceSideShipper, term, total)
	if err != nil {
		return "", err
	}
	return contractInvoice.InvoiceID, nil
}

// carrierCascade mirrors the shipper cascade denominated in the carrier
// payable.
func (s *Service) carrierCascade(engine *billing.Engine, contract *types.Contract, shipments []types.Shipment, term string, payable decimal.Decimal) (string, error) {
	if contract == nil {
		leaf, err := engine.GenerateShipmentInvoice(&shipments[0], types.InvoiceSideCarrier, payable, term, nil)
		if err != nil {
			return "", err
		}
		return leaf.InvoiceID, nil
	}
	contractInvoice, _, err := engine.ContractCascade(contract, shipments, types.InvoiceSideCarrier, term, payable)
	if err != nil {
		return "", err
	}
	return contractInvoice.InvoiceID, nil
}

func (s *Service) saveShipment(db *Database, shipment *types.Shipment) error {
	return db.db.Save(shipment).Error
}

// CancelExchange drives an open exchange to the terminal CANCELLED state and
// mirrors it onto the board listing. No money moves.
func (s *Service) CancelExchange(exchangeID, shipperID string) (*types.Exchange, error) {
	var cancelled *types.Exchange
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		db := NewDatabase(tx)
		exchange, err := db.GetExchange(exchangeID)
		if err != nil {
			return err
		}
		if exchange.ShipperID != shipperID {
			return fmt.Errorf("%w: shipper %s does not own exchange %s",
				types.ErrInvalidState, shipperID, exchangeID)
		}
		if exchange.Status != types.ExchangeStatusOpen {
			return fmt.Errorf("%w: exchange %s is %s",
				types.ErrInvalidState, exchangeID, exchange.Status)
		}
		listing, err := db.GetListingByExchange(exchangeID)
		if err != nil {
			return err
		}

		exchange.Status = types.ExchangeStatusCancelled
		exchange.UpdatedAt = time.Now()
		if err := db.SaveExchange(exchange); err != nil {
			return err
		}
		listing.Status = types.ExchangeStatusCancelled
		listing.UpdatedAt = time.Now()
		if err := db.SaveListing(listing); err != nil {
			return err
		}
		cancelled = exchange
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.locks != nil {
		s.locks.ReleaseLock(exchangeID)
	}

	log.Info().
		Str("exchange_id", exchangeID).
		Str("shipper_id", shipperID).
		Str("service", "settlement").
		Msg("exchange cancelled")

	return cancelled, nil
}

// GetLedger retrieves the ledger record for a settled exchange.
func (s *Service) GetLedger(exchangeID string) (*types.LedgerRecord, error) {
	return s.db.GetLedgerByExchange(exchangeID)
}

// GetDB exposes the database wrapper for the billing processor.
func (s *Service) GetDB() *Database {
	return s.db
}

// GinHandlers contains HTTP handlers for settlement endpoints.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// AcceptBidHandler handles POST requests to accept a bid.
// Requires a shipper JWT. URL parameter: bid_id.
func (h *GinHandlers) AcceptBidHandler() gin.HandlerFunc {
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

		result, err := h.service.AcceptBid(c.Param("bid_id"), shipperID)
		response.Handle(c, result, err)
	}
}

// CancelExchangeHandler handles POST requests to cancel an open exchange.
// Requires a shipper JWT. URL parameter: exchange_id.
func (h *GinHandlers) CancelExchangeHandler() gin.HandlerFunc {
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

		exchange, err := h.service.CancelExchange(c.Param("exchange_id"), shipperID)
		response.Handle(c, exchange, err)
	}
}

// GetLedgerHandler handles GET requests for an exchange's ledger record.
func (h *GinHandlers) GetLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ledger, err := h.service.GetLedger(c.Param("exchange_id"))
		response.Handle(c, ledger, err)
	}
}

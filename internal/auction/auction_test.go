package auction

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/haulbridge/freightex-api/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

var testDBSeq int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:auction_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&types.Shipper{},
		&types.Carrier{},
		&types.CarrierFinancialAccount{},
		&types.Exchange{},
		&types.Listing{},
		&types.Bid{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// seedParties registers one verified shipper and n verified carriers with
// active financial accounts and generous insurance.
func seedParties(t *testing.T, db *gorm.DB, carriers int) {
	t.Helper()
	shipper := types.Shipper{ShipperID: "SHIPPER_1", Name: "Acme Goods", Verified: true, Active: true}
	if err := db.Create(&shipper).Error; err != nil {
		t.Fatalf("failed to seed shipper: %v", err)
	}
	for i := 1; i <= carriers; i++ {
		carrier := types.Carrier{
			CarrierID:         fmt.Sprintf("CARRIER_%d", i),
			Name:              fmt.Sprintf("Hauler %d", i),
			Verified:          true,
			Active:            true,
			InsuranceCoverage: d("100000.00"),
		}
		if err := db.Create(&carrier).Error; err != nil {
			t.Fatalf("failed to seed carrier: %v", err)
		}
		account := types.CarrierFinancialAccount{
			AccountID: fmt.Sprintf("ACC_CAR_%d", i),
			CarrierID: carrier.CarrierID,
			Verified:  true,
			Active:    true,
		}
		if err := db.Create(&account).Error; err != nil {
			t.Fatalf("failed to seed carrier account: %v", err)
		}
	}
}

func openExchange(t *testing.T, service *Service) *types.Exchange {
	t.Helper()
	exchange, err := service.CreateExchange("SHIPPER_1", CreateExchangeRequest{
		ExchangeType:         types.ExchangeTypeSpot,
		Origin:               "Rotterdam",
		Destination:          "Munich",
		MinInsuranceCoverage: d("50000.00"),
		OfferPrice:           d("1200.00"),
	})
	if err != nil {
		t.Fatalf("failed to open exchange: %v", err)
	}
	return exchange
}

func TestSubmitBid_LeaderInvariant(t *testing.T) {
	db := newTestDB(t)
	seedParties(t, db, 3)
	service := NewService(db)
	exchange := openExchange(t, service)

	// Raw amounts arrive out of order; the minimum must lead throughout.
	amounts := []string{"1000.00", "1100.00", "950.00", "980.00"}
	carriers := []string{"CARRIER_1", "CARRIER_2", "CARRIER_3", "CARRIER_1"}
	for i := range amounts {
		if _, err := service.SubmitBid(exchange.ExchangeID, carriers[i], SubmitBidRequest{Amount: d(amounts[i])}); err != nil {
			t.Fatalf("bid %d: unexpected error: %v", i, err)
		}

		current, err := service.GetExchange(exchange.ExchangeID)
		if err != nil {
			t.Fatalf("failed to reload exchange: %v", err)
		}
		bids, err := service.GetBids(exchange.ExchangeID)
		if err != nil {
			t.Fatalf("failed to load bids: %v", err)
		}

		minPlaced := decimal.Decimal{}
		for _, b := range bids {
			if b.Status != types.BidStatusPlaced {
				continue
			}
			if minPlaced.IsZero() || b.Amount.LessThan(minPlaced) {
				minPlaced = b.Amount
			}
		}
		if !current.LeadingBidAmount.Equal(minPlaced.Mul(MarkupFactor).Round(2)) {
			t.Errorf("after bid %d: leading amount %s, min placed raw %s",
				i, current.LeadingBidAmount, minPlaced)
		}
	}

	final, _ := service.GetExchange(exchange.ExchangeID)
	if final.BidsSubmitted != len(amounts) {
		t.Errorf("expected %d bids submitted, got %d", len(amounts), final.BidsSubmitted)
	}
	if !final.LeadingBidAmount.Equal(d("950.00").Mul(MarkupFactor).Round(2)) {
		t.Errorf("expected leader baked from 950.00, got %s", final.LeadingBidAmount)
	}
}

func TestSubmitBid_BakedAmountCarriesMarkup(t *testing.T) {
	db := newTestDB(t)
	seedParties(t, db, 1)
	service := NewService(db)
	exchange := openExchange(t, service)

	bid, err := service.SubmitBid(exchange.ExchangeID, "CARRIER_1", SubmitBidRequest{Amount: d("1000.00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bid.BakedAmount.Equal(d("1100.00")) {
		t.Errorf("expected baked amount 1100.00, got %s", bid.BakedAmount)
	}
}

func TestSubmitBid_ClosedExchangeRejected(t *testing.T) {
	db := newTestDB(t)
	seedParties(t, db, 1)
	service := NewService(db)
	exchange := openExchange(t, service)

	db.Model(&types.Exchange{}).Where("exchange_id = ?", exchange.ExchangeID).
		Update("status", types.ExchangeStatusClosed)

	_, err := service.SubmitBid(exchange.ExchangeID, "CARRIER_1", SubmitBidRequest{Amount: d("900.00")})
	if !errors.Is(err, types.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestSubmitBid_ListingMismatchRejected(t *testing.T) {
	db := newTestDB(t)
	seedParties(t, db, 1)
	service := NewService(db)
	exchange := openExchange(t, service)

	db.Model(&types.Listing{}).Where("exchange_id = ?", exchange.ExchangeID).
		Update("status", types.ExchangeStatusCancelled)

	_, err := service.SubmitBid(exchange.ExchangeID, "CARRIER_1", SubmitBidRequest{Amount: d("900.00")})
	if !errors.Is(err, types.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestSubmitBid_InsuranceBelowMinimum(t *testing.T) {
	db := newTestDB(t)
	seedParties(t, db, 1)
	service := NewService(db)
	exchange := openExchange(t, service)

	db.Model(&types.Carrier{}).Where("carrier_id = ?", "CARRIER_1").
		Update("insurance_coverage", "1000")

	_, err := service.SubmitBid(exchange.ExchangeID, "CARRIER_1", SubmitBidRequest{Amount: d("900.00")})
	if !errors.Is(err, types.ErrIneligibleCounterparty) {
		t.Errorf("expected ErrIneligibleCounterparty, got %v", err)
	}
}

func TestSubmitBid_UnverifiedCarrierRejected(t *testing.T) {
	db := newTestDB(t)
	seedParties(t, db, 1)
	service := NewService(db)
	exchange := openExchange(t, service)

	db.Model(&types.Carrier{}).Where("carrier_id = ?", "CARRIER_1").
		Update("verified", false)

	_, err := service.SubmitBid(exchange.ExchangeID, "CARRIER_1", SubmitBidRequest{Amount: d("900.00")})
	if !errors.Is(err, types.ErrIneligibleAccount) {
		t.Errorf("expected ErrIneligibleAccount, got %v", err)
	}
}

func TestInsertBid_StaleExchangeSnapshotRejected(t *testing.T) {
	db := newTestDB(t)
	seedParties(t, db, 1)
	service := NewService(db)
	exchange := openExchange(t, service)

	// Snapshot read while the exchange is still open.
	stale, err := service.db.GetExchange(exchange.ExchangeID)
	if err != nil {
		t.Fatalf("failed to load exchange: %v", err)
	}

	// The exchange closes between the snapshot and the insert.
	db.Model(&types.Exchange{}).Where("exchange_id = ?", exchange.ExchangeID).
		Update("status", types.ExchangeStatusClosed)

	bid := &types.Bid{
		BidID:       "BID_STALE",
		ExchangeID:  exchange.ExchangeID,
		CarrierID:   "CARRIER_1",
		Amount:      d("900.00"),
		BakedAmount: d("990.00"),
		Status:      types.BidStatusPlaced,
	}
	stale.BidsSubmitted++

	err = service.db.InsertBid(bid, stale, true)
	if !errors.Is(err, types.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	// Nothing written: no bid row, and the terminal status survived.
	var bids int64
	db.Model(&types.Bid{}).Count(&bids)
	if bids != 0 {
		t.Errorf("expected no bid rows, got %d", bids)
	}
	var current types.Exchange
	db.Where("exchange_id = ?", exchange.ExchangeID).First(&current)
	if current.Status != types.ExchangeStatusClosed {
		t.Errorf("terminal status overwritten: got %s", current.Status)
	}
}

func TestReleaseLock_DropsExchangeMutex(t *testing.T) {
	db := newTestDB(t)
	seedParties(t, db, 1)
	service := NewService(db)
	exchange := openExchange(t, service)

	if _, err := service.SubmitBid(exchange.ExchangeID, "CARRIER_1", SubmitBidRequest{Amount: d("900.00")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service.ReleaseLock(exchange.ExchangeID)

	service.locks.mu.Lock()
	_, held := service.locks.locks[exchange.ExchangeID]
	service.locks.mu.Unlock()
	if held {
		t.Errorf("mutex for %s still held after release", exchange.ExchangeID)
	}
}

func TestSubmitBid_ConcurrentSubmissionsKeepLowestLeader(t *testing.T) {
	db := newTestDB(t)
	seedParties(t, db, 2)
	service := NewService(db)
	exchange := openExchange(t, service)

	var wg sync.WaitGroup
	submit := func(carrierID, amount string) {
		defer wg.Done()
		if _, err := service.SubmitBid(exchange.ExchangeID, carrierID, SubmitBidRequest{Amount: d(amount)}); err != nil {
			t.Errorf("concurrent bid failed: %v", err)
		}
	}

	wg.Add(2)
	go submit("CARRIER_1", "900.00")
	go submit("CARRIER_2", "950.00")
	wg.Wait()

	// Regardless of arrival order the 900 bid leads and the 950 bid is out.
	final, err := service.GetExchange(exchange.ExchangeID)
	if err != nil {
		t.Fatalf("failed to reload exchange: %v", err)
	}
	if final.BidsSubmitted != 2 {
		t.Errorf("expected 2 bids submitted, got %d", final.BidsSubmitted)
	}
	if !final.LeadingBidAmount.Equal(d("990.00")) {
		t.Errorf("expected leading baked amount 990.00, got %s", final.LeadingBidAmount)
	}

	bids, err := service.GetBids(exchange.ExchangeID)
	if err != nil {
		t.Fatalf("failed to load bids: %v", err)
	}
	for _, b := range bids {
		switch {
		case b.Amount.Equal(d("900.00")) && b.Status != types.BidStatusPlaced:
			t.Errorf("900 bid should be PLACED, got %s", b.Status)
		case b.Amount.Equal(d("950.00")) && b.Status != types.BidStatusOutbidded:
			t.Errorf("950 bid should be OUTBIDDED, got %s", b.Status)
		}
	}
}

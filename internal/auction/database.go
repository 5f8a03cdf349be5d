package auction

import (
	"errors"
	"fmt"

	"github.com/haulbridge/freightex-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetExchange(exchangeID string) (*types.Exchange, error) {
	var exchange types.Exchange
	if err := d.db.Where("exchange_id = ?", exchangeID).First(&exchange).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: exchange %s", types.ErrNotFound, exchangeID)
		}
		return nil, err
	}
	return &exchange, nil
}

func (d *Database) GetListingByExchange(exchangeID string) (*types.Listing, error) {
	var listing types.Listing
	if err := d.db.Where("exchange_id = ?", exchangeID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: listing for exchange %s", types.ErrNotFound, exchangeID)
		}
		return nil, err
	}
	return &listing, nil
}

func (d *Database) GetCarrier(carrierID string) (*types.Carrier, error) {
	var carrier types.Carrier
	if err := d.db.Where("carrier_id = ?", carrierID).First(&carrier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: carrier %s", types.ErrNotFound, carrierID)
		}
		return nil, err
	}
	return &carrier, nil
}

func (d *Database) GetShipper(shipperID string) (*types.Shipper, error) {
	var shipper types.Shipper
	if err := d.db.Where("shipper_id = ?", shipperID).First(&shipper).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: shipper %s", types.ErrNotFound, shipperID)
		}
		return nil, err
	}
	return &shipper, nil
}

func (d *Database) GetCarrierAccount(carrierID string) (*types.CarrierFinancialAccount, error) {
	var account types.CarrierFinancialAccount
	if err := d.db.Where("carrier_id = ?", carrierID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: financial account for carrier %s", types.ErrNotFound, carrierID)
		}
		return nil, err
	}
	return &account, nil
}

func (d *Database) GetBidsForExchange(exchangeID string) ([]types.Bid, error) {
	var bids []types.Bid
	if err := d.db.Where("exchange_id = ?", exchangeID).Order("created_at asc").Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

func (d *Database) ListOpenListings() ([]types.Listing, error) {
	var listings []types.Listing
	if err := d.db.Where("status = ?", types.ExchangeStatusOpen).Order("created_at desc").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// CreateExchangeWithListing creates an exchange and its mirrored board
// listing in one transaction so the board never shows a half-created auction.
func (d *Database) CreateExchangeWithListing(exchange *types.Exchange, listing *types.Listing) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(exchange).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Create(listing).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// InsertBid applies one bid submission atomically: the new bid row, the
// demotion of every other bid when the newcomer leads, and the exchange's
// leader fields and counters.
func (d *Database) InsertBid(bid *types.Bid, exchange *types.Exchange, isNewLeader bool) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// The exchange snapshot was read outside this transaction. Re-check it is
	// still open so a submission racing a settlement commit cannot write an
	// OPEN status over a terminal one.
	var current types.Exchange
	if err := tx.Where("exchange_id = ?", exchange.ExchangeID).First(&current).Error; err != nil {
		tx.Rollback()
		return err
	}
	if current.Status != types.ExchangeStatusOpen {
		tx.Rollback()
		return fmt.Errorf("%w: exchange %s is %s", types.ErrInvalidState, current.ExchangeID, current.Status)
	}

	if err := tx.Create(bid).Error; err != nil {
		tx.Rollback()
		return err
	}

	if isNewLeader {
		if err := tx.Model(&types.Bid{}).
			Where("exchange_id = ? AND bid_id <> ?", bid.ExchangeID, bid.BidID).
			Update("status", types.BidStatusOutbidded).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Save(exchange).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

package settlement

import (
	"errors"
	"fmt"

	"github.com/haulbridge/freightex-api/internal/types"
	"gorm.io/gorm"
)

// Database wraps the handle the settlement runs over. Inside AcceptBid it is
// constructed over the settlement transaction, so every read sees the
// transaction's view and every write rolls back with it.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetBid(bidID string) (*types.Bid, error) {
	var bid types.Bid
	if err := d.db.Where("bid_id = ?", bidID).First(&bid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bid %s", types.ErrNotFound, bidID)
		}
		return nil, err
	}
	return &bid, nil
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

func (d *Database) GetLedgerByExchange(exchangeID string) (*types.LedgerRecord, error) {
	var ledger types.LedgerRecord
	if err := d.db.Where("exchange_id = ?", exchangeID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ledger for exchange %s", types.ErrNotFound, exchangeID)
		}
		return nil, err
	}
	return &ledger, nil
}

func (d *Database) CreateShipments(shipments []types.Shipment) error {
	return d.db.Create(&shipments).Error
}

func (d *Database) CreateContract(contract *types.Contract) error {
	return d.db.Create(contract).Error
}

func (d *Database) CreateLedgerRecord(ledger *types.LedgerRecord) error {
	return d.db.Create(ledger).Error
}

func (d *Database) SaveExchange(exchange *types.Exchange) error {
	return d.db.Save(exchange).Error
}

func (d *Database) SaveListing(listing *types.Listing) error {
	return d.db.Save(listing).Error
}

func (d *Database) SaveBid(bid *types.Bid) error {
	return d.db.Save(bid).Error
}

package migrations

import (
	"github.com/haulbridge/freightex-api/internal/types"
	"gorm.io/gorm"
)

// BackfillSavingsMetrics recomputes the savings column for closed exchanges
// created before the metric existed: offer price minus the accepted raw bid.
func BackfillSavingsMetrics(db *gorm.DB) error {
	var exchanges []types.Exchange
	err := db.Where("status = ? AND savings = ?",
		types.ExchangeStatusClosed, "0").Find(&exchanges).Error
	if err != nil {
		return err
	}

	for _, exchange := range exchanges {
		var winner types.Bid
		err := db.Where("exchange_id = ? AND status = ?",
			exchange.ExchangeID, types.BidStatusAccepted).First(&winner).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return err
		}

		savings := exchange.OfferPrice.Sub(winner.Amount)
		if err := db.Model(&types.Exchange{}).
			Where("exchange_id = ?", exchange.ExchangeID).
			Update("savings", savings).Error; err != nil {
			return err
		}
	}

	return nil
}

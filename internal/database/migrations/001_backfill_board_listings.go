package migrations

import (
	"time"

	"github.com/google/uuid"
	"github.com/haulbridge/freightex-api/internal/types"
	"gorm.io/gorm"
)

// BackfillBoardListings creates a mirrored board listing for any exchange
// that predates the public board, keeping the status lock-step invariant.
func BackfillBoardListings(db *gorm.DB) error {
	var exchanges []types.Exchange
	err := db.Where("exchange_id NOT IN (?)",
		db.Model(&types.Listing{}).Select("exchange_id")).Find(&exchanges).Error
	if err != nil {
		return err
	}

	for _, exchange := range exchanges {
		listing := types.Listing{
			ListingID:  "LST_" + uuid.New().String(),
			ExchangeID: exchange.ExchangeID,
			Status:     exchange.Status,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if err := db.Create(&listing).Error; err != nil {
			return err
		}
	}

	return nil
}

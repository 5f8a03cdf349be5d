// Package fleet exposes the narrow slice of the fleet/assignment service the
// settlement core consumes: an identity snapshot of the carrier's assigned
// vehicle and driver for the ledger record. Actual matching happens outside
// this service.
package fleet

import (
	"errors"

	"github.com/haulbridge/freightex-api/internal/types"
	"gorm.io/gorm"
)

// AssignmentSnapshot captures who hauls a booking at assignment time. Ledger
// records keep this snapshot even if the fleet changes later.
type AssignmentSnapshot struct {
	CarrierID string `json:"carrier_id"`
	VehicleID string `json:"vehicle_id"`
	DriverID  string `json:"driver_id"`
}

// Snapshotter resolves an assignment snapshot for a carrier.
type Snapshotter interface {
	Snapshot(carrierID string) (*AssignmentSnapshot, error)
}

// Service resolves snapshots from the fleet tables.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Snapshot picks the carrier's first active vehicle and driver. Carriers with
// no registered fleet still settle; the snapshot fields stay empty.
func (s *Service) Snapshot(carrierID string) (*AssignmentSnapshot, error) {
	snapshot := &AssignmentSnapshot{CarrierID: carrierID}

	var vehicle types.Vehicle
	err := s.db.Where("carrier_id = ? AND active = ?", carrierID, true).
		Order("created_at asc").First(&vehicle).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	snapshot.VehicleID = vehicle.VehicleID

	var driver types.Driver
	err = s.db.Where("carrier_id = ? AND active = ?", carrierID, true).
		Order("created_at asc").First(&driver).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	snapshot.DriverID = driver.DriverID

	return snapshot, nil
}

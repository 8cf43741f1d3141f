package models

import (
	"context"
	"time"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/inventory"
	"github.com/homiestan/homiestan_backend/utils"
)

// RoomReport is the per-room outcome of one walkthrough step. Rows are
// written once and never updated; a retried room replaces nothing because a
// report only exists after a successful observation.
type RoomReport struct {
	ID                int                         `gorm:"primary_key" json:"id"`
	InspectionLinkId  int                         `gorm:"index;not null" json:"inspection_link_id"`
	RoomId            int                         `gorm:"index;not null" json:"room_id"`
	RoomName          string                      `gorm:"size:100;not null" json:"room_name"`
	ExpectedInventory inventory.Inventory         `gorm:"serializer:json" json:"expected_inventory"`
	ObservedInventory inventory.Inventory         `gorm:"serializer:json" json:"observed_inventory"`
	Report            inventory.DiscrepancyReport `gorm:"serializer:json" json:"report"`
	CreatedAt         time.Time                   `gorm:"autoCreateTime" json:"created_at"`
}

func CreateRoomReport(ctx context.Context, report *RoomReport) (*RoomReport, error) {

	db := config.GetDB()

	if err := db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func GetRoomReport(ctx context.Context, linkId int, roomId int) (*RoomReport, error) {

	db := config.GetDB()
	var result RoomReport

	err := db.WithContext(ctx).Model(&RoomReport{}).
		Where("inspection_link_id = ? AND room_id = ?", linkId, roomId).
		Take(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func GetRoomReports(ctx context.Context, linkId int) ([]*RoomReport, error) {

	db := config.GetDB()
	var results []*RoomReport

	err := db.WithContext(ctx).Model(&RoomReport{}).
		Where("inspection_link_id = ?", linkId).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

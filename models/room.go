package models

import (
	"context"
	"errors"
	"time"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/inventory"
	"github.com/homiestan/homiestan_backend/utils"
)

// analysis lifecycle of a room's inventory
const (
	AnalysisStateIdle      = "IDLE"
	AnalysisStateAnalyzing = "ANALYZING"
	AnalysisStateComplete  = "COMPLETE"
	AnalysisStateFailed    = "FAILED"
)

type Room struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	HomeId        int                 `gorm:"index;not null" json:"home_id"`
	Name          string              `gorm:"size:100;not null" json:"name" binding:"required"`
	Description   string              `gorm:"size:255" json:"description"`
	Inventory     inventory.Inventory `gorm:"serializer:json" json:"inventory"`
	AnalysisState string              `gorm:"size:20;not null;default:IDLE" json:"analysis_state"`
	AnalysisError string              `gorm:"size:255" json:"analysis_error,omitempty"`
	AnalyzedAt    *time.Time          `json:"analyzed_at"`
	Media         []RoomMedia         `gorm:"foreignKey:RoomId" json:"media,omitempty"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRoom struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func CreateRoom(ctx context.Context, homeId int, input *NewRoom) (*Room, error) {

	db := config.GetDB()

	if err := utils.ValidateUnique[Room](ctx, homeId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	room := Room{
		HomeId:        homeId,
		Name:          input.Name,
		Description:   input.Description,
		Inventory:     inventory.Inventory{},
		AnalysisState: AnalysisStateIdle,
	}

	if err := db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func GetRooms(ctx context.Context, homeId int) ([]*Room, error) {

	db := config.GetDB()
	var results []*Room

	err := db.WithContext(ctx).Model(&Room{}).
		Where("home_id = ?", homeId).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetRoom(ctx context.Context, homeId int, id int) (*Room, error) {

	db := config.GetDB()
	var result Room

	err := db.WithContext(ctx).Model(&Room{}).
		Where("id = ? AND home_id = ?", id, homeId).
		Preload("Media").
		Take(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func UpdateRoom(ctx context.Context, homeId int, id int, input *NewRoom) (*Room, error) {

	db := config.GetDB()

	room, err := GetRoom(ctx, homeId, id)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateUnique[Room](ctx, homeId, "name", input.Name, id); err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Model(&Room{}).Where("id = ?", room.ID).
		Updates(map[string]interface{}{
			"name":        input.Name,
			"description": input.Description,
		}).Error
	if err != nil {
		return nil, err
	}
	return GetRoom(ctx, homeId, id)
}

func DeleteRoom(ctx context.Context, homeId int, id int) (*Room, error) {

	db := config.GetDB()

	room, err := GetRoom(ctx, homeId, id)
	if err != nil {
		return nil, err
	}
	if room.AnalysisState == AnalysisStateAnalyzing {
		return nil, errors.New("room analysis is in progress")
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("room_id = ?", id).Delete(&RoomMedia{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&Room{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	return room, tx.Commit().Error
}

// MarkRoomAnalyzing flips the room into ANALYZING. Returns an error when a
// pass is already running so double submissions do not stack.
func MarkRoomAnalyzing(ctx context.Context, homeId int, id int) (*Room, error) {

	db := config.GetDB()

	room, err := GetRoom(ctx, homeId, id)
	if err != nil {
		return nil, err
	}
	if room.AnalysisState == AnalysisStateAnalyzing {
		return nil, errors.New("room analysis already in progress")
	}

	err = db.WithContext(ctx).Model(&Room{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"analysis_state": AnalysisStateAnalyzing,
			"analysis_error": "",
		}).Error
	if err != nil {
		return nil, err
	}
	room.AnalysisState = AnalysisStateAnalyzing
	room.AnalysisError = ""
	return room, nil
}

// ApplyMergedInventory folds a freshly observed object list into the room's
// canonical inventory and marks the pass COMPLETE. Callers must hold the
// per-home lock so merges for a room are applied one at a time.
func ApplyMergedInventory(ctx context.Context, roomId int, observed []inventory.ObjectEntry) (*Room, error) {

	db := config.GetDB()
	var room Room

	if err := db.WithContext(ctx).Take(&room, roomId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	merged := inventory.Merge(room.Inventory, observed)
	now := time.Now()

	err := db.WithContext(ctx).Model(&Room{}).Where("id = ?", roomId).
		Updates(map[string]interface{}{
			"inventory":      merged,
			"analysis_state": AnalysisStateComplete,
			"analysis_error": "",
			"analyzed_at":    now,
		}).Error
	if err != nil {
		return nil, err
	}

	room.Inventory = merged
	room.AnalysisState = AnalysisStateComplete
	room.AnalysisError = ""
	room.AnalyzedAt = &now
	return &room, nil
}

// MarkRoomAnalysisFailed records a failed pass; the inventory keeps its last
// good value so a retry only has to re-run the failed pass.
func MarkRoomAnalysisFailed(ctx context.Context, roomId int, reason string) error {

	db := config.GetDB()

	if len(reason) > 255 {
		reason = reason[:255]
	}
	return db.WithContext(ctx).Model(&Room{}).Where("id = ?", roomId).
		Updates(map[string]interface{}{
			"analysis_state": AnalysisStateFailed,
			"analysis_error": reason,
		}).Error
}

// ClearRoomInventory wipes the accumulated inventory back to empty.
func ClearRoomInventory(ctx context.Context, homeId int, id int) (*Room, error) {

	db := config.GetDB()

	room, err := GetRoom(ctx, homeId, id)
	if err != nil {
		return nil, err
	}
	if room.AnalysisState == AnalysisStateAnalyzing {
		return nil, errors.New("room analysis is in progress")
	}

	err = db.WithContext(ctx).Model(&Room{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"inventory":      inventory.Inventory{},
			"analysis_state": AnalysisStateIdle,
			"analysis_error": "",
			"analyzed_at":    nil,
		}).Error
	if err != nil {
		return nil, err
	}
	return GetRoom(ctx, homeId, id)
}

// SetRoomInventory replaces the inventory with an owner-edited list. Entries
// are folded through the merger so duplicates collapse and ordering stays
// canonical.
func SetRoomInventory(ctx context.Context, homeId int, id int, entries []inventory.ObjectEntry) (*Room, error) {

	db := config.GetDB()

	room, err := GetRoom(ctx, homeId, id)
	if err != nil {
		return nil, err
	}
	if room.AnalysisState == AnalysisStateAnalyzing {
		return nil, errors.New("room analysis is in progress")
	}

	for _, entry := range entries {
		if inventory.NormalizeKey(entry.Name) == "" {
			return nil, errors.New("object name is required")
		}
		if entry.Count < 1 {
			return nil, errors.New("object count must be at least 1")
		}
	}

	canonical := inventory.Merge(nil, entries)

	err = db.WithContext(ctx).Model(&Room{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"inventory":      canonical,
			"analysis_state": AnalysisStateComplete,
			"analysis_error": "",
		}).Error
	if err != nil {
		return nil, err
	}
	return GetRoom(ctx, homeId, id)
}

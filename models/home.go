package models

import (
	"context"
	"errors"
	"time"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/utils"
)

type Home struct {
	ID        int       `gorm:"primary_key" json:"id"`
	UserId    int       `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Address   string    `gorm:"size:255" json:"address"`
	Notes     string    `gorm:"type:text" json:"notes"`
	Rooms     []Room    `gorm:"foreignKey:HomeId" json:"rooms,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewHome struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func CreateHome(ctx context.Context, userId int, input *NewHome) (*Home, error) {

	db := config.GetDB()

	home := Home{
		UserId:  userId,
		Name:    input.Name,
		Address: input.Address,
		Notes:   input.Notes,
	}

	if err := db.WithContext(ctx).Create(&home).Error; err != nil {
		return nil, err
	}
	return &home, nil
}

func GetHomes(ctx context.Context, userId int) ([]*Home, error) {

	db := config.GetDB()
	var results []*Home

	err := db.WithContext(ctx).Model(&Home{}).
		Where("user_id = ?", userId).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetHome returns the home only when it belongs to userId.
func GetHome(ctx context.Context, userId int, id int) (*Home, error) {

	db := config.GetDB()
	var result Home

	err := db.WithContext(ctx).Model(&Home{}).
		Where("id = ? AND user_id = ?", id, userId).
		Preload("Rooms").
		Take(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

// GetHomeById fetches a home without owner scoping, for workers acting on
// behalf of the system.
func GetHomeById(ctx context.Context, id int) (*Home, error) {

	db := config.GetDB()
	var result Home

	if err := db.WithContext(ctx).Take(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func UpdateHome(ctx context.Context, userId int, id int, input *NewHome) (*Home, error) {

	db := config.GetDB()

	home, err := GetHome(ctx, userId, id)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Model(&Home{}).Where("id = ?", home.ID).
		Updates(map[string]interface{}{
			"name":    input.Name,
			"address": input.Address,
			"notes":   input.Notes,
		}).Error
	if err != nil {
		return nil, err
	}
	return GetHome(ctx, userId, id)
}

func DeleteHome(ctx context.Context, userId int, id int) (*Home, error) {

	db := config.GetDB()

	home, err := GetHome(ctx, userId, id)
	if err != nil {
		return nil, err
	}

	var linkCount int64
	if err := db.WithContext(ctx).Model(&InspectionLink{}).
		Where("home_id = ? AND state IN ?", id, []string{InspectionStateInProgress, InspectionStateComplete}).
		Count(&linkCount).Error; err != nil {
		return nil, err
	}
	if linkCount > 0 {
		return nil, errors.New("home has an inspection in progress")
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("home_id = ?", id).Delete(&RoomMedia{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Where("home_id = ?", id).Delete(&Room{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Where("home_id = ?", id).Delete(&InspectionLink{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&Home{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	return home, tx.Commit().Error
}

// ValidateHomeOwnership resolves a home id to its owner check, for handlers
// that only need the guard and not the record.
func ValidateHomeOwnership(ctx context.Context, userId int, homeId int) error {
	count, err := utils.ResourceCountWhere[Home](ctx, 0, "id = ? AND user_id = ?", homeId, userId)
	if err != nil {
		return err
	}
	if count <= 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

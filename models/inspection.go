package models

import (
	"context"
	"errors"
	"time"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/utils"
)

// walkthrough states, one-way
const (
	InspectionStateNotStarted = "NOT_STARTED"
	InspectionStateInProgress = "IN_PROGRESS"
	InspectionStateComplete   = "COMPLETE"
	InspectionStateSubmitted  = "SUBMITTED"
)

var (
	ErrInspectionSubmitted    = errors.New("inspection already submitted")
	ErrInspectionNotComplete  = errors.New("inspection rooms are not all complete")
	ErrRoomOutOfSequence      = errors.New("room is not the current walkthrough room")
	ErrInspectionHasNoRooms   = errors.New("home has no rooms to inspect")
	ErrInspectionLinkInactive = errors.New("inspection link is no longer active")
)

type InspectionLink struct {
	ID               int        `gorm:"primary_key" json:"id"`
	HomeId           int        `gorm:"index;not null" json:"home_id"`
	TenantName       string     `gorm:"size:100;not null" json:"tenant_name"`
	TenantEmail      string     `gorm:"size:100;not null" json:"tenant_email"`
	State            string     `gorm:"size:20;not null;default:NOT_STARTED" json:"state"`
	RoomIds          []int      `gorm:"serializer:json" json:"room_ids"`
	CurrentRoomIndex int        `gorm:"not null;default:0" json:"current_room_index"`
	Token            string     `gorm:"type:text" json:"token,omitempty"`
	ExpiresAt        time.Time  `json:"expires_at"`
	SubmittedAt      *time.Time `json:"submitted_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInspectionLink struct {
	TenantName  string `json:"tenant_name" binding:"required"`
	TenantEmail string `json:"tenant_email" binding:"required,email"`
}

// CreateInspectionLink snapshots the home's room order and issues a tenant
// token. The snapshot keeps the walkthrough stable even if the owner edits
// rooms while an inspection is underway.
func CreateInspectionLink(ctx context.Context, homeId int, input *NewInspectionLink) (*InspectionLink, error) {

	db := config.GetDB()

	rooms, err := GetRooms(ctx, homeId)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, ErrInspectionHasNoRooms
	}
	roomIds := make([]int, 0, len(rooms))
	for _, r := range rooms {
		roomIds = append(roomIds, r.ID)
	}

	link := InspectionLink{
		HomeId:      homeId,
		TenantName:  input.TenantName,
		TenantEmail: input.TenantEmail,
		State:       InspectionStateNotStarted,
		RoomIds:     roomIds,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&link).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	token, expiresAt, err := utils.JwtGenerateInspection(link.ID, homeId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	link.Token = token
	link.ExpiresAt = expiresAt
	if err := tx.Model(&InspectionLink{}).Where("id = ?", link.ID).
		Updates(map[string]interface{}{"token": token, "expires_at": expiresAt}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	return &link, tx.Commit().Error
}

func GetInspectionLinks(ctx context.Context, homeId int) ([]*InspectionLink, error) {

	db := config.GetDB()
	var results []*InspectionLink

	err := db.WithContext(ctx).Model(&InspectionLink{}).
		Where("home_id = ?", homeId).
		Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetInspectionLink(ctx context.Context, id int) (*InspectionLink, error) {

	db := config.GetDB()
	var result InspectionLink

	if err := db.WithContext(ctx).Take(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

// CurrentRoomId returns the room the walkthrough is pointed at.
func (link *InspectionLink) CurrentRoomId() (int, bool) {
	if link.CurrentRoomIndex < 0 || link.CurrentRoomIndex >= len(link.RoomIds) {
		return 0, false
	}
	return link.RoomIds[link.CurrentRoomIndex], true
}

// StartInspection moves NOT_STARTED to IN_PROGRESS at the first room.
// Re-opening an already-running inspection is a no-op.
func StartInspection(ctx context.Context, id int) (*InspectionLink, error) {

	db := config.GetDB()

	link, err := GetInspectionLink(ctx, id)
	if err != nil {
		return nil, err
	}

	switch link.State {
	case InspectionStateSubmitted:
		return nil, ErrInspectionSubmitted
	case InspectionStateInProgress, InspectionStateComplete:
		return link, nil
	}

	err = db.WithContext(ctx).Model(&InspectionLink{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":              InspectionStateInProgress,
			"current_room_index": 0,
		}).Error
	if err != nil {
		return nil, err
	}
	link.State = InspectionStateInProgress
	link.CurrentRoomIndex = 0
	return link, nil
}

// AdvanceInspection moves the walkthrough past roomId once its report exists.
// Advancing past the last room flips the link to COMPLETE.
func AdvanceInspection(ctx context.Context, id int, roomId int) (*InspectionLink, error) {

	db := config.GetDB()

	link, err := GetInspectionLink(ctx, id)
	if err != nil {
		return nil, err
	}

	if link.State == InspectionStateSubmitted {
		return nil, ErrInspectionSubmitted
	}
	if link.State != InspectionStateInProgress {
		return nil, ErrInspectionLinkInactive
	}

	currentRoomId, ok := link.CurrentRoomId()
	if !ok || currentRoomId != roomId {
		return nil, ErrRoomOutOfSequence
	}

	nextIndex := link.CurrentRoomIndex + 1
	state := InspectionStateInProgress
	if nextIndex >= len(link.RoomIds) {
		state = InspectionStateComplete
	}

	err = db.WithContext(ctx).Model(&InspectionLink{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":              state,
			"current_room_index": nextIndex,
		}).Error
	if err != nil {
		return nil, err
	}
	link.State = state
	link.CurrentRoomIndex = nextIndex
	return link, nil
}

// SubmitInspection is the one-way terminal transition. It only succeeds from
// COMPLETE and refuses a second submission.
func SubmitInspection(ctx context.Context, id int) (*InspectionLink, error) {

	db := config.GetDB()

	link, err := GetInspectionLink(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.State == InspectionStateSubmitted {
		return nil, ErrInspectionSubmitted
	}
	if link.State != InspectionStateComplete {
		return nil, ErrInspectionNotComplete
	}

	now := time.Now()
	result := db.WithContext(ctx).Model(&InspectionLink{}).
		Where("id = ? AND state = ?", id, InspectionStateComplete).
		Updates(map[string]interface{}{
			"state":        InspectionStateSubmitted,
			"submitted_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInspectionSubmitted
	}

	link.State = InspectionStateSubmitted
	link.SubmittedAt = &now
	return link, nil
}

package models

import (
	"context"
	"errors"
	"time"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/utils"
)

const (
	MediaKindPhoto = "photo"
	MediaKindVideo = "video"
)

const (
	MediaStatusPending  = "PENDING"
	MediaStatusUploaded = "UPLOADED"
)

type RoomMedia struct {
	ID           int       `gorm:"primary_key" json:"id"`
	HomeId       int       `gorm:"index;not null" json:"home_id"`
	RoomId       int       `gorm:"index;not null" json:"room_id"`
	Kind         string    `gorm:"size:10;not null" json:"kind"`
	ObjectKey    string    `gorm:"size:500;not null" json:"object_key"`
	ContentType  string    `gorm:"size:100;not null" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	ThumbnailKey string    `gorm:"size:500" json:"thumbnail_key"`
	Status       string    `gorm:"size:20;not null;default:PENDING" json:"status"`
	AccessUrl    string    `gorm:"-" json:"access_url,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CreatePendingMedia records a media row before the client uploads to the
// signed URL; the row flips to UPLOADED on completion callback.
func CreatePendingMedia(ctx context.Context, media *RoomMedia) (*RoomMedia, error) {

	db := config.GetDB()

	if media.Kind != MediaKindPhoto && media.Kind != MediaKindVideo {
		return nil, errors.New("unsupported media kind")
	}
	if err := utils.ValidateResourceId[Room](ctx, media.HomeId, media.RoomId); err != nil {
		return nil, err
	}

	media.Status = MediaStatusPending
	if err := db.WithContext(ctx).Create(media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

func MarkMediaUploaded(ctx context.Context, homeId int, id int, sizeBytes int64, thumbnailKey string) (*RoomMedia, error) {

	db := config.GetDB()
	var media RoomMedia

	err := db.WithContext(ctx).Model(&RoomMedia{}).
		Where("id = ? AND home_id = ?", id, homeId).
		Take(&media).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{
		"status":     MediaStatusUploaded,
		"size_bytes": sizeBytes,
	}
	if thumbnailKey != "" {
		updates["thumbnail_key"] = thumbnailKey
	}
	if err := db.WithContext(ctx).Model(&media).Updates(updates).Error; err != nil {
		return nil, err
	}

	media.AccessUrl = utils.BuildObjectAccessURL(media.ObjectKey)
	return &media, nil
}

func GetRoomMedia(ctx context.Context, homeId int, roomId int) ([]*RoomMedia, error) {

	db := config.GetDB()
	var results []*RoomMedia

	err := db.WithContext(ctx).Model(&RoomMedia{}).
		Where("home_id = ? AND room_id = ?", homeId, roomId).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	for _, m := range results {
		m.AccessUrl = utils.BuildObjectAccessURL(m.ObjectKey)
	}
	return results, nil
}

// GetUploadedMediaByIds returns only UPLOADED rows for the given room, in id
// order. Missing or pending ids are simply absent from the result.
func GetUploadedMediaByIds(ctx context.Context, roomId int, ids []int) ([]*RoomMedia, error) {

	db := config.GetDB()
	var results []*RoomMedia

	err := db.WithContext(ctx).Model(&RoomMedia{}).
		Where("room_id = ? AND id IN ? AND status = ?", roomId, ids, MediaStatusUploaded).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func DeleteMedia(ctx context.Context, homeId int, id int) (*RoomMedia, error) {

	db := config.GetDB()
	var media RoomMedia

	err := db.WithContext(ctx).Model(&RoomMedia{}).
		Where("id = ? AND home_id = ?", id, homeId).
		Take(&media).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if err := db.WithContext(ctx).Delete(&RoomMedia{}, id).Error; err != nil {
		return nil, err
	}

	// Best-effort storage cleanup; the row is already gone.
	if media.ObjectKey != "" {
		_ = utils.DeleteObjectFromGCS(ctx, media.ObjectKey)
	}
	if media.ThumbnailKey != "" {
		_ = utils.DeleteObjectFromGCS(ctx, media.ThumbnailKey)
	}
	return &media, nil
}

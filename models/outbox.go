package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/homiestan/homiestan_backend/config"
)

// Outbox publish statuses for AnalysisMessageRecord.PublishStatus.
// Keep these as strings (DB values) for backwards compatibility.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// Outbox processing statuses for AnalysisMessageRecord.ProcessingStatus.
// These represent worker-side handling state (distinct from PublishStatus).
const (
	OutboxProcessStatusPending    = "PENDING"
	OutboxProcessStatusProcessing = "PROCESSING"
	OutboxProcessStatusSucceeded  = "SUCCEEDED"
	OutboxProcessStatusFailed     = "FAILED"
	OutboxProcessStatusDead       = "DEAD"
)

// analysis request kinds
const (
	AnalysisActionCatalog = "CATALOG"
	AnalysisActionObserve = "OBSERVE"
)

// AnalysisMessageRecord is the transactional outbox row for one AI analysis
// request. Publish happens after commit via the dispatcher.
type AnalysisMessageRecord struct {
	ID          int       `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	HomeId      int       `gorm:"index;not null" json:"home_id"`
	RoomId      int       `gorm:"index;not null" json:"room_id"`
	Action      string    `gorm:"size:20;not null" json:"action"` // CATALOG|OBSERVE
	MediaIds    []int     `gorm:"serializer:json" json:"media_ids"`
	LinkId      int       `gorm:"index" json:"link_id"` // set for OBSERVE
	RequestedAt time.Time `gorm:"index;not null" json:"requested_at"`

	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`

	// Processing metadata (consumer/worker)
	ProcessingStatus     string     `gorm:"size:20;index;not null;default:'PENDING'" json:"processing_status"`
	ProcessAttempts      int        `gorm:"not null;default:0" json:"process_attempts"`
	NextProcessAttemptAt *time.Time `gorm:"index" json:"next_process_attempt_at"`
	LastProcessError     *string    `gorm:"type:text" json:"last_process_error"`
	ProcessedAt          *time.Time `gorm:"index" json:"processed_at"`

	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToAnalysisMessage(record AnalysisMessageRecord) config.AnalysisMessage {
	return config.AnalysisMessage{
		ID:            record.ID,
		HomeId:        record.HomeId,
		RoomId:        record.RoomId,
		MediaIds:      record.MediaIds,
		LinkId:        record.LinkId,
		RequestedAt:   record.RequestedAt,
		Action:        record.Action,
		CorrelationId: record.CorrelationId,
	}
}

// EnqueueAnalysis writes the outbox row inside tx so the request commits or
// rolls back with the state change that triggered it.
func EnqueueAnalysis(ctx context.Context, record *AnalysisMessageRecord) error {

	db := config.GetDB()

	record.RequestedAt = time.Now()
	record.PublishStatus = OutboxPublishStatusPending
	record.ProcessingStatus = OutboxProcessStatusPending
	return db.WithContext(ctx).Create(record).Error
}

func GetAnalysisRecord(ctx context.Context, id int) (*AnalysisMessageRecord, error) {

	db := config.GetDB()
	var record AnalysisMessageRecord

	if err := db.WithContext(ctx).Take(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// DecodeAnalysisMessage parses a push-delivered payload back into the
// message struct.
func DecodeAnalysisMessage(data []byte) (*config.AnalysisMessage, error) {
	var msg config.AnalysisMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

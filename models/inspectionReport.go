package models

import (
	"context"
	"time"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/utils"
)

const (
	ReportEmailPending = "PENDING"
	ReportEmailSent    = "SENT"
	ReportEmailFailed  = "FAILED"
	ReportEmailSkipped = "SKIPPED"
)

// InspectionReport is the aggregate record written at submission, one per
// inspection link.
type InspectionReport struct {
	ID               int        `gorm:"primary_key" json:"id"`
	InspectionLinkId int        `gorm:"uniqueIndex;not null" json:"inspection_link_id"`
	HomeId           int        `gorm:"index;not null" json:"home_id"`
	TenantName       string     `gorm:"size:100" json:"tenant_name"`
	TenantEmail      string     `gorm:"size:100" json:"tenant_email"`
	RoomCount        int        `json:"room_count"`
	DiscrepancyCount int        `json:"discrepancy_count"`
	PdfObjectKey     string     `gorm:"size:500" json:"pdf_object_key"`
	PdfAccessUrl     string     `gorm:"-" json:"pdf_access_url,omitempty"`
	EmailStatus      string     `gorm:"size:20;not null;default:PENDING" json:"email_status"`
	EmailedAt        *time.Time `json:"emailed_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func CreateInspectionReport(ctx context.Context, report *InspectionReport) (*InspectionReport, error) {

	db := config.GetDB()

	if err := db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func GetInspectionReportByLink(ctx context.Context, linkId int) (*InspectionReport, error) {

	db := config.GetDB()
	var result InspectionReport

	err := db.WithContext(ctx).Model(&InspectionReport{}).
		Where("inspection_link_id = ?", linkId).
		Take(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func GetInspectionReports(ctx context.Context, homeId int) ([]*InspectionReport, error) {

	db := config.GetDB()
	var results []*InspectionReport

	err := db.WithContext(ctx).Model(&InspectionReport{}).
		Where("home_id = ?", homeId).
		Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (report *InspectionReport) UpdateEmailStatus(ctx context.Context, status string) error {

	db := config.GetDB()

	updates := map[string]interface{}{"email_status": status}
	if status == ReportEmailSent {
		now := time.Now()
		updates["emailed_at"] = now
		report.EmailedAt = &now
	}
	report.EmailStatus = status

	return db.WithContext(ctx).Model(&InspectionReport{}).
		Where("id = ?", report.ID).
		Updates(updates).Error
}

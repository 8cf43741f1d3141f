package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/mailer"
	"github.com/homiestan/homiestan_backend/models"
	"github.com/homiestan/homiestan_backend/pdfreport"
	"github.com/homiestan/homiestan_backend/utils"
)

// FinalizeInspection builds the aggregate report for a just-submitted link:
// render the PDF, store it, write the report record and email the parties.
// Email failure does not fail the submission; the report row records it.
func FinalizeInspection(ctx context.Context, logger *logrus.Logger, link *models.InspectionLink) (*models.InspectionReport, error) {
	if link.State != models.InspectionStateSubmitted {
		return nil, errors.New("inspection is not submitted")
	}

	// Re-finalizing after a crash reuses the existing record.
	if existing, err := models.GetInspectionReportByLink(ctx, link.ID); err == nil {
		return existing, nil
	}

	home, err := models.GetHomeById(ctx, link.HomeId)
	if err != nil {
		return nil, err
	}
	roomReports, err := models.GetRoomReports(ctx, link.ID)
	if err != nil {
		return nil, err
	}

	submittedAt := time.Now()
	if link.SubmittedAt != nil {
		submittedAt = *link.SubmittedAt
	}

	data := &pdfreport.ReportData{
		HomeName:    home.Name,
		HomeAddress: home.Address,
		TenantName:  link.TenantName,
		SubmittedAt: submittedAt,
	}
	for _, rr := range roomReports {
		data.Rooms = append(data.Rooms, pdfreport.RoomSection{
			RoomName: rr.RoomName,
			Expected: rr.ExpectedInventory,
			Observed: rr.ObservedInventory,
			Report:   rr.Report,
		})
	}

	pdfBytes, err := pdfreport.Render(data)
	if err != nil {
		return nil, err
	}

	pdfKey := fmt.Sprintf("reports/home-%d/inspection-%d.pdf", link.HomeId, link.ID)
	if err := utils.UploadBytesToGCS(ctx, pdfKey, pdfBytes, "application/pdf"); err != nil {
		return nil, err
	}

	report, err := models.CreateInspectionReport(ctx, &models.InspectionReport{
		InspectionLinkId: link.ID,
		HomeId:           link.HomeId,
		TenantName:       link.TenantName,
		TenantEmail:      link.TenantEmail,
		RoomCount:        len(roomReports),
		DiscrepancyCount: data.TotalDiscrepancies(),
		PdfObjectKey:     pdfKey,
		EmailStatus:      models.ReportEmailPending,
	})
	if err != nil {
		return nil, err
	}

	if !config.ReportEmailEnabled() {
		_ = report.UpdateEmailStatus(ctx, models.ReportEmailSkipped)
		return report, nil
	}

	if err := emailReport(ctx, link, home, report, pdfBytes); err != nil {
		config.LogError(logger, "reportWorkflow.go", "FinalizeInspection", "Sending report email", link.ID, err)
		_ = report.UpdateEmailStatus(ctx, models.ReportEmailFailed)
		return report, nil
	}
	_ = report.UpdateEmailStatus(ctx, models.ReportEmailSent)

	logger.WithFields(logrus.Fields{
		"field":         "ReportWorkflow",
		"home_id":       link.HomeId,
		"link_id":       link.ID,
		"rooms":         report.RoomCount,
		"discrepancies": report.DiscrepancyCount,
	}).Info("inspection report finalized")
	return report, nil
}

func emailReport(ctx context.Context, link *models.InspectionLink, home *models.Home, report *models.InspectionReport, pdfBytes []byte) error {
	svc, err := mailer.NewSendGridService()
	if err != nil {
		return err
	}

	owner, err := ownerAddress(ctx, home.UserId)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Inspection report for %s", home.Name)
	body := fmt.Sprintf(
		"Hello %s,\n\nThe inspection of %s has been submitted. %d rooms were inspected and %d discrepancies were found.\n\nThe full report is attached.\n",
		link.TenantName, home.Name, report.RoomCount, report.DiscrepancyCount)

	req := &mailer.SendEmailRequest{
		To:          []mailer.EmailAddress{{Email: link.TenantEmail, Name: link.TenantName}},
		Subject:     subject,
		TextContent: body,
		Attachments: []mailer.Attachment{
			mailer.PDFAttachment(fmt.Sprintf("inspection-report-%d.pdf", link.ID), pdfBytes),
		},
	}
	if owner != nil {
		req.CC = []mailer.EmailAddress{*owner}
	}

	_, err = svc.SendEmail(ctx, req)
	return err
}

func ownerAddress(ctx context.Context, userId int) (*mailer.EmailAddress, error) {
	owner, err := models.GetUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if owner.Email == nil || *owner.Email == "" {
		return nil, nil
	}
	return &mailer.EmailAddress{Email: *owner.Email, Name: owner.Name}, nil
}

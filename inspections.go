package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/models"
	"github.com/homiestan/homiestan_backend/utils"
	"github.com/homiestan/homiestan_backend/workflow"
)

// requireInspection reads the link id the token middleware stashed in the
// context and loads the row.
func requireInspection(c *gin.Context) (*models.InspectionLink, bool) {
	ctx := c.Request.Context()

	linkId, ok := utils.GetInspectionLinkFromContext(ctx)
	if !ok || linkId == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	link, err := models.GetInspectionLink(ctx, linkId)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "inspection not found"})
		return nil, false
	}
	return link, true
}

// inspectionStateResponse is what the tenant client polls between steps.
func inspectionStateResponse(c *gin.Context, link *models.InspectionLink) gin.H {
	ctx := c.Request.Context()

	resp := gin.H{
		"state":       link.State,
		"tenantName":  link.TenantName,
		"roomCount":   len(link.RoomIds),
		"roomsDone":   link.CurrentRoomIndex,
		"submittedAt": link.SubmittedAt,
	}

	if roomId, ok := link.CurrentRoomId(); ok && link.State == models.InspectionStateInProgress {
		if room, err := models.GetRoom(ctx, link.HomeId, roomId); err == nil {
			resp["currentRoom"] = gin.H{
				"id":          room.ID,
				"name":        room.Name,
				"description": room.Description,
			}
		}
	}

	if link.State == models.InspectionStateSubmitted {
		if report, err := models.GetInspectionReportByLink(ctx, link.ID); err == nil {
			resp["reportReady"] = true
			resp["discrepancyCount"] = report.DiscrepancyCount
		}
	}
	return resp
}

func getInspectionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		link, ok := requireInspection(c)
		if !ok {
			return
		}

		// Opening the link starts the walkthrough.
		started, err := models.StartInspection(c.Request.Context(), link.ID)
		if err != nil {
			if errors.Is(err, models.ErrInspectionSubmitted) {
				c.JSON(http.StatusOK, gin.H{"data": inspectionStateResponse(c, link)})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": inspectionStateResponse(c, started)})
	}
}

// tenantSignUploadHandler signs uploads for the room the walkthrough is
// currently pointed at. Tenants cannot touch any other room.
func tenantSignUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		link, ok := requireInspection(c)
		if !ok {
			return
		}
		if link.State != models.InspectionStateInProgress {
			c.JSON(http.StatusConflict, gin.H{"error": "inspection is not in progress"})
			return
		}
		currentRoomId, ok := link.CurrentRoomId()
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": "no current room"})
			return
		}

		var req uploadSignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		req.HomeId = link.HomeId
		req.RoomId = currentRoomId

		resp, err := signRoomMediaUpload(c.Request.Context(), req)
		if err != nil {
			logUploadError(logger, err, utils.GetStorageProvider(), requestIDFromHeaders(c))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}

func tenantCompleteUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		link, ok := requireInspection(c)
		if !ok {
			return
		}

		var req uploadCompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		req.HomeId = link.HomeId

		media, err := completeRoomMediaUpload(c.Request.Context(), req)
		if err != nil {
			logUploadError(logger, err, utils.GetStorageProvider(), requestIDFromHeaders(c))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": media})
	}
}

type observeRoomRequest struct {
	MediaIds []int `json:"mediaIds" binding:"required,min=1"`
}

// observeRoomHandler queues the expected-vs-observed comparison for the
// current walkthrough room.
func observeRoomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()

		link, ok := requireInspection(c)
		if !ok {
			return
		}
		if link.State == models.InspectionStateSubmitted {
			c.JSON(http.StatusConflict, gin.H{"error": models.ErrInspectionSubmitted.Error()})
			return
		}
		if link.State != models.InspectionStateInProgress {
			c.JSON(http.StatusConflict, gin.H{"error": "inspection is not in progress"})
			return
		}

		roomId, valid := paramInt(c, "roomId")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}

		// Already reported: hand back the stored result instead of burning
		// another vision call.
		if existing, err := models.GetRoomReport(ctx, link.ID, roomId); err == nil {
			c.JSON(http.StatusOK, gin.H{"data": existing})
			return
		}

		currentRoomId, hasCurrent := link.CurrentRoomId()
		if !hasCurrent || currentRoomId != roomId {
			c.JSON(http.StatusConflict, gin.H{"error": models.ErrRoomOutOfSequence.Error()})
			return
		}

		var req observeRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one uploaded photo is required"})
			return
		}

		uploaded, err := models.GetUploadedMediaByIds(ctx, roomId, req.MediaIds)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve media"})
			return
		}
		if len(uploaded) != len(utils.UniqueSlice(req.MediaIds)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "one or more media files are missing or not uploaded"})
			return
		}

		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
		record := &models.AnalysisMessageRecord{
			HomeId:        link.HomeId,
			RoomId:        roomId,
			Action:        models.AnalysisActionObserve,
			MediaIds:      req.MediaIds,
			LinkId:        link.ID,
			CorrelationId: correlationId,
		}
		if err := models.EnqueueAnalysis(ctx, record); err != nil {
			logger.WithFields(logrus.Fields{
				"link_id": link.ID,
				"room_id": roomId,
				"error":   err.Error(),
			}).Error("[inspection.observe] enqueue failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue observation"})
			return
		}

		logger.WithFields(logrus.Fields{
			"link_id":   link.ID,
			"room_id":   roomId,
			"outbox_id": record.ID,
		}).Info("[inspection.observe] queued")

		c.JSON(http.StatusAccepted, gin.H{"data": gin.H{
			"roomId": roomId,
			"status": "processing",
		}})
	}
}

// getRoomReportHandler lets the tenant poll for the comparison result of a
// room they already walked through.
func getRoomReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		link, ok := requireInspection(c)
		if !ok {
			return
		}
		roomId, valid := paramInt(c, "roomId")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}

		report, err := models.GetRoomReport(c.Request.Context(), link.ID, roomId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": report})
	}
}

// submitInspectionHandler finalizes the walkthrough: flips the link to
// SUBMITTED, renders the PDF, stores it and emails the parties.
func submitInspectionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()

		link, ok := requireInspection(c)
		if !ok {
			return
		}

		submitted, err := models.SubmitInspection(ctx, link.ID)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInspectionSubmitted):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			case errors.Is(err, models.ErrInspectionNotComplete):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit inspection"})
			}
			return
		}

		report, err := workflow.FinalizeInspection(ctx, logger, submitted)
		if err != nil {
			// Submission itself already stuck; surface the report failure.
			logger.WithFields(logrus.Fields{
				"link_id": link.ID,
				"error":   err.Error(),
			}).Error("[inspection.submit] report generation failed")
			c.JSON(http.StatusOK, gin.H{"data": gin.H{
				"state":       submitted.State,
				"reportReady": false,
			}})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"state":            submitted.State,
			"reportReady":      true,
			"roomCount":        report.RoomCount,
			"discrepancyCount": report.DiscrepancyCount,
			"emailStatus":      report.EmailStatus,
		}})
	}
}

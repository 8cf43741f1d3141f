package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/inventory"
	"github.com/homiestan/homiestan_backend/models"
	"github.com/homiestan/homiestan_backend/utils"
)

func paramInt(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// requireOwnedHome reads the session user and the :homeId param and checks
// ownership. Writes the error response itself when the check fails.
func requireOwnedHome(c *gin.Context) (userId int, homeId int, ok bool) {
	ctx := c.Request.Context()

	userId, found := utils.GetUserIdFromContext(ctx)
	if !found || userId == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, 0, false
	}
	homeId, valid := paramInt(c, "homeId")
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid home id"})
		return 0, 0, false
	}
	if err := models.ValidateHomeOwnership(ctx, userId, homeId); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "home not found"})
		return 0, 0, false
	}
	return userId, homeId, true
}

func createHomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok || userId == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input models.NewHome
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingErrorResponse(c, err)
			return
		}

		home, err := models.CreateHome(ctx, userId, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": home})
	}
}

func listHomesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok || userId == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		homes, err := models.GetHomes(ctx, userId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list homes"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": homes})
	}
}

func getHomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok || userId == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		homeId, valid := paramInt(c, "homeId")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid home id"})
			return
		}

		home, err := models.GetHome(ctx, userId, homeId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "home not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": home})
	}
}

func updateHomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}

		var input models.NewHome
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingErrorResponse(c, err)
			return
		}

		home, err := models.UpdateHome(c.Request.Context(), userId, homeId, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": home})
	}
}

func deleteHomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}

		home, err := models.DeleteHome(c.Request.Context(), userId, homeId)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": home})
	}
}

func createRoomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}

		var input models.NewRoom
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingErrorResponse(c, err)
			return
		}

		room, err := models.CreateRoom(c.Request.Context(), homeId, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": room})
	}
}

func listRoomsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}

		rooms, err := models.GetRooms(c.Request.Context(), homeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rooms})
	}
}

func getRoomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}
		roomId, valid := paramInt(c, "id")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}

		room, err := models.GetRoom(c.Request.Context(), homeId, roomId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": room})
	}
}

func updateRoomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}
		roomId, valid := paramInt(c, "id")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}

		var input models.NewRoom
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingErrorResponse(c, err)
			return
		}

		room, err := models.UpdateRoom(c.Request.Context(), homeId, roomId, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": room})
	}
}

func deleteRoomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}
		roomId, valid := paramInt(c, "id")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}

		room, err := models.DeleteRoom(c.Request.Context(), homeId, roomId)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": room})
	}
}

func listRoomMediaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}
		roomId, valid := paramInt(c, "id")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}

		media, err := models.GetRoomMedia(c.Request.Context(), homeId, roomId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list media"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": media})
	}
}

func deleteMediaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}
		mediaId, valid := paramInt(c, "mediaId")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
			return
		}

		media, err := models.DeleteMedia(c.Request.Context(), homeId, mediaId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": media})
	}
}

type analyzeRoomRequest struct {
	MediaIds []int `json:"mediaIds"`
}

// analyzeRoomHandler queues a vision pass over the room's uploaded media.
// The actual analysis runs asynchronously off the outbox.
func analyzeRoomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()

		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}
		roomId, valid := paramInt(c, "id")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}

		// Body is optional; absence means "use every uploaded file".
		var req analyzeRoomRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}

		room, err := models.GetRoom(ctx, homeId, roomId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		if room.AnalysisState == models.AnalysisStateComplete && !config.AllowReanalysis() {
			c.JSON(http.StatusConflict, gin.H{"error": "room has already been analyzed"})
			return
		}

		mediaIds := req.MediaIds
		if len(mediaIds) == 0 {
			all, err := models.GetRoomMedia(ctx, homeId, roomId)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list media"})
				return
			}
			for _, m := range all {
				if m.Status == models.MediaStatusUploaded {
					mediaIds = append(mediaIds, m.ID)
				}
			}
		} else {
			uploaded, err := models.GetUploadedMediaByIds(ctx, roomId, mediaIds)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve media"})
				return
			}
			if len(uploaded) != len(utils.UniqueSlice(mediaIds)) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "one or more media files are missing or not uploaded"})
				return
			}
		}
		if len(mediaIds) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "room has no uploaded media to analyze"})
			return
		}

		if _, err := models.MarkRoomAnalyzing(ctx, homeId, roomId); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
		record := &models.AnalysisMessageRecord{
			HomeId:        homeId,
			RoomId:        roomId,
			Action:        models.AnalysisActionCatalog,
			MediaIds:      mediaIds,
			CorrelationId: correlationId,
		}
		if err := models.EnqueueAnalysis(ctx, record); err != nil {
			_ = models.MarkRoomAnalysisFailed(ctx, roomId, "failed to queue analysis")
			logger.WithFields(logrus.Fields{
				"home_id": homeId,
				"room_id": roomId,
				"error":   err.Error(),
			}).Error("[room.analyze] enqueue failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue analysis"})
			return
		}

		logger.WithFields(logrus.Fields{
			"home_id":   homeId,
			"room_id":   roomId,
			"media_ids": mediaIds,
			"outbox_id": record.ID,
		}).Info("[room.analyze] queued")

		c.JSON(http.StatusAccepted, gin.H{"data": gin.H{
			"roomId":        roomId,
			"analysisState": models.AnalysisStateAnalyzing,
		}})
	}
}

type setInventoryRequest struct {
	Objects []inventory.ObjectEntry `json:"objects" binding:"required"`
}

func setRoomInventoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}
		roomId, valid := paramInt(c, "id")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}

		var req setInventoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrorResponse(c, err)
			return
		}

		room, err := models.SetRoomInventory(c.Request.Context(), homeId, roomId, req.Objects)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": room})
	}
}

func clearRoomInventoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}
		roomId, valid := paramInt(c, "id")
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}

		room, err := models.ClearRoomInventory(c.Request.Context(), homeId, roomId)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": room})
	}
}

func createInspectionLinkHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}

		var input models.NewInspectionLink
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingErrorResponse(c, err)
			return
		}

		link, err := models.CreateInspectionLink(c.Request.Context(), homeId, &input)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, models.ErrInspectionHasNoRooms) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": link})
	}
}

func listInspectionLinksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}

		links, err := models.GetInspectionLinks(c.Request.Context(), homeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list inspection links"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": links})
	}
}

func listInspectionReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, homeId, ok := requireOwnedHome(c)
		if !ok {
			return
		}

		reports, err := models.GetInspectionReports(c.Request.Context(), homeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
			return
		}
		for _, report := range reports {
			if report.PdfObjectKey != "" {
				report.PdfAccessUrl = utils.BuildObjectAccessURL(report.PdfObjectKey)
			}
		}
		c.JSON(http.StatusOK, gin.H{"data": reports})
	}
}

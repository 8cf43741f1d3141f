package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/models"
	"github.com/homiestan/homiestan_backend/utils"
)

type uploadSignRequest struct {
	HomeId   int    `json:"homeId"`
	RoomId   int    `json:"roomId"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type uploadCompleteRequest struct {
	HomeId  int   `json:"homeId"`
	MediaId int   `json:"mediaId"`
	Size    int64 `json:"size"`
}

type uploadSignResponse struct {
	MediaId   int               `json:"mediaId"`
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ObjectKey string            `json:"objectKey"`
	AccessURL string            `json:"accessUrl"`
	ExpiresAt string            `json:"expiresAt"`
}

const (
	maxPhotoSizeBytes int64 = 10 * 1024 * 1024
	maxVideoSizeBytes int64 = 100 * 1024 * 1024
)

var photoMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var videoMimeTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

func mediaKindForMime(mimeType string) (string, int64, bool) {
	if photoMimeTypes[mimeType] {
		return models.MediaKindPhoto, maxPhotoSizeBytes, true
	}
	if videoMimeTypes[mimeType] {
		return models.MediaKindVideo, maxVideoSizeBytes, true
	}
	return "", 0, false
}

func extensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	default:
		return ""
	}
}

// signRoomMediaUpload validates the request, records a PENDING media row and
// signs a PUT URL for it. Shared between the owner and tenant upload paths.
func signRoomMediaUpload(ctx context.Context, req uploadSignRequest) (*uploadSignResponse, error) {
	if req.HomeId <= 0 || req.RoomId <= 0 {
		return nil, errors.New("homeId and roomId are required")
	}
	if req.FileName == "" || req.MimeType == "" || req.Size <= 0 {
		return nil, errors.New("fileName, mimeType and size are required")
	}

	kind, sizeLimit, ok := mediaKindForMime(req.MimeType)
	if !ok {
		return nil, errors.New("unsupported media type")
	}
	if req.Size > sizeLimit {
		return nil, fmt.Errorf("file size exceeds %dMB limit", sizeLimit/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(req.FileName))
	if ext == "" {
		ext = extensionFromMimeType(req.MimeType)
	}
	if ext == "" {
		return nil, errors.New("file extension is required")
	}

	objectKey := path.Join(
		fmt.Sprintf("homes/%d/rooms/%d", req.HomeId, req.RoomId),
		uuid.New().String()+ext,
	)

	if utils.GetStorageProvider() != utils.StorageProviderGCS {
		return nil, errors.New("storage provider not supported")
	}

	media, err := models.CreatePendingMedia(ctx, &models.RoomMedia{
		HomeId:      req.HomeId,
		RoomId:      req.RoomId,
		Kind:        kind,
		ObjectKey:   objectKey,
		ContentType: req.MimeType,
	})
	if err != nil {
		return nil, err
	}

	signed, err := utils.SignUpload(ctx, objectKey, req.MimeType, 15*time.Minute)
	if err != nil {
		return nil, err
	}

	return &uploadSignResponse{
		MediaId:   media.ID,
		UploadURL: signed.UploadURL,
		Method:    signed.Method,
		Headers:   signed.Headers,
		ObjectKey: signed.ObjectKey,
		AccessURL: signed.AccessURL,
		ExpiresAt: signed.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func signUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		requestID := requestIDFromHeaders(c)
		ctx := c.Request.Context()

		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok || userId == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req uploadSignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		if err := models.ValidateHomeOwnership(ctx, userId, req.HomeId); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "home not found"})
			return
		}

		resp, err := signRoomMediaUpload(ctx, req)
		if err != nil {
			logUploadError(logger, err, utils.GetStorageProvider(), requestID)
			message := "failed to sign upload"
			if !strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
				message = fmt.Sprintf("failed to sign upload: %v", err)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}

		logger.WithFields(logrus.Fields{
			"home_id":    req.HomeId,
			"room_id":    req.RoomId,
			"mime_type":  req.MimeType,
			"size":       req.Size,
			"object_key": resp.ObjectKey,
		}).Info("[upload.sign]")

		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}

// completeRoomMediaUpload verifies the object landed in storage, builds a
// photo thumbnail, and flips the media row to UPLOADED.
func completeRoomMediaUpload(ctx context.Context, req uploadCompleteRequest) (*models.RoomMedia, error) {
	if req.HomeId <= 0 || req.MediaId <= 0 {
		return nil, errors.New("homeId and mediaId are required")
	}

	db := config.GetDB()
	var media models.RoomMedia
	if err := db.WithContext(ctx).Model(&models.RoomMedia{}).
		Where("id = ? AND home_id = ?", req.MediaId, req.HomeId).
		Take(&media).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	exists, err := utils.ObjectExistsInGCS(ctx, media.ObjectKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.New("object was not uploaded")
	}

	thumbnailKey := ""
	if media.Kind == models.MediaKindPhoto {
		thumbnailKey, err = createThumbnail(ctx, media.ObjectKey)
		if err != nil {
			return nil, err
		}
	}

	return models.MarkMediaUploaded(ctx, req.HomeId, req.MediaId, req.Size, thumbnailKey)
}

func completeUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		requestID := requestIDFromHeaders(c)
		ctx := c.Request.Context()

		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok || userId == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req uploadCompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		if err := models.ValidateHomeOwnership(ctx, userId, req.HomeId); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "home not found"})
			return
		}

		media, err := completeRoomMediaUpload(ctx, req)
		if err != nil {
			logUploadError(logger, err, utils.GetStorageProvider(), requestID)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		logger.WithFields(logrus.Fields{
			"object_key": media.ObjectKey,
			"media_id":   media.ID,
			"status":     "completed",
		}).Info("[upload.complete]")

		c.JSON(http.StatusOK, gin.H{"data": media})
	}
}

func createThumbnail(ctx context.Context, objectKey string) (string, error) {
	data, _, err := utils.ReadObjectFromGCS(ctx, objectKey, maxPhotoSizeBytes)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", err
	}

	thumbnailKey := thumbnailObjectKey(objectKey)
	if err := utils.UploadBytesToGCS(ctx, thumbnailKey, buf.Bytes(), "image/jpeg"); err != nil {
		return "", err
	}
	return thumbnailKey, nil
}

func thumbnailObjectKey(objectKey string) string {
	dir := path.Dir(objectKey)
	filename := path.Base(objectKey)
	return path.Join(dir, "thumbnails", filename)
}

func logUploadError(logger *logrus.Logger, err error, provider string, requestID string) {
	logger.WithFields(logrus.Fields{
		"error":      err.Error(),
		"provider":   provider,
		"request_id": requestID,
	}).Error("[upload.error]")
}

func requestIDFromHeaders(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader("X-Correlation-Id")); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader("X-Request-Id")); id != "" {
		return id
	}
	return fmt.Sprintf("upload-%d", time.Now().UnixNano())
}

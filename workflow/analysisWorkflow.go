package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/inventory"
	"github.com/homiestan/homiestan_backend/models"
	"github.com/homiestan/homiestan_backend/utils"
	"github.com/homiestan/homiestan_backend/vision"
)

// per-object cap for vision downloads
const maxMediaDownloadBytes = 20 << 20

// VisionAnalyzer is what the workflow needs from the vision layer; the
// concrete Gemini client satisfies it.
type VisionAnalyzer interface {
	Catalog(ctx context.Context, media []vision.MediaInput) ([]inventory.ObjectEntry, error)
	Observe(ctx context.Context, media []vision.MediaInput) ([]inventory.ObjectEntry, error)
}

// ProcessAnalysisMessage routes one outbox message to its handler.
func ProcessAnalysisMessage(ctx context.Context, logger *logrus.Logger, analyzer VisionAnalyzer, m config.AnalysisMessage) error {
	switch m.Action {
	case models.AnalysisActionCatalog:
		return processCatalog(ctx, logger, analyzer, m)
	case models.AnalysisActionObserve:
		return processObservation(ctx, logger, analyzer, m)
	default:
		return fmt.Errorf("unknown analysis action %q", m.Action)
	}
}

func downloadMedia(ctx context.Context, roomId int, mediaIds []int) ([]vision.MediaInput, error) {
	media, err := models.GetUploadedMediaByIds(ctx, roomId, mediaIds)
	if err != nil {
		return nil, err
	}
	if len(media) == 0 {
		return nil, errors.New("no uploaded media found for analysis")
	}

	inputs := make([]vision.MediaInput, 0, len(media))
	for _, m := range media {
		data, contentType, err := utils.ReadObjectFromGCS(ctx, m.ObjectKey, maxMediaDownloadBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to read media %d: %w", m.ID, err)
		}
		if contentType == "" {
			contentType = m.ContentType
		}
		inputs = append(inputs, vision.MediaInput{Data: data, ContentType: contentType})
	}
	return inputs, nil
}

// processCatalog runs one owner analysis pass: download media, enumerate
// objects, fold the result into the room's canonical inventory. The merge is
// applied under the home lock so passes for a room land one at a time.
func processCatalog(ctx context.Context, logger *logrus.Logger, analyzer VisionAnalyzer, m config.AnalysisMessage) error {

	inputs, err := downloadMedia(ctx, m.RoomId, m.MediaIds)
	if err != nil {
		_ = models.MarkRoomAnalysisFailed(ctx, m.RoomId, err.Error())
		return err
	}

	entries, err := analyzer.Catalog(ctx, inputs)
	if err != nil {
		_ = models.MarkRoomAnalysisFailed(ctx, m.RoomId, err.Error())
		return err
	}

	release, err := utils.HomeLock(ctx, m.HomeId, "AnalysisMerge", "analysisWorkflow.go", "processCatalog")
	if err != nil {
		return err
	}
	defer release()

	room, err := models.ApplyMergedInventory(ctx, m.RoomId, entries)
	if err != nil {
		_ = models.MarkRoomAnalysisFailed(ctx, m.RoomId, err.Error())
		return err
	}

	logger.WithFields(logrus.Fields{
		"field":       "AnalysisWorkflow",
		"home_id":     m.HomeId,
		"room_id":     m.RoomId,
		"object_keys": len(room.Inventory),
		"total_count": room.Inventory.TotalCount(),
	}).Info("room catalog analysis complete")
	return nil
}

// processObservation runs one tenant inspection step: observe the room,
// compare against the owner's expected inventory and write the immutable
// per-room report, then advance the walkthrough. Re-delivery after the
// report exists only re-attempts the advance.
func processObservation(ctx context.Context, logger *logrus.Logger, analyzer VisionAnalyzer, m config.AnalysisMessage) error {

	link, err := models.GetInspectionLink(ctx, m.LinkId)
	if err != nil {
		return err
	}
	if link.State == models.InspectionStateSubmitted {
		return models.ErrInspectionSubmitted
	}

	// Idempotency: a report for this room means the analysis already ran.
	if _, err := models.GetRoomReport(ctx, m.LinkId, m.RoomId); err == nil {
		if _, err := models.AdvanceInspection(ctx, m.LinkId, m.RoomId); err != nil &&
			!errors.Is(err, models.ErrRoomOutOfSequence) {
			return err
		}
		return nil
	}

	currentRoomId, ok := link.CurrentRoomId()
	if !ok || currentRoomId != m.RoomId {
		return models.ErrRoomOutOfSequence
	}

	room, err := models.GetRoom(ctx, m.HomeId, m.RoomId)
	if err != nil {
		return err
	}

	inputs, err := downloadMedia(ctx, m.RoomId, m.MediaIds)
	if err != nil {
		return err
	}

	entries, err := analyzer.Observe(ctx, inputs)
	if err != nil {
		return err
	}

	// An empty observation is valid: the room may genuinely be empty.
	observed := inventory.Merge(nil, entries)
	report := inventory.Compare(room.Inventory, observed)

	release, err := utils.HomeLock(ctx, m.HomeId, "InspectionStep", "analysisWorkflow.go", "processObservation")
	if err != nil {
		return err
	}
	defer release()

	if _, err := models.CreateRoomReport(ctx, &models.RoomReport{
		InspectionLinkId:  m.LinkId,
		RoomId:            m.RoomId,
		RoomName:          room.Name,
		ExpectedInventory: room.Inventory,
		ObservedInventory: observed,
		Report:            report,
	}); err != nil {
		return err
	}

	if _, err := models.AdvanceInspection(ctx, m.LinkId, m.RoomId); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"field":         "AnalysisWorkflow",
		"home_id":       m.HomeId,
		"room_id":       m.RoomId,
		"link_id":       m.LinkId,
		"discrepancies": len(report.Discrepancies),
	}).Info("room observation complete")
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"

	"github.com/homiestan/homiestan_backend/config"
	"github.com/homiestan/homiestan_backend/models"
	"github.com/homiestan/homiestan_backend/utils"
	"github.com/homiestan/homiestan_backend/vision"
	"github.com/homiestan/homiestan_backend/workflow"
)

var (
	homeMutexMap = make(map[int]*sync.Mutex)
	globalMutex  = &sync.Mutex{}
)

var (
	sharedAnalyzer     *vision.Analyzer
	sharedAnalyzerErr  error
	sharedAnalyzerOnce sync.Once
)

func getAnalyzer(ctx context.Context) (*vision.Analyzer, error) {
	sharedAnalyzerOnce.Do(func() {
		sharedAnalyzer, sharedAnalyzerErr = vision.NewAnalyzer(ctx)
	})
	return sharedAnalyzer, sharedAnalyzerErr
}

// RunAnalysisWorkflow attaches a pull subscriber to the analysis topic. Used
// when the service runs outside Cloud Run push delivery.
func RunAnalysisWorkflow() error {
	logger := config.GetLogger()
	ctx := context.Background()
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(client, os.Getenv("PUBSUB_TOPIC"))
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, os.Getenv("PUBSUB_SUBSCRIPTION"), topic)
	if err != nil {
		return err
	}
	// Specify the number of concurrent processes
	sub.ReceiveSettings.MaxOutstandingMessages = 10

	callback := func(ctx context.Context, msg *pubsub.Message) {
		m := config.AnalysisMessage{}
		err := json.Unmarshal(msg.Data, &m)
		if err != nil {
			config.LogError(logger, "analysisProcessor.go", "RunAnalysisWorkflow", "Unmarshaling pubsub message", msg.Data, err)
			msg.Ack() // malformed, never retryable
			return
		}

		ctx = context.WithValue(ctx, utils.ContextKeyUserId, 0)
		ctx = context.WithValue(ctx, utils.ContextKeyUserName, "System")
		ctx = context.WithValue(ctx, utils.ContextKeyHomeId, m.HomeId)
		if err := ProcessMessage(ctx, logger, m); err != nil {
			logger.WithFields(logrus.Fields{
				"field":      "AnalysisWorkflow",
				"home_id":    m.HomeId,
				"room_id":    m.RoomId,
				"action":     m.Action,
				"message_id": msg.ID,
			}).Error("pubsub processing failed: " + err.Error())
			msg.Nack()
			return
		}
		msg.Ack()
	}

	go func() {
		err := sub.Receive(ctx, callback)
		if err != nil {
			config.LogError(logger, "analysisProcessor.go", "RunAnalysisWorkflow", "Failed to receive messages", nil, err)
		}
	}()

	return nil
}

// ProcessMessage runs one analysis request end to end, bracketed by the
// outbox processing-status bookkeeping. Per-home serialization keeps merges
// and walkthrough steps ordered within a single instance; the Redis lock
// inside the workflow covers the cross-instance case.
func ProcessMessage(ctx context.Context, logger *logrus.Logger, m config.AnalysisMessage) error {

	globalMutex.Lock()
	mutex, exists := homeMutexMap[m.HomeId]
	if !exists {
		mutex = &sync.Mutex{}
		homeMutexMap[m.HomeId] = mutex
	}
	globalMutex.Unlock()

	mutex.Lock()
	defer mutex.Unlock()

	skip, err := markOutboxProcessing(ctx, m.ID)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	analyzer, err := getAnalyzer(ctx)
	if err != nil {
		// No Gemini credentials: permanent failure for this run.
		if m.Action == models.AnalysisActionCatalog {
			_ = models.MarkRoomAnalysisFailed(ctx, m.RoomId, "vision service unavailable")
		}
		_, _ = markOutboxProcessFailure(ctx, logger, m, err)
		return err
	}

	if err := workflow.ProcessAnalysisMessage(ctx, logger, analyzer, m); err != nil {
		isDead, markErr := markOutboxProcessFailure(ctx, logger, m, err)
		if markErr != nil {
			return markErr
		}
		if isDead {
			// Exhausted retries: ack/drop so the message stops looping.
			return nil
		}
		return err
	}

	return markOutboxProcessSuccess(ctx, m.ID)
}

package consumer

import (
	"context"
	"encoding/json"
	"go-paynorth/internal/events"
	"go-paynorth/internal/paystub"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeRunApproved renders paystub slips for every member of a newly
// approved run. Slip rendering is deliberately off the approval request
// path: approval commits first, PDFs follow.
func ConsumeRunApproved(
	ctx context.Context,
	reader *kafkago.Reader,
	paystubService paystub.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.run_approved")
	log.Info("run approved consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("run approved consumer stopped")
				return
			}
			log.Error("fetch run approved message failed", zap.Error(err))
			continue
		}

		var event events.PayrollRunApprovedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode run approved event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		generated, err := paystubService.GenerateSlipsForRun(ctx, event.CompanyID, event.RunID)
		if err != nil {
			log.Error("generate slips for run failed",
				zap.String("run_id", event.RunID),
				zap.String("company_id", event.CompanyID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit run approved message failed", zap.Error(err))
			continue
		}

		log.Info("slips generated for approved run",
			zap.String("run_id", event.RunID),
			zap.String("company_id", event.CompanyID),
			zap.Int("generated", generated),
		)
	}
}

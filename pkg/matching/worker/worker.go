package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/joripage/matching-engine/pkg/matching/model"
	"github.com/joripage/matching-engine/pkg/matching/repo"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	fetchBatch = 50
	fetchWait  = 2 * time.Second
)

// Worker persists trade events published on a JetStream subject.
type Worker struct {
	trade  repo.ITrade
	logger *zap.Logger
}

func NewWorker(repo repo.IRepo, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		trade:  repo.Trade(),
		logger: logger,
	}
}

// StartConsumer pulls trade events with a durable consumer until ctx is done.
func (w *Worker) StartConsumer(ctx context.Context, js nats.JetStreamContext, subject, durable string) error {
	sub, err := js.PullSubscribe(subject, durable)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe() // nolint

	for {
		if ctx.Err() != nil {
			return nil
		}

		fctx, cancel := context.WithTimeout(ctx, fetchWait)
		msgs, err := sub.Fetch(fetchBatch, nats.Context(fctx))
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Warn("fetch trade events", zap.Error(err))
			continue
		}

		w.handleMessages(ctx, msgs)
	}
}

// handleMessages stores a fetched batch in one insert. Malformed messages are
// acked and dropped; a failed insert leaves the batch unacked for redelivery.
func (w *Worker) handleMessages(ctx context.Context, msgs []*nats.Msg) {
	records := make([]*model.TradeEvent, 0, len(msgs))
	valid := make([]*nats.Msg, 0, len(msgs))

	for _, msg := range msgs {
		var ev model.TradeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.TradeID == "" {
			w.logger.Error("drop malformed trade event", zap.ByteString("data", msg.Data), zap.Error(err))
			_ = msg.Ack()
			continue
		}
		records = append(records, &ev)
		valid = append(valid, msg)
	}

	if _, err := w.trade.BulkCreate(ctx, records); err != nil {
		w.logger.Error("store trade events", zap.Int("count", len(records)), zap.Error(err))
		for _, msg := range valid {
			_ = msg.Nak()
		}
		return
	}

	for _, msg := range valid {
		_ = msg.Ack()
	}
	w.logger.Debug("stored trade events", zap.Int("count", len(records)))
}

package matching

import (
	"context"
	"encoding/json"
	"errors"

	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"github.com/joripage/matching-engine/pkg/matching/model"
	"github.com/nats-io/nats.go"
)

// TradeSink receives every trade once, in execution order per symbol.
type TradeSink interface {
	PublishTrade(ctx context.Context, ev *model.TradeEvent) error
}

// KafkaTradeSink publishes trades keyed by symbol so one symbol stays on one
// partition.
type KafkaTradeSink struct {
	producer *kafkawrapper.Producer
	topic    string
}

func NewKafkaTradeSink(producer *kafkawrapper.Producer, topic string) *KafkaTradeSink {
	return &KafkaTradeSink{producer: producer, topic: topic}
}

func (k *KafkaTradeSink) PublishTrade(ctx context.Context, ev *model.TradeEvent) error {
	return k.producer.PublishJSON(ctx, k.topic, ev.Symbol, ev, map[string]string{
		"trade_id": ev.TradeID,
		"symbol":   ev.Symbol,
	})
}

// NatsTradeSink publishes trades to a JetStream subject for the persistence
// worker. The trade id is the message id, so redelivered publishes dedupe.
type NatsTradeSink struct {
	js      nats.JetStreamContext
	subject string
}

func NewNatsTradeSink(js nats.JetStreamContext, subject string) *NatsTradeSink {
	return &NatsTradeSink{js: js, subject: subject}
}

func (n *NatsTradeSink) PublishTrade(ctx context.Context, ev *model.TradeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = n.js.Publish(n.subject, data, nats.MsgId(ev.TradeID), nats.Context(ctx))
	return err
}

// EnsureStream creates the JetStream stream carrying subject when missing.
func EnsureStream(js nats.JetStreamContext, stream, subject string) error {
	_, err := js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: []string{subject},
	})
	return err
}

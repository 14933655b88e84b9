package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/fastprodman/payments-engine/internal/events"
	"github.com/fastprodman/payments-engine/internal/services/accounts"
	"github.com/fastprodman/payments-engine/internal/services/engine"
)

const DefaultTopic = "account_summarized"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends account summaries of a completed run to Kafka, one
// message per account keyed by client id.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		now: time.Now,
	}
}

func (p *Publisher) PublishRun(ctx context.Context, runID uuid.UUID, snapshots []accounts.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	occurred := p.now().UTC()
	msgs := make([]kafka.Message, 0, len(snapshots))

	for _, s := range snapshots {
		data, err := json.Marshal(events.AccountSummarized{
			RunID:      runID.String(),
			ClientID:   s.ClientID,
			Available:  s.Available.Round(engine.AmountPrecision),
			Held:       s.Held.Round(engine.AmountPrecision),
			Total:      s.Total.Round(engine.AmountPrecision),
			Locked:     s.Locked,
			OccurredAt: occurred,
		})
		if err != nil {
			return fmt.Errorf("marshal client %d: %w", s.ClientID, err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(s.ClientID), 10)),
			Value: data,
		})
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	if err != nil {
		return fmt.Errorf("write messages: %w", err)
	}

	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Package broker owns the Kafka writers and readers: post-ingest fan-out,
// the DLQ for unparseable intake payloads, and the archiver's consumer.
package broker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
)

// Producer holds the fan-out and DLQ writers.
type Producer struct {
	notify *kafka.Writer
	dlq    *kafka.Writer
}

func NewProducer(brokers []string, notifyTopic, dlqTopic string) *Producer {
	balancer := &kafka.Hash{} // partition by robot id
	return &Producer{
		notify: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        notifyTopic,
			Balancer:     balancer,
			BatchSize:    100,
			RequiredAcks: kafka.RequireAll,
		},
		dlq: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        dlqTopic,
			Balancer:     balancer,
			BatchSize:    10,
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// NotifyIngested publishes the post-write fan-out event, keyed by robot id
// so one robot's records stay ordered within a partition.
func (p *Producer) NotifyIngested(ctx context.Context, robotID, organizationID string, rec *model.RobotTelemetryRecord) error {
	evt := model.IngestedEvent{
		RobotID:        robotID,
		OrganizationID: organizationID,
		Record:         *rec,
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.notify.WriteMessages(ctx, kafka.Message{Key: []byte(robotID), Value: b})
}

func (p *Producer) SendDLQ(ctx context.Context, key, value []byte) error {
	return p.dlq.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
}

func (p *Producer) Close() {
	_ = p.notify.Close()
	_ = p.dlq.Close()
}

// Consumer wraps the archiver's reader on the fan-out topic.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers, groupID, topic string) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         strings.Split(brokers, ","),
		GroupID:         groupID,
		Topic:           topic,
		StartOffset:     kafka.LastOffset,
		CommitInterval:  time.Second,
		MinBytes:        1,
		MaxBytes:        10e6,
		ReadLagInterval: -1,
	})
	return &Consumer{reader: r}
}

func (c *Consumer) Fetch(ctx context.Context) (kafka.Message, error) {
	return c.reader.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, msgs ...kafka.Message) error {
	return c.reader.CommitMessages(ctx, msgs...)
}

func (c *Consumer) Close() error { return c.reader.Close() }

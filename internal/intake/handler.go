// Package intake bridges the MQTT topic to the ingestion engine: schema
// validation, envelope decoding, and DLQ routing for payloads the engine
// rejects.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"
	"unicode/utf8"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
	"github.com/djmorgan26/urfmp-sub001/internal/processing"
	"github.com/djmorgan26/urfmp-sub001/internal/schemaval"
)

// DLQSender receives payloads the intake path rejects. *broker.Producer is
// the production implementation.
type DLQSender interface {
	SendDLQ(ctx context.Context, key, value []byte) error
}

type Handler struct {
	proc     *processing.Processor
	producer DLQSender
	logger   *log.Logger
}

func NewHandler(proc *processing.Processor, producer DLQSender, logger *log.Logger) *Handler {
	return &Handler{proc: proc, producer: producer, logger: logger}
}

func (h *Handler) HandleMessage(ctx context.Context, msg mqtt.Message) {
	receivedAt := time.Now().UTC()
	payload := msg.Payload()

	h.logger.Printf("[intake] mqtt rx: topic=%s qos=%d bytes=%d payload=%s",
		msg.Topic(), msg.Qos(), len(payload), Truncate(payload, 512))

	if err := schemaval.ValidateEnvelope(payload); err != nil {
		h.reject(ctx, "schema_validation", msg.Topic(), payload, receivedAt, err)
		return
	}

	var env model.IngestEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		h.reject(ctx, "decode_envelope", msg.Topic(), payload, receivedAt, err)
		return
	}
	var reading model.TelemetryReading
	if err := json.Unmarshal(env.Data, &reading); err != nil {
		h.reject(ctx, "decode_reading", msg.Topic(), payload, receivedAt, err)
		return
	}

	rec, err := h.proc.Ingest(ctx, env.RobotID, env.OrganizationID, &reading, env.Timestamp, env.Metadata)
	if err != nil {
		if isCallerError(err) {
			h.reject(ctx, "ingest", msg.Topic(), payload, receivedAt, err)
			return
		}
		// Store failure: fatal to this message, nothing to DLQ. Redelivery
		// is up to the broker QoS.
		h.logger.Printf("[intake] ingest failed: robot=%s err=%v", env.RobotID, err)
		return
	}
	h.logger.Printf("[intake] ingested: robot=%s record=%s", rec.RobotID, rec.ID)
}

func (h *Handler) reject(ctx context.Context, stage, topic string, payload []byte, receivedAt time.Time, cause error) {
	h.logger.Printf("[intake] rejected at %s, sending to DLQ: %v | payload=%s", stage, cause, Truncate(payload, 512))
	dlq := model.DLQEnvelope{
		Error:      cause.Error(),
		Stage:      stage,
		Topic:      topic,
		Original:   json.RawMessage(payload),
		ReceivedAt: receivedAt,
	}
	b, _ := json.Marshal(dlq)
	if err := h.producer.SendDLQ(ctx, []byte("invalid"), b); err != nil {
		h.logger.Printf("[intake] dlq publish failed: %v", err)
	}
}

func isCallerError(err error) bool {
	return errors.Is(err, processing.ErrInvalidIdentifier) ||
		errors.Is(err, processing.ErrNotFound) ||
		errors.Is(err, processing.ErrNoValidMetrics) ||
		errors.Is(err, processing.ErrValidation)
}

// Truncate clips a payload preview to at most n bytes, backing up to a rune
// boundary so a multi-byte character is never split.
func Truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "…"
}

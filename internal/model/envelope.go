package model

import (
	"encoding/json"
	"time"
)

// IngestEnvelope is the wire shape accepted on the telemetry intake topic.
type IngestEnvelope struct {
	RobotID        string          `json:"robotId"`
	OrganizationID string          `json:"organizationId"`
	Timestamp      *time.Time      `json:"timestamp,omitempty"`
	Data           json.RawMessage `json:"data"`
	Metadata       *RecordMetadata `json:"metadata,omitempty"`
}

// IngestedEvent is published to the fan-out topic after the durable write.
type IngestedEvent struct {
	RobotID        string               `json:"robotId"`
	OrganizationID string               `json:"organizationId"`
	Record         RobotTelemetryRecord `json:"record"`
}

// DLQEnvelope wraps a payload that could not be ingested.
type DLQEnvelope struct {
	Error      string          `json:"error"`
	Stage      string          `json:"stage"`
	Topic      string          `json:"topic,omitempty"`
	Original   json.RawMessage `json:"original"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// ArchiveRow is the flat cold-storage shape written to parquet parts.
type ArchiveRow struct {
	RobotID        string  `parquet:"name=robot_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	OrganizationID string  `parquet:"name=organization_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Metric         string  `parquet:"name=metric, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Value          float64 `parquet:"name=value, type=DOUBLE"`
	Unit           string  `parquet:"name=unit, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Metadata       string  `parquet:"name=metadata, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp      int64   `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	RecordID       string  `parquet:"name=record_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

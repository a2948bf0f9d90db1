package processing

import (
	"context"
	"time"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
)

// RangeQuery bounds a time-ordered read of flat rows.
type RangeQuery struct {
	RobotID        string
	OrganizationID string
	Metric         string    // empty = all metrics
	From           time.Time // zero = unbounded
	To             time.Time // zero = now
	RowLimit       int
}

// BucketQuery describes a store-native windowed aggregation over one metric.
// An empty RobotID spans every robot in the organization, resolved store-side
// via the organization tag, never by client-side filtering.
type BucketQuery struct {
	OrganizationID string
	RobotID        string
	Metric         string
	Fn             AggregateFunc
	Window         time.Duration
	WindowLabel    string
	From           time.Time
	To             time.Time
}

// MetricStore is the append-only time-series sink keyed by
// (time, robot, metric). BatchInsert must be all-or-nothing per call.
type MetricStore interface {
	BatchInsert(ctx context.Context, entries []model.MetricEntry) error
	RangeQuery(ctx context.Context, q RangeQuery) ([]model.MetricEntry, error)
	BucketAggregate(ctx context.Context, q BucketQuery) ([]model.AggregationResult, error)
	ListMetrics(ctx context.Context, robotID, organizationID string) ([]model.MetricInfo, error)
}

// RobotRegistry confirms that a robot id belongs to an organization.
type RobotRegistry interface {
	RobotExists(ctx context.Context, robotID, organizationID string) (bool, error)
}

// TelemetryCache holds the TTL-bounded latest record and the last-seen mark.
// Latest entries are scoped by (robot, organization) so cache hits honor the
// same tenant boundary as store queries.
type TelemetryCache interface {
	SetLatest(ctx context.Context, robotID, organizationID string, rec *model.RobotTelemetryRecord, ttl time.Duration) error
	GetLatest(ctx context.Context, robotID, organizationID string) (*model.RobotTelemetryRecord, bool, error)
	SetLastSeen(ctx context.Context, robotID string, t time.Time) error
}

// Notifier fans an ingested record out to real-time subscribers. Invoked
// only after the durable write succeeds.
type Notifier interface {
	NotifyIngested(ctx context.Context, robotID, organizationID string, rec *model.RobotTelemetryRecord) error
}

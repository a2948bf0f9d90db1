// Package processing hosts the telemetry engine: ingestion orchestration,
// the read paths (latest, history, available metrics) and windowed
// aggregation. It talks to the outside world only through the ports in
// ports.go.
package processing

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
	"github.com/djmorgan26/urfmp-sub001/internal/telemetry"
)

const (
	defaultCacheTTL     = 5 * time.Minute
	defaultHistoryLimit = 1000
	// latestLookback bounds the range read behind a latest-telemetry cache
	// miss.
	latestLookback = 24 * time.Hour
)

type Processor struct {
	store    MetricStore
	registry RobotRegistry
	cache    TelemetryCache
	notifier Notifier
	logger   *log.Logger

	cacheTTL time.Duration
	testIDs  map[string]struct{}
	now      func() time.Time
}

type Options struct {
	CacheTTL time.Duration
	// TestRobotIDs is the explicit allow-list of non-UUID robot ids accepted
	// alongside canonical UUIDs (fixtures, simulators).
	TestRobotIDs []string
}

func NewProcessor(store MetricStore, registry RobotRegistry, cache TelemetryCache, notifier Notifier, logger *log.Logger, opts Options) *Processor {
	p := &Processor{
		store:    store,
		registry: registry,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		cacheTTL: opts.CacheTTL,
		testIDs:  make(map[string]struct{}, len(opts.TestRobotIDs)),
		now:      time.Now,
	}
	if p.cacheTTL <= 0 {
		p.cacheTTL = defaultCacheTTL
	}
	for _, id := range opts.TestRobotIDs {
		if id = strings.TrimSpace(id); id != "" {
			p.testIDs[id] = struct{}{}
		}
	}
	return p
}

// Ingest validates, extracts, writes the whole batch atomically and then
// runs the best-effort side effects (latest cache, last-seen, fan-out). The
// returned record echoes the input verbatim; it is not re-read from the
// store. Re-ingesting an identical (robot, timestamp, reading) produces
// duplicate rows: there is no dedup key here.
func (p *Processor) Ingest(ctx context.Context, robotID, organizationID string, reading *model.TelemetryReading, at *time.Time, meta *model.RecordMetadata) (*model.RobotTelemetryRecord, error) {
	if err := p.validateRobotID(robotID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(organizationID) == "" {
		return nil, fmt.Errorf("%w: missing organization id", ErrValidation)
	}
	if reading == nil {
		return nil, fmt.Errorf("%w: missing data", ErrValidation)
	}
	if err := validateReading(reading); err != nil {
		return nil, err
	}

	// Check-then-write against the registry is not transactional; the
	// narrow TOCTOU window is accepted.
	ok, err := p.registry.RobotExists(ctx, robotID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("registry lookup: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s in organization %s", ErrNotFound, robotID, organizationID)
	}

	entries := telemetry.Extract(reading)
	if len(entries) == 0 {
		return nil, ErrNoValidMetrics
	}

	ts := p.now().UTC()
	if at != nil {
		ts = at.UTC()
	}
	telemetry.Stamp(entries, robotID, organizationID, ts)

	if err := p.store.BatchInsert(ctx, entries); err != nil {
		return nil, fmt.Errorf("batch insert: %w", err)
	}

	rec := &model.RobotTelemetryRecord{
		ID:        telemetry.RecordID(robotID, ts),
		RobotID:   robotID,
		Timestamp: ts,
		Data:      *reading,
		Metadata:  meta,
	}

	// Side effects after the durable write are best-effort: a failure is
	// logged as cache/metadata drift, never rolled into the call result.
	if err := p.cache.SetLatest(ctx, robotID, organizationID, rec, p.cacheTTL); err != nil {
		p.logger.Printf("[ingest] latest cache update failed: robot=%s err=%v", robotID, err)
	}
	if err := p.cache.SetLastSeen(ctx, robotID, ts); err != nil {
		p.logger.Printf("[ingest] last-seen update failed: robot=%s err=%v", robotID, err)
	}
	if p.notifier != nil {
		if err := p.notifier.NotifyIngested(ctx, robotID, organizationID, rec); err != nil {
			p.logger.Printf("[ingest] fan-out publish failed: robot=%s err=%v", robotID, err)
		}
	}
	return rec, nil
}

// Latest returns the most recent record for a robot, cache-first with a
// bounded range read behind a miss. Returns (nil, nil) when the robot has no
// telemetry in the lookback window.
func (p *Processor) Latest(ctx context.Context, robotID, organizationID string) (*model.RobotTelemetryRecord, error) {
	if err := p.validateRobotID(robotID); err != nil {
		return nil, err
	}
	rec, hit, err := p.cache.GetLatest(ctx, robotID, organizationID)
	if err != nil {
		p.logger.Printf("[latest] cache read failed, falling back to store: robot=%s err=%v", robotID, err)
	} else if hit {
		return rec, nil
	}

	rows, err := p.store.RangeQuery(ctx, RangeQuery{
		RobotID:        robotID,
		OrganizationID: organizationID,
		From:           p.now().Add(-latestLookback),
		RowLimit:       telemetry.RecordWidthHint(),
	})
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}
	records := sortedRecords(telemetry.Reconstruct(rows))
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// HistoryQuery filters a history read. Zero From/To leave the range open;
// Limit defaults to 1000 records.
type HistoryQuery struct {
	Metric string
	From   time.Time
	To     time.Time
	Limit  int
}

// History returns reconstructed records in descending time order.
func (p *Processor) History(ctx context.Context, robotID, organizationID string, q HistoryQuery) ([]model.RobotTelemetryRecord, error) {
	if err := p.validateRobotID(robotID); err != nil {
		return nil, err
	}
	if q.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrValidation)
	}
	if q.Limit == 0 {
		q.Limit = defaultHistoryLimit
	}
	if q.Metric != "" && !telemetry.Supported(q.Metric) {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrValidation, q.Metric)
	}

	// Row budget instead of a per-series limit: one record spans many rows.
	rows, err := p.store.RangeQuery(ctx, RangeQuery{
		RobotID:        robotID,
		OrganizationID: organizationID,
		Metric:         q.Metric,
		From:           q.From,
		To:             q.To,
		RowLimit:       q.Limit * telemetry.RecordWidthHint(),
	})
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}
	records := sortedRecords(telemetry.Reconstruct(rows))
	if len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}

// AvailableMetrics lists the distinct metrics observed for a robot. Types
// come from the extractor's field table, so declared and inferred types
// cannot diverge.
func (p *Processor) AvailableMetrics(ctx context.Context, robotID, organizationID string) ([]model.MetricInfo, error) {
	if err := p.validateRobotID(robotID); err != nil {
		return nil, err
	}
	infos, err := p.store.ListMetrics(ctx, robotID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	for i := range infos {
		infos[i].Type = telemetry.MetricType(infos[i].Name)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (p *Processor) validateRobotID(robotID string) error {
	if robotID == "" {
		return fmt.Errorf("%w: empty robot id", ErrInvalidIdentifier)
	}
	if _, allowed := p.testIDs[robotID]; allowed {
		return nil
	}
	if _, err := uuid.Parse(robotID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, robotID)
	}
	return nil
}

func validateReading(r *model.TelemetryReading) error {
	if g := r.GPSPosition; g != nil {
		if g.Latitude != nil && (*g.Latitude < -90 || *g.Latitude > 90) {
			return fmt.Errorf("%w: gps latitude %v outside [-90,90]", ErrValidation, *g.Latitude)
		}
		if g.Longitude != nil && (*g.Longitude < -180 || *g.Longitude > 180) {
			return fmt.Errorf("%w: gps longitude %v outside [-180,180]", ErrValidation, *g.Longitude)
		}
	}
	return nil
}

func sortedRecords(byTime map[time.Time]*model.RobotTelemetryRecord) []model.RobotTelemetryRecord {
	out := make([]model.RobotTelemetryRecord, 0, len(byTime))
	for _, rec := range byTime {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

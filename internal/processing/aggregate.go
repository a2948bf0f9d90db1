package processing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
	"github.com/djmorgan26/urfmp-sub001/internal/telemetry"
)

// AggregateFunc is a store-native aggregate. Unknown values are rejected
// before any query is built; there is no silent default.
type AggregateFunc string

const (
	FuncAvg   AggregateFunc = "avg"
	FuncMin   AggregateFunc = "min"
	FuncMax   AggregateFunc = "max"
	FuncSum   AggregateFunc = "sum"
	FuncCount AggregateFunc = "count"
)

// ParseAggregateFunc is the single validation stage for aggregation
// functions, shared by every caller.
func ParseAggregateFunc(s string) (AggregateFunc, error) {
	switch AggregateFunc(strings.ToLower(strings.TrimSpace(s))) {
	case FuncAvg:
		return FuncAvg, nil
	case FuncMin:
		return FuncMin, nil
	case FuncMax:
		return FuncMax, nil
	case FuncSum:
		return FuncSum, nil
	case FuncCount:
		return FuncCount, nil
	}
	return "", fmt.Errorf("%w: unknown aggregation type %q", ErrValidation, s)
}

var timeWindows = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// ParseTimeWindow maps a window label onto a store-native bucket width.
func ParseTimeWindow(s string) (time.Duration, error) {
	if d, ok := timeWindows[strings.TrimSpace(s)]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: unknown time window %q", ErrValidation, s)
}

// AggregateRequest carries the raw aggregation parameters. Metric,
// AggregationType and TimeWindow are required; RobotID omitted means the
// whole organization.
type AggregateRequest struct {
	OrganizationID  string
	RobotID         string
	Metric          string
	AggregationType string
	TimeWindow      string
	From            time.Time
	To              time.Time
}

// Aggregate validates the request, maps it onto a store-native bucketed
// aggregation and returns one row per (bucket, robot), buckets descending.
func (p *Processor) Aggregate(ctx context.Context, req AggregateRequest) ([]model.AggregationResult, error) {
	if strings.TrimSpace(req.OrganizationID) == "" {
		return nil, fmt.Errorf("%w: missing organization id", ErrValidation)
	}
	if strings.TrimSpace(req.Metric) == "" {
		return nil, fmt.Errorf("%w: missing metric", ErrValidation)
	}
	if !telemetry.Supported(req.Metric) {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrValidation, req.Metric)
	}
	if req.RobotID != "" {
		if err := p.validateRobotID(req.RobotID); err != nil {
			return nil, err
		}
	}
	fn, err := ParseAggregateFunc(req.AggregationType)
	if err != nil {
		return nil, err
	}
	window, err := ParseTimeWindow(req.TimeWindow)
	if err != nil {
		return nil, err
	}

	results, err := p.store.BucketAggregate(ctx, BucketQuery{
		OrganizationID: req.OrganizationID,
		RobotID:        req.RobotID,
		Metric:         req.Metric,
		Fn:             fn,
		Window:         window,
		WindowLabel:    strings.TrimSpace(req.TimeWindow),
		From:           req.From,
		To:             req.To,
	})
	if err != nil {
		return nil, fmt.Errorf("bucket aggregate: %w", err)
	}
	return results, nil
}

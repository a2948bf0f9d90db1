// Package database adapts the generic metric store ports onto InfluxDB 2.x.
// Every entry becomes one point: measurement fixed, tags carry identity
// (robot_id, organization_id, metric, unit, metadata keys), the single field
// "value" carries the observation.
package database

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
	"github.com/djmorgan26/urfmp-sub001/internal/processing"
)

type InfluxStore struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	queryAPI    api.QueryAPI
	bucket      string
	measurement string
}

func NewInfluxStore(url, token, org, bucket, measurement string) *InfluxStore {
	client := influxdb2.NewClient(url, token)
	return &InfluxStore{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(org, bucket),
		queryAPI:    client.QueryAPI(org),
		bucket:      bucket,
		measurement: measurement,
	}
}

func (s *InfluxStore) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

// BatchInsert writes all entries of one ingestion in a single blocking call,
// so a reader sees every metric for a timestamp or none of them.
func (s *InfluxStore) BatchInsert(ctx context.Context, entries []model.MetricEntry) error {
	if len(entries) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(entries))
	for i := range entries {
		points = append(points, s.buildPoint(&entries[i]))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

func (s *InfluxStore) buildPoint(e *model.MetricEntry) *write.Point {
	tags := map[string]string{
		"robot_id":        e.RobotID,
		"organization_id": e.OrganizationID,
		"metric":          e.Name,
	}
	if e.Unit != "" {
		tags["unit"] = e.Unit
	}
	for k, v := range e.Metadata {
		tags[k] = v
	}
	fields := map[string]interface{}{"value": e.Value}
	return write.NewPoint(s.measurement, tags, fields, e.Time)
}

func (s *InfluxStore) RangeQuery(ctx context.Context, q processing.RangeQuery) ([]model.MetricEntry, error) {
	res, err := s.queryAPI.Query(ctx, buildRangeFlux(s.bucket, s.measurement, q))
	if err != nil {
		return nil, fmt.Errorf("influx range query: %w", err)
	}
	defer res.Close()

	var entries []model.MetricEntry
	for res.Next() {
		entries = append(entries, entryFromRecord(res.Record()))
	}
	if res.Err() != nil {
		return nil, fmt.Errorf("influx range query: %w", res.Err())
	}
	return entries, nil
}

func (s *InfluxStore) BucketAggregate(ctx context.Context, q processing.BucketQuery) ([]model.AggregationResult, error) {
	res, err := s.queryAPI.Query(ctx, buildAggregateFlux(s.bucket, s.measurement, q))
	if err != nil {
		return nil, fmt.Errorf("influx aggregate query: %w", err)
	}
	defer res.Close()

	var results []model.AggregationResult
	for res.Next() {
		rec := res.Record()
		results = append(results, model.AggregationResult{
			RobotID:         stringValue(rec, "robot_id"),
			Metric:          q.Metric,
			TimeWindow:      q.WindowLabel,
			AggregationType: string(q.Fn),
			Value:           toFloat(rec.Value()),
			Timestamp:       rec.Time(),
		})
	}
	if res.Err() != nil {
		return nil, fmt.Errorf("influx aggregate query: %w", res.Err())
	}
	return results, nil
}

func (s *InfluxStore) ListMetrics(ctx context.Context, robotID, organizationID string) ([]model.MetricInfo, error) {
	res, err := s.queryAPI.Query(ctx, buildListMetricsFlux(s.bucket, s.measurement, robotID, organizationID))
	if err != nil {
		return nil, fmt.Errorf("influx list metrics: %w", err)
	}
	defer res.Close()

	var infos []model.MetricInfo
	for res.Next() {
		rec := res.Record()
		name := stringValue(rec, "metric")
		if name == "" {
			continue
		}
		infos = append(infos, model.MetricInfo{
			Name: name,
			Unit: stringValue(rec, "unit"),
		})
	}
	if res.Err() != nil {
		return nil, fmt.Errorf("influx list metrics: %w", res.Err())
	}
	return infos, nil
}

// Columns that belong to the Flux result or the fixed tag set; everything
// else on a row is metric metadata.
var reservedColumns = map[string]struct{}{
	"result": {}, "table": {}, "_start": {}, "_stop": {}, "_time": {},
	"_value": {}, "_field": {}, "_measurement": {},
	"robot_id": {}, "organization_id": {}, "metric": {}, "unit": {},
}

func entryFromRecord(rec *query.FluxRecord) model.MetricEntry {
	e := model.MetricEntry{
		Time:           rec.Time(),
		RobotID:        stringValue(rec, "robot_id"),
		OrganizationID: stringValue(rec, "organization_id"),
		Name:           stringValue(rec, "metric"),
		Unit:           stringValue(rec, "unit"),
		Value:          toFloat(rec.Value()),
	}
	for k, v := range rec.Values() {
		if _, reserved := reservedColumns[k]; reserved {
			continue
		}
		sv, ok := v.(string)
		if !ok || sv == "" {
			continue
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]string)
		}
		e.Metadata[k] = sv
	}
	return e
}

func stringValue(rec *query.FluxRecord, key string) string {
	if v, ok := rec.ValueByKey(key).(string); ok {
		return v
	}
	return ""
}

func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	default:
		return 0
	}
}

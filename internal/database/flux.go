package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/djmorgan26/urfmp-sub001/internal/processing"
)

// Flux text is assembled here, apart from any client state, so queries can
// be asserted without a server.

func fluxString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func fluxTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// fluxDuration renders a bucket width as a Flux duration literal
// (time.Duration.String would emit "1m0s", which Flux rejects).
func fluxDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	default:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
}

func fluxAggregateFn(fn processing.AggregateFunc) string {
	if fn == processing.FuncAvg {
		return "mean"
	}
	return string(fn)
}

func writeRange(b *strings.Builder, from, to time.Time) {
	b.WriteString("  |> range(start: ")
	if from.IsZero() {
		b.WriteString("0")
	} else {
		b.WriteString(fluxTime(from))
	}
	if !to.IsZero() {
		b.WriteString(", stop: ")
		b.WriteString(fluxTime(to))
	}
	b.WriteString(")\n")
}

func buildRangeFlux(bucket, measurement string, q processing.RangeQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", fluxString(bucket))
	writeRange(&b, q.From, q.To)
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %s and r._field == \"value\")\n", fluxString(measurement))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r.robot_id == %s and r.organization_id == %s)\n",
		fluxString(q.RobotID), fluxString(q.OrganizationID))
	if q.Metric != "" {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r.metric == %s)\n", fluxString(q.Metric))
	}
	// group() merges series so sort and limit act globally, not per series.
	b.WriteString("  |> group()\n")
	b.WriteString("  |> sort(columns: [\"_time\"], desc: true)\n")
	fmt.Fprintf(&b, "  |> limit(n: %d)\n", q.RowLimit)
	return b.String()
}

func buildAggregateFlux(bucket, measurement string, q processing.BucketQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", fluxString(bucket))
	writeRange(&b, q.From, q.To)
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %s and r._field == \"value\")\n", fluxString(measurement))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r.organization_id == %s)\n", fluxString(q.OrganizationID))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r.metric == %s)\n", fluxString(q.Metric))
	if q.RobotID != "" {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r.robot_id == %s)\n", fluxString(q.RobotID))
	}
	b.WriteString("  |> group(columns: [\"robot_id\"])\n")
	// timeSrc "_start" labels each bucket with its start.
	fmt.Fprintf(&b, "  |> aggregateWindow(every: %s, fn: %s, createEmpty: false, timeSrc: \"_start\")\n",
		fluxDuration(q.Window), fluxAggregateFn(q.Fn))
	b.WriteString("  |> sort(columns: [\"_time\"], desc: true)\n")
	return b.String()
}

func buildListMetricsFlux(bucket, measurement, robotID, organizationID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", fluxString(bucket))
	b.WriteString("  |> range(start: 0)\n")
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %s and r._field == \"value\")\n", fluxString(measurement))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r.robot_id == %s and r.organization_id == %s)\n",
		fluxString(robotID), fluxString(organizationID))
	b.WriteString("  |> group(columns: [\"metric\", \"unit\"])\n")
	b.WriteString("  |> last()\n")
	b.WriteString("  |> keep(columns: [\"metric\", \"unit\"])\n")
	return b.String()
}

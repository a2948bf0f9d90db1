package database

import (
	"strings"
	"testing"
	"time"

	"github.com/djmorgan26/urfmp-sub001/internal/processing"
)

func TestFluxString(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", `"plain"`},
		{`with "quotes"`, `"with \"quotes\""`},
		{`back\slash`, `"back\\slash"`},
		{"", `""`},
	}
	for _, c := range cases {
		if got := fluxString(c.in); got != c.want {
			t.Errorf("fluxString(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestFluxDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{time.Minute, "1m"},
		{15 * time.Minute, "15m"},
		{time.Hour, "1h"},
		{24 * time.Hour, "24h"},
		{7 * 24 * time.Hour, "168h"},
		{90 * time.Second, "90s"},
	}
	for _, c := range cases {
		if got := fluxDuration(c.in); got != c.want {
			t.Errorf("fluxDuration(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFluxAggregateFn(t *testing.T) {
	if got := fluxAggregateFn(processing.FuncAvg); got != "mean" {
		t.Errorf("avg maps to %q, want mean", got)
	}
	for _, fn := range []processing.AggregateFunc{processing.FuncMin, processing.FuncMax, processing.FuncSum, processing.FuncCount} {
		if got := fluxAggregateFn(fn); got != string(fn) {
			t.Errorf("%s maps to %q, want itself", fn, got)
		}
	}
}

func TestBuildRangeFlux(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	got := buildRangeFlux("fleet-telemetry", "telemetry", processing.RangeQuery{
		RobotID:        "robot-1",
		OrganizationID: "org-1",
		Metric:         "position.x",
		From:           from,
		To:             to,
		RowLimit:       61,
	})

	want := `from(bucket: "fleet-telemetry")
  |> range(start: 2026-03-01T00:00:00Z, stop: 2026-03-02T00:00:00Z)
  |> filter(fn: (r) => r._measurement == "telemetry" and r._field == "value")
  |> filter(fn: (r) => r.robot_id == "robot-1" and r.organization_id == "org-1")
  |> filter(fn: (r) => r.metric == "position.x")
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n: 61)
`
	if got != want {
		t.Fatalf("range flux mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildRangeFluxOpenRangeNoMetric(t *testing.T) {
	got := buildRangeFlux("b", "telemetry", processing.RangeQuery{
		RobotID:        "robot-1",
		OrganizationID: "org-1",
		RowLimit:       10,
	})
	if !strings.Contains(got, "range(start: 0)") {
		t.Errorf("open range must start at 0:\n%s", got)
	}
	if strings.Contains(got, "r.metric ==") {
		t.Errorf("no metric filter expected:\n%s", got)
	}
}

func TestBuildAggregateFlux(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got := buildAggregateFlux("fleet-telemetry", "telemetry", processing.BucketQuery{
		OrganizationID: "org-1",
		RobotID:        "robot-1",
		Metric:         "power",
		Fn:             processing.FuncAvg,
		Window:         time.Hour,
		From:           from,
	})

	want := `from(bucket: "fleet-telemetry")
  |> range(start: 2026-03-01T00:00:00Z)
  |> filter(fn: (r) => r._measurement == "telemetry" and r._field == "value")
  |> filter(fn: (r) => r.organization_id == "org-1")
  |> filter(fn: (r) => r.metric == "power")
  |> filter(fn: (r) => r.robot_id == "robot-1")
  |> group(columns: ["robot_id"])
  |> aggregateWindow(every: 1h, fn: mean, createEmpty: false, timeSrc: "_start")
  |> sort(columns: ["_time"], desc: true)
`
	if got != want {
		t.Fatalf("aggregate flux mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildAggregateFluxOrgWide(t *testing.T) {
	got := buildAggregateFlux("b", "telemetry", processing.BucketQuery{
		OrganizationID: "org-1",
		Metric:         "power",
		Fn:             processing.FuncCount,
		Window:         24 * time.Hour,
	})
	if strings.Contains(got, "r.robot_id ==") {
		t.Errorf("org-wide query must not filter on robot_id:\n%s", got)
	}
	if !strings.Contains(got, `group(columns: ["robot_id"])`) {
		t.Errorf("org-wide query must still group per robot:\n%s", got)
	}
	if !strings.Contains(got, "every: 24h, fn: count") {
		t.Errorf("window/fn mapping wrong:\n%s", got)
	}
}

func TestBuildListMetricsFlux(t *testing.T) {
	got := buildListMetricsFlux("fleet-telemetry", "telemetry", "robot-1", "org-1")
	want := `from(bucket: "fleet-telemetry")
  |> range(start: 0)
  |> filter(fn: (r) => r._measurement == "telemetry" and r._field == "value")
  |> filter(fn: (r) => r.robot_id == "robot-1" and r.organization_id == "org-1")
  |> group(columns: ["metric", "unit"])
  |> last()
  |> keep(columns: ["metric", "unit"])
`
	if got != want {
		t.Fatalf("list metrics flux mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

package telemetry

import (
	"reflect"
	"testing"
	"time"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

// fullReading populates every section the field table knows about.
func fullReading() *model.TelemetryReading {
	return &model.TelemetryReading{
		Position: &model.Position{
			X: fp(125.5), Y: fp(245.8), Z: fp(300.2),
			RX: fp(0.1), RY: fp(0.2), RZ: fp(0.3),
			Frame: "base",
		},
		JointAngles: &model.JointAngles{
			Joint1: fp(0.11), Joint2: fp(0.22), Joint3: fp(0.33), Joint4: fp(0.44),
			Joint5: fp(0.55), Joint6: fp(0.66), Joint7: fp(0.77), Joint8: fp(0.88),
			Unit: "rad",
		},
		Velocity:     &model.Velocity{Linear: fp(0.8), Angular: fp(0.05), Joint: fp(1.2)},
		Acceleration: fp(0.4),
		Force:        fp(12.5),
		Torque:       fp(3.3),
		Temperature: &model.Temperature{
			Ambient:    fp(23.4),
			Controller: fp(38.9),
			Motor: &model.MotorTemperature{
				Joint1: fp(40.1), Joint2: fp(41.2), Joint3: fp(42.3), Joint4: fp(43.4),
				Joint5: fp(44.5), Joint6: fp(45.6), Joint7: fp(46.7), Joint8: fp(47.8),
			},
			Unit: "celsius",
		},
		Voltage:      &model.Voltage{Supply: fp(48.0), Motor: fp(47.2), Controller: fp(12.1), Unit: "volt"},
		Current:      fp(6.4),
		Power:        fp(310.0),
		ProgramState: &model.ProgramState{Progress: fp(62.5), State: "running"},
		ToolData:     &model.ToolData{AnalogInput1: fp(0.33), AnalogInput2: fp(0.66)},
		Safety: &model.Safety{
			EmergencyStop:       bp(false),
			ProtectiveStop:      bp(false),
			ReducedMode:         bp(true),
			SafetyZoneViolation: bp(false),
		},
		GPSPosition: &model.GPSPosition{
			Latitude: fp(37.7749), Longitude: fp(-122.4194), Altitude: fp(16.0),
			Heading: fp(182.5), Speed: fp(1.4), Accuracy: fp(0.02), SatelliteCount: fp(14),
			Fix: "rtk",
		},
		Navigation: &model.Navigation{
			PathDeviation:         fp(0.03),
			EstimatedTimeToTarget: fp(92.0),
			MissionProgress:       fp(71.5),
			ObstacleDetected:      bp(false),
		},
		Custom: map[string]any{"gripperWear": 0.12, "cycleCount": 4211.0},
	}
}

func TestRoundTripFullReading(t *testing.T) {
	in := fullReading()
	entries := Extract(in)
	ts := mustTime(t, "2026-03-01T10:00:00Z")
	Stamp(entries, "robot-1", "org-1", ts)

	records := Reconstruct(entries)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[ts]
	if rec == nil {
		t.Fatalf("no record at %s", ts)
	}
	if !reflect.DeepEqual(rec.Data, *in) {
		t.Fatalf("round trip diverged:\n got %+v\nwant %+v", rec.Data, *in)
	}
}

func TestRoundTripPartialPositionHasNoSyntheticZeros(t *testing.T) {
	in := &model.TelemetryReading{
		Position: &model.Position{X: fp(125.5), Y: fp(245.8), Z: fp(300.2)},
	}
	entries := Extract(in)
	ts := mustTime(t, "2026-03-01T10:00:00Z")
	Stamp(entries, "robot-1", "org-1", ts)

	rec := Reconstruct(entries)[ts]
	if rec == nil {
		t.Fatalf("no record reconstructed")
	}
	p := rec.Data.Position
	if p == nil {
		t.Fatalf("position section missing")
	}
	if *p.X != 125.5 || *p.Y != 245.8 || *p.Z != 300.2 {
		t.Fatalf("position values diverged: %+v", p)
	}
	if p.RX != nil || p.RY != nil || p.RZ != nil {
		t.Fatalf("unmeasured rotation leaves must stay absent, got %+v", p)
	}
	if rec.Data.Temperature != nil || rec.Data.Safety != nil {
		t.Fatalf("untouched sections must stay nil")
	}
}

func TestReconstructGroupsByTimestamp(t *testing.T) {
	t1 := mustTime(t, "2026-03-01T10:00:00Z")
	t2 := mustTime(t, "2026-03-01T10:00:01Z")
	rows := []model.MetricEntry{
		{Time: t1, RobotID: "robot-1", Name: "power", Value: 300},
		{Time: t2, RobotID: "robot-1", Name: "power", Value: 305},
		{Time: t1, RobotID: "robot-1", Name: "current", Value: 6.1},
	}
	records := Reconstruct(rows)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[t1]
	if first == nil || *first.Data.Power != 300 || *first.Data.Current != 6.1 {
		t.Fatalf("first record wrong: %+v", first)
	}
	if want := RecordID("robot-1", t1); first.ID != want {
		t.Fatalf("record id = %q, want %q", first.ID, want)
	}
	second := records[t2]
	if second == nil || *second.Data.Power != 305 || second.Data.Current != nil {
		t.Fatalf("second record wrong: %+v", second)
	}
}

func TestReconstructSkipsUnknownMetric(t *testing.T) {
	ts := mustTime(t, "2026-03-01T10:00:00Z")
	rows := []model.MetricEntry{
		{Time: ts, RobotID: "robot-1", Name: "power", Value: 300},
		{Time: ts, RobotID: "robot-1", Name: "bogus.metric", Value: 1},
	}
	rec := Reconstruct(rows)[ts]
	if rec == nil {
		t.Fatalf("no record reconstructed")
	}
	if rec.Data.Power == nil || *rec.Data.Power != 300 {
		t.Fatalf("known metric lost: %+v", rec.Data)
	}
	if rec.Data.Custom != nil {
		t.Fatalf("unknown metric must be skipped, not stored: %+v", rec.Data.Custom)
	}
}

func TestReconstructReattachesUnitAndMetadata(t *testing.T) {
	ts := mustTime(t, "2026-03-01T10:00:00Z")
	rows := []model.MetricEntry{
		{Time: ts, RobotID: "robot-1", Name: "temperature.ambient", Value: 23.4, Unit: "celsius"},
		{Time: ts, RobotID: "robot-1", Name: "position.x", Value: 1.0, Metadata: map[string]string{"frame": "tool"}},
	}
	rec := Reconstruct(rows)[ts]
	if rec.Data.Temperature == nil || rec.Data.Temperature.Unit != "celsius" {
		t.Fatalf("temperature unit not reattached: %+v", rec.Data.Temperature)
	}
	if rec.Data.Position == nil || rec.Data.Position.Frame != "tool" {
		t.Fatalf("position frame not reattached: %+v", rec.Data.Position)
	}
}

func TestReconstructCustom(t *testing.T) {
	ts := mustTime(t, "2026-03-01T10:00:00Z")
	rows := []model.MetricEntry{
		{Time: ts, RobotID: "robot-1", Name: "custom.gripperWear", Value: 0.12},
	}
	rec := Reconstruct(rows)[ts]
	if got, ok := rec.Data.Custom["gripperWear"]; !ok || got != 0.12 {
		t.Fatalf("custom field not reconstructed: %+v", rec.Data.Custom)
	}
}

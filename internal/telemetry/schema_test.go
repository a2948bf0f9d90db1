package telemetry

import "testing"

func TestFieldTablePathsUnique(t *testing.T) {
	if len(fieldByPath) != len(fieldTable) {
		t.Fatalf("field table has duplicate paths: %d entries, %d unique", len(fieldTable), len(fieldByPath))
	}
}

func TestFieldTableIsBijective(t *testing.T) {
	// Every table entry must read back what it wrote, through its own
	// accessors, on a fresh reading.
	in := fullReading()
	for i := range fieldTable {
		fs := &fieldTable[i]
		v := fs.get(in)
		if v == nil {
			t.Fatalf("fullReading does not populate %s", fs.path)
		}
	}
}

func TestMetricType(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"position.x", "number"},
		{"joint.5.angle", "number"},
		{"safety.emergencyStop", "boolean"},
		{"navigation.obstacleDetected", "boolean"},
		{"custom.gripperWear", "number"},
		{"temperature.motor.joint8", "number"},
	}
	for _, c := range cases {
		if got := MetricType(c.name); got != c.want {
			t.Errorf("MetricType(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported("voltage.supply") {
		t.Errorf("voltage.supply should be supported")
	}
	if !Supported("custom.anything") {
		t.Errorf("custom.* should be supported")
	}
	if Supported("bogus.metric") {
		t.Errorf("bogus.metric should not be supported")
	}
}

func TestRecordWidthHintCoversTable(t *testing.T) {
	if RecordWidthHint() <= len(fieldTable) {
		t.Fatalf("width hint %d must exceed table size %d", RecordWidthHint(), len(fieldTable))
	}
}

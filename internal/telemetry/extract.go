package telemetry

import (
	"sort"
	"time"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
)

// Extract decomposes a nested reading into flat metric entries. Pure, no
// I/O. Absent sections and leaves emit nothing; custom values that are not
// numeric are silently dropped. An all-empty reading yields an empty slice,
// which callers must treat as a validation failure.
func Extract(r *model.TelemetryReading) []model.MetricEntry {
	if r == nil {
		return nil
	}
	var out []model.MetricEntry
	for i := range fieldTable {
		fs := &fieldTable[i]
		v := fs.get(r)
		if v == nil {
			continue
		}
		e := model.MetricEntry{Name: fs.path, Value: *v}
		if fs.unit != nil {
			e.Unit = fs.unit(r)
		}
		if fs.meta != nil {
			e.Metadata = fs.meta(r)
		}
		out = append(out, e)
	}
	if len(r.Custom) > 0 {
		keys := make([]string, 0, len(r.Custom))
		for k := range r.Custom {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, ok := asNumber(r.Custom[k])
			if !ok {
				continue
			}
			out = append(out, model.MetricEntry{Name: CustomPrefix + k, Value: v})
		}
	}
	return out
}

// Stamp copies identity and time onto every entry before the batch write.
func Stamp(entries []model.MetricEntry, robotID, organizationID string, t time.Time) {
	for i := range entries {
		entries[i].Time = t
		entries[i].RobotID = robotID
		entries[i].OrganizationID = organizationID
	}
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint32:
		return float64(x), true
	default:
		return 0, false
	}
}

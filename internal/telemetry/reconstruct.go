package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
)

// Reconstruct folds flat rows back into nested records, one per distinct
// timestamp. Only leaves that were actually stored are set: a partially
// measured section never reports synthetic zeros. Rows whose metric name is
// neither in the field table nor custom.* are skipped.
func Reconstruct(rows []model.MetricEntry) map[time.Time]*model.RobotTelemetryRecord {
	records := make(map[time.Time]*model.RobotTelemetryRecord)
	for i := range rows {
		row := &rows[i]
		rec, ok := records[row.Time]
		if !ok {
			rec = &model.RobotTelemetryRecord{
				ID:        RecordID(row.RobotID, row.Time),
				RobotID:   row.RobotID,
				Timestamp: row.Time,
			}
			records[row.Time] = rec
		}
		applyRow(&rec.Data, row)
	}
	return records
}

// RecordID is the synthetic identifier convention shared by ingestion and
// reconstruction: <robotId>_<epochMillis>.
func RecordID(robotID string, t time.Time) string {
	return fmt.Sprintf("%s_%d", robotID, model.ToMillis(t))
}

func applyRow(data *model.TelemetryReading, row *model.MetricEntry) {
	if fs, ok := fieldByPath[row.Name]; ok {
		fs.set(data, row.Value)
		if fs.setUnit != nil {
			fs.setUnit(data, row.Unit)
		}
		if fs.setMeta != nil && len(row.Metadata) > 0 {
			fs.setMeta(data, row.Metadata)
		}
		return
	}
	if key, found := strings.CutPrefix(row.Name, CustomPrefix); found && key != "" {
		if data.Custom == nil {
			data.Custom = make(map[string]any)
		}
		data.Custom[key] = row.Value
	}
}

// Package archive is the cold path: flat metric rows from the fan-out topic
// are batched into parquet parts and shipped to object storage. It never
// sits on the ingest critical path.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
	"github.com/djmorgan26/urfmp-sub001/internal/telemetry"
)

// Uploader receives a finished part. *ObjectStore is the production
// implementation.
type Uploader interface {
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
}

type Batcher struct {
	MaxRows     int
	MaxBytes    int64
	MaxInterval time.Duration

	resetTime time.Time
	buf       []model.ArchiveRow
	bytes     int64

	uploader Uploader
	basePath string
	compress string
}

func NewBatcher(maxRows int, maxBytes int64, maxInterval time.Duration, up Uploader, basePath, compression string) *Batcher {
	b := &Batcher{
		MaxRows:     maxRows,
		MaxBytes:    maxBytes,
		MaxInterval: maxInterval,
		uploader:    up,
		basePath:    basePath,
		compress:    compression,
		resetTime:   time.Now().UTC(),
	}
	if maxRows > 0 {
		b.buf = make([]model.ArchiveRow, 0, maxRows)
	}
	return b
}

// Add buffers rows and reports whether a size threshold was crossed.
func (b *Batcher) Add(rows []model.ArchiveRow, approxBytes int64) bool {
	b.buf = append(b.buf, rows...)
	b.bytes += approxBytes
	return len(b.buf) >= b.MaxRows || b.bytes >= b.MaxBytes
}

// Due reports whether the flush interval has elapsed with rows pending.
func (b *Batcher) Due() bool {
	return len(b.buf) > 0 && time.Since(b.resetTime) >= b.MaxInterval
}

func (b *Batcher) Len() int { return len(b.buf) }

// Flush writes the buffered rows to a local parquet part and uploads it
// under a date partition. The buffer is reset only after a successful
// upload.
func (b *Batcher) Flush(ctx context.Context) (int, error) {
	n := len(b.buf)
	if n == 0 {
		return 0, nil
	}

	ts := time.Now().UTC()
	fn := fmt.Sprintf("part-%s-%s.parquet", ts.Format("2006-01-02T15-04-05Z"), uuid.NewString())
	tmp := filepath.Join(os.TempDir(), fn)

	pw, closeFn, err := newLocalParquetWriter[model.ArchiveRow](tmp, 4, b.compress)
	if err != nil {
		return 0, err
	}
	for i := range b.buf {
		if err := pw.Write(b.buf[i]); err != nil {
			_ = closeFn()
			return 0, err
		}
	}
	if err := closeFn(); err != nil {
		return 0, err
	}

	f, err := os.Open(tmp)
	if err != nil {
		return 0, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, err
	}

	objPath := BuildObjectPath(b.basePath, ts, fn)
	if err := b.uploader.Upload(ctx, objPath, f, fi.Size(), "application/octet-stream"); err != nil {
		_ = f.Close()
		return 0, err
	}
	_ = f.Close()
	_ = os.Remove(tmp)

	b.buf = b.buf[:0]
	b.bytes = 0
	b.resetTime = time.Now().UTC()

	return n, nil
}

// ToRows re-extracts an ingested record into the flat cold-storage shape.
func ToRows(evt *model.IngestedEvent) []model.ArchiveRow {
	entries := telemetry.Extract(&evt.Record.Data)
	telemetry.Stamp(entries, evt.RobotID, evt.OrganizationID, evt.Record.Timestamp)

	rows := make([]model.ArchiveRow, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		meta := ""
		if len(e.Metadata) > 0 {
			if b, err := json.Marshal(e.Metadata); err == nil {
				meta = string(b)
			}
		}
		rows = append(rows, model.ArchiveRow{
			RobotID:        e.RobotID,
			OrganizationID: e.OrganizationID,
			Metric:         e.Name,
			Value:          e.Value,
			Unit:           e.Unit,
			Metadata:       meta,
			Timestamp:      model.ToMillis(e.Time),
			RecordID:       evt.Record.ID,
		})
	}
	return rows
}

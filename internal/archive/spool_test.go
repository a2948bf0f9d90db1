package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
)

type fakeCommitter struct {
	commits [][]kafka.Message
	err     error
}

func (c *fakeCommitter) Commit(_ context.Context, msgs ...kafka.Message) error {
	if c.err != nil {
		return c.err
	}
	batch := make([]kafka.Message, len(msgs))
	copy(batch, msgs)
	c.commits = append(c.commits, batch)
	return nil
}

func eventMessage(t *testing.T, offset int64) kafka.Message {
	t.Helper()
	power := 125.5
	evt := model.IngestedEvent{
		RobotID:        "robot-1",
		OrganizationID: "org-1",
		Record: model.RobotTelemetryRecord{
			ID:        "robot-1_1772359200000",
			RobotID:   "robot-1",
			Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Data:      model.TelemetryReading{Power: &power},
		},
	}
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return kafka.Message{Offset: offset, Value: b}
}

func newSpoolFixture() (*Spool, *fakeCommitter, *fakeUploader) {
	up := &fakeUploader{}
	committer := &fakeCommitter{}
	b := NewBatcher(1000, 1<<20, time.Minute, up, "telemetry", "SNAPPY")
	return NewSpool(b, committer, log.New(io.Discard, "", 0)), committer, up
}

func TestSpoolCommitsSkippedEventWithEmptyBuffer(t *testing.T) {
	s, committer, _ := newSpoolFixture()

	full, err := s.Ingest(context.Background(), kafka.Message{Offset: 7, Value: []byte(`{bad`)})
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if full {
		t.Fatalf("skipped event must not trigger a flush")
	}
	if len(committer.commits) != 1 || len(committer.commits[0]) != 1 || committer.commits[0][0].Offset != 7 {
		t.Fatalf("skipped event offset not committed: %+v", committer.commits)
	}
}

func TestSpoolDefersSkippedEventBehindBufferedRows(t *testing.T) {
	s, committer, _ := newSpoolFixture()

	if _, err := s.Ingest(context.Background(), eventMessage(t, 1)); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := s.Ingest(context.Background(), kafka.Message{Offset: 2, Value: []byte(`{bad`)}); err == nil {
		t.Fatalf("expected decode error")
	}
	// Committing offset 2 now would also commit offset 1, whose rows are
	// still buffered.
	if len(committer.commits) != 0 {
		t.Fatalf("nothing may be committed before the rows ship: %+v", committer.commits)
	}

	n, err := s.Flush(context.Background())
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if n != 1 {
		t.Fatalf("flushed %d rows, want 1", n)
	}
	if len(committer.commits) != 1 || len(committer.commits[0]) != 2 {
		t.Fatalf("flush must commit both offsets: %+v", committer.commits)
	}
}

func TestSpoolFlushKeepsOffsetsOnCommitFailure(t *testing.T) {
	s, committer, up := newSpoolFixture()
	committer.err = errors.New("group rebalance")

	if _, err := s.Ingest(context.Background(), eventMessage(t, 1)); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := s.Flush(context.Background()); err == nil {
		t.Fatalf("commit failure must surface")
	}
	if len(up.objects) != 1 {
		t.Fatalf("rows should still have shipped before the failed commit")
	}

	committer.err = nil
	if _, err := s.Flush(context.Background()); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if len(committer.commits) != 1 || committer.commits[0][0].Offset != 1 {
		t.Fatalf("pending offset not committed on retry: %+v", committer.commits)
	}
}

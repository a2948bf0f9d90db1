package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
)

// Committer acknowledges consumed offsets. *broker.Consumer is the
// production implementation.
type Committer interface {
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

// Spool pairs the batcher with offset bookkeeping for its source messages.
// Offsets are committed only after the rows they carried are durably
// uploaded, so a crash replays the open part from the last committed offset
// instead of losing it.
type Spool struct {
	batcher   *Batcher
	committer Committer
	logger    *log.Logger
	pending   []kafka.Message
}

func NewSpool(b *Batcher, c Committer, logger *log.Logger) *Spool {
	return &Spool{batcher: b, committer: c, logger: logger}
}

// Ingest decodes one fan-out message into archive rows and reports whether a
// flush threshold was crossed. An undecodable message is skipped with its
// error returned for the caller to log; its offset is committed straight
// away when nothing is buffered, and rides along with the next flush
// otherwise. Committing it early would also commit the buffered messages
// ahead of it in the partition.
func (s *Spool) Ingest(ctx context.Context, m kafka.Message) (bool, error) {
	var evt model.IngestedEvent
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		if len(s.pending) == 0 {
			if cErr := s.committer.Commit(ctx, m); cErr != nil {
				s.logger.Printf("[archive] commit of skipped event failed: %v", cErr)
			}
		} else {
			s.pending = append(s.pending, m)
		}
		return false, err
	}
	s.pending = append(s.pending, m)
	return s.batcher.Add(ToRows(&evt), int64(len(m.Value))), nil
}

// Flush uploads the buffered rows and then commits every pending offset,
// including those of skipped events. On a commit failure the offsets stay
// pending and are retried on the next flush.
func (s *Spool) Flush(ctx context.Context) (int, error) {
	n, err := s.batcher.Flush(ctx)
	if err != nil {
		return 0, err
	}
	if len(s.pending) == 0 {
		return n, nil
	}
	if err := s.committer.Commit(ctx, s.pending...); err != nil {
		return n, fmt.Errorf("commit offsets: %w", err)
	}
	s.pending = s.pending[:0]
	return n, nil
}

// Due reports whether the flush interval has elapsed with rows pending.
func (s *Spool) Due() bool { return s.batcher.Due() }

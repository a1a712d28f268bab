// Package sweeper deletes expired messages in recurring batches and announces
// each batch to connected sessions. File blobs referenced by swept messages
// are never deleted; they are recorded as orphaned instead.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/airchat/globaltalk/internal/repository"
)

const orphanReasonExpired = "message expired"

var (
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_runs_total",
		Help: "Total number of completed sweep runs.",
	})
	sweptMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_swept_messages_total",
		Help: "Total number of messages deleted by the expiration sweep.",
	})
	sweepFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_failures_total",
		Help: "Total number of sweep runs that failed.",
	})
)

// Broadcaster announces one completed sweep batch to all connected sessions.
type Broadcaster interface {
	BroadcastMessagesExpired(messageIDs []string)
}

type Sweeper struct {
	repo        repository.MessageRepository
	fileRepo    repository.FileRepository
	broadcaster Broadcaster

	interval     time.Duration
	initialDelay time.Duration
	batchSize    int
	now          func() time.Time
}

type Options struct {
	Interval     time.Duration
	InitialDelay time.Duration
	BatchSize    int
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

func New(repo repository.Repository, broadcaster Broadcaster, opts Options) *Sweeper {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		repo:         repo,
		fileRepo:     repo,
		broadcaster:  broadcaster,
		interval:     opts.Interval,
		initialDelay: opts.InitialDelay,
		batchSize:    opts.BatchSize,
		now:          now,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval after the
// initial delay. A failed run is logged; the next scheduled run proceeds
// independently.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("expiration sweeper starting", "interval", s.interval, "initial_delay", s.initialDelay, "batch_size", s.batchSize)
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.initialDelay):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.SweepOnce(ctx); err != nil {
			sweepFailuresTotal.Inc()
			slog.Error("sweep run failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("expiration sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce performs a single sweep: query one bounded batch of expired
// messages, delete them atomically, record orphaned file markers, and
// broadcast the deleted ids. An empty batch is a silent no-op.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	now := s.now()
	expired, err := s.repo.ListExpiredMessages(ctx, now, s.batchSize)
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	ids := make([]string, 0, len(expired))
	for _, m := range expired {
		ids = append(ids, m.ID)
	}
	if err := s.repo.DeleteMessagesByID(ctx, ids); err != nil {
		return err
	}

	for _, m := range expired {
		for _, f := range m.Files {
			if err := s.fileRepo.MarkFileOrphaned(ctx, repository.MarkFileOrphanedInput{
				FileID:     f.FileID,
				MessageID:  m.ID,
				Reason:     orphanReasonExpired,
				OrphanedAt: now,
			}); err != nil {
				slog.Error("failed to mark file orphaned", "error", err, "file_id", f.FileID, "message_id", m.ID)
			}
		}
	}

	sweepRunsTotal.Inc()
	sweptMessagesTotal.Add(float64(len(ids)))
	slog.Info("sweep completed", "deleted_messages", len(ids))
	s.broadcaster.BroadcastMessagesExpired(ids)
	return nil
}

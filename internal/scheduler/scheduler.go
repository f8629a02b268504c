// Package scheduler is the cron-style caller that periodically triggers the
// snapshot synchronizer. The core sync path itself has no background
// machinery; this wrapper exists so the run command can keep snapshots
// fresh without an external cron.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yihengz/trendscope/pkg/alert"
	"github.com/yihengz/trendscope/pkg/trend"
)

// Scheduler runs a full keyword sync on a fixed interval.
type Scheduler struct {
	sync     *trend.Synchronizer
	alertMgr *alert.Manager
	interval time.Duration
	minScore int
}

// New creates a new scheduler.
func New(sync *trend.Synchronizer, alertMgr *alert.Manager, interval time.Duration, minScore int) *Scheduler {
	if interval == 0 {
		interval = 24 * time.Hour
	}
	if minScore == 0 {
		minScore = 75
	}
	return &Scheduler{
		sync:     sync,
		alertMgr: alertMgr,
		interval: interval,
		minScore: minScore,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial sync...")
	s.syncAndAlert(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (sync every %s)\n", s.interval)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintln(os.Stderr, "scheduler: syncing...")
			s.syncAndAlert(ctx)
		}
	}
}

func (s *Scheduler) syncAndAlert(ctx context.Context) {
	summary, err := s.sync.Sync(ctx, "", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  sync error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  synced %d, skipped %d, failed %d\n",
		summary.Synced, summary.Skipped, summary.Failed)

	if s.alertMgr == nil || !s.alertMgr.HasNotifiers() {
		return
	}

	for _, res := range summary.Results {
		if res.Status != trend.SyncSynced || res.Snapshot == nil {
			continue
		}
		snap := res.Snapshot
		if snap.TrendScore < s.minScore {
			continue
		}

		notification := &alert.Notification{
			Keyword:       res.Keyword,
			TrendScore:    snap.TrendScore,
			ViralityScore: snap.ViralityScore,
			GrowthScore:   snap.GrowthScore,
			TotalViews:    snap.TotalViews,
			AvgEngagement: snap.AvgEngagement,
			Body:          fmt.Sprintf("%d videos today, %d viral", snap.TotalVideos, snap.ViralCount),
		}
		if err := s.alertMgr.Broadcast(ctx, notification); err != nil {
			fmt.Fprintf(os.Stderr, "  alert error for %q: %v\n", res.Keyword, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  alerted: %s (trend %d)\n", res.Keyword, snap.TrendScore)
	}
}

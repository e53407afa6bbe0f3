/**
 * @description
 * Scheduled cleanup of the referral click log. Clicks older than the
 * configured retention window can no longer win attribution (the cookie and
 * cache TTLs are shorter), so the sweep keeps the hot index small.
 *
 * @dependencies
 * - github.com/robfig/cron/v3: The job implements cron.Job and is scheduled
 *   from main.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/reflift/affiliate-service/internal/store"
)

// ClickRetentionJob deletes referral clicks older than the retention window.
type ClickRetentionJob struct {
	repo      store.Repository
	retention time.Duration
}

// NewClickRetentionJob creates the sweep job.
func NewClickRetentionJob(repo store.Repository, retention time.Duration) *ClickRetentionJob {
	return &ClickRetentionJob{repo: repo, retention: retention}
}

// Run implements cron.Job.
func (j *ClickRetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	deleted, err := j.repo.DeleteReferralClicksBefore(ctx, cutoff)
	if err != nil {
		log.Printf("level=error component=click_retention msg=\"sweep failed\" cutoff=%s err=%v", cutoff.Format(time.RFC3339), err)
		return
	}
	log.Printf("level=info component=click_retention msg=\"sweep complete\" cutoff=%s deleted=%d", cutoff.Format(time.RFC3339), deleted)
}

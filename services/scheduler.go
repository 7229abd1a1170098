// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"study-tracker/logger"
)

// NightlyJob re-runs reconciliation and refreshes the UserProgress cache for
// every user. Reconciliation is idempotent, so the run converges any user
// whose write-time reevaluation failed; the cache picks up current streaks
// that ended because a day passed unlogged.
type NightlyJob struct {
	Users        *UserService
	Achievements *AchievementService
	Progression  *ProgressionService
	Log          *logger.Logger
	Now          func() time.Time

	// Workers bounds how many users are processed at once. Zero means 4.
	Workers int
}

type NightlyReport struct {
	Users    int
	Failed   int
	Unlocked int
	Revoked  int
}

// Run processes every user. Errors are logged per user and never stop the
// batch; only a failure to list users or a cancelled ctx is returned.
func (j *NightlyJob) Run(ctx context.Context) (NightlyReport, error) {
	var report NightlyReport
	ids, err := j.Users.UserIDs(ctx)
	if err != nil {
		return report, err
	}
	now := j.Now().UTC()

	workers := j.Workers
	if workers <= 0 {
		workers = 4
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unlocked, revoked, failed := j.runOne(gctx, id, now)

			mu.Lock()
			report.Users++
			report.Unlocked += unlocked
			report.Revoked += revoked
			if failed {
				report.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, ctx.Err()
}

func (j *NightlyJob) runOne(ctx context.Context, id string, now time.Time) (unlocked, revoked int, failed bool) {
	outcome, err := j.Achievements.Reevaluate(ctx, id)
	if err != nil {
		j.Log.Error("[SCHEDULER] reevaluate failed", "user_id", id, "error", err)
		return 0, 0, true
	}
	if _, err := j.Progression.RefreshSnapshot(ctx, id, now); err != nil {
		j.Log.Error("[SCHEDULER] snapshot refresh failed", "user_id", id, "error", err)
		failed = true
	}
	return len(outcome.Unlocked), len(outcome.Revoked), failed
}

// StartNightlyScheduler registers Run as a daily UTC job at hour:minute.
func StartNightlyScheduler(ctx context.Context, job *NightlyJob, hour, minute uint) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(func() {
			started := time.Now()
			report, err := job.Run(ctx)
			if err != nil {
				job.Log.Error("[SCHEDULER] nightly run aborted", "error", err)
				return
			}
			job.Log.Info("[SCHEDULER] nightly run finished",
				"users", report.Users,
				"failed", report.Failed,
				"unlocked", report.Unlocked,
				"revoked", report.Revoked,
				"took", time.Since(started).String(),
			)
		}),
		gocron.WithName("nightly-reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("register nightly job: %w", err)
	}

	sched.Start()
	job.Log.Info("[SCHEDULER] nightly job scheduled", "at", fmt.Sprintf("%02d:%02d UTC", hour, minute))
	return sched, nil
}

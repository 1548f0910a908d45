package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"inkwell-api/metrics"
	"inkwell-api/services"
)

// OverdueScheduleJob periodically reports scheduled posts whose publish time
// has passed. It never changes a post: publishing stays an explicit admin
// action.
type OverdueScheduleJob struct {
	posts   *services.PostService
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	ticker  *time.Ticker
	done    chan struct{}
	now     func() time.Time
}

func NewOverdueScheduleJob(posts *services.PostService, interval time.Duration, log *zap.SugaredLogger, m *metrics.Metrics) *OverdueScheduleJob {
	return &OverdueScheduleJob{
		posts:   posts,
		log:     log,
		metrics: m,
		ticker:  time.NewTicker(interval),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Start begins the job
func (j *OverdueScheduleJob) Start() {
	j.log.Info("overdue schedule job started")

	go func() {
		// Run immediately on start
		j.check()

		for {
			select {
			case <-j.ticker.C:
				j.check()
			case <-j.done:
				j.log.Info("overdue schedule job stopped")
				return
			}
		}
	}()
}

// Stop stops the job
func (j *OverdueScheduleJob) Stop() {
	j.ticker.Stop()
	close(j.done)
}

func (j *OverdueScheduleJob) check() int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	overdue, err := j.posts.OverdueScheduled(ctx, j.now())
	if err != nil {
		j.log.Errorw("failed to check scheduled posts", "error", err)
		return 0
	}

	j.metrics.OverdueScheduled.Set(float64(len(overdue)))
	for _, post := range overdue {
		j.log.Warnw("scheduled post is past its publish time and still unpublished",
			"post_id", post.ID,
			"title", post.Title,
			"scheduled_for", post.ScheduledDatetime,
		)
	}
	return len(overdue)
}

// scheduler/scheduler.go
package scheduler

import (
	"context"
	"log"
	"time"

	"dunzo/services"

	"github.com/robfig/cron/v3"
)

// ReadNotificationTTL is how long read notifications are kept.
const ReadNotificationTTL = 30 * 24 * time.Hour

// Jobs are the periodic planner tasks.
type Jobs struct {
	planner *services.Planner
}

func NewJobs(planner *services.Planner) *Jobs {
	return &Jobs{planner: planner}
}

func (j *Jobs) SendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	sent, err := j.planner.SendDeadlineReminders(ctx)
	if err != nil {
		log.Printf("Deadline reminder job failed: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("Sent deadline reminders for %d tasks", sent)
	}
}

func (j *Jobs) CleanupNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	purged, err := j.planner.PurgeReadNotifications(ctx, ReadNotificationTTL)
	if err != nil {
		log.Printf("Notification cleanup job failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Removed %d read notifications", purged)
	}
}

// StartScheduler registers the jobs with second-resolution cron specs and
// starts them. Stop the returned cron on shutdown.
func StartScheduler(planner *services.Planner, reminderSpec, cleanupSpec string) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())
	jobs := NewJobs(planner)

	if _, err := c.AddFunc(reminderSpec, jobs.SendReminders); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(cleanupSpec, jobs.CleanupNotifications); err != nil {
		return nil, err
	}

	c.Start()
	log.Println("Scheduler started")
	return c, nil
}

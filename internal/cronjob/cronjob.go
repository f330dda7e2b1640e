package cronjob

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

type CronJobScheduler struct {
	cron *cron.Cron
}

// NewCronJobScheduler returns a started scheduler.
func NewCronJobScheduler() *CronJobScheduler {
	c := cron.New()
	c.Start()
	return &CronJobScheduler{cron: c}
}

// Schedule runs task on the given cron spec ("@every 30s", "*/5 * * * *", ...).
func (t *CronJobScheduler) Schedule(schedule string, task func()) (int, error) {
	id, err := t.cron.AddFunc(schedule, task)
	if err != nil {
		return 0, fmt.Errorf("failed to schedule job: %s %v", schedule, err)
	}
	return int(id), nil
}

func (t *CronJobScheduler) Stop(taskId int) {
	t.cron.Remove(cron.EntryID(taskId))
}

func (t *CronJobScheduler) Jobs() int {
	return len(t.cron.Entries())
}

// Shutdown stops scheduling and waits for running jobs until ctx is done.
func (t *CronJobScheduler) Shutdown(ctx context.Context) error {
	select {
	case <-t.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package stats

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ripple-mq/echor/internal/cronjob"
	"github.com/ripple-mq/echor/pkg/transport/tcp"
)

// Source yields the counters to report.
type Source interface {
	Stats() tcp.Snapshot
}

// Reporter logs a stats line on a cron schedule.
type Reporter struct {
	source    Source
	scheduler *cronjob.CronJobScheduler
	jobID     int
	scheduled bool

	mu   sync.Mutex
	last tcp.Snapshot
}

func NewReporter(source Source, scheduler *cronjob.CronJobScheduler) *Reporter {
	return &Reporter{source: source, scheduler: scheduler}
}

// Start schedules Report. An empty schedule disables reporting.
func (r *Reporter) Start(schedule string) error {
	if schedule == "" || r.scheduled {
		return nil
	}
	id, err := r.scheduler.Schedule(schedule, func() { r.Report() })
	if err != nil {
		return err
	}
	r.jobID, r.scheduled = id, true
	log.Debug("stats: reporting", "schedule", schedule)
	return nil
}

func (r *Reporter) Stop() {
	if r.scheduled {
		r.scheduler.Stop(r.jobID)
		r.scheduled = false
	}
}

// Report logs current totals and what changed since the previous report, and
// returns the snapshot it logged.
func (r *Reporter) Report() tcp.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.source.Stats()
	log.Info("stats",
		"active", s.Active,
		"accepted", s.Accepted,
		"accepted_delta", s.Accepted-r.last.Accepted,
		"rejected", s.Rejected,
		"bytes", s.BytesEchoed,
		"bytes_delta", s.BytesEchoed-r.last.BytesEchoed,
		"peer_closed", s.PeerClosed,
		"io_errors", s.IOErrors,
		"idle", s.Idle,
		"shutdown", s.Shutdown,
		"accept_errors", s.AcceptErrors,
		"panics", s.Panics)
	r.last = s
	return s
}

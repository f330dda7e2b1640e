package cronjob_test

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ripple-mq/echor/internal/cronjob"
	"go.uber.org/atomic"
)

func TestCronJobScheduler_Shutdown(t *testing.T) {
	tr := cronjob.NewCronJobScheduler()
	if tr == nil {
		t.Fatalf("NewCronJobScheduler() = nil")
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestCronJobScheduler_Schedule(t *testing.T) {
	type args struct {
		schedule string
		task     func()
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{
			name: "run at every second",
			args: args{schedule: "@every 1s", task: func() {
				log.Infof("Running test job")
			}},
			wantErr: false,
		},
		{
			name: "invalid schedule string",
			args: args{schedule: "100seconds", task: func() {
				log.Infof("Running test job")
			}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := cronjob.NewCronJobScheduler()
			defer tr.Shutdown(context.Background())
			_, err := tr.Schedule(tt.args.schedule, tt.args.task)
			if (err != nil) != tt.wantErr {
				t.Errorf("CronJobScheduler.Schedule() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCronJobScheduler_Runs(t *testing.T) {
	tr := cronjob.NewCronJobScheduler()
	defer tr.Shutdown(context.Background())

	var runs atomic.Int64
	if _, err := tr.Schedule("@every 1s", func() { runs.Inc() }); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Errorf("job never ran")
	}
}

func TestCronJobScheduler_Stop(t *testing.T) {
	tr := cronjob.NewCronJobScheduler()
	defer tr.Shutdown(context.Background())

	id, err := tr.Schedule("@every 1s", func() {
		log.Infof("Running test job: Stop")
	})
	if err != nil {
		t.Fatalf("CronJobScheduler.Stop() schedule failed, error = %v", err)
	}
	if tr.Jobs() != 1 {
		t.Errorf("Jobs() = %d, want 1", tr.Jobs())
	}
	tr.Stop(id)
	if tr.Jobs() != 0 {
		t.Errorf("Jobs() = %d after Stop, want 0", tr.Jobs())
	}
}

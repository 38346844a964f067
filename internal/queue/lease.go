package queue

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/calldesk/dialdesk/internal/models"
	"github.com/calldesk/dialdesk/internal/notify"
)

// ReclaimExpired returns assigned entries whose assignment is older than
// lease to pending, clearing the assignment fields so the entry can be
// reserved again. Returns the number of entries reclaimed. A non-positive
// lease disables reclaim.
func ReclaimExpired(db *gorm.DB, lease time.Duration) (int64, error) {
	if lease <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-lease)
	result := db.Model(&models.QueueEntry{}).
		Where("status = ? AND assigned_at < ?", models.StatusAssigned, cutoff).
		Updates(map[string]interface{}{
			"status":      models.StatusPending,
			"assigned_to": nil,
			"assigned_at": nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("queue: reclaim expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Sweeper periodically returns expired assignments to the pending queue.
type Sweeper struct {
	DB       *gorm.DB
	Lease    time.Duration
	Schedule string          // 5-field cron expression
	Notify   notify.Notifier // optional
	Out      io.Writer       // optional progress output

	cron *cron.Cron
}

// Start schedules the sweep. The lease must be positive and the schedule a
// valid cron expression.
func (s *Sweeper) Start() error {
	if s.Lease <= 0 {
		return fmt.Errorf("queue: sweeper lease must be positive")
	}
	c := cron.New()
	if _, err := c.AddFunc(s.Schedule, s.sweep); err != nil {
		return fmt.Errorf("queue: sweeper schedule %q: %w", s.Schedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts future sweeps. An in-flight sweep finishes.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Sweeper) sweep() {
	n, err := ReclaimExpired(s.DB, s.Lease)
	if err != nil {
		if s.Out != nil {
			fmt.Fprintf(s.Out, "sweep: %v\n", err)
		}
		return
	}
	if n == 0 {
		return
	}
	if s.Out != nil {
		fmt.Fprintf(s.Out, "sweep: reclaimed %d stale assignment(s)\n", n)
	}
	if s.Notify != nil {
		_ = s.Notify.Post(context.Background(), notify.Event{
			Title:    fmt.Sprintf("Reclaimed %d stale assignment(s)", n),
			Body:     fmt.Sprintf("Assignments idle longer than %s were returned to the queue.", s.Lease),
			Severity: "warning",
		})
	}
}

// Package workflow composes the queue manager, task ledger, and state
// engine into the agent-facing flows. The subsystems stay independently
// transactional; this layer sequences them and surfaces the first failure
// without rolling back steps that already committed.
package workflow

import (
	"gorm.io/gorm"

	"github.com/calldesk/dialdesk/internal/agent"
	"github.com/calldesk/dialdesk/internal/models"
	"github.com/calldesk/dialdesk/internal/queue"
	"github.com/calldesk/dialdesk/internal/task"
)

// Options carries the lifecycle policies the composed calls run under.
type Options struct {
	Queue queue.Policy
	Agent agent.Policy
}

// DefaultOptions applies the default queue policy and a permissive state
// engine.
var DefaultOptions = Options{Queue: queue.DefaultPolicy}

// Assignment pairs a reserved queue entry with its opened ledger entry.
type Assignment struct {
	Entry *models.QueueEntry `json:"entry"`
	Task  *models.TaskLog    `json:"task"`
}

// PullNext reserves the next eligible queue entry for the agent and opens
// a ledger entry for the same record. Returns (nil, nil) when the queue is
// empty. The reservation and the ledger step commit separately: if the
// ledger step fails, the returned Assignment still carries the reserved
// entry so the caller can retry the ledger step or skip the entry.
func PullNext(db *gorm.DB, sourceID, agentID uint, opts Options) (*Assignment, error) {
	entry, err := queue.ReserveNext(db, sourceID, agentID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	tl, err := task.Start(db, agentID, sourceID, entry.RecordID, opts.Agent)
	if err != nil {
		return &Assignment{Entry: entry}, err
	}
	return &Assignment{Entry: entry, Task: tl}, nil
}

// Wrap closes the ledger entry and completes its queue entry. If the queue
// step fails after the ledger closed, the returned Assignment carries the
// closed ledger entry; completing the queue entry again is idempotent by
// entry ID.
func Wrap(db *gorm.DB, taskID, queueID uint, opts Options) (*Assignment, error) {
	tl, err := task.Finish(db, taskID, opts.Agent)
	if err != nil {
		return nil, err
	}
	entry, err := queue.Complete(db, queueID, opts.Queue)
	if err != nil {
		return &Assignment{Task: tl}, err
	}
	return &Assignment{Entry: entry, Task: tl}, nil
}

// Pass skips the queue entry without touching the ledger: no work began,
// so there is no interval to close and the agent state is left alone.
func Pass(db *gorm.DB, queueID uint, opts Options) (*models.QueueEntry, error) {
	return queue.Skip(db, queueID, opts.Queue)
}

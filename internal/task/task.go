// Package task maintains the task ledger: per-agent work intervals that
// drive handle-time metrics. Ledger entries are independent of queue
// entries; the workflow package composes the two.
package task

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/calldesk/dialdesk/internal/agent"
	"github.com/calldesk/dialdesk/internal/models"
)

// ErrNotFound is returned for an unknown task ID.
var ErrNotFound = errors.New("task not found")

// Start opens a ledger entry for the agent working the given record and
// moves the agent to in_task unless already there. Ledger insert and state
// transition commit as one unit.
func Start(db *gorm.DB, agentID, sourceID uint, recordID int64, pol agent.Policy) (*models.TaskLog, error) {
	var tl models.TaskLog
	err := db.Transaction(func(tx *gorm.DB) error {
		ag, err := agent.Get(tx, agentID)
		if err != nil {
			return err
		}

		tl = models.TaskLog{
			AgentID:   agentID,
			SourceID:  sourceID,
			RecordID:  recordID,
			StartedAt: time.Now().UTC(),
		}
		if err := tx.Create(&tl).Error; err != nil {
			return fmt.Errorf("task: start for agent %d: %w", agentID, err)
		}

		if ag.CurrentState != models.StateInTask {
			if _, err := agent.Transition(tx, agentID, models.StateInTask, pol); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tl, nil
}

// Finish closes a ledger entry and moves its agent to wrap_up.
func Finish(db *gorm.DB, taskID uint, pol agent.Policy) (*models.TaskLog, error) {
	var tl models.TaskLog
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tl, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("task: %d: %w", taskID, ErrNotFound)
			}
			return fmt.Errorf("task: get %d: %w", taskID, err)
		}

		now := time.Now().UTC()
		if err := tx.Model(&models.TaskLog{}).Where("id = ?", taskID).
			Update("completed_at", now).Error; err != nil {
			return fmt.Errorf("task: finish %d: %w", taskID, err)
		}
		tl.CompletedAt = &now

		if _, err := agent.Transition(tx, tl.AgentID, models.StateWrapUp, pol); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tl, nil
}

// Get retrieves a ledger entry by ID.
func Get(db *gorm.DB, taskID uint) (*models.TaskLog, error) {
	var tl models.TaskLog
	if err := db.First(&tl, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: %d: %w", taskID, ErrNotFound)
		}
		return nil, fmt.Errorf("task: get %d: %w", taskID, err)
	}
	return &tl, nil
}

// ListForAgent returns an agent's ledger entries, newest first.
func ListForAgent(db *gorm.DB, agentID uint) ([]models.TaskLog, error) {
	var logs []models.TaskLog
	if err := db.Where("agent_id = ?", agentID).
		Order("started_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("task: list for agent %d: %w", agentID, err)
	}
	return logs, nil
}

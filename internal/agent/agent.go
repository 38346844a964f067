// Package agent implements the agent registry and the availability state
// engine over the append-only state log.
package agent

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/calldesk/dialdesk/internal/models"
)

// Sentinel errors surfaced to callers.
var (
	ErrNotFound          = errors.New("agent not found")
	ErrInvalidTransition = errors.New("state transition not allowed")
)

// ValidTransitions maps each state to the states that may follow it when
// transition enforcement is enabled. Self-transitions are always allowed
// and open a fresh interval.
var ValidTransitions = map[models.AgentState][]models.AgentState{
	models.StateAvailable: {models.StateInTask, models.StateBreak},
	models.StateInTask:    {models.StateWrapUp},
	models.StateWrapUp:    {models.StateAvailable, models.StateInTask, models.StateBreak},
	models.StateBreak:     {models.StateAvailable},
}

// Policy controls transition enforcement. The zero value lets any state
// follow any state, matching the legacy engine.
type Policy struct {
	EnforceTransitions bool
}

// Create registers an agent in the available state and opens its first
// state log interval. Both writes commit as one unit.
func Create(db *gorm.DB, name, email string) (*models.Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("agent: name is required")
	}
	if email == "" {
		return nil, fmt.Errorf("agent: email is required")
	}

	var ag models.Agent
	err := db.Transaction(func(tx *gorm.DB) error {
		ag = models.Agent{Name: name, Email: email, CurrentState: models.StateAvailable}
		if err := tx.Create(&ag).Error; err != nil {
			return fmt.Errorf("create %q: %w", email, err)
		}
		log := models.AgentStateLog{
			AgentID:   ag.ID,
			State:     models.StateAvailable,
			EnteredAt: time.Now().UTC(),
		}
		if err := tx.Create(&log).Error; err != nil {
			return fmt.Errorf("open initial state log for %q: %w", email, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	return &ag, nil
}

// Get retrieves an agent by ID.
func Get(db *gorm.DB, agentID uint) (*models.Agent, error) {
	var ag models.Agent
	if err := db.First(&ag, agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agent: %d: %w", agentID, ErrNotFound)
		}
		return nil, fmt.Errorf("agent: get %d: %w", agentID, err)
	}
	return &ag, nil
}

// List returns all agents ordered by creation.
func List(db *gorm.DB) ([]models.Agent, error) {
	var agents []models.Agent
	if err := db.Order("id ASC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("agent: list: %w", err)
	}
	return agents, nil
}

// Transition atomically closes the agent's open state log interval, opens
// a new one for newState, and updates the projected CurrentState. The
// three writes are one transaction, so there is never a window with zero
// or two open intervals; same-agent transitions serialize on the agent row.
func Transition(db *gorm.DB, agentID uint, newState models.AgentState, pol Policy) (*models.Agent, error) {
	if !newState.Valid() {
		return nil, fmt.Errorf("agent: unknown state %q: %w", newState, ErrInvalidTransition)
	}

	var ag models.Agent
	err := db.Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "mysql" {
			// The row lock serializes same-agent transitions on MySQL.
			// SQLite has a single writer, and FOR UPDATE is not in its
			// grammar, so the clause is only applied where it parses.
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&ag, agentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%d: %w", agentID, ErrNotFound)
			}
			return fmt.Errorf("get %d: %w", agentID, err)
		}

		if pol.EnforceTransitions && !allowed(ag.CurrentState, newState) {
			return fmt.Errorf("%d: %s to %s: %w", agentID, ag.CurrentState, newState, ErrInvalidTransition)
		}

		now := time.Now().UTC()
		if err := tx.Model(&models.AgentStateLog{}).
			Where("agent_id = ? AND exited_at IS NULL", agentID).
			Update("exited_at", now).Error; err != nil {
			return fmt.Errorf("close state log for %d: %w", agentID, err)
		}
		log := models.AgentStateLog{AgentID: agentID, State: newState, EnteredAt: now}
		if err := tx.Create(&log).Error; err != nil {
			return fmt.Errorf("open state log for %d: %w", agentID, err)
		}
		if err := tx.Model(&models.Agent{}).Where("id = ?", agentID).
			Update("current_state", newState).Error; err != nil {
			return fmt.Errorf("update state for %d: %w", agentID, err)
		}
		ag.CurrentState = newState
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("agent: transition: %w", err)
	}
	return &ag, nil
}

// StateHistory returns an agent's state log intervals, oldest first.
func StateHistory(db *gorm.DB, agentID uint) ([]models.AgentStateLog, error) {
	if _, err := Get(db, agentID); err != nil {
		return nil, err
	}
	var logs []models.AgentStateLog
	if err := db.Where("agent_id = ?", agentID).
		Order("entered_at ASC, id ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("agent: state history for %d: %w", agentID, err)
	}
	return logs, nil
}

// allowed checks the transition table. Self-transitions always pass.
func allowed(from, to models.AgentState) bool {
	if from == to {
		return true
	}
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

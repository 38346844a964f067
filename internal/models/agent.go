package models

import "time"

// AgentState enumerates the availability states an agent moves through.
type AgentState string

const (
	StateAvailable AgentState = "available"
	StateInTask    AgentState = "in_task"
	StateBreak     AgentState = "break"
	StateWrapUp    AgentState = "wrap_up"
)

// AllStates returns every agent state in display order, used to zero-fill
// state distributions.
func AllStates() []AgentState {
	return []AgentState{StateAvailable, StateInTask, StateBreak, StateWrapUp}
}

// Valid reports whether s is one of the four known states.
func (s AgentState) Valid() bool {
	switch s {
	case StateAvailable, StateInTask, StateBreak, StateWrapUp:
		return true
	}
	return false
}

// Agent is a human worker tracked by availability state. CurrentState is a
// projection of the agent's most recent open state log.
type Agent struct {
	ID           uint       `gorm:"primaryKey;autoIncrement"`
	Name         string     `gorm:"size:255;not null"`
	Email        string     `gorm:"size:255;uniqueIndex;not null"`
	CurrentState AgentState `gorm:"size:16;default:available;index"`
	CreatedAt    time.Time

	StateLogs []AgentStateLog `gorm:"foreignKey:AgentID"`
	TaskLogs  []TaskLog       `gorm:"foreignKey:AgentID"`
}

// AgentStateLog is one interval of an agent's state history. For each agent
// exactly one row has ExitedAt nil at any instant; that open row's state
// matches the agent's CurrentState.
type AgentStateLog struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"`
	AgentID   uint       `gorm:"index;not null"`
	State     AgentState `gorm:"size:16;not null"`
	EnteredAt time.Time
	ExitedAt  *time.Time
}

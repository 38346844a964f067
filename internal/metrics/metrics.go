// Package metrics derives read-only reporting views from the queue store,
// agent registry, and task ledger. Durations are aggregated in Go rather
// than SQL so the same queries run unchanged on SQLite and MySQL.
package metrics

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/calldesk/dialdesk/internal/models"
)

// HandleTime is the mean handle duration over completed ledger entries.
type HandleTime struct {
	Seconds   float64 `json:"average_handle_time_seconds"`
	TaskCount int     `json:"task_count"`
}

// Filter narrows metric queries to an agent and/or source. Nil fields
// match everything.
type Filter struct {
	AgentID  *uint
	SourceID *uint
}

// AverageHandleTime computes the mean of completed_at minus started_at in
// seconds over completed ledger entries matching the filter. Both fields
// are zero when no rows match.
func AverageHandleTime(db *gorm.DB, f Filter) (*HandleTime, error) {
	q := db.Model(&models.TaskLog{}).Where("completed_at IS NOT NULL")
	if f.AgentID != nil {
		q = q.Where("agent_id = ?", *f.AgentID)
	}
	if f.SourceID != nil {
		q = q.Where("source_id = ?", *f.SourceID)
	}

	var logs []models.TaskLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("metrics: handle time: %w", err)
	}

	ht := &HandleTime{TaskCount: len(logs)}
	if len(logs) == 0 {
		return ht, nil
	}
	var total float64
	for _, l := range logs {
		total += l.CompletedAt.Sub(l.StartedAt).Seconds()
	}
	ht.Seconds = total / float64(len(logs))
	return ht, nil
}

// Distribution is the number of agents in each state plus the total.
type Distribution struct {
	States map[models.AgentState]int64 `json:"states"`
	Total  int64                       `json:"total"`
}

// StateDistribution counts agents per state, zero-filled across all four
// states.
func StateDistribution(db *gorm.DB) (*Distribution, error) {
	type row struct {
		CurrentState models.AgentState
		Count        int64
	}
	var rows []row
	err := db.Model(&models.Agent{}).
		Select("current_state, count(*) as count").
		Group("current_state").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("metrics: state distribution: %w", err)
	}

	dist := &Distribution{States: make(map[models.AgentState]int64, 4)}
	for _, s := range models.AllStates() {
		dist.States[s] = 0
	}
	for _, r := range rows {
		dist.States[r.CurrentState] = r.Count
		dist.Total += r.Count
	}
	return dist, nil
}

// LeaderboardRow is one agent's standing: completed task count and mean
// handle time, alongside their current state.
type LeaderboardRow struct {
	AgentID      uint              `json:"agent_id"`
	Name         string            `json:"name"`
	CurrentState models.AgentState `json:"current_state"`
	TaskCount    int               `json:"task_count"`
	Seconds      float64           `json:"average_handle_time_seconds"`
}

// Leaderboard ranks every agent by completed task count descending,
// optionally counting only tasks for one source. Agents with no completed
// tasks appear with zeros.
func Leaderboard(db *gorm.DB, sourceID *uint) ([]LeaderboardRow, error) {
	var agents []models.Agent
	if err := db.Order("id ASC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("metrics: leaderboard agents: %w", err)
	}

	q := db.Model(&models.TaskLog{}).Where("completed_at IS NOT NULL")
	if sourceID != nil {
		q = q.Where("source_id = ?", *sourceID)
	}
	var logs []models.TaskLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("metrics: leaderboard tasks: %w", err)
	}

	type agg struct {
		count int
		total float64
	}
	byAgent := make(map[uint]*agg)
	for _, l := range logs {
		a, ok := byAgent[l.AgentID]
		if !ok {
			a = &agg{}
			byAgent[l.AgentID] = a
		}
		a.count++
		a.total += l.CompletedAt.Sub(l.StartedAt).Seconds()
	}

	rows := make([]LeaderboardRow, 0, len(agents))
	for _, ag := range agents {
		r := LeaderboardRow{
			AgentID:      ag.ID,
			Name:         ag.Name,
			CurrentState: ag.CurrentState,
		}
		if a, ok := byAgent[ag.ID]; ok {
			r.TaskCount = a.count
			r.Seconds = a.total / float64(a.count)
		}
		rows = append(rows, r)
	}

	// Stable sort keeps agent creation order within a tie.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TaskCount > rows[j].TaskCount
	})
	return rows, nil
}

// SourceQueueStats is the queue breakdown for one source.
type SourceQueueStats struct {
	SourceID  uint   `json:"source_id"`
	Name      string `json:"name"`
	Pending   int64  `json:"pending"`
	Assigned  int64  `json:"assigned"`
	Completed int64  `json:"completed"`
	Skipped   int64  `json:"skipped"`
	Total     int64  `json:"total"`
}

// QueueStatsAll returns the queue breakdown for every known source,
// including sources with no entries yet.
func QueueStatsAll(db *gorm.DB) ([]SourceQueueStats, error) {
	var sources []models.Source
	if err := db.Order("id ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("metrics: queue stats sources: %w", err)
	}

	type row struct {
		SourceID uint
		Status   models.QueueStatus
		Count    int64
	}
	var rows []row
	err := db.Model(&models.QueueEntry{}).
		Select("source_id, status, count(*) as count").
		Group("source_id, status").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("metrics: queue stats entries: %w", err)
	}

	bySource := make(map[uint]*SourceQueueStats, len(sources))
	result := make([]SourceQueueStats, len(sources))
	for i, s := range sources {
		result[i] = SourceQueueStats{SourceID: s.ID, Name: s.Name}
		bySource[s.ID] = &result[i]
	}
	for _, r := range rows {
		st, ok := bySource[r.SourceID]
		if !ok {
			continue
		}
		switch r.Status {
		case models.StatusPending:
			st.Pending = r.Count
		case models.StatusAssigned:
			st.Assigned = r.Count
		case models.StatusCompleted:
			st.Completed = r.Count
		case models.StatusSkipped:
			st.Skipped = r.Count
		}
		st.Total += r.Count
	}
	return result, nil
}

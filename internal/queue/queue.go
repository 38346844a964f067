// Package queue implements work distribution: enqueueing records for a
// source and the exclusive reserve/complete/skip lifecycle of each entry.
package queue

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/calldesk/dialdesk/internal/models"
)

// Sentinel errors surfaced to callers. The transport layer maps these to
// status codes.
var (
	ErrNotFound     = errors.New("queue entry not found")
	ErrInvalidState = errors.New("queue entry not in expected state")
	ErrContended    = errors.New("reservation retry budget exhausted")
)

// Policy controls lifecycle preconditions and assignment leases.
type Policy struct {
	// Strict requires an entry to be assigned before Complete or Skip
	// will touch it. Disable for the permissive legacy behavior that
	// overwrites status unconditionally.
	Strict bool
	// Lease is how long an assignment may sit open before ReclaimExpired
	// returns it to pending. Zero disables reclaim.
	Lease time.Duration
}

// DefaultPolicy enforces strict lifecycle preconditions with leases off.
var DefaultPolicy = Policy{Strict: true}

// reserveRounds bounds how many times a reservation re-reads the candidate
// set after losing every status flip in a round to concurrent callers.
const reserveRounds = 5

// reserveCandidates is how many pending entries each round considers, so a
// caller that loses a flip moves to the next-best entry without re-querying.
const reserveCandidates = 8

// Enqueue inserts one pending entry per record ID not already queued for
// the source. Duplicates, in the input or already in the table, are
// swallowed by the (source_id, record_id) unique index, so concurrent
// calls with overlapping IDs are idempotent. Returns the number of new
// entries created.
func Enqueue(db *gorm.DB, sourceID uint, recordIDs []int64) (int, error) {
	if err := sourceExists(db, sourceID); err != nil {
		return 0, err
	}

	seen := make(map[int64]struct{}, len(recordIDs))
	entries := make([]models.QueueEntry, 0, len(recordIDs))
	for _, rid := range recordIDs {
		if _, dup := seen[rid]; dup {
			continue
		}
		seen[rid] = struct{}{}
		entries = append(entries, models.QueueEntry{
			SourceID: sourceID,
			RecordID: rid,
			Status:   models.StatusPending,
			Priority: 0,
		})
	}
	if len(entries) == 0 {
		return 0, nil
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}, {Name: "record_id"}},
		DoNothing: true,
	}).CreateInBatches(&entries, 200)
	if result.Error != nil {
		return 0, fmt.Errorf("queue: enqueue for source %d: %w", sourceID, result.Error)
	}
	return int(result.RowsAffected), nil
}

// ReserveNext atomically claims the next pending entry for the source:
// highest priority first, oldest within a tier. The status flip is a
// guarded update (the row must still be pending when written), so two
// concurrent callers can never receive the same entry; a caller that
// loses a flip immediately tries the next candidate instead of blocking.
// Returns (nil, nil) when the source has no pending entries, and
// ErrContended if the retry budget runs out while the queue is non-empty.
func ReserveNext(db *gorm.DB, sourceID, agentID uint) (*models.QueueEntry, error) {
	if err := sourceExists(db, sourceID); err != nil {
		return nil, err
	}

	for round := 0; round < reserveRounds; round++ {
		var candidates []models.QueueEntry
		err := db.Where("source_id = ? AND status = ?", sourceID, models.StatusPending).
			Order("priority DESC, created_at ASC, id ASC").
			Limit(reserveCandidates).
			Find(&candidates).Error
		if err != nil {
			return nil, fmt.Errorf("queue: find pending for source %d: %w", sourceID, err)
		}
		if len(candidates) == 0 {
			return nil, nil
		}

		now := time.Now().UTC()
		for i := range candidates {
			entry := candidates[i]
			result := db.Model(&models.QueueEntry{}).
				Where("id = ? AND status = ?", entry.ID, models.StatusPending).
				Updates(map[string]interface{}{
					"status":      models.StatusAssigned,
					"assigned_to": agentID,
					"assigned_at": now,
				})
			if result.Error != nil {
				return nil, fmt.Errorf("queue: reserve entry %d: %w", entry.ID, result.Error)
			}
			if result.RowsAffected == 1 {
				entry.Status = models.StatusAssigned
				entry.AssignedTo = &agentID
				entry.AssignedAt = &now
				return &entry, nil
			}
			// A concurrent caller won this row; move to the next one.
		}
	}
	return nil, fmt.Errorf("queue: reserve for source %d: %w", sourceID, ErrContended)
}

// Complete marks a queue entry completed and stamps completed_at. Under a
// strict policy the entry must currently be assigned.
func Complete(db *gorm.DB, queueID uint, pol Policy) (*models.QueueEntry, error) {
	return flip(db, queueID, pol, map[string]interface{}{
		"status":       models.StatusCompleted,
		"completed_at": time.Now().UTC(),
	})
}

// Skip marks a queue entry skipped and releases its assignment. Under a
// strict policy the entry must currently be assigned.
func Skip(db *gorm.DB, queueID uint, pol Policy) (*models.QueueEntry, error) {
	return flip(db, queueID, pol, map[string]interface{}{
		"status":      models.StatusSkipped,
		"assigned_to": nil,
		"assigned_at": nil,
	})
}

// flip applies a terminal status update to one entry, distinguishing
// unknown IDs from precondition failures after a zero-row update.
func flip(db *gorm.DB, queueID uint, pol Policy, updates map[string]interface{}) (*models.QueueEntry, error) {
	q := db.Model(&models.QueueEntry{}).Where("id = ?", queueID)
	if pol.Strict {
		q = q.Where("status = ?", models.StatusAssigned)
	}
	result := q.Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("queue: update entry %d: %w", queueID, result.Error)
	}

	var entry models.QueueEntry
	if err := db.First(&entry, queueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("queue: entry %d: %w", queueID, ErrNotFound)
		}
		return nil, fmt.Errorf("queue: get entry %d: %w", queueID, err)
	}
	if result.RowsAffected == 0 && pol.Strict {
		return nil, fmt.Errorf("queue: entry %d is %s: %w", queueID, entry.Status, ErrInvalidState)
	}
	return &entry, nil
}

// Counts holds per-status entry counts for one source's queue.
type Counts struct {
	Pending   int64 `json:"pending"`
	Assigned  int64 `json:"assigned"`
	Completed int64 `json:"completed"`
	Skipped   int64 `json:"skipped"`
	Total     int64 `json:"total"`
}

// Stats returns per-status counts plus a total for a source's queue.
// Sources with no entries yield all zeros.
func Stats(db *gorm.DB, sourceID uint) (*Counts, error) {
	type row struct {
		Status models.QueueStatus
		Count  int64
	}
	var rows []row
	err := db.Model(&models.QueueEntry{}).
		Select("status, count(*) as count").
		Where("source_id = ?", sourceID).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("queue: stats for source %d: %w", sourceID, err)
	}

	var counts Counts
	for _, r := range rows {
		switch r.Status {
		case models.StatusPending:
			counts.Pending = r.Count
		case models.StatusAssigned:
			counts.Assigned = r.Count
		case models.StatusCompleted:
			counts.Completed = r.Count
		case models.StatusSkipped:
			counts.Skipped = r.Count
		}
		counts.Total += r.Count
	}
	return &counts, nil
}

// Depth returns the number of pending entries for a source, the remaining
// backlog callers report.
func Depth(db *gorm.DB, sourceID uint) (int64, error) {
	var count int64
	err := db.Model(&models.QueueEntry{}).
		Where("source_id = ? AND status = ?", sourceID, models.StatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("queue: depth for source %d: %w", sourceID, err)
	}
	return count, nil
}

// Get retrieves a single queue entry by ID.
func Get(db *gorm.DB, queueID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := db.First(&entry, queueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("queue: entry %d: %w", queueID, ErrNotFound)
		}
		return nil, fmt.Errorf("queue: get entry %d: %w", queueID, err)
	}
	return &entry, nil
}

func sourceExists(db *gorm.DB, sourceID uint) error {
	var count int64
	if err := db.Model(&models.Source{}).Where("id = ?", sourceID).Count(&count).Error; err != nil {
		return fmt.Errorf("queue: check source %d: %w", sourceID, err)
	}
	if count == 0 {
		return fmt.Errorf("queue: source %d: %w", sourceID, ErrNotFound)
	}
	return nil
}

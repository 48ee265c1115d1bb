package model

// Status is the shared lifecycle state for todos and subtasks.
type Status string

// Status values accepted by the storage layer.
const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusOnHold     Status = "on_hold"
	StatusCompleted  Status = "completed"
)

// ValidStatus reports whether s is one of the four known status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusOnHold, StatusCompleted:
		return true
	}
	return false
}

// RollupStatus derives a todo's status from the statuses of its subtasks.
// Rules are checked in order and the first match wins:
//
//  1. no subtasks                        -> not_started
//  2. every subtask completed           -> completed
//  3. every subtask not_started         -> not_started
//  4. any subtask in_progress/on_hold   -> in_progress
//  5. anything else (mixed completed
//     and not_started)                  -> in_progress
//
// Unknown status strings do not contribute to the counts.
func RollupStatus(statuses []Status) Status {
	var total, completed, notStarted, active int
	for _, s := range statuses {
		switch s {
		case StatusCompleted:
			completed++
		case StatusNotStarted:
			notStarted++
		case StatusInProgress, StatusOnHold:
			active++
		default:
			continue
		}
		total++
	}

	switch {
	case total == 0:
		return StatusNotStarted
	case completed == total:
		return StatusCompleted
	case notStarted == total:
		return StatusNotStarted
	case active > 0:
		return StatusInProgress
	default:
		return StatusInProgress
	}
}

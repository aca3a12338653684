package core

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

const DefaultDueSoonDays = 7

// ListTasksFilter holds exact-match constraints. Empty fields are not applied.
type ListTasksFilter struct {
	Status   TaskStatus `json:"status"`
	Priority string     `json:"priority"`
	Category string     `json:"category"`
}

func (f ListTasksFilter) match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// All filters below keep the input order and never modify the input slice.

func filter(tasks []Task, keep func(Task) bool) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func FilterByFields(tasks []Task, f ListTasksFilter) []Task {
	return filter(tasks, f.match)
}

// Search matches keyword case-insensitively against title or description.
// An empty keyword matches every task.
func Search(tasks []Task, keyword string) []Task {
	if keyword == "" {
		return filter(tasks, func(Task) bool { return true })
	}

	fold := cases.Fold()
	needle := fold.String(keyword)
	return filter(tasks, func(t Task) bool {
		return strings.Contains(fold.String(t.Title), needle) ||
			strings.Contains(fold.String(t.Description), needle)
	})
}

// Overdue returns tasks due strictly before now that are not flagged completed.
// Tasks without a due date are never overdue.
func Overdue(tasks []Task, now time.Time) []Task {
	return filter(tasks, func(t Task) bool {
		return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
	})
}

// DueSoon returns tasks due within [now, now+days], both ends inclusive.
// A zero window falls back to DefaultDueSoonDays.
func DueSoon(tasks []Task, now time.Time, days int) []Task {
	if days == 0 {
		days = DefaultDueSoonDays
	}
	end := now.AddDate(0, 0, days)
	return filter(tasks, func(t Task) bool {
		if t.DueDate == nil {
			return false
		}
		return !t.DueDate.Before(now) && !t.DueDate.After(end)
	})
}

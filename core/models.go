package core

import (
	"encoding/json"
	"fmt"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Bulk creation defaults.
const (
	DefaultPriority = "medium"
	DefaultCategory = "general"
)

type HistoryEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Changes   map[string]any `json:"changes"`
	ChangedBy string         `json:"changedBy"`
}

type Task struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      TaskStatus        `json:"status"`
	Priority    string            `json:"priority,omitempty"`
	Category    string            `json:"category,omitempty"`
	DueDate     *Date             `json:"dueDate,omitempty"`
	Completed   bool              `json:"completed,omitempty"`
	AssignedTo  *string           `json:"assignedTo"`
	History     []HistoryEntry    `json:"history"`
	Comments    []json.RawMessage `json:"comments"`
}

// TaskInput is the client-supplied shape for create and bulk create.
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *Date      `json:"dueDate"`
	Completed   bool       `json:"completed"`
	AssignedTo  *string    `json:"assignedTo"`
}

func (in TaskInput) task() Task {
	return Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Category:    in.Category,
		DueDate:     in.DueDate,
		Completed:   in.Completed,
		AssignedTo:  in.AssignedTo,
	}
}

// Clone returns a deep copy; history entries are append-only so their
// change maps are shared.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		out.AssignedTo = &a
	}
	if t.History != nil {
		out.History = make([]HistoryEntry, len(t.History))
		copy(out.History, t.History)
	}
	if t.Comments != nil {
		out.Comments = make([]json.RawMessage, len(t.Comments))
		copy(out.Comments, t.Comments)
	}
	return out
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

// Date is a due date that accepts either a calendar date or a full timestamp
// and renders back in the layout it was parsed from.
type Date struct {
	time.Time
	layout string
}

func NewDate(t time.Time) *Date {
	return &Date{Time: t, layout: time.RFC3339Nano}
}

func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Date{Time: t, layout: layout}, nil
		}
	}
	return Date{}, fmt.Errorf("unsupported date %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	layout := d.layout
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return json.Marshal(d.Time.Format(layout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

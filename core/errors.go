package core

import "errors"

// Bad input
var (
	ErrInvalidJSON       = errors.New("invalid json")
	ErrInvalidDataFormat = errors.New("invalid data format")
)

// Not found
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrNoCompletedTasks = errors.New("no completed tasks to delete")
)

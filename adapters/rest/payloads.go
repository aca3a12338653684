package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"task-tracker/core"
)

type PriorityIn struct {
	Priority *string `json:"priority"`
}

type AssignIn struct {
	AssignedTo *string `json:"assignedTo"`
}

// ReadBody drains the request body. Any read failure, including a body over
// the size limit or a read deadline, is reported as bad input.
func ReadBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, core.ErrInvalidJSON
	}
	return body, nil
}

// DecodeObject requires body to be a single JSON object.
func DecodeObject(body []byte, v any) error {
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return core.ErrInvalidJSON
	}
	if err := json.Unmarshal(body, v); err != nil {
		return core.ErrInvalidJSON
	}
	return nil
}

// DecodeBatch requires body to be a JSON array of objects. Nothing is
// returned unless every element decodes.
func DecodeBatch(body []byte) ([]core.TaskInput, error) {
	if !json.Valid(body) {
		return nil, core.ErrInvalidJSON
	}
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		return nil, core.ErrInvalidDataFormat
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, core.ErrInvalidJSON
	}
	batch := make([]core.TaskInput, len(items))
	for i, item := range items {
		if err := DecodeObject(item, &batch[i]); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

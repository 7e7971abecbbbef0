package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"taskboard/internal/service"
)

// envelope is the loose response shape shared by the mutation endpoints.
type envelope struct {
	Success *bool                `json:"success"`
	Message string               `json:"message"`
	Error   string               `json:"error"`
	Errors  []service.FieldError `json:"errors"`
	Data    json.RawMessage      `json:"data"`
	User    json.RawMessage      `json:"user"`
}

// decodeOutcome reads the success/message/errors part of a response.
// 400 and 409 are always unsuccessful; a 2xx without a success flag is a success.
func decodeOutcome(status int, data []byte) (service.Outcome, envelope, error) {
	var env envelope
	if len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '{' {
		if err := json.Unmarshal(data, &env); err != nil {
			return service.Outcome{}, envelope{}, fmt.Errorf("invalid response: %w", err)
		}
	}

	out := service.Outcome{Message: env.Message, Errors: env.Errors}
	switch {
	case isRejection(status):
		out.Success = false
	case env.Success != nil:
		out.Success = *env.Success
	default:
		out.Success = true
	}

	if !out.Success && out.Message == "" {
		out.Message = env.Error
	}
	if !out.Success && out.Message == "" && len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		out.Message = strings.Join(msgs, ", ")
	}
	return out, env, nil
}

// decodeTaskResult decodes a task mutation response. The task is read from
// "data" when present, otherwise from the body itself.
func decodeTaskResult(status int, data []byte) (service.TaskResult, error) {
	outcome, env, err := decodeOutcome(status, data)
	if err != nil {
		return service.TaskResult{}, err
	}
	result := service.TaskResult{Outcome: outcome}
	if !outcome.Success {
		return result, nil
	}

	raw := data
	if len(env.Data) > 0 && string(env.Data) != "null" {
		raw = env.Data
	}
	task, ok, err := decodeTask(raw)
	if err != nil {
		return service.TaskResult{}, err
	}
	if ok {
		result.Task = &task
	}
	return result, nil
}

// decodeTask decodes a task from a bare object or a {"data": task} envelope.
// ok is false when the body holds no task.
func decodeTask(data []byte) (service.Task, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return service.Task{}, false, nil
	}

	var head struct {
		ID   *int            `json:"id"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return service.Task{}, false, fmt.Errorf("invalid response: %w", err)
	}
	if head.ID == nil {
		if len(head.Data) > 0 && string(head.Data) != "null" {
			return decodeTask(head.Data)
		}
		return service.Task{}, false, nil
	}

	var task service.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return service.Task{}, false, fmt.Errorf("invalid task: %w", err)
	}
	return task, true, nil
}

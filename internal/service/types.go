// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// wire values used by the taches backend
var statusWire = map[Status]string{
	StatusTodo:       "A_FAIRE",
	StatusInProgress: "EN_COURS",
	StatusDone:       "TERMINER",
}

// Wire returns the backend representation of the status.
func (s Status) Wire() string {
	return statusWire[s]
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusWire[s]
	return ok
}

// MarshalText encodes the status using the backend representation.
func (s Status) MarshalText() ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status: %s", string(s))
	}
	return []byte(s.Wire()), nil
}

// UnmarshalText accepts both the backend and the client representation.
func (s *Status) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = ""
		return nil
	}
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses a status from user or backend input (case-insensitive).
// Accepts TODO/IN_PROGRESS/DONE, A_FAIRE/EN_COURS/TERMINER and todo/doing/done.
func ParseStatus(v string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "TODO", "A_FAIRE":
		return StatusTodo, nil
	case "IN_PROGRESS", "EN_COURS", "DOING":
		return StatusInProgress, nil
	case "DONE", "TERMINER":
		return StatusDone, nil
	}
	return "", fmt.Errorf("invalid status: %s", v)
}

// User is a backend user account.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"nom"`
	Email string `json:"email"`
}

// Session is the authenticated user's identity and bearer token.
type Session struct {
	Token  string
	UserID int
	Name   string
	Email  string
}

// Task represents a single task item.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"titre"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	CreatorID   int        `json:"userId"`
	AssigneeID  *int       `json:"assignedTo,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	AudioURL    string     `json:"audioUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// AssignedTo reports whether the task is assigned to userID.
func (t Task) AssignedTo(userID int) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// TaskPage is one page of the task collection as returned by the backend.
type TaskPage struct {
	Tasks      []Task `json:"data"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
}

// FieldError is a validation failure attached to a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Outcome is the structured result of a call the backend may reject with
// 400 or 409. A rejection is data, not an error.
type Outcome struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldMessage returns the message for field, or "" if none.
func (o Outcome) FieldMessage(field string) string {
	for _, e := range o.Errors {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Outcome
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// MeResponse is returned by the current-user endpoint.
type MeResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user,omitempty"`
}

// TaskResult is returned by task mutations.
type TaskResult struct {
	Outcome
	Task *Task `json:"data,omitempty"`
}

// UserResult is returned by user creation.
type UserResult struct {
	Outcome
	User *User `json:"user,omitempty"`
}

// Credentials are the login inputs.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration are the register inputs.
type Registration struct {
	Name            string `json:"nom"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Attachment is a file uploaded alongside a new task.
type Attachment struct {
	Name        string
	ContentType string
	Data        io.Reader
}

// NewTask holds the inputs for task creation.
// If Image or Audio is set the task is sent as multipart form data.
type NewTask struct {
	Title       string `json:"titre"`
	Description string `json:"description"`
	Status      Status `json:"status,omitempty"`
	AssigneeID  *int   `json:"assignedTo,omitempty"`

	Image *Attachment `json:"-"`
	Audio *Attachment `json:"-"`
}

// HasAttachments reports whether the task must be sent as multipart.
func (n NewTask) HasAttachments() bool {
	return n.Image != nil || n.Audio != nil
}

// TaskPatch holds the editable fields of a task. It replaces all of them,
// so a nil AssigneeID unassigns the task.
type TaskPatch struct {
	Title       string `json:"titre"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	AssigneeID  *int   `json:"assignedTo"`
}

// Notification is an alert about activity on a task.
type Notification struct {
	ID        int       `json:"id"`
	TaskID    *int      `json:"taskId,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

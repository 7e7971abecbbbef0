// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All taches REST calls go through this interface.
// Commands never build HTTP requests directly.
//
// Methods that the backend may reject with 400 or 409 return the rejection
// as data (an Outcome with Success false) and a nil error. Every other
// failure is returned as an error.
type Service interface {
	// Login authenticates with email and password.
	Login(ctx context.Context, creds Credentials) (AuthResponse, error)

	// Register creates an account.
	Register(ctx context.Context, reg Registration) (AuthResponse, error)

	// Logout forgets the bearer token. No request is sent.
	Logout(ctx context.Context) error

	// CurrentUser returns the user owning the bearer token.
	CurrentUser(ctx context.Context) (MeResponse, error)

	// ListTasks returns one page of tasks.
	// page is 1-based.
	ListTasks(ctx context.Context, page, limit int) (TaskPage, error)

	// GetTask returns a single task.
	GetTask(ctx context.Context, id int) (Task, error)

	// CreateTask creates a task, uploading attachments if present.
	CreateTask(ctx context.Context, task NewTask) (TaskResult, error)

	// UpdateTask replaces the editable fields of a task.
	UpdateTask(ctx context.Context, id int, patch TaskPatch) (TaskResult, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int) error

	// UpdateTaskStatus changes only the status of a task.
	UpdateTaskStatus(ctx context.Context, id int, status Status) (TaskResult, error)

	// ListUsers returns every user (assignment candidates).
	ListUsers(ctx context.Context) ([]User, error)

	// GetUser returns a single user.
	GetUser(ctx context.Context, id int) (User, error)

	// CreateUser creates a user account on behalf of the current user.
	CreateUser(ctx context.Context, reg Registration) (UserResult, error)

	// UnreadNotificationCount returns the number of unread notifications.
	UnreadNotificationCount(ctx context.Context) (int, error)

	// ListNotifications returns the current user's notifications.
	ListNotifications(ctx context.Context) ([]Notification, error)

	// MarkNotificationRead marks one notification as read.
	MarkNotificationRead(ctx context.Context, id int) error

	// MarkAllNotificationsRead marks every notification as read.
	MarkAllNotificationsRead(ctx context.Context) error
}

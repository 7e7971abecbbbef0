// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskboard/internal/service"
)

// Epoch is the creation time given to tasks added without one.
var Epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu            sync.RWMutex
	users         []fakeUser
	me            *service.User
	tasks         []service.Task
	notifications []service.Notification
	nextID        int
	calls         []string

	// Error injection for testing
	LoginErr         error
	RegisterErr      error
	CurrentUserErr   error
	ListTasksErr     error
	GetTaskErr       error
	CreateTaskErr    error
	UpdateTaskErr    error
	DeleteTaskErr    error
	UpdateStatusErr  error
	ListUsersErr     error
	CreateUserErr    error
	NotificationsErr error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{nextID: 1}
}

// AddUser adds a user that can log in with password.
func (f *FakeService) AddUser(name, email, password string) service.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := service.User{ID: f.id(), Name: name, Email: email}
	f.users = append(f.users, fakeUser{User: u, password: password})
	return u
}

// SetCurrentUser makes CurrentUser answer for u, as if its token were valid.
// A nil user makes every token invalid.
func (f *FakeService) SetCurrentUser(u *service.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.me = u
}

// AddTask stores a task and returns it with its assigned ID.
func (f *FakeService) AddTask(task service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	task.ID = f.id()
	if task.Status == "" {
		task.Status = service.StatusTodo
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = Epoch
	}
	f.tasks = append(f.tasks, task)
	return task
}

// AddNotification stores a notification.
func (f *FakeService) AddNotification(msg string, read bool) service.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := service.Notification{ID: f.id(), Message: msg, Read: read, CreatedAt: Epoch}
	f.notifications = append(f.notifications, n)
	return n
}

// Task returns the stored task with id.
func (f *FakeService) Task(id int) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Tasks returns all stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns the names of the methods called so far.
func (f *FakeService) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times method was called.
func (f *FakeService) CallCount(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeService) id() int {
	id := f.nextID
	f.nextID++
	return id
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
}

func titleRejected(title string) *service.Outcome {
	if len(strings.TrimSpace(title)) >= 3 {
		return nil
	}
	return &service.Outcome{
		Message: "title too short",
		Errors:  []service.FieldError{{Field: "titre", Message: "title too short"}},
	}
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (service.AuthResponse, error) {
	f.record("Login")
	if f.LoginErr != nil {
		return service.AuthResponse{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == creds.Email && u.password == creds.Password {
			user := u.User
			f.me = &user
			return service.AuthResponse{
				Outcome: service.Outcome{Success: true, Message: "logged in"},
				Token:   fmt.Sprintf("token-%d", u.ID),
				User:    &user,
			}, nil
		}
	}
	return service.AuthResponse{}, fmt.Errorf("%w: invalid credentials", service.ErrUnauthorized)
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, reg service.Registration) (service.AuthResponse, error) {
	f.record("Register")
	if f.RegisterErr != nil {
		return service.AuthResponse{}, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == reg.Email {
			return service.AuthResponse{Outcome: service.Outcome{
				Message: "email already in use",
				Errors:  []service.FieldError{{Field: "email", Message: "email already in use"}},
			}}, nil
		}
	}
	u := service.User{ID: f.id(), Name: reg.Name, Email: reg.Email}
	f.users = append(f.users, fakeUser{User: u, password: reg.Password})
	f.me = &u
	return service.AuthResponse{
		Outcome: service.Outcome{Success: true, Message: "registered"},
		Token:   fmt.Sprintf("token-%d", u.ID),
		User:    &u,
	}, nil
}

// Logout implements service.Service.
func (f *FakeService) Logout(ctx context.Context) error {
	f.record("Logout")
	return nil
}

// CurrentUser implements service.Service.
func (f *FakeService) CurrentUser(ctx context.Context) (service.MeResponse, error) {
	f.record("CurrentUser")
	if f.CurrentUserErr != nil {
		return service.MeResponse{}, f.CurrentUserErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.me == nil {
		return service.MeResponse{}, service.ErrUnauthorized
	}
	u := *f.me
	return service.MeResponse{Success: true, User: &u}, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, page, limit int) (service.TaskPage, error) {
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return service.TaskPage{}, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	total := len(f.tasks)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	return service.TaskPage{
		Tasks:      append([]service.Task{}, f.tasks[start:end]...),
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int) (service.Task, error) {
	f.record("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	if t, ok := f.Task(id); ok {
		return t, nil
	}
	return service.Task{}, service.ErrNotFound
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.NewTask) (service.TaskResult, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.TaskResult{}, f.CreateTaskErr
	}
	if rej := titleRejected(in.Title); rej != nil {
		return service.TaskResult{Outcome: *rej}, nil
	}
	task := service.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		AssigneeID:  in.AssigneeID,
	}
	f.mu.RLock()
	if f.me != nil {
		task.CreatorID = f.me.ID
	}
	f.mu.RUnlock()
	if in.Image != nil {
		task.ImageURL = "/uploads/" + in.Image.Name
	}
	if in.Audio != nil {
		task.AudioURL = "/uploads/audio.wav"
	}
	task = f.AddTask(task)
	return service.TaskResult{Outcome: service.Outcome{Success: true}, Task: &task}, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int, patch service.TaskPatch) (service.TaskResult, error) {
	f.record("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.TaskResult{}, f.UpdateTaskErr
	}
	if rej := titleRejected(patch.Title); rej != nil {
		return service.TaskResult{Outcome: *rej}, nil
	}
	return f.mutate(id, func(t *service.Task) {
		t.Title = patch.Title
		t.Description = patch.Description
		if patch.Status != "" {
			t.Status = patch.Status
		}
		t.AssigneeID = patch.AssigneeID
	})
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.ErrNotFound
}

// UpdateTaskStatus implements service.Service.
func (f *FakeService) UpdateTaskStatus(ctx context.Context, id int, status service.Status) (service.TaskResult, error) {
	f.record("UpdateTaskStatus")
	if f.UpdateStatusErr != nil {
		return service.TaskResult{}, f.UpdateStatusErr
	}
	if !status.Valid() {
		return service.TaskResult{Outcome: service.Outcome{Message: "invalid status"}}, nil
	}
	return f.mutate(id, func(t *service.Task) { t.Status = status })
}

func (f *FakeService) mutate(id int, fn func(*service.Task)) (service.TaskResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			fn(&f.tasks[i])
			t := f.tasks[i]
			return service.TaskResult{Outcome: service.Outcome{Success: true}, Task: &t}, nil
		}
	}
	return service.TaskResult{}, service.ErrNotFound
}

// ListUsers implements service.Service.
func (f *FakeService) ListUsers(ctx context.Context) ([]service.User, error) {
	f.record("ListUsers")
	if f.ListUsersErr != nil {
		return nil, f.ListUsersErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	users := make([]service.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u.User)
	}
	return users, nil
}

// GetUser implements service.Service.
func (f *FakeService) GetUser(ctx context.Context, id int) (service.User, error) {
	f.record("GetUser")
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, u := range f.users {
		if u.ID == id {
			return u.User, nil
		}
	}
	return service.User{}, service.ErrNotFound
}

// CreateUser implements service.Service.
func (f *FakeService) CreateUser(ctx context.Context, reg service.Registration) (service.UserResult, error) {
	f.record("CreateUser")
	if f.CreateUserErr != nil {
		return service.UserResult{}, f.CreateUserErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == reg.Email {
			return service.UserResult{Outcome: service.Outcome{
				Message: "email already in use",
				Errors:  []service.FieldError{{Field: "email", Message: "email already in use"}},
			}}, nil
		}
	}
	u := service.User{ID: f.id(), Name: reg.Name, Email: reg.Email}
	f.users = append(f.users, fakeUser{User: u, password: reg.Password})
	return service.UserResult{Outcome: service.Outcome{Success: true}, User: &u}, nil
}

// UnreadNotificationCount implements service.Service.
func (f *FakeService) UnreadNotificationCount(ctx context.Context) (int, error) {
	f.record("UnreadNotificationCount")
	if f.NotificationsErr != nil {
		return 0, f.NotificationsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, notif := range f.notifications {
		if !notif.Read {
			n++
		}
	}
	return n, nil
}

// ListNotifications implements service.Service.
func (f *FakeService) ListNotifications(ctx context.Context) ([]service.Notification, error) {
	f.record("ListNotifications")
	if f.NotificationsErr != nil {
		return nil, f.NotificationsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Notification{}, f.notifications...), nil
}

// MarkNotificationRead implements service.Service.
func (f *FakeService) MarkNotificationRead(ctx context.Context, id int) error {
	f.record("MarkNotificationRead")
	if f.NotificationsErr != nil {
		return f.NotificationsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].Read = true
			return nil
		}
	}
	return service.ErrNotFound
}

// MarkAllNotificationsRead implements service.Service.
func (f *FakeService) MarkAllNotificationsRead(ctx context.Context) error {
	f.record("MarkAllNotificationsRead")
	if f.NotificationsErr != nil {
		return f.NotificationsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		f.notifications[i].Read = true
	}
	return nil
}

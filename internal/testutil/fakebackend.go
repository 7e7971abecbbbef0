package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

// RecordedRequest is what FakeBackend saw for one request.
type RecordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	ContentType   string
	Authorization string
	RequestID     string
	Body          string // JSON bodies only
	Form          map[string]string
	Files         map[string]UploadedFile
}

// UploadedFile is a multipart file received by FakeBackend.
type UploadedFile struct {
	Name        string
	ContentType string
	Size        int64
}

// Override replaces the response of one route.
type Override struct {
	Status int
	Body   any // nil writes no body
}

// FakeBackend is an in-memory taches REST backend served over httptest.
type FakeBackend struct {
	Server *httptest.Server

	mu            sync.Mutex
	users         []fakeUser
	tasks         []service.Task
	notifications []service.Notification
	tokens        map[string]int // token -> user id
	nextID        int
	requests      []RecordedRequest
	overrides     map[string]Override // "METHOD /path" -> response
}

type fakeUser struct {
	service.User
	password string
}

// NewFakeBackend starts a fake backend; it is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &FakeBackend{
		tokens:    make(map[string]int),
		overrides: make(map[string]Override),
		nextID:    1,
	}

	r := gin.New()
	r.Use(b.record, b.override)

	r.POST("/auth/login", b.login)
	r.POST("/auth/register", b.register)
	r.GET("/auth/me", b.auth, b.me)

	tasks := r.Group("/taches", b.auth)
	tasks.GET("", b.listTasks)
	tasks.POST("", b.createTask)
	tasks.GET("/:id", b.getTask)
	tasks.PUT("/:id", b.updateTask)
	tasks.DELETE("/:id", b.deleteTask)
	tasks.PATCH("/:id/:status", b.updateStatus)

	users := r.Group("/users", b.auth)
	users.GET("", b.listUsers)
	users.GET("/:id", b.getUser)
	users.POST("", b.createUser)

	notifs := r.Group("/notifications", b.auth)
	notifs.GET("", b.listNotifications)
	notifs.GET("/unread-count", b.unreadCount)
	notifs.PATCH("/read-all", b.markAllRead)
	notifs.PATCH("/:id/read", b.markRead)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base URL of the fake backend.
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// AddUser adds a user and returns it together with a valid bearer token.
func (b *FakeBackend) AddUser(name, email, password string) (service.User, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := service.User{ID: b.id(), Name: name, Email: email}
	b.users = append(b.users, fakeUser{User: u, password: password})
	token := fmt.Sprintf("token-%d", u.ID)
	b.tokens[token] = u.ID
	return u, token
}

// AddTask stores a task and returns it with its assigned ID.
func (b *FakeBackend) AddTask(task service.Task) service.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	task.ID = b.id()
	if task.Status == "" {
		task.Status = service.StatusTodo
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	b.tasks = append(b.tasks, task)
	return task
}

// AddNotification stores a notification.
func (b *FakeBackend) AddNotification(msg string, read bool) service.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := service.Notification{ID: b.id(), Message: msg, Read: read, CreatedAt: time.Now().UTC()}
	b.notifications = append(b.notifications, n)
	return n
}

// Override makes route ("METHOD /path") answer with a fixed response.
func (b *FakeBackend) Override(route string, o Override) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[route] = o
}

// Requests returns every request seen so far.
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request.
func (b *FakeBackend) LastRequest() RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return RecordedRequest{}
	}
	return b.requests[len(b.requests)-1]
}

// Task returns a stored task by ID.
func (b *FakeBackend) Task(id int) (service.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

func (b *FakeBackend) id() int {
	id := b.nextID
	b.nextID++
	return id
}

func (b *FakeBackend) record(c *gin.Context) {
	rec := RecordedRequest{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		RawQuery:      c.Request.URL.RawQuery,
		ContentType:   c.GetHeader("Content-Type"),
		Authorization: c.GetHeader("Authorization"),
		RequestID:     c.GetHeader("X-Request-Id"),
	}
	if strings.HasPrefix(rec.ContentType, "application/json") {
		if data, err := c.GetRawData(); err == nil {
			rec.Body = string(data)
			c.Request.Body = io.NopCloser(bytes.NewReader(data))
		}
	}
	if strings.HasPrefix(rec.ContentType, "multipart/form-data") {
		if form, err := c.MultipartForm(); err == nil {
			rec.Form = make(map[string]string)
			for k, v := range form.Value {
				if len(v) > 0 {
					rec.Form[k] = v[0]
				}
			}
			rec.Files = make(map[string]UploadedFile)
			for k, v := range form.File {
				if len(v) > 0 {
					rec.Files[k] = UploadedFile{
						Name:        v[0].Filename,
						ContentType: v[0].Header.Get("Content-Type"),
						Size:        v[0].Size,
					}
				}
			}
		}
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	b.mu.Unlock()
	c.Next()
}

func (b *FakeBackend) override(c *gin.Context) {
	b.mu.Lock()
	o, ok := b.overrides[c.Request.Method+" "+c.Request.URL.Path]
	b.mu.Unlock()
	if !ok {
		c.Next()
		return
	}
	if o.Body == nil {
		c.AbortWithStatus(o.Status)
		return
	}
	c.AbortWithStatusJSON(o.Status, o.Body)
}

func (b *FakeBackend) auth(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	b.mu.Lock()
	userID, ok := b.tokens[token]
	b.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "token invalide"})
		return
	}
	c.Set("userID", userID)
	c.Next()
}

func (b *FakeBackend) login(c *gin.Context) {
	var creds service.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "requête invalide"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Email == creds.Email && u.password == creds.Password {
			token := fmt.Sprintf("token-%d", u.ID)
			b.tokens[token] = u.ID
			c.JSON(http.StatusOK, gin.H{"token": token, "user": u.User, "message": "connexion réussie"})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "identifiants invalides"})
}

func (b *FakeBackend) register(c *gin.Context) {
	var reg service.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "requête invalide"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Email == reg.Email {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "email déjà utilisé",
				"errors":  []service.FieldError{{Field: "email", Message: "email already in use"}},
			})
			return
		}
	}
	u := service.User{ID: b.id(), Name: reg.Name, Email: reg.Email}
	b.users = append(b.users, fakeUser{User: u, password: reg.Password})
	token := fmt.Sprintf("token-%d", u.ID)
	b.tokens[token] = u.ID
	c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "user": u, "message": "inscription réussie"})
}

func (b *FakeBackend) me(c *gin.Context) {
	userID := c.GetInt("userID")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.ID == userID {
			c.JSON(http.StatusOK, gin.H{"success": true, "user": u.User})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": false})
}

func (b *FakeBackend) listTasks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	total := len(b.tasks)
	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	data := append([]service.Task{}, b.tasks[start:end]...)
	c.JSON(http.StatusOK, gin.H{
		"data":       data,
		"total":      total,
		"totalPages": (total + limit - 1) / limit,
	})
}

func (b *FakeBackend) getTask(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	if t, ok := b.Task(id); ok {
		c.JSON(http.StatusOK, t)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "tâche introuvable"})
}

func (b *FakeBackend) createTask(c *gin.Context) {
	var in service.NewTask
	if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
		in.Title = c.PostForm("titre")
		in.Description = c.PostForm("description")
		if s := c.PostForm("status"); s != "" {
			st, err := service.ParseStatus(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": []service.FieldError{{Field: "status", Message: "invalid status"}}})
				return
			}
			in.Status = st
		}
		if a := c.PostForm("assignedTo"); a != "" {
			id, _ := strconv.Atoi(a)
			in.AssigneeID = &id
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "requête invalide"})
		return
	}

	if len(strings.TrimSpace(in.Title)) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"errors":  []service.FieldError{{Field: "titre", Message: "title too short"}},
		})
		return
	}

	task := service.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		CreatorID:   c.GetInt("userID"),
		AssigneeID:  in.AssigneeID,
	}
	if _, err := c.FormFile("image"); err == nil {
		task.ImageURL = "/uploads/image"
	}
	if _, err := c.FormFile("audio"); err == nil {
		task.AudioURL = "/uploads/audio.wav"
	}
	task = b.AddTask(task)
	c.JSON(http.StatusCreated, task)
}

func (b *FakeBackend) updateTask(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	var patch service.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "requête invalide"})
		return
	}
	if len(strings.TrimSpace(patch.Title)) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"errors":  []service.FieldError{{Field: "titre", Message: "title too short"}},
		})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.tasks {
		if t.ID == id {
			t.Title = patch.Title
			t.Description = patch.Description
			if patch.Status != "" {
				t.Status = patch.Status
			}
			t.AssigneeID = patch.AssigneeID
			b.tasks[i] = t
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "tâche modifiée", "data": t})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "tâche introuvable"})
}

func (b *FakeBackend) deleteTask(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.tasks {
		if t.ID == id {
			b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "tâche introuvable"})
}

func (b *FakeBackend) updateStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	status, err := service.ParseStatus(c.Param("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "statut invalide"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.tasks {
		if t.ID == id {
			t.Status = status
			b.tasks[i] = t
			c.JSON(http.StatusOK, gin.H{"success": true, "data": t})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "tâche introuvable"})
}

func (b *FakeBackend) listUsers(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := make([]service.User, 0, len(b.users))
	for _, u := range b.users {
		users = append(users, u.User)
	}
	c.JSON(http.StatusOK, users)
}

func (b *FakeBackend) getUser(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.ID == id {
			c.JSON(http.StatusOK, u.User)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "utilisateur introuvable"})
}

func (b *FakeBackend) createUser(c *gin.Context) {
	var reg service.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "requête invalide"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u := service.User{ID: b.id(), Name: reg.Name, Email: reg.Email}
	b.users = append(b.users, fakeUser{User: u, password: reg.Password})
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": u})
}

func (b *FakeBackend) listNotifications(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, append([]service.Notification{}, b.notifications...))
}

func (b *FakeBackend) unreadCount(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, notif := range b.notifications {
		if !notif.Read {
			n++
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (b *FakeBackend) markRead(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notifications {
		if n.ID == id {
			b.notifications[i].Read = true
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "notification introuvable"})
}

func (b *FakeBackend) markAllRead(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.notifications {
		b.notifications[i].Read = true
	}
	c.Status(http.StatusNoContent)
}


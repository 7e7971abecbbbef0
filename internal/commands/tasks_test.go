package commands_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskboard/internal/commands"
	"taskboard/internal/exitcode"
	"taskboard/internal/recording"
	"taskboard/internal/service"
)

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	f := newFixture(t)

	stdout, stderr, code := f.run(t, &commands.AddCmd{}, "Buy", "milk")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	tasks := f.svc.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "Buy milk" || tasks[0].CreatorID != f.me.ID || tasks[0].Status != service.StatusTodo {
		t.Errorf("unexpected task %+v", tasks[0])
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	f := newFixture(t)
	f.cfg.Quiet = true

	stdout, _, code := f.run(t, &commands.CreateCmd{}, "Buy milk")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output, got %q", stdout)
	}
}

func TestAddCommand_AllFields(t *testing.T) {
	f := newFixture(t)
	bob := f.svc.AddUser("Bob", "bob@example.com", "Secret123")

	_, stderr, code := f.run(t, &commands.AddCmd{},
		"--desc", "Quarterly numbers", "--status", "doing", "--assign", fmt.Sprint(bob.ID), "Write report")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	task := f.svc.Tasks()[0]
	if task.Description != "Quarterly numbers" || task.Status != service.StatusInProgress || !task.AssignedTo(bob.ID) {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestAddCommand_NoTitle(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := f.run(t, &commands.AddCmd{})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: title required\n" {
		t.Errorf("expected 'error: title required', got %q", stderr)
	}
}

func TestAddCommand_ShortTitle(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := f.run(t, &commands.AddCmd{}, "ab")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: titre: title too short\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if f.svc.CallCount("CreateTask") != 0 {
		t.Error("invalid task should not reach the backend")
	}
}

func TestAddCommand_InvalidStatus(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := f.run(t, &commands.AddCmd{}, "--status", "later", "Buy milk")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid status: later\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAddCommand_Image(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "pic.png")
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	if err := os.WriteFile(path, png, 0600); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := f.run(t, &commands.AddCmd{}, "--image", path, "With picture")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if url := f.svc.Tasks()[0].ImageURL; url != "/uploads/pic.png" {
		t.Errorf("expected uploaded image, got %q", url)
	}
}

func TestAddCommand_NotAnImage(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("just some text"), 0600); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := f.run(t, &commands.AddCmd{}, "--image", path, "With picture")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: image: file is not an image\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if f.svc.CallCount("CreateTask") != 0 {
		t.Error("invalid image should not reach the backend")
	}
}

func TestAddCommand_AudioFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "memo.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0600); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := f.run(t, &commands.AddCmd{}, "--audio", path, "Voice memo")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if url := f.svc.Tasks()[0].AudioURL; url != "/uploads/audio.wav" {
		t.Errorf("expected uploaded audio, got %q", url)
	}
}

func TestAddCommand_Record(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	f.env.Microphone = &recording.PCMMicrophone{Reader: bytes.NewReader(make([]byte, 3200))}
	f.env.RecordOptions = []recording.Option{recording.WithDir(dir)}

	_, stderr, code := f.run(t, &commands.AddCmd{}, "--record", "50ms", "Voice memo")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if !strings.HasPrefix(stderr, "recording (max 30s)...\n") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if url := f.svc.Tasks()[0].AudioURL; url != "/uploads/audio.wav" {
		t.Errorf("expected uploaded audio, got %q", url)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected the recording to be removed after upload, found %d files", len(entries))
	}
}

func TestAddCommand_RecordMicrophoneDenied(t *testing.T) {
	f := newFixture(t)
	f.env.Microphone = &recording.PCMMicrophone{Err: errors.New("permission denied")}

	_, stderr, code := f.run(t, &commands.AddCmd{}, "--record", "1s", "Voice memo")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "microphone unavailable") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if f.svc.CallCount("CreateTask") != 0 {
		t.Error("expected no task without audio")
	}
}

func TestAddCommand_AudioAndRecord(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := f.run(t, &commands.AddCmd{}, "--audio", "memo.wav", "--record", "1s", "Voice memo")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: cannot use both --audio and --record\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAddCommand_BackendError(t *testing.T) {
	f := newFixture(t)
	f.svc.CreateTaskErr = errors.New("request timed out")

	_, stderr, code := f.run(t, &commands.AddCmd{}, "Buy milk")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: request timed out\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for edit command
func TestEditCommand_Success(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Original", Description: "Keep me", CreatorID: f.me.ID})

	stdout, stderr, code := f.run(t, &commands.EditCmd{}, "--title", "Renamed", fmt.Sprint(task.ID))

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	expected := fmt.Sprintf("ok\n%4d  [ ] Renamed\n", task.ID)
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
	stored, _ := f.svc.Task(task.ID)
	if stored.Title != "Renamed" || stored.Description != "Keep me" {
		t.Errorf("unexpected task %+v", stored)
	}
}

func TestEditCommand_AssigneeMayEdit(t *testing.T) {
	f := newFixture(t)
	me := f.me.ID
	task := f.svc.AddTask(service.Task{Title: "Original", CreatorID: 42, AssigneeID: &me})

	_, stderr, code := f.run(t, &commands.EditCmd{}, "--status", "done", fmt.Sprint(task.ID))

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	stored, _ := f.svc.Task(task.ID)
	if stored.Status != service.StatusDone {
		t.Errorf("expected DONE, got %s", stored.Status)
	}
	if stored.AssigneeID == nil || *stored.AssigneeID != me {
		t.Errorf("expected assignee to be kept, got %v", stored.AssigneeID)
	}
}

func TestEditCommand_Unassign(t *testing.T) {
	f := newFixture(t)
	bob := 42
	task := f.svc.AddTask(service.Task{Title: "Original", CreatorID: f.me.ID, AssigneeID: &bob})

	stdout, stderr, code := f.run(t, &commands.EditCmd{}, "--assign", "", fmt.Sprint(task.ID))

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if !strings.HasPrefix(stdout, "ok\n") {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	stored, _ := f.svc.Task(task.ID)
	if stored.AssigneeID != nil {
		t.Errorf("expected task to be unassigned, got %d", *stored.AssigneeID)
	}
}

func TestEditCommand_NotAllowed(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Someone else's", CreatorID: 42})

	_, stderr, code := f.run(t, &commands.EditCmd{}, "--title", "Mine now", fmt.Sprint(task.ID))

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := fmt.Sprintf("error: not allowed to edit task %d\n", task.ID)
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
	if f.svc.CallCount("UpdateTask") != 0 {
		t.Error("expected no update")
	}
}

func TestEditCommand_NothingToChange(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := f.run(t, &commands.EditCmd{}, "3")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: nothing to change") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestEditCommand_ShortTitle(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Original", CreatorID: f.me.ID})

	_, stderr, code := f.run(t, &commands.EditCmd{}, "--title", "ab", fmt.Sprint(task.ID))

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: titre: title too short\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestEditCommand_NotFound(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := f.run(t, &commands.EditCmd{}, "--title", "Renamed", "99")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task not found: 99\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for status, start and done commands
func TestStatusCommand(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Original", CreatorID: f.me.ID})

	stdout, _, code := f.run(t, &commands.StatusCmd{}, fmt.Sprint(task.ID), "in_progress")

	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("unexpected result %d %q", code, stdout)
	}
	stored, _ := f.svc.Task(task.ID)
	if stored.Status != service.StatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", stored.Status)
	}
}

func TestStatusCommand_Errors(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Original", CreatorID: f.me.ID})

	tests := []struct {
		args     []string
		expected string
	}{
		{nil, "error: task reference required\n"},
		{[]string{fmt.Sprint(task.ID)}, "error: status required\n"},
		{[]string{fmt.Sprint(task.ID), "later"}, "error: invalid status: later\n"},
		{[]string{"abc", "done"}, "error: invalid task reference: abc\n"},
	}
	for _, tt := range tests {
		_, stderr, code := f.run(t, &commands.StatusCmd{}, tt.args...)
		if code != exitcode.UserError {
			t.Errorf("%v: expected exit code %d, got %d", tt.args, exitcode.UserError, code)
		}
		if stderr != tt.expected {
			t.Errorf("%v: expected %q, got %q", tt.args, tt.expected, stderr)
		}
	}
	if f.svc.CallCount("UpdateTaskStatus") != 0 {
		t.Error("expected no status change")
	}
}

func TestDoneCommand_Success(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Original", CreatorID: f.me.ID})

	stdout, _, code := f.run(t, &commands.DoneCmd{}, fmt.Sprint(task.ID))

	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("unexpected result %d %q", code, stdout)
	}
	stored, _ := f.svc.Task(task.ID)
	if stored.Status != service.StatusDone {
		t.Errorf("expected DONE, got %s", stored.Status)
	}
}

func TestDoneCommand_NoRef(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := f.run(t, &commands.DoneCmd{})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task reference required\n" {
		t.Errorf("expected 'error: task reference required', got %q", stderr)
	}
}

func TestStartCommand(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Original", CreatorID: f.me.ID})

	if _, _, code := f.run(t, &commands.StartCmd{}, "#"+fmt.Sprint(task.ID)); code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	stored, _ := f.svc.Task(task.ID)
	if stored.Status != service.StatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", stored.Status)
	}
}

func TestDoneCommand_BackendError(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Original", CreatorID: f.me.ID})
	f.svc.UpdateStatusErr = service.ErrForbidden

	_, stderr, code := f.run(t, &commands.DoneCmd{}, fmt.Sprint(task.ID))

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: forbidden\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for rm command
func TestRmCommand_Yes(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Remove me", CreatorID: f.me.ID})

	stdout, _, code := f.run(t, &commands.RmCmd{}, "--yes", fmt.Sprint(task.ID))

	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("unexpected result %d %q", code, stdout)
	}
	if _, ok := f.svc.Task(task.ID); ok {
		t.Error("expected task to be deleted")
	}
}

func TestRmCommand_Prompt(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Remove me", CreatorID: f.me.ID})
	f.env.In = strings.NewReader("y\n")

	stdout, stderr, code := f.run(t, &commands.RmCmd{}, fmt.Sprint(task.ID))

	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("unexpected result %d %q", code, stdout)
	}
	expected := fmt.Sprintf("Delete task %d? [y/N] ", task.ID)
	if stderr != expected {
		t.Errorf("expected prompt %q, got %q", expected, stderr)
	}
	if _, ok := f.svc.Task(task.ID); ok {
		t.Error("expected task to be deleted")
	}
}

func TestRmCommand_Declined(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Keep me", CreatorID: f.me.ID})
	f.env.In = strings.NewReader("n\n")

	stdout, _, code := f.run(t, &commands.RmCmd{}, fmt.Sprint(task.ID))

	if code != exitcode.Success || stdout != "cancelled\n" {
		t.Fatalf("unexpected result %d %q", code, stdout)
	}
	if _, ok := f.svc.Task(task.ID); !ok {
		t.Error("task should still exist")
	}
	if f.svc.CallCount("DeleteTask") != 0 {
		t.Error("expected no delete request")
	}
}

func TestRmCommand_NoInput(t *testing.T) {
	f := newFixture(t)
	task := f.svc.AddTask(service.Task{Title: "Keep me", CreatorID: f.me.ID})

	_, stderr, code := f.run(t, &commands.RmCmd{}, fmt.Sprint(task.ID))

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: confirmation required (use --yes)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRmCommand_NoRef(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := f.run(t, &commands.RmCmd{}, "--yes")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task reference required\n" {
		t.Errorf("expected 'error: task reference required', got %q", stderr)
	}
}

// Package taskitem implements the mutations offered on a single task.
package taskitem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/form"
	"taskboard/internal/service"
)

// Refresher refetches the list a task belongs to.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// AlwaysConfirm accepts every confirmation (--yes).
type AlwaysConfirm struct{}

// Confirm implements Confirmer.
func (AlwaysConfirm) Confirm(string) (bool, error) { return true, nil }

// PromptConfirmer asks on Out and reads a y/N answer from In.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm implements Confirmer. Only "y" and "yes" confirm.
func (p PromptConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// CanEdit reports whether the session user may edit the task: its creator
// or its assignee. The backend enforces the real rule.
func CanEdit(sess service.Session, t service.Task) bool {
	return t.CreatorID == sess.UserID || t.AssignedTo(sess.UserID)
}

// Editor applies mutations and refreshes the list after each success.
type Editor struct {
	svc     service.Service
	list    Refresher
	confirm Confirmer
}

// NewEditor returns an editor. list may be nil when there is nothing to
// refresh; confirm defaults to AlwaysConfirm.
func NewEditor(svc service.Service, list Refresher, confirm Confirmer) *Editor {
	if confirm == nil {
		confirm = AlwaysConfirm{}
	}
	return &Editor{svc: svc, list: list, confirm: confirm}
}

// Edit validates and saves a patch. Validation failures and backend
// rejections come back as an unsuccessful result, with no refresh.
func (e *Editor) Edit(ctx context.Context, id int, patch service.TaskPatch) (service.TaskResult, error) {
	if errs := form.ValidatePatch(patch); !errs.Empty() {
		return service.TaskResult{Outcome: service.Outcome{Message: errs.Message(), Errors: errs.List()}}, nil
	}
	res, err := e.svc.UpdateTask(ctx, id, patch)
	if err != nil || !res.Success {
		return res, err
	}
	return res, e.refresh(ctx)
}

// ChangeStatus changes only the status of a task.
func (e *Editor) ChangeStatus(ctx context.Context, id int, status service.Status) (service.TaskResult, error) {
	if !status.Valid() {
		return service.TaskResult{}, fmt.Errorf("invalid status: %s", string(status))
	}
	res, err := e.svc.UpdateTaskStatus(ctx, id, status)
	if err != nil || !res.Success {
		return res, err
	}
	return res, e.refresh(ctx)
}

// Delete removes a task after confirmation. It reports whether the task
// was deleted; a declined confirmation is not an error.
func (e *Editor) Delete(ctx context.Context, id int) (bool, error) {
	ok, err := e.confirm.Confirm(fmt.Sprintf("Delete task %d?", id))
	if err != nil || !ok {
		return false, err
	}
	if err := e.svc.DeleteTask(ctx, id); err != nil {
		return false, err
	}
	return true, e.refresh(ctx)
}

func (e *Editor) refresh(ctx context.Context) error {
	if e.list == nil {
		return nil
	}
	if err := e.list.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh list: %w", err)
	}
	return nil
}

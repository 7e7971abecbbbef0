// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/notify"
	"taskboard/internal/service"
	"taskboard/internal/tasklist"
)

const (
	// ListSeparator is the separator line between sections.
	ListSeparator = "------------"

	// EllipsisMark stands for skipped page numbers.
	EllipsisMark = "…"
)

// StatusMark returns the checkbox shown in front of a task.
func StatusMark(s service.Status) string {
	switch s {
	case service.StatusInProgress:
		return "[~]"
	case service.StatusDone:
		return "[x]"
	default:
		return "[ ]"
	}
}

// StatusLabel returns the human label of a status.
func StatusLabel(s service.Status) string {
	switch s {
	case service.StatusTodo:
		return "To do"
	case service.StatusInProgress:
		return "In progress"
	case service.StatusDone:
		return "Done"
	}
	return string(s)
}

// FormatTask formats a task line for the list.
// Format: "{ID:>4}  {MARK} {TITLE}\n"
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", task.ID, StatusMark(task.Status), normalizeTitle(task.Title))
}

// FormatTaskDetail formats every field of a task, one per line.
func FormatTaskDetail(w io.Writer, task service.Task, now time.Time) {
	fmt.Fprintf(w, "ID:          %d\n", task.ID)
	fmt.Fprintf(w, "Title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "Status:      %s\n", StatusLabel(task.Status))
	if task.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", task.Description)
	}
	fmt.Fprintf(w, "Creator:     %d\n", task.CreatorID)
	if task.AssigneeID != nil {
		fmt.Fprintf(w, "Assignee:    %d\n", *task.AssigneeID)
	}
	if !task.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created:     %s\n", notify.RelativeTime(now, task.CreatedAt))
	}
	if task.StartedAt != nil {
		fmt.Fprintf(w, "Started:     %s\n", notify.RelativeTime(now, *task.StartedAt))
	}
	if task.CompletedAt != nil {
		fmt.Fprintf(w, "Completed:   %s\n", notify.RelativeTime(now, *task.CompletedAt))
	}
	if task.ImageURL != "" {
		fmt.Fprintf(w, "Image:       %s\n", task.ImageURL)
	}
	if task.AudioURL != "" {
		fmt.Fprintf(w, "Audio:       %s\n", task.AudioURL)
	}
}

// FormatStats formats per-status counts on one line.
func FormatStats(w io.Writer, c tasklist.StatusCounts) {
	fmt.Fprintf(w, "Total: %d  To do: %d  In progress: %d  Done: %d\n", c.Total, c.Todo, c.InProgress, c.Done)
}

// FormatPages formats a pagination control. The current page is bracketed.
func FormatPages(w io.Writer, pages []int, current int) {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		switch {
		case p == tasklist.Ellipsis:
			parts = append(parts, EllipsisMark)
		case p == current:
			parts = append(parts, "["+strconv.Itoa(p)+"]")
		default:
			parts = append(parts, strconv.Itoa(p))
		}
	}
	fmt.Fprintf(w, "Pages: %s\n", strings.Join(parts, " "))
}

// FormatUser formats a user line.
func FormatUser(w io.Writer, u service.User) {
	fmt.Fprintf(w, "%4d  %s <%s>\n", u.ID, u.Name, u.Email)
}

// FormatNotification formats a notification line. Unread ones are starred.
func FormatNotification(w io.Writer, n service.Notification, now time.Time) {
	mark := " "
	if !n.Read {
		mark = "*"
	}
	fmt.Fprintf(w, "%4d  %s %s (%s)\n", n.ID, mark, n.Message, notify.RelativeTime(now, n.CreatedAt))
}

// FormatFieldErrors writes one "error: field: message" line per field.
// Without field errors it writes message alone.
func FormatFieldErrors(w io.Writer, message string, errs []service.FieldError) {
	if len(errs) == 0 {
		if message == "" {
			message = "request rejected"
		}
		fmt.Fprintf(w, "error: %s\n", message)
		return
	}
	for _, e := range errs {
		fmt.Fprintf(w, "error: %s: %s\n", e.Field, e.Message)
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

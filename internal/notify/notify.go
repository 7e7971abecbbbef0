// Package notify polls the unread notification count.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"
)

// DefaultInterval is the polling interval.
const DefaultInterval = 10 * time.Second

// Counter returns the unread notification count.
type Counter interface {
	UnreadNotificationCount(ctx context.Context) (int, error)
}

// Poller fetches the unread count immediately and then on every interval
// for as long as Active reports true.
type Poller struct {
	svc      Counter
	interval time.Duration
	active   func() bool
	log      *slog.Logger
}

// NewPoller returns a poller. A zero interval means DefaultInterval and a
// nil active func means always active.
func NewPoller(svc Counter, interval time.Duration, active func() bool, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if active == nil {
		active = func() bool { return true }
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{svc: svc, interval: interval, active: active, log: log}
}

// Run polls until ctx is done or the poller stops being active. onUpdate
// receives every successfully fetched count. Fetch errors are logged and
// otherwise ignored.
func (p *Poller) Run(ctx context.Context, onUpdate func(count int)) {
	if !p.active() {
		return
	}
	p.poll(ctx, onUpdate)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.active() {
				p.log.Debug("notification polling stopped")
				return
			}
			p.poll(ctx, onUpdate)
		}
	}
}

func (p *Poller) poll(ctx context.Context, onUpdate func(int)) {
	n, err := p.svc.UnreadNotificationCount(ctx)
	if err != nil {
		p.log.Debug("failed to fetch unread count", "err", err)
		return
	}
	onUpdate(n)
}

// Badge renders an unread count: empty for none, capped at "99+".
func Badge(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > 99:
		return "99+"
	default:
		return strconv.Itoa(count)
	}
}

// RelativeTime describes how long before now t was.
func RelativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d d ago", int(d/(24*time.Hour)))
	}
}

// Package notify delivers operational events to chat platforms. Adapters
// are outbound-only: the service posts, nobody replies.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/calldesk/dialdesk/internal/config"
)

// Event is a single operational notification.
type Event struct {
	Title    string
	Body     string
	Severity string // "info", "warning", "error", "success"
}

// Notifier delivers events to a destination.
type Notifier interface {
	Post(ctx context.Context, ev Event) error
}

// Multi fans an event out to several notifiers. Every notifier is tried;
// errors are joined.
type Multi []Notifier

func (m Multi) Post(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Post(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Writer prints events to an io.Writer, the fallback when no chat adapter
// is configured.
type Writer struct {
	Out io.Writer
}

func (w *Writer) Post(_ context.Context, ev Event) error {
	sev := ev.Severity
	if sev == "" {
		sev = "info"
	}
	if _, err := fmt.Fprintf(w.Out, "[%s] %s: %s\n", sev, ev.Title, ev.Body); err != nil {
		return fmt.Errorf("notify: write event: %w", err)
	}
	return nil
}

// FromConfig assembles the configured chat notifiers. Returns nil when no
// adapter is configured.
func FromConfig(nc config.NotifyConfig) (Notifier, error) {
	var all Multi
	if nc.SlackToken != "" && nc.SlackChannel != "" {
		all = append(all, NewSlack(nc.SlackToken, nc.SlackChannel))
	}
	if nc.DiscordToken != "" && nc.DiscordChannel != "" {
		d, err := NewDiscord(nc.DiscordToken, nc.DiscordChannel)
		if err != nil {
			return nil, err
		}
		all = append(all, d)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// severityColor maps an event severity to a sidebar color hint.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return "#36a64f"
	case "warning":
		return "#f2c744"
	case "error":
		return "#d00000"
	default:
		return "#439fe0"
	}
}

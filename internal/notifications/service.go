package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shelf/internal/config"
)

const userAgent = "Shelf/0.1.0"

// Service defines the push-notification surface exposed to the
// organizer.
type Service interface {
	NotifyFileMoved(ctx context.Context, filename, destination string) error
	NotifyFileRenamed(ctx context.Context, oldName, newName, folder string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when
// configured. When no ntfy topic is configured, a noop implementation
// is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		moves:    cfg.Notifications.Moves,
		renames:  cfg.Notifications.Renames,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	moves    bool
	renames  bool
	errors   bool
}

func (n *ntfyService) NotifyFileMoved(ctx context.Context, filename, destination string) error {
	if !n.moves {
		return nil
	}
	data := payload{
		title:   "Shelf - File Moved",
		message: fmt.Sprintf("Moved %s to %s", strings.TrimSpace(filename), strings.TrimSpace(destination)),
		tags:    []string{"shelf", "move"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyFileRenamed(ctx context.Context, oldName, newName, folder string) error {
	if !n.renames {
		return nil
	}
	data := payload{
		title: "Shelf - File Renamed",
		message: fmt.Sprintf("Renamed %s to %s in %s",
			strings.TrimSpace(oldName), strings.TrimSpace(newName), strings.TrimSpace(folder)),
		tags: []string{"shelf", "rename"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Shelf - Error",
		message:  builder.String(),
		tags:     []string{"shelf", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Shelf - Test",
		message:  "Notification system test",
		tags:     []string{"shelf", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyFileMoved(context.Context, string, string) error           { return nil }
func (noopService) NotifyFileRenamed(context.Context, string, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }

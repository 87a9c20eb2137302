package notify

import "context"

// Notifier publishes a short human-readable notice about a feedback event.
// Publishing is always best-effort: callers fire it from a goroutine and only
// log failures.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}

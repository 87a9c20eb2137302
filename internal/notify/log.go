package notify

import (
	"context"
	"log"
)

// LogNotifier implements Notifier by writing to the server log. Used when no
// email credentials are configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Publish(ctx context.Context, message string) error {
	log.Printf("📨 [notify] %s", message)
	return nil
}

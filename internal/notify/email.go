package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"
)

// EmailNotifier sends feedback notices to a fixed mailbox via Resend.
type EmailNotifier struct {
	client *resend.Client
	from   string
	to     string
}

func NewEmailNotifier(apiKey, from, to string) *EmailNotifier {
	return &EmailNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

func (n *EmailNotifier) Publish(ctx context.Context, message string) error {
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: "Feedback disposisi baru",
		Html: fmt.Sprintf(`
			<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
				<h2 style="color: #333;">Feedback Disposisi</h2>
				<p>%s</p>
				<p style="color: #888; font-size: 12px;">Pesan otomatis dari sistem disposisi Bappelitbangda.</p>
			</div>
		`, html.EscapeString(message)),
	}

	if _, err := n.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// Package email sends notification emails through Resend.
//
// Bodies are rendered from HTML templates embedded in the binary.
package email

import (
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/deppfellow/tareas/internal/config"
)

// Client wraps the Resend client and a logger.
type Client struct {
	client *resend.Client
	from   string
	logger *zerolog.Logger
}

// LifecycleData is the data available to the lifecycle template.
type LifecycleData struct {
	Title       string
	TareaID     string
	Description string
	Status      string
	OccurredAt  string
}

// NewClient creates an email Client from the Resend API key and sender in cfg.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	return &Client{
		client: resend.NewClient(cfg.Integration.ResendAPIKey),
		from:   cfg.Notifications.EmailFrom,
		logger: logger,
	}
}

// SendEmail renders templateName with data and sends it to a single recipient.
func (c *Client) SendEmail(to, subject string, templateName Template, data any) error {
	body, err := Render(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Debug().Str("email_id", sent.Id).Str("template", string(templateName)).Msg("email sent")
	return nil
}

// SendLifecycleEmail notifies to about a tarea lifecycle event.
func (c *Client) SendLifecycleEmail(to string, data LifecycleData) error {
	return c.SendEmail(to, data.Title, TemplateLifecycle, data)
}

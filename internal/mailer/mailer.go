package mailer

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/GTDGit/gtd_shop/internal/config"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

const passwordResetTemplate = "password_reset.gohtml"

// Message is a rendered email ready to be delivered.
type Message struct {
	To        string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// PasswordReset holds the values rendered into the reset email.
type PasswordReset struct {
	Name     string
	Link     string
	ValidFor string
}

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.gohtml"))

// NewPasswordResetMessage renders the password reset email for to.
func NewPasswordResetMessage(to string, data PasswordReset) (Message, error) {
	var body strings.Builder
	if err := templates.ExecuteTemplate(&body, passwordResetTemplate, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", passwordResetTemplate, err)
	}
	return Message{
		To:        to,
		ToName:    data.Name,
		Subject:   "Reset your password",
		PlainText: fmt.Sprintf("Reset your password: %s\nThe link expires in %s.", data.Link, data.ValidFor),
		HTML:      body.String(),
	}, nil
}

// SendGridSender delivers messages through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridSender creates a SendGridSender from config.
func NewSendGridSender(cfg *config.MailConfig) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

// Send posts msg to SendGrid and treats any non 2xx status as a failure.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.PlainText, msg.HTML)
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender only logs messages. Used when no SendGrid key is configured.
type LogSender struct{}

// Send logs the recipient and subject.
func (LogSender) Send(_ context.Context, msg Message) error {
	log.Warn().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("SendGrid not configured - email not sent")
	return nil
}

// NewSender picks SendGrid when an API key is configured.
func NewSender(cfg *config.MailConfig) Sender {
	if cfg.SendGridAPIKey == "" {
		return LogSender{}
	}
	return NewSendGridSender(cfg)
}

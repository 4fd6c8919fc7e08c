package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	application "signoff/contexts/editorial-workflow/signoff-service/application"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
)

// SMTPSender delivers notifications through the host's SMTP relay.
type SMTPSender struct {
	Addr   string
	From   string
	Logger *slog.Logger
}

func (s SMTPSender) SendMail(_ context.Context, recipient string, subject string, body string) error {
	addr := strings.TrimSpace(s.Addr)
	if addr == "" {
		return fmt.Errorf("smtp addr is required")
	}
	from := strings.TrimSpace(s.From)
	if from == "" {
		from = "signoff@localhost"
	}

	message := strings.Join([]string{
		"From: " + from,
		"To: " + recipient,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, nil, from, []string{recipient}, []byte(message)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}

// LogSender is the no-relay fallback used in local development: it records
// each outgoing message in the process log instead of delivering it.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) SendMail(_ context.Context, recipient string, subject string, _ string) error {
	application.ResolveLogger(s.Logger).Info("mail delivery logged",
		"event", "signoff_mail_logged",
		"module", "editorial-workflow/signoff-service",
		"layer", "adapter",
		"recipient", recipient,
		"subject", subject,
	)
	return nil
}

var _ ports.MailSender = SMTPSender{}
var _ ports.MailSender = LogSender{}

package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// RecipientResolver maps a user id to a deliverable email address. The store
// implements it against the auth layer's users table.
type RecipientResolver interface {
	GetUserEmail(ctx context.Context, userID string) (string, error)
}

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// EmailSender delivers one consolidated email per user per cycle.
type EmailSender struct {
	cfg      SMTPConfig
	resolver RecipientResolver
	logger   *slog.Logger

	// sendMail is swappable in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailSender(cfg SMTPConfig, resolver RecipientResolver, logger *slog.Logger) *EmailSender {
	return &EmailSender{
		cfg:      cfg,
		resolver: resolver,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

// SendConsolidated resolves the user's address and sends a single email
// listing every alert that fired this cycle.
func (s *EmailSender) SendConsolidated(ctx context.Context, userID string, messages []string) error {
	email, err := s.resolver.GetUserEmail(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve recipient for user %s: %w", userID, err)
	}

	subject := fmt.Sprintf("Signalist: %d stock alert%s triggered", len(messages), plural(len(messages)))
	body := BuildConsolidated(messages)

	msg := []byte("From: Signalist <" + s.cfg.From + ">\r\n" +
		"To: " + email + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
		"\r\n" +
		body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := s.sendMail(addr, auth, s.cfg.From, []string{email}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", email, err)
	}

	s.logger.Info("notification sent", "user_id", userID, "alerts", len(messages))
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

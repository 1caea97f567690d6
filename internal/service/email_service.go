package service

import (
	"fmt"
	"net/smtp"

	"algobank/backend/internal/config"
	"algobank/backend/internal/models"
	"algobank/backend/pkg/logger"
)

// EmailChannel delivers a single email. Implementations must be safe for
// concurrent use.
type EmailChannel interface {
	Send(payload *models.EmailPayload) error
}

// SMTPChannel delivers mail through a plain SMTP relay.
type SMTPChannel struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPChannel(cfg config.SMTPConfig) *SMTPChannel {
	return &SMTPChannel{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.User,
		password: cfg.Password,
		from:     cfg.From,
	}
}

func (c *SMTPChannel) Send(payload *models.EmailPayload) error {
	addr := c.host + ":" + c.port
	msg := []byte("From: " + c.from + "\r\n" +
		"To: " + payload.To + "\r\n" +
		"Subject: " + payload.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		payload.Body + "\r\n")

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}
	if err := smtp.SendMail(addr, auth, c.from, []string{payload.To}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", payload.To, err)
	}
	return nil
}

// NoopChannel drops mail on the floor. Used when SMTP is not configured, so
// local environments work without a relay.
type NoopChannel struct {
	logger *logger.Logger
}

func NewNoopChannel(log *logger.Logger) *NoopChannel {
	return &NoopChannel{logger: log}
}

func (c *NoopChannel) Send(payload *models.EmailPayload) error {
	c.logger.WithField("to", payload.To).
		WithField("subject", payload.Subject).
		Info("email channel disabled, dropping message")
	return nil
}

// EmailService builds the transactional emails the engine sends. Delivery
// failures are logged, never propagated; mail is best-effort.
type EmailService struct {
	channel     EmailChannel
	frontendURL string
	logger      *logger.Logger
}

func NewEmailService(channel EmailChannel, frontendURL string, log *logger.Logger) *EmailService {
	return &EmailService{channel: channel, frontendURL: frontendURL, logger: log}
}

func (s *EmailService) send(to, subject, body string) {
	err := s.channel.Send(&models.EmailPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		s.logger.WithError(err).WithField("to", to).Warn("failed to send email")
	}
}

func (s *EmailService) SendVerification(to, name, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)
	body := fmt.Sprintf(`
		<h2>Welcome, %s</h2>
		<p>Confirm your email address to activate your account:</p>
		<p><a href="%s">Verify email</a></p>
		<p>The link expires in 24 hours.</p>
	`, name, link)
	s.send(to, "Verify your email", body)
}

func (s *EmailService) SendDepositCompleted(to, name, amount string) {
	body := fmt.Sprintf(`
		<h2>Deposit confirmed</h2>
		<p>Hi %s, your deposit of $%s has been credited to your balance.</p>
	`, name, amount)
	s.send(to, "Deposit confirmed", body)
}

func (s *EmailService) SendWithdrawalRequested(to, name, amount string) {
	body := fmt.Sprintf(`
		<h2>Withdrawal requested</h2>
		<p>Hi %s, we received your withdrawal request for $%s.
		You will be notified once it is reviewed.</p>
	`, name, amount)
	s.send(to, "Withdrawal request received", body)
}

func (s *EmailService) SendWithdrawalDecision(to, name, amount string, approved bool) {
	if approved {
		body := fmt.Sprintf(`
			<h2>Withdrawal approved</h2>
			<p>Hi %s, your withdrawal of $%s has been approved and is on its way.</p>
		`, name, amount)
		s.send(to, "Withdrawal approved", body)
		return
	}
	body := fmt.Sprintf(`
		<h2>Withdrawal rejected</h2>
		<p>Hi %s, your withdrawal request for $%s was rejected.
		The funds have been returned to your gains balance.</p>
	`, name, amount)
	s.send(to, "Withdrawal rejected", body)
}

func (s *EmailService) SendTicketReply(to, name, subject string) {
	body := fmt.Sprintf(`
		<h2>Support update</h2>
		<p>Hi %s, there is a new reply on your ticket "%s".</p>
		<p><a href="%s/support">View the conversation</a></p>
	`, name, subject, s.frontendURL)
	s.send(to, "New reply on your support ticket", body)
}

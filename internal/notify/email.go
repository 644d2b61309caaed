package notify

import (
	"fmt"

	"ms-registration/internal/config"
	"ms-registration/internal/logger"

	"gopkg.in/gomail.v2"
)

// EmailSender delivers the registration confirmation mail. Sending is
// fire-and-forget from the reconciler's point of view: a failure is logged
// by the caller and never blocks the webhook acknowledgment.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

func NewEmailSender(cfg config.EmailConfig, log *logger.Logger) *EmailSender {
	from := cfg.From
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   from,
		logger: log,
	}
}

func (s *EmailSender) SendConfirmation(name, email string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Inscrição confirmada!")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Olá %s,</p><p>Recebemos o seu pagamento e a sua inscrição está confirmada.</p><p>Nos vemos na largada! 🏃</p>",
		name,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("EMAIL", fmt.Sprintf("Failed to send confirmation to %s: %v", email, err))
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	s.logger.Info("EMAIL", fmt.Sprintf("Confirmation sent to %s", email))
	return nil
}

// Package sender отправляет пользователям служебные письма.
package sender

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/smtp"
)

// SenderService формирует и отправляет письма через SMTP транспорт.
type SenderService struct {
	transport smtp.Connector
	clientURL string
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.Connector, clientURL string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		clientURL: strings.TrimRight(clientURL, "/"),
		log:       log,
	}
}

// SendPasswordReset отправляет ссылку на сброс пароля.
func (s *SenderService) SendPasswordReset(email, name, token string) error {
	link := fmt.Sprintf("%s/reset/%s", s.clientURL, token)
	subject := "Password reset request"
	body := fmt.Sprintf("Hi %s,\n\n"+
		"We received a request to reset your Learnify password.\n"+
		"Open the link below to choose a new one. It expires in 10 minutes.\n\n%s\n\n"+
		"If you did not request this, ignore this email.", name, link)

	return s.sendEmail([]string{email}, subject, body)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	const op = "services.sender.sendEmail"
	log := s.log.With(slog.String("op", op))

	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		log.Error("failed to get data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		log.Error("failed to close data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email sent", slog.Any("to", to))
	return nil
}

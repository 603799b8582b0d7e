// Package smtp открывает авторизованные SMTP-сессии для отправки писем пользователям.
package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/learnify-backend/internal/config"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// Client одна SMTP-сессия: конверт письма, тело и завершение.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Connector открывает сессии от имени одного отправителя.
type Connector interface {
	Connect() (Client, error)
	Sender() string
}

// Transport подключается к серверу из config.SMTP.
// STARTTLS обязателен, если не включён allow_insecure.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

var _ Connector = (*Transport)(nil)

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{
		cfg: cfg,
		log: log.With(slog.String("component", "smtp"), slog.String("host", cfg.SMTPHost)),
	}
}

// Connect устанавливает соединение, включает TLS и проходит аутентификацию.
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"
	addr := net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort)

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		t.log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("%s: dial: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		_ = conn.Close()
		return nil, fmt.Errorf("%s: handshake: %w", op, err)
	}

	if err = t.secure(client); err == nil {
		err = t.authenticate(client)
	}
	if err != nil {
		t.log.Error("smtp session setup failed", sl.Err(err))
		if closeErr := client.Close(); closeErr != nil {
			t.log.Warn("failed to close SMTP client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return client, nil
}

func (t *Transport) secure(client *smtp.Client) error {
	if ok, _ := client.Extension("STARTTLS"); !ok {
		if t.cfg.AllowInsecure {
			t.log.Warn("SMTP server does not offer STARTTLS, sending in plain text")
			return nil
		}
		return fmt.Errorf("server %s does not support STARTTLS", t.cfg.SMTPHost)
	}

	err := client.StartTLS(&tls.Config{
		ServerName: t.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	return nil
}

// authenticate пропускается, если пользователь не задан (локальные почтовые заглушки).
func (t *Transport) authenticate(client *smtp.Client) error {
	if t.cfg.SMTPUser == "" {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); !ok {
		return fmt.Errorf("server %s does not support AUTH", t.cfg.SMTPHost)
	}
	if err := client.Auth(smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// Sender адрес отправителя писем.
func (t *Transport) Sender() string {
	if t.cfg.From != "" {
		return t.cfg.From
	}
	return t.cfg.SMTPUser
}

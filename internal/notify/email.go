package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// EmailConfig holds the SMTP settings. Password is normally taken from SMTP_PASSWORD.
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	Host     string   `yaml:"host" json:"host" validate:"required_if=Enabled true"`
	Port     int      `yaml:"port" json:"port" jsonschema:"default=587" validate:"gte=0,lte=65535"`
	Username string   `yaml:"username" json:"username"`
	Password string   `yaml:"password" json:"-"`
	From     string   `yaml:"from" json:"from" validate:"required_if=Enabled true"`
	To       []string `yaml:"to" json:"to" validate:"required_if=Enabled true"`
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends one plain-text mail per event.
type EmailNotifier struct {
	cfg      EmailConfig
	sendMail sendMailFunc
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, sendMail: smtp.SendMail}
}

func (n *EmailNotifier) Notify(_ context.Context, event Event) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := n.sendMail(addr, auth, n.cfg.From, n.cfg.To, n.message(event)); err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "failed to send email", err)
	}

	return nil
}

func (n *EmailNotifier) message(event Event) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", event.Subject())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(event.Text(), "\n", "\r\n"))
	b.WriteString("\r\n")

	return []byte(b.String())
}

// Package mailer implements the outbound mail transport boundary over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Config holds the SMTP transport settings. Authentication is only used
// when both username and password are present, mirroring servers that relay
// for trusted hosts.
type Config struct {
	Host       string
	Port       string
	Username   string
	Password   string
	Encryption string
	FromName   string
	FromAddr   string
}

// Validate checks the fields without which no mail can leave.
func (c Config) Validate() error {
	if c.Host == "" || c.Port == "" || c.FromAddr == "" {
		return goerrors.New("smtp host, port, and from address are required", goerrors.CategoryValidation)
	}
	return nil
}

func (c Config) addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// SMTPSender sends HTML mail through a single SMTP endpoint.
type SMTPSender struct {
	cfg Config

	// sendMail is swapped in tests
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender validates the config and returns a sender.
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &SMTPSender{cfg: cfg}
	s.sendMail = s.defaultSendMail
	return s, nil
}

// Send delivers one message. The context bounds the whole SMTP exchange.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return goerrors.New("mail recipient is required", goerrors.CategoryValidation)
	}

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := s.buildMessage(to, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.cfg.addr(), auth, s.cfg.FromAddr, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "smtp send cancelled")
	case err := <-done:
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp send failed")
		}
		return nil
	}
}

func (s *SMTPSender) buildMessage(to, subject, body string) []byte {
	from := s.cfg.FromAddr
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddr)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func (s *SMTPSender) defaultSendMail(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	if strings.EqualFold(s.cfg.Encryption, "tls") || strings.EqualFold(s.cfg.Encryption, "ssl") {
		return s.sendMailTLS(addr, a, from, to, msg)
	}
	return smtp.SendMail(addr, a, from, to, msg)
}

// sendMailTLS dials with an implicit TLS connection first, for providers
// that do not offer STARTTLS on the submission port.
func (s *SMTPSender) sendMailTLS(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if a != nil {
		if err := client.Auth(a); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

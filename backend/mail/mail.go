// Package mail delivers contact form notifications.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"aitutor/backend/config"

	gomail "github.com/wneessen/go-mail"
)

const defaultTimeout = 10 * time.Second

type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP notifier when the configuration allows it and a
// logging no-op otherwise.
func New(cfg *config.Config, logger *log.Logger) Notifier {
	if !cfg.MailEnabled() {
		return Nop{Logger: logger}
	}
	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTP{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     from,
		Timeout:  cfg.SMTPTimeout,
	}
}

// SMTP sends through one relay, upgrading to TLS when the server offers it.
// Timeout bounds every network step of a send, including the greeting.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

func (s *SMTP) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultTimeout
	}
	return s.Timeout
}

func (s *SMTP) client(ctx context.Context) (*gomail.Client, error) {
	timeout := s.timeout()
	opts := []gomail.Option{
		gomail.WithPort(s.Port),
		gomail.WithTimeout(timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithDialContextFunc(deadlineDialer(ctx, timeout)),
	}
	if s.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.Username),
			gomail.WithPassword(s.Password),
		)
	}
	return gomail.NewClient(s.Host, opts...)
}

// deadlineDialer puts an I/O deadline on the fresh connection so that a
// server that accepts but never greets cannot hang the caller. Cancelling
// parent aborts pending I/O.
func deadlineDialer(parent context.Context, timeout time.Duration) gomail.DialContextFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			conn.Close()
			return nil, err
		}
		context.AfterFunc(parent, func() { conn.SetDeadline(time.Now()) })
		return conn, nil
	}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := Compose(s.From, msg)
	if err != nil {
		return err
	}
	client, err := s.client(ctx)
	if err != nil {
		return fmt.Errorf("mail: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: send to %s: %w", strings.Join(msg.To, ","), err)
	}
	return nil
}

// Compose builds the plain text message. Headers are MIME encoded, so
// non-ASCII names survive, and addresses are parsed, so user input cannot
// add headers.
func Compose(from string, msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("mail: reply-to: %w", err)
		}
	}
	m.Subject(sanitize(msg.Subject))
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}

// sanitize strips line breaks from header values.
func sanitize(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

type Nop struct {
	Logger *log.Logger
}

func (n Nop) Send(_ context.Context, msg Message) error {
	if n.Logger != nil {
		n.Logger.Printf("mail disabled, dropping %q to %s", msg.Subject, strings.Join(msg.To, ","))
	}
	return nil
}

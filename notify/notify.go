package notify

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Notifier delivers a pre-formatted "Subject: ...\n\nbody" message.
type Notifier interface {
	Send(message string) error
}

// Split separates the subject line from the body of a formatted message.
// Messages without a subject header are returned with an empty subject.
func Split(message string) (subject, body string) {
	head, rest, found := strings.Cut(message, "\n\n")
	if !found || !strings.HasPrefix(head, "Subject: ") || strings.Contains(head, "\n") {
		return "", message
	}
	return strings.TrimPrefix(head, "Subject: "), rest
}

type SMTPOpts struct {
	Addr     string
	Username string
	Password string
	From     string
	To       []string
}

type SMTP struct {
	log  *zap.Logger
	from string
	to   []string
	send func(m *gomail.Message) error
}

func NewSMTP(opts SMTPOpts) (*SMTP, error) {
	host, rawPort, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("smtp-addr: %w", err)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return nil, fmt.Errorf("smtp-addr: invalid port %q", rawPort)
	}
	if opts.From == "" || len(opts.To) == 0 {
		return nil, fmt.Errorf("smtp notifications require a sender and at least one recipient")
	}

	dialer := gomail.NewDialer(host, port, opts.Username, opts.Password)
	s := &SMTP{
		log:  zap.L().With(zap.String("facility", "smtp")),
		from: opts.From,
		to:   opts.To,
		send: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
	s.log.Info("Initialized SMTP notifier", zap.String("host", host), zap.Int("port", port), zap.Strings("to", opts.To))
	return s, nil
}

func (s *SMTP) Send(message string) error {
	subject, body := Split(message)
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	s.log.Info("Notification sent", zap.String("subject", subject))
	return nil
}

// Log writes notifications to the logger. Used when no mail transport is
// configured.
type Log struct {
	log *zap.Logger
}

func NewLog() *Log {
	return &Log{log: zap.L().With(zap.String("facility", "notify"))}
}

func (l *Log) Send(message string) error {
	subject, body := Split(message)
	l.log.Info("Notification", zap.String("subject", subject), zap.Int("body_length", len(body)))
	return nil
}

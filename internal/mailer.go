package site

import (
	"bytes"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"path/filepath"
	"strconv"

	"github.com/jordan-wright/email"
)

// Attachment is a raw file to attach to an outbound message.
type Attachment struct {
	Filename string
	Data     []byte
}

// MailTask is one outbound message. Tasks carry everything needed for
// delivery so they stay valid after the originating request is gone.
type MailTask struct {
	To         string
	Subject    string
	HTML       string
	ReplyTo    string
	Attachment *Attachment
}

// sendEmailFunc performs the actual SMTP hand-off; swapped out in tests.
var sendEmailFunc = func(cfg SMTPConfig, e *email.Email) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	if cfg.SSL {
		return e.SendWithTLS(addr, auth, nil)
	}
	return e.Send(addr, auth)
}

// Mailer builds and sends messages over the configured SMTP server.
type Mailer struct {
	from string
	smtp SMTPConfig
}

func NewMailer(from string, smtpCfg SMTPConfig) *Mailer {
	return &Mailer{from: from, smtp: smtpCfg}
}

func (m *Mailer) Send(task MailTask) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{task.To}
	e.Subject = task.Subject
	e.Text = []byte("This is an email from Learn & Play.")
	e.HTML = []byte(task.HTML)
	if task.ReplyTo != "" {
		e.ReplyTo = []string{task.ReplyTo}
	}

	if task.Attachment != nil {
		mimeType := mime.TypeByExtension(filepath.Ext(task.Attachment.Filename))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		if _, err := e.Attach(bytes.NewReader(task.Attachment.Data), task.Attachment.Filename, mimeType); err != nil {
			return fmt.Errorf("attach %s: %w", task.Attachment.Filename, err)
		}
	}

	if err := sendEmailFunc(m.smtp, e); err != nil {
		return fmt.Errorf("send to %s: %w", task.To, err)
	}
	return nil
}

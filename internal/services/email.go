package services

import (
	"fmt"
	"html"
	"mime"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dzeya/mensor-construction-4/internal/models"
)

type EmailService struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	notify  string
	devMode bool
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService sends through SMTP. Without host or user it runs in dev
// mode and logs messages instead of sending them.
func NewEmailService(host, port, user, pass, from, notifyAddr string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Warn().Str("component", "email").Msg("email service running in dev mode, messages are logged")
	}
	return &EmailService{
		host:    host,
		port:    port,
		user:    user,
		pass:    pass,
		from:    from,
		notify:  notifyAddr,
		devMode: devMode,
		send:    smtp.SendMail,
	}
}

// SendLeadNotification tells the office about a new contact request.
func (s *EmailService) SendLeadNotification(lead *models.Lead) error {
	subject := fmt.Sprintf("Новая заявка с сайта: %s", lead.Name)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #0b0f14;">
  <div style="max-width: 520px; margin: 40px auto; background: #111827; border: 1px solid #1f2937; border-radius: 8px; overflow: hidden;">
    <div style="background: #0f172a; padding: 24px 32px; border-bottom: 1px solid #22d3ee;">
      <h1 style="color: #e5e7eb; margin: 0; font-size: 20px; letter-spacing: 0.2em;">MENSOR</h1>
      <p style="color: #22d3ee; margin: 6px 0 0; font-size: 12px;">Новая заявка</p>
    </div>
    <table style="width: 100%%; padding: 24px 32px; color: #d1d5db; font-size: 14px; line-height: 1.6;">
      <tr><td style="color: #6b7280; width: 120px;">Имя</td><td>%s</td></tr>
      <tr><td style="color: #6b7280;">Телефон</td><td>%s</td></tr>
      <tr><td style="color: #6b7280;">Email</td><td>%s</td></tr>
      <tr><td style="color: #6b7280;">Сообщение</td><td>%s</td></tr>
      <tr><td style="color: #6b7280;">Получена</td><td>%s</td></tr>
      <tr><td style="color: #6b7280;">ID</td><td>%s</td></tr>
    </table>
  </div>
</body>
</html>`,
		html.EscapeString(lead.Name),
		orDash(lead.Phone),
		orDash(lead.Email),
		strings.ReplaceAll(orDash(lead.Message), "\n", "<br>"),
		lead.CreatedAt.Format("02.01.2006 15:04"),
		lead.ID,
	)

	return s.sendHTML(s.notify, subject, body)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return html.EscapeString(s)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		log.Info().
			Str("component", "email").
			Str("to", to).
			Str("subject", subject).
			Msg("dev email")
		log.Debug().Str("component", "email").Msg(htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := s.send(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return errors.Wrapf(err, "failed to send email to %s", to)
	}

	log.Info().Str("component", "email").Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

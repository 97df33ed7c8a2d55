package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendOutreachEmail(to, subject, htmlBody string) error
	SendFormLink(to, formTitle, link string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendOutreachEmail(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send outreach email: %w", err)
	}
	return nil
}

func (s *emailService) SendFormLink(to, formTitle, link string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("We'd love to hear from you: %s", formTitle))

	body := fmt.Sprintf(`
		<p>Hi,</p>
		<p>We put together a short form for you: <a href="%s">%s</a>.</p>
		<p>It takes a couple of minutes.</p>
	`, link, formTitle)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send form link: %w", err)
	}
	return nil
}

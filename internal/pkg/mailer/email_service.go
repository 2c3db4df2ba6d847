// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"github.com/fatih/color"
	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendVerificationEmail(toEmail, token string) error
	SendReportEmail(toEmail, subject, htmlBody string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	frontendURL string // base for links in outgoing mail
}

// NewEmailService returns an SMTP-backed mailer, or a console mailer when no
// SMTP host is configured (local development). frontendURL is the client base
// URL verification links point at.
func NewEmailService(host string, port int, username, password, senderEmail, frontendURL string) IEmailService {
	if host == "" {
		return &consoleEmailService{frontendURL: frontendURL}
	}

	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		frontendURL: frontendURL,
	}
}

func (s *emailService) SendVerificationEmail(toEmail, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Verify Your Email Address")

	verifyLink := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome!</h2>
			<p>Please confirm your email address by clicking the button below:</p>
			<a href="%s" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Verify Email</a>
			<p>Or copy this link:</p>
			<p>%s</p>
			<p>This link will expire in 24 hours.</p>
			<p>If you didn't create an account, please ignore this email.</p>
		</div>
	`, verifyLink, verifyLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send verification email to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Verification email sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendReportEmail(toEmail, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send report to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Report sent to %s\n", toEmail)
	return nil
}

// consoleEmailService prints mail to stdout instead of dialing SMTP.
type consoleEmailService struct {
	frontendURL string
}

func (s *consoleEmailService) SendVerificationEmail(toEmail, token string) error {
	header := color.New(color.FgCyan, color.Bold)
	header.Printf("[MAILER:console] Verification email for %s\n", toEmail)
	color.Yellow("  link: %s/verify-email?token=%s", s.frontendURL, token)
	return nil
}

func (s *consoleEmailService) SendReportEmail(toEmail, subject, htmlBody string) error {
	header := color.New(color.FgCyan, color.Bold)
	header.Printf("[MAILER:console] Report %q for %s (%d bytes)\n", subject, toEmail, len(htmlBody))
	return nil
}

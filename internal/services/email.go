package services

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"meduhub/internal/config"
	"meduhub/internal/domain"
)

const mimeBoundary = "----=_MeduhubPart_7f3a9c"

// EmailService sends the admin notification for new registrations
type EmailService struct {
	cfg      *config.EmailConfig
	log      *logrus.Entry
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.EmailConfig, log *logrus.Logger) *EmailService {
	return &EmailService{
		cfg:      cfg,
		log:      log.WithField("component", "email"),
		sendMail: smtp.SendMail,
	}
}

// IsEnabled returns whether email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.cfg.Enabled
}

// NotifyNewRegistration emails the admin about an accepted registration.
// With email disabled it only logs.
func (s *EmailService) NotifyNewRegistration(reg *domain.Registration) error {
	if !s.IsEnabled() {
		s.log.WithField("id", reg.ID).Debugf("New %s from %s (email disabled)", reg.InquiryType, reg.Name)
		return nil
	}

	subject := fmt.Sprintf("New %s from %s", reg.InquiryType, reg.Name)
	return s.SendHTMLEmail(s.cfg.AdminEmail, subject, registrationHTML(reg), registrationText(reg))
}

// SendHTMLEmail sends a multipart text/HTML email
func (s *EmailService) SendHTMLEmail(to, subject, htmlBody, textBody string) error {
	// Validate configuration
	if s.cfg.SMTPHost == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("email service not properly configured")
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	message := buildMessage(s.cfg.FromName, s.cfg.FromEmail, to, subject, htmlBody, textBody)

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	if err := s.sendMail(addr, auth, s.cfg.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.WithField("to", to).Info("Notification email sent")
	return nil
}

func buildMessage(fromName, fromEmail, to, subject, htmlBody, textBody string) []byte {
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", mimeBoundary)

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(textBody + "\r\n")

	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		b.WriteString(htmlBody + "\r\n")
	}

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}

func registrationText(reg *domain.Registration) string {
	return fmt.Sprintf(`New %s submission

Name: %s
Phone: %s
Email: %s
Location: %s, %s
Submitted: %s

Registration ID: %s`, reg.InquiryType, reg.Name, reg.Phone, reg.Email, reg.City, reg.State,
		reg.CreatedAt.Format("January 2, 2006 at 3:04 PM MST"), reg.ID)
}

func registrationHTML(reg *domain.Registration) string {
	e := html.EscapeString
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>New %s submission</title></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #0F766E;">New %s submission</h2>
        <div style="background: #F8FAFC; padding: 20px; border-radius: 8px;">
            <p><strong>Name:</strong> %s</p>
            <p><strong>Phone:</strong> <a href="tel:+91%s">%s</a></p>
            <p><strong>Email:</strong> <a href="mailto:%s">%s</a></p>
            <p><strong>Location:</strong> %s, %s</p>
            <p><strong>Submitted:</strong> %s</p>
        </div>
        <p style="color: #64748B; font-size: 14px;">Registration ID: %s</p>
    </div>
</body>
</html>`, e(string(reg.InquiryType)), e(string(reg.InquiryType)), e(reg.Name), e(reg.Phone), e(reg.Phone),
		e(reg.Email), e(reg.Email), e(reg.City), e(reg.State),
		reg.CreatedAt.Format("January 2, 2006 at 3:04 PM MST"), e(reg.ID))
}

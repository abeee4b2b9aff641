package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"newsletter-backend/internal/config"
	"newsletter-backend/internal/domains/notification"
	"newsletter-backend/pkg/logger"
)

type EmailService interface {
	SendVerificationEmail(ctx context.Context, data VerificationEmailData) error
}

// SMTPService gửi mọi email của hệ thống qua SMTP.
// Implements cả EmailService lẫn notification.EmailSender.
type SMTPService struct {
	smtpAddr string
	smtpFrom string
}

func NewSMTPService(cfg config.EmailConfig) *SMTPService {
	return &SMTPService{
		smtpAddr: cfg.SMTPHost + ":" + cfg.SMTPPort,
		smtpFrom: cfg.From,
	}
}

func (s *SMTPService) SendVerificationEmail(ctx context.Context, data VerificationEmailData) error {
	subject := "Verify your email address"
	body := fmt.Sprintf(`Hi,

Please click the link below to verify your email address:
%s

The link is valid for %s.

If you did not create an account, you can safely ignore this email.`, data.VerifyLink, data.ExpiresIn)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.smtpFrom, data.Email, subject, body))

	if err := smtp.SendMail(s.smtpAddr, nil, s.smtpFrom, []string{data.Email}, msg); err != nil {
		logger.Warn("Failed to send verification email", map[string]interface{}{
			"error":     err.Error(),
			"to":        data.Email,
			"smtp_addr": s.smtpAddr,
		})
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendPostNotification gửi email bài mới tới một subscriber.
//
// Carries the RFC 8058 one-click headers: List-Unsubscribe points at the
// GET confirm flow, List-Unsubscribe-Post tells compliant clients to POST
// the same URL instead. Both URLs embed the recipient's signed token.
func (s *SMTPService) SendPostNotification(ctx context.Context, mail *notification.PostEmail) error {
	subject := fmt.Sprintf("%s: %s", mail.PublicationName, mail.PostTitle)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.smtpFrom)
	fmt.Fprintf(&b, "To: %s\r\n", mail.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "List-Unsubscribe: <%s>\r\n", mail.OneClickURL)
	fmt.Fprintf(&b, "List-Unsubscribe-Post: List-Unsubscribe=One-Click\r\n")
	fmt.Fprintf(&b, "\r\n")
	fmt.Fprintf(&b, `%s

%s

Read the full post:
%s

--
You are receiving this because you subscribed to %s.
Unsubscribe: %s
`, mail.PostTitle, mail.PostExcerpt, mail.PostURL, mail.PublicationName, mail.UnsubscribeURL)

	if err := smtp.SendMail(s.smtpAddr, nil, s.smtpFrom, []string{mail.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// File: /services/email_service.go
package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"inkwell-api/config"
	"inkwell-api/models"
)

// Mailer delivers a composed message. Errors mean the transport refused or
// never accepted the message.
type Mailer interface {
	Send(ctx context.Context, m *gomail.Message) error
	From() string
}

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
	log    *zap.SugaredLogger
}

func NewEmailService(cfg *config.Config, log *zap.SugaredLogger) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	return &EmailService{
		config: cfg,
		dialer: dialer,
		log:    log,
	}
}

func (es *EmailService) From() string {
	return fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail)
}

// Send dials the SMTP server and delivers m. gomail has no notion of a
// deadline, so the send runs on its own goroutine and ctx bounds the wait.
func (es *EmailService) Send(ctx context.Context, m *gomail.Message) error {
	if _, ok := ctx.Deadline(); !ok && es.config.MailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, es.config.MailTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- es.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
		es.log.Debugw("email sent", "to", m.GetHeader("To"), "subject", m.GetHeader("Subject"))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
	}
}

// NewPostNotificationMessage builds the "new post" email for one recipient.
func NewPostNotificationMessage(from, to string, post *models.Post, link, preview string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("New Blog Post: %s", post.Title))

	htmlBody := fmt.Sprintf(`
<html>
    <body>
        <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
            <h2>%s</h2>
            <p>%s</p>
            <div style="margin: 20px 0;">
                <p>Category: %s</p>
            </div>
            <a href="%s"
               style="background-color: #007bff; color: white; padding: 10px 20px;
                      text-decoration: none; border-radius: 5px;">
                Read More
            </a>
            <hr style="margin-top: 30px;">
            <p style="font-size: 12px; color: #666;">
                You received this email because you're registered on our blog.
                If you'd like to unsubscribe, please update your preferences in your account settings.
            </p>
        </div>
    </body>
</html>`, html.EscapeString(post.Title), preview, html.EscapeString(post.Category), html.EscapeString(link))

	m.SetBody("text/html", htmlBody)
	return m
}

// NewPasswordResetMessage builds the reset link email. Replies go to a
// non-monitored address.
func NewPasswordResetMessage(from, to, resetURL string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Reply-To", "no-reply@example.com")
	m.SetHeader("Subject", "Password Reset Request")

	textBody := fmt.Sprintf(`To reset your password, click the following link: %s
If you did not request this, ignore this email.

The link expires in one hour.`, resetURL)

	htmlBody := fmt.Sprintf(`
<html>
    <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
        <p>To reset your password, click the following link:</p>
        <p><a href="%s">Reset your password</a></p>
        <p>The link expires in one hour. If you did not request this, ignore this email.</p>
    </body>
</html>`, html.EscapeString(resetURL))

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)
	return m
}

// NewPasswordChangedMessage confirms a completed reset.
func NewPasswordChangedMessage(from, to, name string, at time.Time) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your password was changed")

	m.SetBody("text/plain", fmt.Sprintf(`Hi %s,

Your password was changed on %s.

If you didn't change your password, request a new reset link right away.`, name, at.Format(time.RFC1123)))
	return m
}

// NewContactMessage forwards a contact form submission to the site owner.
func NewContactMessage(from, to, name, email, message string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Reply-To", email)
	m.SetHeader("Subject", "New Message From Your Website!")

	m.SetBody("text/plain", fmt.Sprintf("Name: %s\nEmail: %s\nMessage: %s", name, email, message))
	return m
}

package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"inkwell-api/utils"
)

type ContactInput struct {
	Name            string
	Email           string
	Message         string
	Honeypot        string
	CaptchaResponse string
	RemoteIP        string
}

type ContactService struct {
	captcha   CaptchaVerifier
	mailer    Mailer
	recipient string
	log       *zap.SugaredLogger
}

func NewContactService(captcha CaptchaVerifier, mailer Mailer, recipient string, log *zap.SugaredLogger) *ContactService {
	return &ContactService{
		captcha:   captcha,
		mailer:    mailer,
		recipient: recipient,
		log:       log,
	}
}

// Submit forwards a contact message to the site owner once the CAPTCHA
// passes. A filled honeypot field yields ErrSpam and nothing is sent.
func (cs *ContactService) Submit(ctx context.Context, input ContactInput) error {
	if input.Honeypot != "" {
		cs.log.Infow("contact form honeypot triggered", "ip", input.RemoteIP)
		return ErrSpam
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Message = strings.TrimSpace(input.Message)
	switch {
	case input.Name == "":
		return newValidationError("name", "name is required.")
	case !utils.IsValidEmail(input.Email):
		return newValidationError("email", "enter a valid email address.")
	case input.Message == "":
		return newValidationError("message", "message is required.")
	}

	ok, err := cs.captcha.Verify(ctx, input.CaptchaResponse, input.RemoteIP)
	if err != nil {
		cs.log.Warnw("captcha verification error", "error", err)
	}
	if !ok {
		return newValidationError("captcha", "HCAPTCHA verification failed. Please try again.")
	}

	msg := NewContactMessage(cs.mailer.From(), cs.recipient, input.Name, input.Email, input.Message)
	if err := cs.mailer.Send(ctx, msg); err != nil {
		cs.log.Errorw("failed to forward contact message", "error", err)
		return userError(ErrTransport, "Your message could not be sent. Please try again later.")
	}
	return nil
}

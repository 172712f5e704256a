package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/rolodex-backend/internal/observability"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
	"github.com/yungbote/rolodex-backend/internal/platform/sendgrid"
)

// MailService sends the transactional emails the auth flows depend on.
// Sends are synchronous; callers that must not block run them in the
// background.
type MailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error
	SendNewPasswordEmail(ctx context.Context, toEmail, toName, newPassword string) error
}

type mailService struct {
	log           *logger.Logger
	client        sendgrid.Client
	publicBaseURL string
}

func NewMailService(log *logger.Logger, client sendgrid.Client, publicBaseURL string) MailService {
	serviceLog := log.With("service", "MailService")
	return &mailService{
		log:           serviceLog,
		client:        client,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

const (
	emailKindVerification = "verification"
	emailKindReset        = "password_reset"
	emailKindNewPassword  = "new_password"
)

func (ms *mailService) SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify/%s", ms.publicBaseURL, token)
	text := fmt.Sprintf(
		"Hi %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nIf you did not create an account, you can ignore this message.\n",
		toName, link,
	)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Please confirm your email address by clicking the link below:</p><p><a href=%q>Verify email</a></p><p>If you did not create an account, you can ignore this message.</p>`,
		toName, link,
	)
	return ms.send(ctx, emailKindVerification, toEmail, toName, "Confirm your email", text, html)
}

func (ms *mailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/api/auth/reset-password?token=%s", ms.publicBaseURL, token)
	text := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your password. Open the link below to continue:\n\n%s\n\nIf you did not request a reset, you can ignore this message.\n",
		toName, link,
	)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>We received a request to reset your password. Click the link below to continue:</p><p><a href=%q>Reset password</a></p><p>If you did not request a reset, you can ignore this message.</p>`,
		toName, link,
	)
	return ms.send(ctx, emailKindReset, toEmail, toName, "Reset your password", text, html)
}

func (ms *mailService) SendNewPasswordEmail(ctx context.Context, toEmail, toName, newPassword string) error {
	text := fmt.Sprintf(
		"Hi %s,\n\nYour password has been reset. Your new password is:\n\n%s\n\nPlease log in and change it as soon as possible.\n",
		toName, newPassword,
	)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your password has been reset. Your new password is:</p><p><code>%s</code></p><p>Please log in and change it as soon as possible.</p>`,
		toName, newPassword,
	)
	return ms.send(ctx, emailKindNewPassword, toEmail, toName, "Your new password", text, html)
}

func (ms *mailService) send(ctx context.Context, kind, toEmail, toName, subject, text, html string) error {
	res, err := ms.client.Send(ctx, sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: toEmail, Name: toName}},
		Subject: subject,
		Text:    text,
		HTML:    html,
	})
	observability.Current().IncEmailSent(kind, err == nil)
	if err != nil {
		return fmt.Errorf("send %q email: %w", subject, err)
	}
	ms.log.Info("Email sent", "kind", kind, "to", toEmail, "message_id", res.MessageID)
	return nil
}

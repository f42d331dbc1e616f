package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"course-payments/internal/config"
	"course-payments/internal/domain/ports/adapter"
)

// SMTPMailer sends transactional mail over plain SMTP. Dial errors are
// returned to the caller, which treats all mail as best-effort.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

var _ adapter.Mailer = (*SMTPMailer)(nil)

func (m *SMTPMailer) SendPurchaseConfirmation(ctx context.Context, to, courseTitle string) error {
	subject := "Confirmación de compra"
	body := fmt.Sprintf(
		"<p>¡Gracias por tu compra!</p><p>Ya tienes acceso al curso <b>%s</b>. Ingresa a tu cuenta para comenzar.</p>",
		courseTitle)
	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, to string) error {
	subject := "Bienvenido/a"
	body := "<p>Tu cuenta fue creada durante la compra.</p>" +
		"<p>Usa la opción <b>recuperar contraseña</b> con este correo para definir tu clave e ingresar.</p>"
	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

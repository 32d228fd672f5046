package services

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"net/smtp"
	"strings"
	texttemplate "text/template"

	"github.com/resend/resend-go/v2"

	"github.com/yovohub/hub/internal/config"
	"github.com/yovohub/hub/internal/logging"
)

// Email represents an email to be sent
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailProvider is the interface for sending emails
type EmailProvider interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService renders and sends transactional emails.
type EmailService struct {
	provider    EmailProvider
	fromAddress string
	fromName    string
}

// NewEmailService creates a new email service based on configuration
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	var provider EmailProvider

	switch cfg.Provider {
	case "resend":
		provider = NewResendProvider(cfg.ResendAPIKey)
	case "smtp":
		provider = NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort)
	default:
		provider = NewConsoleProvider()
	}

	return NewEmailServiceWithProvider(provider, cfg.FromAddress, cfg.FromName)
}

func NewEmailServiceWithProvider(provider EmailProvider, fromAddress, fromName string) *EmailService {
	return &EmailService{provider: provider, fromAddress: fromAddress, fromName: fromName}
}

func (s *EmailService) from() string {
	if s.fromName == "" {
		return s.fromAddress
	}
	return fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
}

type resetCodeData struct {
	Name  string
	Code  string
	Hours int
}

var resetCodeHTML = htmltemplate.Must(htmltemplate.New("reset_html").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">Réinitialisation du mot de passe</h1>

  <p>Bonjour {{.Name}},</p>
  <p>Voici votre code de réinitialisation :</p>

  <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; color: #F97316; margin: 20px 0;">{{.Code}}</p>

  <p style="color: #666; font-size: 14px;">
    Ce code expire dans {{.Hours}} heures et ne peut être utilisé qu'une seule fois.
  </p>

  <p style="color: #666; font-size: 14px;">
    Si vous n'êtes pas à l'origine de cette demande, ignorez simplement cet email.
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">YŌVO HUB</p>
</body>
</html>`))

var resetCodeText = texttemplate.Must(texttemplate.New("reset_text").Parse(`Réinitialisation du mot de passe

Bonjour {{.Name}},

Voici votre code de réinitialisation : {{.Code}}

Ce code expire dans {{.Hours}} heures et ne peut être utilisé qu'une seule fois.

Si vous n'êtes pas à l'origine de cette demande, ignorez simplement cet email.

--
YŌVO HUB`))

func (s *EmailService) renderPasswordResetCode(name, code string) (html, text string, err error) {
	data := resetCodeData{Name: name, Code: code, Hours: int(ResetCodeExpiry.Hours())}

	var hb, tb strings.Builder
	if err := resetCodeHTML.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("rendering reset email: %w", err)
	}
	if err := resetCodeText.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("rendering reset email: %w", err)
	}
	return hb.String(), tb.String(), nil
}

// SendPasswordResetCode emails a reset code to the account holder.
func (s *EmailService) SendPasswordResetCode(ctx context.Context, to, name, code string) error {
	html, text, err := s.renderPasswordResetCode(name, code)
	if err != nil {
		return err
	}

	return s.provider.Send(ctx, &Email{
		From:    s.from(),
		To:      to,
		Subject: "Votre code de réinitialisation YŌVO HUB",
		HTML:    html,
		Text:    text,
	})
}

// ResendProvider sends emails using the Resend API
type ResendProvider struct {
	client *resend.Client
}

func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
	}
}

func (p *ResendProvider) Send(ctx context.Context, email *Email) error {
	params := &resend.SendEmailRequest{
		From:    email.From,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	_, err := p.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("sending email via Resend: %w", err)
	}

	logging.Info("Email sent via Resend", logging.Fields{"to": email.To, "subject": email.Subject})
	return nil
}

// SMTPProvider sends emails via SMTP (for Mailpit in local dev)
type SMTPProvider struct {
	host string
	port int
}

func NewSMTPProvider(host string, port int) *SMTPProvider {
	return &SMTPProvider{host: host, port: port}
}

func (p *SMTPProvider) Send(ctx context.Context, email *Email) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", email.From)
	fmt.Fprintf(&buf, "To: %s\r\n", email.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", email.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTML)

	err := smtp.SendMail(addr, nil, envelopeAddress(email.From), []string{email.To}, buf.Bytes())
	if err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}

	logging.Info("Email sent via SMTP", logging.Fields{"to": email.To, "subject": email.Subject})
	return nil
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

// ConsoleProvider logs emails to console (for development)
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Send(ctx context.Context, email *Email) error {
	logging.Info("=== EMAIL (Console Provider) ===", logging.Fields{"to": email.To, "subject": email.Subject})
	fmt.Printf("\n=== EMAIL ===\n")
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("---\n")
	fmt.Printf("%s\n", email.Text)
	fmt.Printf("=============\n\n")
	return nil
}

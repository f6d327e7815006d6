package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/lshigami/nodo-plus/config"
	"github.com/rs/zerolog/log"
)

// Email is one outgoing message. HTML is sent as is.
type Email struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer delivers an Email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type sesMailer struct {
	client *sesv2.Client
	from   string
}

func (m *sesMailer) Send(ctx context.Context, email Email) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &sestypes.Destination{ToAddresses: []string{email.To}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(email.Subject), Charset: aws.String("UTF-8")},
				Body:    &sestypes.Body{Html: &sestypes.Content{Data: aws.String(email.HTML), Charset: aws.String("UTF-8")}},
			},
		},
	}
	if email.ReplyTo != "" {
		input.ReplyToAddresses = []string{email.ReplyTo}
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// logMailer only logs. It is used when SES is not configured.
type logMailer struct{}

func (logMailer) Send(_ context.Context, email Email) error {
	log.Info().Str("to", email.To).Str("subject", email.Subject).Msg("Email not sent: mail delivery is not configured")
	return nil
}

// NewMailer returns an SES mailer when MAIL_FROM is set and a logging
// mailer otherwise.
func NewMailer(cfg *config.Config) (Mailer, error) {
	if cfg.Mail.From == "" {
		log.Warn().Msg("MAIL_FROM is not set. Notifications will only be logged.")
		return logMailer{}, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Mail.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Mail.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load ses config: %w", err)
	}
	return &sesMailer{client: sesv2.NewFromConfig(awsCfg), from: cfg.Mail.From}, nil
}

// NotificationService turns domain events into emails. Delivery failures
// are logged and never fail the calling operation.
type NotificationService interface {
	ContactRequest(ctx context.Context, to, solutionName, message, contactInfo string)
	SolutionApproved(ctx context.Context, to, solutionName string)
	SolutionRejected(ctx context.Context, to, solutionName, reason string)
	ChangesRequested(ctx context.Context, to, solutionName, comments string)
	SolutionSubmitted(ctx context.Context, solutionName string)
	ConsultantWelcome(ctx context.Context, to, name string)
}

type notificationService struct {
	mailer      Mailer
	adminNotify string
}

func NewNotificationService(mailer Mailer, cfg *config.Config) NotificationService {
	return &notificationService{mailer: mailer, adminNotify: cfg.Mail.AdminNotify}
}

func (s *notificationService) send(ctx context.Context, email Email) {
	if strings.TrimSpace(email.To) == "" {
		log.Warn().Str("subject", email.Subject).Msg("Skipping notification without recipient")
		return
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		log.Error().Err(err).Str("to", email.To).Str("subject", email.Subject).Msg("Failed to deliver notification")
	}
}

func (s *notificationService) ContactRequest(ctx context.Context, to, solutionName, message, contactInfo string) {
	s.send(ctx, Email{
		To:      to,
		ReplyTo: replyAddress(contactInfo),
		Subject: "NODO+ - Nueva solicitud de contacto para " + solutionName,
		HTML: page("Nueva solicitud de contacto",
			paragraph("Un usuario de NODO+ está interesado en "+solutionName+"."),
			paragraph(message),
			paragraph("Contacto: "+contactInfo),
		),
	})
}

func (s *notificationService) SolutionApproved(ctx context.Context, to, solutionName string) {
	s.send(ctx, Email{
		To:      to,
		Subject: "NODO+ - Solución aprobada",
		HTML: page("Solución aprobada",
			paragraph("Tu solución "+solutionName+" fue aprobada y ya es visible en el catálogo."),
		),
	})
}

func (s *notificationService) SolutionRejected(ctx context.Context, to, solutionName, reason string) {
	s.send(ctx, Email{
		To:      to,
		Subject: "NODO+ - Solución rechazada",
		HTML: page("Solución rechazada",
			paragraph("Tu solución "+solutionName+" no fue aprobada."),
			paragraph("Motivo: "+orDash(reason)),
		),
	})
}

func (s *notificationService) ChangesRequested(ctx context.Context, to, solutionName, comments string) {
	s.send(ctx, Email{
		To:      to,
		Subject: "NODO+ - Cambios solicitados",
		HTML: page("Cambios solicitados",
			paragraph("Revisamos tu solución "+solutionName+" y necesitamos algunos ajustes."),
			paragraph("Comentarios: "+orDash(comments)),
		),
	})
}

func (s *notificationService) SolutionSubmitted(ctx context.Context, solutionName string) {
	if s.adminNotify == "" {
		return
	}
	s.send(ctx, Email{
		To:      s.adminNotify,
		Subject: "NODO+ - Nueva solución pendiente de revisión",
		HTML:    page("Nueva solución pendiente", paragraph(solutionName+" fue enviada para revisión.")),
	})
}

func (s *notificationService) ConsultantWelcome(ctx context.Context, to, name string) {
	s.send(ctx, Email{
		To:      to,
		Subject: "NODO+ - Bienvenido",
		HTML: page("Bienvenido a NODO+",
			paragraph("Hola "+orDash(name)+", se creó tu cuenta de consultor en NODO+."),
		),
	})
}

func page(title string, body ...string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html lang="es"><head><meta charset="UTF-8"><title>%s</title></head><body><h2>%s</h2>%s</body></html>`,
		html.EscapeString(title), html.EscapeString(title), strings.Join(body, ""))
}

func paragraph(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// replyAddress returns contactInfo when it looks like an email address.
func replyAddress(contactInfo string) string {
	c := strings.TrimSpace(contactInfo)
	if strings.Count(c, "@") == 1 && !strings.ContainsAny(c, " \t\n") {
		return c
	}
	return ""
}

package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/Togather-Foundation/booking/internal/config"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender delivers a single rendered HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Service renders transactional emails and hands them to a Sender.
type Service struct {
	from      string
	sender    Sender
	templates *template.Template
	logger    zerolog.Logger
}

// BookingConfirmation is the data rendered into the confirmation template.
type BookingConfirmation struct {
	Name      string
	EventName string
	Venue     string
	Date      string
	Price     string
	BookingID string
}

// NewService picks the Resend sender when email is enabled and falls back
// to a sender that only logs otherwise.
func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	logger = logger.With().Str("component", "email").Logger()

	var sender Sender = logSender{logger: logger}
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required when email is enabled")
		}
		sender = NewResendSender(resend.NewClient(cfg.ResendAPIKey), cfg.From, logger)
	}
	return newService(cfg.From, sender, logger)
}

func newService(from string, sender Sender, logger zerolog.Logger) (*Service, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Service{
		from:      from,
		sender:    sender,
		templates: templates,
		logger:    logger,
	}, nil
}

// SendBookingConfirmation tells a user their booking went through.
func (s *Service) SendBookingConfirmation(ctx context.Context, to string, data BookingConfirmation) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	body, err := s.render("booking_confirmation.html", data)
	if err != nil {
		return err
	}

	subject := "Booking confirmed: " + data.EventName
	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send booking confirmation: %w", err)
	}
	return nil
}

func (s *Service) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// validateEmailAddress rejects malformed addresses and header injection.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

type logSender struct {
	logger zerolog.Logger
}

func (l logSender) Send(_ context.Context, to, subject, _ string) error {
	l.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Msg("email disabled, skipping send")
	return nil
}

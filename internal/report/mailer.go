package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/types"

	"github.com/wneessen/go-mail"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Mailer sends the report over SMTP with implicit TLS and PLAIN auth
type Mailer struct {
	cfg        config.SMTPConfig
	attachment string
	logger     *errors.Logger
}

// NewMailer creates a mailer from the delivery settings
func NewMailer(cfg config.DeliveryConfig, logger *errors.Logger) *Mailer {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	attachment := cfg.AttachmentName
	if attachment == "" {
		attachment = "Jobs.xlsx"
	}
	return &Mailer{cfg: cfg.SMTP, attachment: attachment, logger: logger}
}

// Subject is the message subject for n listings
func Subject(n int) string {
	return fmt.Sprintf("Job Results: %d Matches", n)
}

func (m *Mailer) sender() string {
	if m.cfg.From != "" {
		return m.cfg.From
	}
	return m.cfg.Username
}

// buildMessage assembles the HTML body and spreadsheet attachment
func (m *Mailer) buildMessage(to string, listings []types.ScoredListing) (*mail.Msg, error) {
	body, err := RenderHTML(listings)
	if err != nil {
		return nil, err
	}
	workbook, err := BuildWorkbook(listings)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.sender()); err != nil {
		return nil, errors.NewDeliveryError(errors.ErrCodeDeliveryFailed, "invalid sender address", err)
	}
	if err := msg.To(to); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid destination address", err)
	}
	msg.Subject(Subject(len(listings)))
	msg.SetBodyString(mail.TypeTextHTML, body)
	if err := msg.AttachReader(m.attachment, bytes.NewReader(workbook),
		mail.WithFileContentType(mail.ContentType(xlsxContentType))); err != nil {
		return nil, errors.NewDeliveryError(errors.ErrCodeDeliveryFailed, "failed to attach workbook", err)
	}
	return msg, nil
}

// Send delivers listings to the address to. Every failure is a delivery
// error; the caller keeps its results either way.
func (m *Mailer) Send(ctx context.Context, to string, listings []types.ScoredListing) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "destination address is required", nil)
	}
	if !m.cfg.Enabled {
		return errors.NewDeliveryError(errors.ErrCodeDeliveryFailed, "smtp delivery is disabled", nil)
	}
	if m.cfg.Username == "" || m.cfg.Password == "" {
		return errors.NewDeliveryError(errors.ErrCodeDeliveryFailed, "smtp credentials are not configured", nil)
	}

	msg, err := m.buildMessage(to, listings)
	if err != nil {
		return asDeliveryError(err)
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.Timeout))
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return errors.NewDeliveryError(errors.ErrCodeDeliveryFailed, "failed to create smtp client", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.NewDeliveryError(errors.ErrCodeDeliveryFailed, "failed to send report", err).
			WithContext("host", m.cfg.Host)
	}

	m.logger.Info("Report delivered", "to", to, "listings", len(listings))
	return nil
}

// asDeliveryError keeps delivery and validation errors and wraps the rest
func asDeliveryError(err error) error {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeDelivery, errors.ErrorTypeValidation:
		return err
	default:
		return errors.NewDeliveryError(errors.ErrCodeDeliveryFailed, "failed to build report message", err)
	}
}

package services

import (
	"fmt"
	"strings"

	"sekolahpay/internal/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// AlertService emails operators when the health check finds issues.
type AlertService struct {
	client    *sendgrid.Client
	fromEmail string
	toEmail   string
	school    string
}

// NewAlertService creates the alert sink
func NewAlertService(cfg *config.Config) *AlertService {
	return &AlertService{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.AlertFromEmail,
		toEmail:   cfg.AlertToEmail,
		school:    cfg.SchoolName,
	}
}

// SendHealthAlert sends the health issue list to the operator address.
func (s *AlertService) SendHealthAlert(issues []string) error {
	if s.toEmail == "" {
		return fmt.Errorf("no alert recipient configured")
	}

	from := mail.NewEmail(s.school, s.fromEmail)
	to := mail.NewEmail("Operator", s.toEmail)
	subject := fmt.Sprintf("[%s] Health check found %d issue(s)", s.school, len(issues))

	var plain strings.Builder
	plain.WriteString("The pre-flight health check reported the following issues:\n\n")
	for _, issue := range issues {
		fmt.Fprintf(&plain, "- %s\n", issue)
	}

	var html strings.Builder
	html.WriteString("<p>The pre-flight health check reported the following issues:</p><ul>")
	for _, issue := range issues {
		fmt.Fprintf(&html, "<li>%s</li>", issue)
	}
	html.WriteString("</ul>")

	message := mail.NewSingleEmail(from, subject, to, plain.String(), html.String())
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send alert email: %d", response.StatusCode)
	}
	return nil
}

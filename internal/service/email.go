package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"voltport-backend/internal/logger"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) send(to, toName, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *emailService) SendWithdrawalSubmittedNotice(ctx context.Context, email, name string, amount float64) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nWe received your withdrawal request for $%.2f. The amount has been reserved from your available balance and will be paid out once approved.\n\nBest regards,\nThe VoltPort Team",
		name, amount)
	return s.send(email, name, "Withdrawal request received", body)
}

func (s *emailService) SendWithdrawalRejectedNotice(ctx context.Context, email, name string, amount float64) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour withdrawal request for $%.2f was rejected and the funds have been returned to your available balance.\n\nBest regards,\nThe VoltPort Team",
		name, amount)
	return s.send(email, name, "Withdrawal request rejected", body)
}

// noopEmailService is used when email notifications are disabled.
type noopEmailService struct{}

func NewNoopEmailService() EmailService {
	return noopEmailService{}
}

func (noopEmailService) SendWithdrawalSubmittedNotice(ctx context.Context, email, name string, amount float64) error {
	logger.Debug("Email disabled, skipping withdrawal notice", "to", email)
	return nil
}

func (noopEmailService) SendWithdrawalRejectedNotice(ctx context.Context, email, name string, amount float64) error {
	logger.Debug("Email disabled, skipping rejection notice", "to", email)
	return nil
}

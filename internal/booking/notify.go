package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
	"github.com/Dali1789/KFZ-API-Service/internal/common/metrics"
	"github.com/Dali1789/KFZ-API-Service/internal/extraction"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Interfaces over the AWS clients for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier dispatches the office email per intake and, for appointment
// intents, an SMS to the office phone. Either channel may be nil-disabled.
type Notifier struct {
	sesClient   SESService
	snsClient   SNSService
	fromEmail   string
	officeEmail string
	officePhone string
	senderID    string
	log         logger.Logger
}

func NewNotifier(sesClient SESService, snsClient SNSService, fromEmail, officeEmail, officePhone, senderID string, log logger.Logger) *Notifier {
	return &Notifier{
		sesClient:   sesClient,
		snsClient:   snsClient,
		fromEmail:   fromEmail,
		officeEmail: officeEmail,
		officePhone: officePhone,
		senderID:    senderID,
		log:         log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// NotifyIntake sends the office summary email. Review-required intakes get a
// marked subject so the office checks the transcript by hand.
func (n *Notifier) NotifyIntake(ctx context.Context, intake *Intake, customer *Customer) error {
	if n.sesClient == nil {
		return nil
	}

	subject := fmt.Sprintf("Neuer Anruf: %s", callTypeLabel(intake.CallType))
	if intake.CustomerID == "" {
		subject = "Neuer Anruf: manuelle Prüfung erforderlich"
	}

	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{n.officeEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(n.emailBody(intake, customer))},
			},
		},
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("email", "error").Inc()
		return fmt.Errorf("send intake email: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues("email", "ok").Inc()
	return nil
}

// NotifyAppointmentSMS pings the office phone for appointment requests.
func (n *Notifier) NotifyAppointmentSMS(ctx context.Context, intake *Intake, customer *Customer) error {
	if n.snsClient == nil || n.officePhone == "" {
		return nil
	}

	name := "unbekannt"
	if customer != nil && customer.Name != "" {
		name = customer.Name
	}
	message := fmt.Sprintf("Terminanfrage von %s", name)
	if intake.Appointment != "" {
		message += fmt.Sprintf(" (%s)", intake.Appointment)
	}

	input := &sns.PublishInput{
		Message:     aws.String(message),
		PhoneNumber: aws.String(n.officePhone),
	}
	if n.senderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.senderID),
			},
		}
	}

	if _, err := n.snsClient.Publish(ctx, input); err != nil {
		metrics.NotificationsSent.WithLabelValues("sms", "error").Inc()
		return fmt.Errorf("send appointment sms: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues("sms", "ok").Inc()
	return nil
}

func (n *Notifier) emailBody(intake *Intake, customer *Customer) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Anliegen: %s\n", callTypeLabel(intake.CallType)))
	if customer != nil {
		b.WriteString(fmt.Sprintf("Name: %s\n", valueOrDash(customer.Name)))
		b.WriteString(fmt.Sprintf("Telefon: %s\n", valueOrDash(customer.Phone)))
		b.WriteString(fmt.Sprintf("Adresse: %s\n", valueOrDash(customer.Address)))
	} else {
		b.WriteString("Kunde: nicht erkannt, bitte Transkript prüfen\n")
	}
	if intake.Appointment != "" {
		b.WriteString(fmt.Sprintf("Terminwunsch: %s\n", intake.Appointment))
	}
	b.WriteString(fmt.Sprintf("Konfidenz: %.0f%%\n", intake.Confidence*100))
	b.WriteString(fmt.Sprintf("Anrufdauer: %ds\n", intake.DurationSec))
	b.WriteString(fmt.Sprintf("Anruf-ID: %s\n", intake.CallID))

	return b.String()
}

func callTypeLabel(t extraction.CallType) string {
	switch t {
	case extraction.CallTypeAppointment:
		return "Terminanfrage"
	case extraction.CallTypeQuote:
		return "Angebotsanfrage"
	default:
		return "Rückrufbitte"
	}
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

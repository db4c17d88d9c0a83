package booking

import (
	"context"

	stderrors "github.com/Dali1789/KFZ-API-Service/internal/common/errors"
	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
	"github.com/Dali1789/KFZ-API-Service/internal/common/metrics"
	"github.com/Dali1789/KFZ-API-Service/internal/extraction"
)

// Extractor is the narrow contract the service consumes from the extraction
// core.
type Extractor interface {
	Extract(transcript string) *extraction.Result
}

// Service processes one finished call end to end: dedupe, extract, persist,
// archive, notify. Notification and archive failures are deliberately
// non-fatal; the intake record is the source of truth.
type Service struct {
	store     *Store
	guard     *CallGuard
	archive   Archiver
	notifier  *Notifier
	extractor Extractor
	project   *Project
	log       logger.Logger

	archiveRequired bool
}

func NewService(store *Store, guard *CallGuard, archive Archiver, notifier *Notifier, extractor Extractor, project *Project, archiveRequired bool, log logger.Logger) *Service {
	return &Service{
		store:           store,
		guard:           guard,
		archive:         archive,
		notifier:        notifier,
		extractor:       extractor,
		project:         project,
		log:             log.WithFields(map[string]interface{}{"component": "booking"}),
		archiveRequired: archiveRequired,
	}
}

// HandleCall is the single entry point fed by the webhook layer.
func (s *Service) HandleCall(ctx context.Context, env CallEnvelope) (*Intake, *extraction.Result, error) {
	first, err := s.guard.FirstSeen(ctx, env.CallID)
	if err != nil {
		return nil, nil, stderrors.NewInternalError(err)
	}
	if !first {
		s.log.Info("duplicate call delivery ignored", map[string]interface{}{
			"callId": env.CallID,
		})
		return nil, nil, stderrors.NewDuplicateCallError(env.CallID)
	}

	result := s.extractor.Extract(env.Transcript)

	if method, ok := result.Details["method"].(string); ok {
		metrics.ExtractionMethod.WithLabelValues(method).Inc()
	}
	metrics.ExtractionConfidence.Observe(result.Confidence)

	customer, err := s.resolveCustomer(ctx, result)
	if err != nil {
		// Release the claim so the platform redelivery can retry.
		_ = s.guard.Release(ctx, env.CallID)
		return nil, result, err
	}

	intake := &Intake{
		CallID:      env.CallID,
		ProjectID:   s.project.ID,
		CallType:    result.Type,
		Confidence:  result.Confidence,
		Transcript:  env.Transcript,
		DurationSec: env.DurationSec,
		Details:     result.Details,
	}
	if customer != nil {
		intake.CustomerID = customer.ID
	}
	if result.Appointment != nil {
		intake.Appointment = *result.Appointment
	}

	if err := s.store.CreateIntake(ctx, intake); err != nil {
		_ = s.guard.Release(ctx, env.CallID)
		return nil, result, stderrors.NewDatabaseInsertFailedError("intakes", err)
	}
	metrics.IntakesCreated.WithLabelValues(string(intake.CallType)).Inc()

	if s.archive != nil {
		doc := TranscriptDocument{
			CallID:     intake.CallID,
			IntakeID:   intake.ID,
			Transcript: intake.Transcript,
			CallType:   string(intake.CallType),
			Confidence: intake.Confidence,
			IndexedAt:  intake.CreatedAt,
		}
		if err := s.archive.Index(ctx, doc); err != nil {
			if s.archiveRequired {
				return nil, result, stderrors.NewArchiveIndexFailedError(err)
			}
			s.log.Warn("transcript archive failed", map[string]interface{}{
				"error":  err,
				"callId": intake.CallID,
			})
		}
	}

	s.dispatchNotifications(ctx, intake, customer)

	s.log.Info("intake recorded", map[string]interface{}{
		"intakeId":   intake.ID,
		"callId":     intake.CallID,
		"callType":   string(intake.CallType),
		"confidence": intake.Confidence,
		"customerId": intake.CustomerID,
	})
	return intake, result, nil
}

// resolveCustomer reuses an existing customer by normalized phone number or
// creates one from the extracted fields. A failed extraction yields no
// customer; the intake is still recorded for human review.
func (s *Service) resolveCustomer(ctx context.Context, result *extraction.Result) (*Customer, error) {
	if result.Phone == nil {
		return nil, nil
	}

	phone := extraction.NormalizePhone(*result.Phone)
	customer, err := s.store.FindCustomerByPhone(ctx, phone)
	if err != nil {
		return nil, stderrors.NewInternalError(err)
	}
	if customer != nil {
		return customer, nil
	}

	customer = &Customer{Phone: phone}
	if result.Name != nil {
		customer.Name = *result.Name
	}
	if result.Address != nil {
		customer.Address = *result.Address
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, stderrors.NewDatabaseInsertFailedError("customers", err)
	}
	return customer, nil
}

func (s *Service) dispatchNotifications(ctx context.Context, intake *Intake, customer *Customer) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.NotifyIntake(ctx, intake, customer); err != nil {
		s.log.Warn("intake email failed", map[string]interface{}{
			"error":  err,
			"callId": intake.CallID,
		})
	}

	if intake.CallType == extraction.CallTypeAppointment {
		if err := s.notifier.NotifyAppointmentSMS(ctx, intake, customer); err != nil {
			s.log.Warn("appointment sms failed", map[string]interface{}{
				"error":  err,
				"callId": intake.CallID,
			})
		}
	}
}

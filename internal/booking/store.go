package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"

	"github.com/google/uuid"
)

// Store persists projects, customers, and intakes in Postgres.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:  db,
		log: log.WithFields(map[string]interface{}{"component": "booking-store"}),
	}
}

// EnsureProject looks up the project by number and creates it when missing.
// Called once at startup; the result is injected into the service.
func (s *Store) EnsureProject(ctx context.Context, number, name string) (*Project, error) {
	project := &Project{Number: number, Name: name}

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM projects WHERE number = $1`,
		number).Scan(&project.ID, &project.Name)
	if err == nil {
		return project, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("project lookup failed: %w", err)
	}

	project.ID = uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, number, name, created_at)
		VALUES ($1, $2, $3, $4)`,
		project.ID, number, name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("project create failed: %w", err)
	}

	s.log.Info("project created", map[string]interface{}{
		"projectId": project.ID,
		"number":    number,
	})
	return project, nil
}

// FindCustomerByPhone returns the customer with the given normalized phone
// number, or nil when none exists.
func (s *Store) FindCustomerByPhone(ctx context.Context, phone string) (*Customer, error) {
	customer := &Customer{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, address FROM customers WHERE phone = $1`,
		phone).Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Address)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("customer lookup failed: %w", err)
	}
	return customer, nil
}

// CreateCustomer inserts a new customer and assigns its ID.
func (s *Store) CreateCustomer(ctx context.Context, customer *Customer) error {
	customer.ID = uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, address, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		customer.ID, customer.Name, customer.Phone, customer.Address,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("customer create failed: %w", err)
	}
	return nil
}

// CreateIntake inserts the intake record with the extraction details as
// JSONB. The audit entry is non-critical: a failure there is logged but does
// not fail the intake.
func (s *Store) CreateIntake(ctx context.Context, intake *Intake) error {
	intake.ID = uuid.New().String()
	intake.CreatedAt = time.Now().UTC()

	detailsJSON, err := json.Marshal(intake.Details)
	if err != nil {
		s.log.Warn("failed to marshal extraction details", map[string]interface{}{
			"error": err,
		})
		detailsJSON = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intakes (
			id, call_id, project_id, customer_id, call_type, appointment,
			confidence, transcript, duration_seconds, extraction_details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		intake.ID,
		intake.CallID,
		intake.ProjectID,
		nullable(intake.CustomerID),
		string(intake.CallType),
		nullable(intake.Appointment),
		intake.Confidence,
		intake.Transcript,
		intake.DurationSec,
		detailsJSON,
		intake.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("intake insert failed: %w", err)
	}

	auditJSON, err := json.Marshal(map[string]interface{}{
		"callId":     intake.CallID,
		"customerId": intake.CustomerID,
		"callType":   string(intake.CallType),
		"confidence": intake.Confidence,
	})
	if err != nil {
		auditJSON = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"intake_created",
		"intake",
		intake.ID,
		auditJSON,
		intake.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		s.log.Warn("audit log insert failed", map[string]interface{}{
			"error":    err,
			"intakeId": intake.ID,
		})
	}

	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

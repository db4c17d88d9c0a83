// internal/booking/service_test.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "github.com/Dali1789/KFZ-API-Service/internal/common/errors"
	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
	"github.com/Dali1789/KFZ-API-Service/internal/extraction"
)

type stubExtractor struct {
	result *extraction.Result
}

func (s *stubExtractor) Extract(string) *extraction.Result { return s.result }

type fakeArchiver struct {
	docs []TranscriptDocument
	err  error
}

func (f *fakeArchiver) Index(ctx context.Context, doc TranscriptDocument) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	return nil
}

func appointmentResult() *extraction.Result {
	name := "Anna Schmidt"
	phone := "01712345678"
	address := "Hauptstraße 12"
	appointment := "morgen um 14 Uhr"
	return &extraction.Result{
		Name:        &name,
		Phone:       &phone,
		Address:     &address,
		Appointment: &appointment,
		Type:        extraction.CallTypeAppointment,
		Confidence:  0.93,
		Details:     map[string]interface{}{"method": "advanced_pattern"},
	}
}

type serviceFixture struct {
	service *Service
	mock    sqlmock.Sqlmock
	guard   *CallGuard
	archive *fakeArchiver
	ses     *fakeSES
	sns     *fakeSNS
}

func newServiceFixture(t *testing.T, result *extraction.Result, archiveRequired bool) *serviceFixture {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	guard, _ := newTestGuard(t, time.Hour)
	archive := &fakeArchiver{}
	sesClient := &fakeSES{}
	snsClient := &fakeSNS{}

	log := logger.NewTestLogger(t)
	service := NewService(
		NewStore(db, log),
		guard,
		archive,
		newTestNotifier(t, sesClient, snsClient),
		&stubExtractor{result: result},
		&Project{ID: "proj-1", Number: "KFZ-001"},
		archiveRequired,
		log,
	)

	return &serviceFixture{
		service: service,
		mock:    mock,
		guard:   guard,
		archive: archive,
		ses:     sesClient,
		sns:     snsClient,
	}
}

func testEnvelope() CallEnvelope {
	return CallEnvelope{CallID: "call-1", Transcript: "transcript text", DurationSec: 95}
}

func TestService_HandleCall_NewCustomer(t *testing.T) {
	f := newServiceFixture(t, appointmentResult(), false)

	f.mock.ExpectQuery("SELECT id, name, phone, address FROM customers").
		WithArgs("01712345678").
		WillReturnError(errNoRows())
	f.mock.ExpectExec("INSERT INTO customers").
		WithArgs(sqlmock.AnyArg(), "Anna Schmidt", "01712345678", "Hauptstraße 12", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec("INSERT INTO intakes").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	intake, result, err := f.service.HandleCall(context.Background(), testEnvelope())
	require.NoError(t, err)
	require.NotNil(t, intake)

	assert.Equal(t, "call-1", intake.CallID)
	assert.Equal(t, "proj-1", intake.ProjectID)
	assert.NotEmpty(t, intake.CustomerID)
	assert.Equal(t, extraction.CallTypeAppointment, intake.CallType)
	assert.Equal(t, "morgen um 14 Uhr", intake.Appointment)
	assert.InDelta(t, 0.93, intake.Confidence, 0.0001)
	assert.False(t, result.Failed())

	// Transcript ends up in the archive with the persisted IDs.
	require.Len(t, f.archive.docs, 1)
	assert.Equal(t, "call-1", f.archive.docs[0].CallID)
	assert.Equal(t, intake.ID, f.archive.docs[0].IntakeID)

	// Email always, SMS because of the appointment intent.
	assert.NotNil(t, f.ses.input)
	assert.NotNil(t, f.sns.input)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestService_HandleCall_ExistingCustomer(t *testing.T) {
	f := newServiceFixture(t, appointmentResult(), false)

	f.mock.ExpectQuery("SELECT id, name, phone, address FROM customers").
		WithArgs("01712345678").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "address"}).
			AddRow("cust-9", "Anna Schmidt", "01712345678", "Hauptstraße 12"))
	f.mock.ExpectExec("INSERT INTO intakes").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	intake, _, err := f.service.HandleCall(context.Background(), testEnvelope())
	require.NoError(t, err)
	assert.Equal(t, "cust-9", intake.CustomerID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestService_HandleCall_DuplicateDelivery(t *testing.T) {
	f := newServiceFixture(t, appointmentResult(), false)

	first, err := f.guard.FirstSeen(context.Background(), "call-1")
	require.NoError(t, err)
	require.True(t, first)

	intake, result, err := f.service.HandleCall(context.Background(), testEnvelope())
	assert.Nil(t, intake)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeDuplicateCall, stderrors.Normalize(err).Code)
}

func TestService_HandleCall_FailedExtractionStillPersists(t *testing.T) {
	degenerate := &extraction.Result{
		Type:       extraction.DefaultCallType,
		Confidence: 0,
		Details:    map[string]interface{}{"error": "no strategy produced a result"},
	}
	f := newServiceFixture(t, degenerate, false)

	// No phone, so no customer queries at all.
	f.mock.ExpectExec("INSERT INTO intakes").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	intake, result, err := f.service.HandleCall(context.Background(), testEnvelope())
	require.NoError(t, err)
	assert.Empty(t, intake.CustomerID)
	assert.True(t, result.Failed())
	// Review email goes out, but no appointment SMS.
	assert.NotNil(t, f.ses.input)
	assert.Nil(t, f.sns.input)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestService_HandleCall_InsertFailureReleasesGuard(t *testing.T) {
	f := newServiceFixture(t, appointmentResult(), false)

	f.mock.ExpectQuery("SELECT id, name, phone, address FROM customers").
		WillReturnError(errNoRows())
	f.mock.ExpectExec("INSERT INTO customers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec("INSERT INTO intakes").
		WillReturnError(errors.New("deadlock detected"))

	_, _, err := f.service.HandleCall(context.Background(), testEnvelope())
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeDatabaseInsertFailed, stderrors.Normalize(err).Code)

	// The claim was released, so a redelivery can run again.
	first, err := f.guard.FirstSeen(context.Background(), "call-1")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestService_HandleCall_ArchiveFailure(t *testing.T) {
	expectHappyInserts := func(f *serviceFixture) {
		f.mock.ExpectQuery("SELECT id, name, phone, address FROM customers").
			WillReturnError(errNoRows())
		f.mock.ExpectExec("INSERT INTO customers").
			WillReturnResult(sqlmock.NewResult(1, 1))
		f.mock.ExpectExec("INSERT INTO intakes").
			WillReturnResult(sqlmock.NewResult(1, 1))
		f.mock.ExpectExec("INSERT INTO audit_log").
			WillReturnResult(sqlmock.NewResult(1, 1))
	}

	t.Run("optional archive failure is tolerated", func(t *testing.T) {
		f := newServiceFixture(t, appointmentResult(), false)
		f.archive.err = errors.New("cluster red")
		expectHappyInserts(f)

		_, _, err := f.service.HandleCall(context.Background(), testEnvelope())
		assert.NoError(t, err)
	})

	t.Run("required archive failure fails the call", func(t *testing.T) {
		f := newServiceFixture(t, appointmentResult(), true)
		f.archive.err = errors.New("cluster red")
		expectHappyInserts(f)

		_, _, err := f.service.HandleCall(context.Background(), testEnvelope())
		require.Error(t, err)
		assert.Equal(t, stderrors.ErrCodeArchiveIndexFailed, stderrors.Normalize(err).Code)
	})
}

func TestService_HandleCall_NotificationFailureIsNonFatal(t *testing.T) {
	f := newServiceFixture(t, appointmentResult(), false)
	f.ses.err = errors.New("throttled")
	f.sns.err = errors.New("throttled")

	f.mock.ExpectQuery("SELECT id, name, phone, address FROM customers").
		WillReturnError(errNoRows())
	f.mock.ExpectExec("INSERT INTO customers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec("INSERT INTO intakes").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	intake, _, err := f.service.HandleCall(context.Background(), testEnvelope())
	assert.NoError(t, err)
	assert.NotNil(t, intake)
}

func errNoRows() error {
	return sql.ErrNoRows
}

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockLogStore struct{ mock.Mock }

func (m *mockLogStore) Append(ctx context.Context, entry *domain.EmailLog) error {
	return m.Called(ctx, entry).Error(0)
}

func TestOtpCode_SentAndLogged(t *testing.T) {
	ml := &mockMailer{}
	logs := &mockLogStore{}
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)
	var logged *domain.EmailLog
	logs.On("Append", mock.Anything, mock.AnythingOfType("*domain.EmailLog")).
		Run(func(args mock.Arguments) { logged = args.Get(1).(*domain.EmailLog) }).
		Return(nil)

	svc := NewService(ServiceDeps{Mailer: ml, Logs: logs})
	svc.OtpCode(context.Background(), "a@b.com", domain.OtpPurposeRequest, "482910", 10*time.Minute)

	require.NotNil(t, logged)
	assert.Equal(t, domain.EmailStatusSent, logged.Status)
	assert.Equal(t, KindOtpCode, logged.Kind)
	assert.Equal(t, "a@b.com", logged.Recipient)
	assert.Empty(t, logged.Error)
}

func TestStatusUpdated_FailureLoggedNotPropagated(t *testing.T) {
	ml := &mockMailer{}
	logs := &mockLogStore{}
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp timeout"))
	var logged *domain.EmailLog
	logs.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { logged = args.Get(1).(*domain.EmailLog) }).
		Return(nil)

	dr := &domain.DocumentRequest{
		RequestID: "r1", TrackingID: "BNHS-ABCDEFGH",
		Email: "a@b.com", FirstName: "Ana", LastName: "Cruz",
		Status: domain.StatusProcessing,
	}
	svc := NewService(ServiceDeps{Mailer: ml, Logs: logs})
	svc.StatusUpdated(context.Background(), dr, domain.StatusPending)

	require.NotNil(t, logged)
	assert.Equal(t, domain.EmailStatusFailed, logged.Status)
	assert.Equal(t, "smtp timeout", logged.Error)
	assert.Equal(t, "r1", logged.DocumentRequestID)
}

func TestRequestSubmitted_IncludesTrackingID(t *testing.T) {
	ml := &mockMailer{}
	logs := &mockLogStore{}
	var body string
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(2) }).
		Return(nil)
	logs.On("Append", mock.Anything, mock.Anything).Return(nil)

	dr := &domain.DocumentRequest{
		RequestID: "r1", TrackingID: "BNHS-QRSTUVWX",
		Email: "a@b.com", FirstName: "Ana", LastName: "Cruz",
		EstimatedCompletionDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		DocumentType:            &domain.DocumentType{Name: "Form 137"},
	}
	NewService(ServiceDeps{Mailer: ml, Logs: logs}).RequestSubmitted(context.Background(), dr)

	assert.Contains(t, body, "BNHS-QRSTUVWX")
	assert.Contains(t, body, "Form 137")
}

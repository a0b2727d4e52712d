package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockOtpStore struct{ mock.Mock }

func (m *mockOtpStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

type mockGateStore struct{ mock.Mock }

func (m *mockGateStore) DeleteVerifiedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

type mockLogStore struct{ mock.Mock }

func (m *mockLogStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

func TestRunOnce_UsesRetentionCutoffs(t *testing.T) {
	fixedNow := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	otps := &mockOtpStore{}
	gates := &mockGateStore{}
	auditLogs := &mockLogStore{}
	emailLogs := &mockLogStore{}

	shortCutoff := fixedNow.Add(-30 * 24 * time.Hour)
	longCutoff := fixedNow.Add(-365 * 24 * time.Hour)
	otps.On("DeleteExpiredBefore", mock.Anything, shortCutoff).Return(4, nil)
	gates.On("DeleteVerifiedBefore", mock.Anything, shortCutoff).Return(2, nil)
	auditLogs.On("DeleteCreatedBefore", mock.Anything, longCutoff).Return(10, nil)
	emailLogs.On("DeleteCreatedBefore", mock.Anything, longCutoff).Return(0, nil)

	p := New(Deps{
		Otps:         otps,
		Gates:        gates,
		AuditLogs:    auditLogs,
		EmailLogs:    emailLogs,
		Schedule:     "0 3 * * *",
		OtpRetention: 30 * 24 * time.Hour,
		LogRetention: 365 * 24 * time.Hour,
		Now:          func() time.Time { return fixedNow },
	})
	p.RunOnce(context.Background())

	otps.AssertExpectations(t)
	gates.AssertExpectations(t)
	auditLogs.AssertExpectations(t)
	emailLogs.AssertExpectations(t)
}

func TestRunOnce_OneFailureDoesNotStopOthers(t *testing.T) {
	otps := &mockOtpStore{}
	gates := &mockGateStore{}
	auditLogs := &mockLogStore{}
	emailLogs := &mockLogStore{}

	otps.On("DeleteExpiredBefore", mock.Anything, mock.Anything).Return(0, errors.New("dynamo down"))
	gates.On("DeleteVerifiedBefore", mock.Anything, mock.Anything).Return(1, nil)
	auditLogs.On("DeleteCreatedBefore", mock.Anything, mock.Anything).Return(0, nil)
	emailLogs.On("DeleteCreatedBefore", mock.Anything, mock.Anything).Return(0, nil)

	p := New(Deps{
		Otps: otps, Gates: gates, AuditLogs: auditLogs, EmailLogs: emailLogs,
		Schedule: "0 3 * * *", OtpRetention: time.Hour, LogRetention: time.Hour,
	})
	p.RunOnce(context.Background())

	gates.AssertExpectations(t)
	auditLogs.AssertExpectations(t)
	emailLogs.AssertExpectations(t)
}

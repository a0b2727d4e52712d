package audit

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

type mockStore struct{ mock.Mock }

func (m *mockStore) Append(ctx context.Context, entry *domain.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

func newRecorder(repo *mockStore) *Recorder {
	r := NewRecorder(repo)
	r.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestCreated_StampsActorFromContext(t *testing.T) {
	repo := &mockStore{}
	var captured *domain.AuditLog
	repo.On("Append", mock.Anything, mock.AnythingOfType("*domain.AuditLog")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*domain.AuditLog) }).
		Return(nil)

	ctx := WithMeta(context.Background(), Meta{
		ActorID:   "u1",
		ActorRole: domain.RoleAdmin,
		IPAddress: "203.0.113.9",
		UserAgent: "test-agent",
	})
	r := newRecorder(repo)
	r.Created(ctx, "document_request", "req1", "Request created", map[string]interface{}{"status": "Pending"})

	require.NotNil(t, captured)
	assert.Equal(t, domain.AuditActionCreate, captured.Action)
	assert.Equal(t, "u1", captured.UserID)
	assert.Equal(t, domain.RoleAdmin, captured.UserRole)
	assert.Equal(t, "203.0.113.9", captured.IPAddress)
	assert.Equal(t, "test-agent", captured.UserAgent)
	assert.NotEmpty(t, captured.AuditID)
	assert.Equal(t, map[string]interface{}{"status": "Pending"}, captured.NewValues)
}

func TestCreated_NoActor_RecordsSystemRole(t *testing.T) {
	repo := &mockStore{}
	var captured *domain.AuditLog
	repo.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*domain.AuditLog) }).
		Return(nil)

	newRecorder(repo).Created(context.Background(), "otp", "o1", "issued", nil)

	require.NotNil(t, captured)
	assert.Empty(t, captured.UserID)
	assert.Equal(t, "system", captured.UserRole)
}

func TestUpdated_NoChanges_WritesNothing(t *testing.T) {
	repo := &mockStore{}
	values := map[string]interface{}{"status": "Pending", "admin_notes": "x"}

	newRecorder(repo).Updated(context.Background(), "document_request", "req1", "noop", values, values)

	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestUpdated_RestrictsValuesToChangedKeys(t *testing.T) {
	repo := &mockStore{}
	var captured *domain.AuditLog
	repo.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*domain.AuditLog) }).
		Return(nil)

	oldValues := map[string]interface{}{"status": "Pending", "admin_notes": "keep", "quantity": 2}
	newValues := map[string]interface{}{"status": "Processing", "admin_notes": "keep", "quantity": 2}
	newRecorder(repo).Updated(context.Background(), "document_request", "req1", "status changed", oldValues, newValues)

	require.NotNil(t, captured)
	assert.Equal(t, domain.AuditActionUpdate, captured.Action)
	assert.Equal(t, map[string]interface{}{"status": "Pending"}, captured.OldValues)
	assert.Equal(t, map[string]interface{}{"status": "Processing"}, captured.NewValues)
}

func TestUpdated_KeyAbsentFromOld_Counts(t *testing.T) {
	repo := &mockStore{}
	var captured *domain.AuditLog
	repo.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*domain.AuditLog) }).
		Return(nil)

	newRecorder(repo).Updated(context.Background(), "document_request", "req1", "completed",
		map[string]interface{}{},
		map[string]interface{}{"completed_at": "2025-06-01T12:00:00Z"})

	require.NotNil(t, captured)
	assert.Equal(t, map[string]interface{}{"completed_at": "2025-06-01T12:00:00Z"}, captured.NewValues)
	assert.Empty(t, captured.OldValues)
}

func TestAppendFailure_IsSwallowed(t *testing.T) {
	repo := &mockStore{}
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("throughput exceeded"))

	// must not panic or surface the error
	newRecorder(repo).Deleted(context.Background(), "document_request", "req1", "deleted", nil)
	repo.AssertExpectations(t)
}

func TestLoginFailed_NilUser(t *testing.T) {
	repo := &mockStore{}
	var captured *domain.AuditLog
	repo.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*domain.AuditLog) }).
		Return(nil)

	newRecorder(repo).LoginFailed(context.Background(), "ghost@school.edu", nil)

	require.NotNil(t, captured)
	assert.Equal(t, domain.AuditActionLoginFailed, captured.Action)
	assert.Empty(t, captured.UserID)
	assert.Equal(t, "system", captured.UserRole)
	assert.Contains(t, captured.Description, "ghost@school.edu")
}

func TestLogin_ActorIsTheUser(t *testing.T) {
	repo := &mockStore{}
	var captured *domain.AuditLog
	repo.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*domain.AuditLog) }).
		Return(nil)

	u := &domain.User{UserID: "u9", Email: "reg@school.edu", Role: domain.RoleRegistrar}
	newRecorder(repo).Login(context.Background(), u)

	require.NotNil(t, captured)
	assert.Equal(t, "u9", captured.UserID)
	assert.Equal(t, domain.RoleRegistrar, captured.UserRole)
	assert.Equal(t, domain.AuditActionLogin, captured.Action)
}

func TestSnapshot_OmitsHiddenFields(t *testing.T) {
	u := &domain.User{UserID: "u1", Email: "a@b.com", PasswordHash: "secret-hash"}
	m := Snapshot(u)
	require.NotNil(t, m)
	assert.Equal(t, "a@b.com", m["email"])
	for k := range m {
		assert.NotContains(t, k, "password")
	}
}

package user

import (
	"context"
	"testing"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if v, _ := args.Get(0).(*domain.User); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if v, _ := args.Get(0).(*domain.User); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	if v, _ := args.Get(0).([]domain.User); v != nil {
		return v, args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) SoftDeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockAuditor struct{ mock.Mock }

func (m *mockAuditor) Created(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{}) {
	m.Called(ctx, subjectType, subjectID, description, values)
}
func (m *mockAuditor) Updated(ctx context.Context, subjectType, subjectID, description string, oldValues, newValues map[string]interface{}) {
	m.Called(ctx, subjectType, subjectID, description, oldValues, newValues)
}
func (m *mockAuditor) Deleted(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{}) {
	m.Called(ctx, subjectType, subjectID, description, values)
}

func newService(repo *mockStore, sessions *mockSessionStore, audit *mockAuditor) Service {
	return NewService(ServiceDeps{Repo: repo, Sessions: sessions, Audit: audit})
}

func TestCreate_HappyPath(t *testing.T) {
	repo := &mockStore{}
	audit := &mockAuditor{}
	repo.On("GetByEmail", mock.Anything, "new@school.edu").Return(nil, domain.ErrNotFound)
	var stored *domain.User
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.User) }).
		Return(nil)
	audit.On("Created", mock.Anything, "user", mock.Anything, mock.Anything, mock.MatchedBy(func(m map[string]interface{}) bool {
		_, hasHash := m["password_hash"]
		return !hasHash
	})).Return()

	u, err := newService(repo, nil, audit).Create(context.Background(), domain.CreateUserRequest{
		Name:     "Reg One",
		Email:    "new@school.edu",
		Password: "supersecret1",
		Role:     domain.RoleRegistrar,
	})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, u.Enable)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("supersecret1")))
	audit.AssertExpectations(t)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := &mockStore{}
	repo.On("GetByEmail", mock.Anything, "taken@school.edu").Return(&domain.User{UserID: "u1"}, nil)

	_, err := newService(repo, nil, &mockAuditor{}).Create(context.Background(), domain.CreateUserRequest{
		Name:     "Reg",
		Email:    "taken@school.edu",
		Password: "supersecret1",
		Role:     domain.RoleRegistrar,
	})

	require.ErrorIs(t, err, domain.ErrConflict)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_ShortPassword(t *testing.T) {
	_, err := newService(&mockStore{}, nil, &mockAuditor{}).Create(context.Background(), domain.CreateUserRequest{
		Name:     "Reg",
		Email:    "a@b.com",
		Password: "short",
		Role:     domain.RoleRegistrar,
	})
	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_DisablingRevokesSessions(t *testing.T) {
	repo := &mockStore{}
	sessions := &mockSessionStore{}
	audit := &mockAuditor{}
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "a@b.com", Enable: true}, nil)
	repo.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	sessions.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)
	audit.On("Updated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	off := false
	u, err := newService(repo, sessions, audit).Update(context.Background(), "u1", domain.UpdateUserRequest{Enable: &off})

	require.NoError(t, err)
	assert.False(t, u.Enable)
	sessions.AssertCalled(t, "SoftDeleteByUser", mock.Anything, "u1")
}

func TestUpdate_NoFields_Noop(t *testing.T) {
	repo := &mockStore{}
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	audit := &mockAuditor{}

	_, err := newService(repo, nil, audit).Update(context.Background(), "u1", domain.UpdateUserRequest{})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Updated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_RevokesSessionsAndAudits(t *testing.T) {
	repo := &mockStore{}
	sessions := &mockSessionStore{}
	audit := &mockAuditor{}
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "a@b.com"}, nil)
	repo.On("SoftDelete", mock.Anything, "u1").Return(nil)
	sessions.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)
	audit.On("Deleted", mock.Anything, "user", "u1", mock.Anything, mock.Anything).Return()

	require.NoError(t, newService(repo, sessions, audit).Delete(context.Background(), "u1"))
	sessions.AssertExpectations(t)
	audit.AssertExpectations(t)
}

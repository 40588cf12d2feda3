package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk-api/internal/email"
	"github.com/jwalitptl/clinic-desk-api/internal/model"
	"github.com/jwalitptl/clinic-desk-api/internal/repository"
	"github.com/jwalitptl/clinic-desk-api/pkg/auth"
	"github.com/jwalitptl/clinic-desk-api/pkg/logger"
	"github.com/jwalitptl/clinic-desk-api/pkg/security"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*model.User
	byEmail map[string]*model.User
	getErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	user.CreatedAt = time.Now()
	cp := *user
	f.byID[user.ID] = &cp
	f.byEmail[user.Email] = &cp
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	user, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func newTestService(repo repository.UserRepository) *Service {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour, "clinic-desk-test")
	return NewService(repo, jwtSvc, security.NewBcryptHasher(4), email.NoopService{}, logger.NewLogger(nil))
}

func signupRequest(role, emailAddr string) *model.SignupRequest {
	return &model.SignupRequest{
		Role:     role,
		Name:     "Dr. Asha Rao",
		Email:    emailAddr,
		Password: "secret123",
	}
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	user, err := svc.Signup(context.Background(), signupRequest("doctor", "asha@example.com"))
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	tokens, err := svc.Login(context.Background(), "asha@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Token)
	assert.Equal(t, user.ID, tokens.User.ID)

	claims, err := svc.ValidateToken(context.Background(), tokens.Token)
	require.NoError(t, err)
	assert.Equal(t, "doctor", claims.Role)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Signup(context.Background(), signupRequest("receptionist", "desk@example.com"))
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), signupRequest("receptionist", "desk@example.com"))
	assert.Error(t, err)
}

func TestSignupRejectsShortPassword(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	req := signupRequest("doctor", "short@example.com")
	req.Password = "abc"
	_, err := svc.Signup(context.Background(), req)
	assert.Error(t, err)
}

func TestSignupKeepsSpecializationForDoctorsOnly(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	doctorReq := signupRequest("doctor", "doc@example.com")
	doctorReq.Specialization = "cardiology"
	doctor, err := svc.Signup(context.Background(), doctorReq)
	require.NoError(t, err)
	require.NotNil(t, doctor.Specialization)
	assert.Equal(t, "cardiology", *doctor.Specialization)

	deskReq := signupRequest("receptionist", "desk@example.com")
	deskReq.Specialization = "cardiology"
	desk, err := svc.Signup(context.Background(), deskReq)
	require.NoError(t, err)
	assert.Nil(t, desk.Specialization)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Signup(context.Background(), signupRequest("doctor", "asha@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "asha@example.com", "wrong-password")
	assert.Error(t, err)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := newTestService(newFakeUserRepo())
	_, err := svc.Login(context.Background(), "nobody@example.com", "secret123")
	assert.Error(t, err)
}

func TestProfileDegradesOnLookupFailure(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	claims := &auth.Claims{
		UserID: uuid.New(),
		Email:  "asha@example.com",
		Role:   "doctor",
	}

	repo.getErr = errors.New("store unavailable")
	user := svc.Profile(context.Background(), claims)
	require.NotNil(t, user)
	assert.Empty(t, user.Name, "name unknown when the lookup fails")
	assert.Equal(t, claims.UserID, user.ID)
	assert.Equal(t, model.RoleDoctor, user.Role)
}

func TestProfileCachesLookups(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	created, err := svc.Signup(context.Background(), signupRequest("doctor", "asha@example.com"))
	require.NoError(t, err)

	claims := &auth.Claims{UserID: created.ID, Email: created.Email, Role: "doctor"}

	first := svc.Profile(context.Background(), claims)
	assert.Equal(t, "Dr. Asha Rao", first.Name)

	// A later backend failure is masked by the cache.
	repo.getErr = errors.New("store unavailable")
	second := svc.Profile(context.Background(), claims)
	assert.Equal(t, "Dr. Asha Rao", second.Name)
}

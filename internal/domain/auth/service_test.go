package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
)

type fakeUserRepo struct {
	users     map[id.ID]*User
	roles     map[id.ID][]string
	companies map[id.ID][]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[id.ID]*User),
		roles:     make(map[id.ID][]string),
		companies: make(map[id.ID][]string),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperror.NewDuplicate("user", "email", user.Email)
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	if u, ok := r.users[userID]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, apperror.NewNotFound("user", userID.String())
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperror.NewNotFound("user", user.ID.String())
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) LoadRoles(ctx context.Context, userID id.ID) ([]string, error) {
	return r.roles[userID], nil
}

func (r *fakeUserRepo) LoadCompanies(ctx context.Context, userID id.ID) ([]string, error) {
	return r.companies[userID], nil
}

func (r *fakeUserRepo) AttachCompany(ctx context.Context, userID, companyID id.ID) error {
	r.companies[userID] = append(r.companies[userID], companyID.String())
	return nil
}

type fakeTokenRepo struct {
	tokens map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (r *fakeTokenRepo) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	clone := *token
	r.tokens[token.TokenHash] = &clone
	return nil
}

func (r *fakeTokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	if t, ok := r.tokens[tokenHash]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, apperror.NewNotFound("refresh token", tokenHash)
}

func (r *fakeTokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	now := time.Now()
	for _, t := range r.tokens {
		if t.ID == tokenID {
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (r *fakeTokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *fakeUserRepo, *fakeTokenRepo) {
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	jwtService := NewJWTService(DefaultJWTConfig("test-secret"))
	svc := NewService(users, tokens, passthroughTxManager{}, jwtService, DefaultServiceConfig())
	return svc, users, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email:    "farmer@example.com",
		Password: "harvest-2026",
		FullName: "Test Farmer",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "harvest-2026", user.PasswordHash)

	companyID := id.New()
	require.NoError(t, users.AttachCompany(ctx, user.ID, companyID))

	tokens, loggedIn, err := svc.Login(ctx, Credentials{
		Email:    "farmer@example.com",
		Password: "harvest-2026",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, []string{companyID.String()}, loggedIn.CompanyIDs)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "dup@example.com", Password: "password-1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "dup@example.com", Password: "password-2"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "x@example.com", Password: "short"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestLoginWrongPasswordLocksAccount(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: "lock@example.com", Password: "correct-password"})
	require.NoError(t, err)

	for i := 0; i < DefaultServiceConfig().MaxLoginAttempts; i++ {
		_, _, err := svc.Login(ctx, Credentials{Email: "lock@example.com", Password: "wrong"})
		require.Error(t, err)
	}

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLocked())

	// Even the correct password is rejected while locked.
	_, _, err = svc.Login(ctx, Credentials{Email: "lock@example.com", Password: "correct-password"})
	require.Error(t, err)
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, _, tokenRepo := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "rotate@example.com", Password: "password-1"})
	require.NoError(t, err)

	tokens, _, err := svc.Login(ctx, Credentials{Email: "rotate@example.com", Password: "password-1"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked; replaying it fails.
	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	require.Error(t, err)

	revoked := 0
	for _, tok := range tokenRepo.tokens {
		if tok.RevokedAt != nil {
			revoked++
		}
	}
	assert.Equal(t, 1, revoked)
}

func TestLogoutRevokesAllTokens(t *testing.T) {
	svc, _, tokenRepo := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: "out@example.com", Password: "password-1"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, Credentials{Email: "out@example.com", Password: "password-1"})
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, Credentials{Email: "out@example.com", Password: "password-1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))

	for _, tok := range tokenRepo.tokens {
		assert.NotNil(t, tok.RevokedAt)
	}
}

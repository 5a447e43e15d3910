package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

// fakeUserStore keeps users in memory keyed by email.
type fakeUserStore struct {
	users  map[string]core.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]core.User), nextID: 1}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if _, exists := f.users[u.Email]; exists {
		return core.User{}, storage.ErrDuplicateEmail
	}
	u.ID = f.nextID
	f.nextID++
	u.CreatedAt = time.Now().UTC()
	f.users[u.Email] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, ok := f.users[email]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func newTestService() (*Service, *fakeUserStore) {
	store := newFakeUserStore()
	return NewService(store, "test-secret-test-secret", time.Hour), store
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22hunter22", hash)

	assert.True(t, CheckPassword(hash, "hunter22hunter22"))
	assert.False(t, CheckPassword(hash, "wrong password"))
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Ada ", "Ada@Example.COM", "long-enough-pw")
	require.NoError(t, err)

	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email) // normalized
	assert.Equal(t, core.RoleUser, u.Role)
	assert.NotEmpty(t, u.PasswordHash)

	_, err = svc.Register(ctx, "Ada Again", "ada@example.com", "long-enough-pw")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Register(ctx, "Ada", "ada@example.com", "short")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Register(ctx, "Ada", "no-at-sign", "long-enough-pw")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Register(ctx, "", "ada@example.com", "long-enough-pw")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Ada", "ada@example.com", "long-enough-pw")
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "ada@example.com", "long-enough-pw")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "long-enough-pw")
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "long-enough-pw")
	_, _, errWrongPw := svc.Login(ctx, "ada@example.com", "wrong password!")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	// Unknown email and wrong password are indistinguishable.
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc, _ := newTestService()
	other := NewService(newFakeUserStore(), "another-secret-entirely", time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "long-enough-pw")
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "ada@example.com", "long-enough-pw")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store, "test-secret-test-secret", -time.Minute)

	u, err := svc.Register(context.Background(), "Ada", "ada@example.com", "long-enough-pw")
	require.NoError(t, err)

	token, err := svc.IssueToken(u)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TTTT0803/VKUMentor-App/internal/repo"
)

type stubUsers struct {
	users map[string]repo.User
}

func (s *stubUsers) GetUserByEmail(ctx context.Context, email string) (repo.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return repo.User{}, repo.ErrNotFound
}

func (s *stubUsers) GetUserByID(ctx context.Context, uid string) (repo.User, error) {
	u, ok := s.users[uid]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return u, nil
}

func newStubUsers(t *testing.T) *stubUsers {
	t.Helper()
	hash, err := Hash("matkhau123")
	require.NoError(t, err)
	return &stubUsers{users: map[string]repo.User{
		"u1": {UID: "u1", Email: "mentee1@example.com", PasswordHash: hash},
	}}
}

func TestJWTRoundTrip(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("k", 32), time.Minute)

	token, jti, err := mgr.GenerateAccessToken("u1", "mentee1@example.com", "mentee")
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := mgr.ParseAndValidate(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, "mentee", claims.Role)

	other := NewJWTManager(strings.Repeat("x", 32), time.Minute)
	_, err = other.ParseAndValidate(token)
	require.Error(t, err)
}

func TestHashRejectsShortPassword(t *testing.T) {
	_, err := Hash("123")
	require.ErrorIs(t, err, ErrWeakPassword)
	require.False(t, Verify("anything", ""))
}

func TestProviderDeliversCurrentSessionOnRegister(t *testing.T) {
	p := NewLocalProvider(newStubUsers(t))

	var got []Session
	unsubscribe := p.OnSessionChange(func(s Session) { got = append(got, s) })
	defer unsubscribe()

	require.Equal(t, []Session{SignedOut}, got)
}

func TestProviderSignInAndOutNotifyInOrder(t *testing.T) {
	p := NewLocalProvider(newStubUsers(t))
	ctx := context.Background()

	var got []Session
	p.OnSessionChange(func(s Session) { got = append(got, s) })

	s, err := p.SignIn(ctx, " Mentee1@Example.com ", "matkhau123")
	require.NoError(t, err)
	require.True(t, s.SignedIn)
	require.NoError(t, p.SignOut(ctx))

	require.Equal(t, []Session{
		SignedOut,
		{UserID: "u1", Email: "mentee1@example.com", SignedIn: true},
		SignedOut,
	}, got)
	require.Equal(t, SignedOut, p.CurrentSession())
}

func TestProviderRejectsWrongPassword(t *testing.T) {
	p := NewLocalProvider(newStubUsers(t))

	_, err := p.SignIn(context.Background(), "mentee1@example.com", "sai-mat-khau")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.False(t, p.CurrentSession().SignedIn)

	_, err = p.SignIn(context.Background(), "khong-ton-tai@example.com", "matkhau123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProviderRefreshSignsOutRemovedUser(t *testing.T) {
	users := newStubUsers(t)
	p := NewLocalProvider(users)
	ctx := context.Background()

	_, err := p.SignIn(ctx, "mentee1@example.com", "matkhau123")
	require.NoError(t, err)

	delete(users.users, "u1")
	require.NoError(t, p.Refresh(ctx))
	require.False(t, p.CurrentSession().SignedIn)
}

package auth

import (
	"context"
	"testing"
	"time"

	"bookstore/internal/platform/crypto"
	"bookstore/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUsers struct {
	byEmail map[string]user.User
	byID    map[string]user.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{
		byEmail: make(map[string]user.User),
		byID:    make(map[string]user.User),
	}
}

func (m *memoryUsers) Create(_ context.Context, u *user.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return user.ErrAlreadyExists
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.byEmail[u.Email] = *u
	m.byID[u.ID] = *u
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) UpdateProfile(_ context.Context, id, firstName, lastName, email string) error {
	u, ok := m.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	delete(m.byEmail, u.Email)
	u.FirstName, u.LastName, u.Email = firstName, lastName, email
	m.byID[id] = u
	m.byEmail[email] = u
	return nil
}

func TestRegister_HashesPasswordAndIssuesToken(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService("secret", time.Hour, users)

	u, token, err := svc.Register(context.Background(), "reader", "reader@example.com", "Sup3rSecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.RoleUser, u.Role)

	stored := users.byEmail["reader@example.com"]
	assert.NotEqual(t, "Sup3rSecret", stored.Password, "password must be stored hashed")
	assert.True(t, crypto.VerifyPassword(stored.Password, "Sup3rSecret"))
}

func TestRegister_RejectsWeakPassword(t *testing.T) {
	svc := NewService("secret", time.Hour, newMemoryUsers())

	_, _, err := svc.Register(context.Background(), "reader", "reader@example.com", "short")
	assert.Error(t, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService("secret", time.Hour, users)

	_, _, err := svc.Register(context.Background(), "reader", "reader@example.com", "Sup3rSecret")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "other", "reader@example.com", "Sup3rSecret")
	assert.ErrorIs(t, err, user.ErrAlreadyExists)
}

func TestLogin_Roundtrip(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService("secret", time.Hour, users)

	_, _, err := svc.Register(context.Background(), "reader", "reader@example.com", "Sup3rSecret")
	require.NoError(t, err)

	u, token, err := svc.Login(context.Background(), "reader@example.com", "Sup3rSecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "reader", u.Username)

	claims, err := crypto.ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Sub)
	assert.Equal(t, user.RoleUser, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := newMemoryUsers()
	svc := NewService("secret", time.Hour, users)

	_, _, err := svc.Register(context.Background(), "reader", "reader@example.com", "Sup3rSecret")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "reader@example.com", "WrongPass1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := NewService("secret", time.Hour, newMemoryUsers())

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "Sup3rSecret")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

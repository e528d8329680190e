package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"Murmur/internal/core/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) Create(ctx context.Context, account *Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func TestAccountService_CreateAccount(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := NewService(repo, NewTokenIssuer(testSecret, time.Hour), nil)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *Account) bool {
		return a.Email == "a@x.com" && a.PasswordHash != "secret1" && CheckPasswordHash(a.PasswordHash, "secret1")
	})).Return(nil)

	result, err := svc.CreateAccount(context.Background(), " A@x.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.Identity("a@x.com"), result.Identity)
	assert.NotEmpty(t, result.AccessToken)

	identity, err := svc.VerifyToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.Identity("a@x.com"), identity)
	repo.AssertExpectations(t)
}

func TestAccountService_CreateAccount_Rejections(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := NewService(repo, NewTokenIssuer(testSecret, time.Hour), nil)

	_, err := svc.CreateAccount(context.Background(), "not-an-email", "secret1")
	var emailErr *InvalidEmailError
	assert.ErrorAs(t, err, &emailErr)

	_, err = svc.CreateAccount(context.Background(), "a@x.com", "123")
	var passErr *WeakPasswordError
	assert.ErrorAs(t, err, &passErr)
	assert.True(t, IsInputError(err))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	repo.On("Create", mock.Anything, mock.Anything).Return(ErrEmailTaken)
	_, err = svc.CreateAccount(context.Background(), "a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAccountService_SignIn(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	repo := new(mockAccountRepository)
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(&Account{Email: "a@x.com", PasswordHash: hash}, nil)
	repo.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, ErrAccountNotFound)
	repo.On("GetByEmail", mock.Anything, "err@x.com").Return(nil, errors.New("db down"))
	svc := NewService(repo, NewTokenIssuer(testSecret, time.Hour), nil)

	result, err := svc.SignIn(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.Identity("a@x.com"), result.Identity)

	_, err = svc.SignIn(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(context.Background(), "ghost@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(context.Background(), "err@x.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenIssuer_Verify(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute)

	token, _, err := issuer.Issue("a@x.com")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenIssuer("another-secret-another-secret-000", time.Minute).Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenIssuer(testSecret, time.Minute)
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err := later.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Issuer:    "murmur",
			Subject:   "a@x.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Verify(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("a@x.com"))
	assert.Error(t, ValidateEmail("a@x"))
	assert.Error(t, ValidateEmail("A <a@x.com>"))
	assert.Error(t, ValidateEmail(""))
}

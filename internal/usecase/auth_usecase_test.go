package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/sisaket-charity/go-backend/internal/auth"
	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	uc     *AuthUseCase
	users  *fakeUserRepo
	tokens *fakeTokenIssuer
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  newFakeUserRepo(),
		tokens: &fakeTokenIssuer{},
	}
	f.uc = NewAuthUC(f.users, f.tokens, noopLogger{})
	return f
}

func TestRegister_HappyPath(t *testing.T) {
	f := newAuthFixture()

	res, err := f.uc.Register(context.Background(), &RegisterReq{
		Name:     "somchai",
		Phone:    "0812345678",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "token-1", res.Token)
	assert.False(t, res.ExpiresAt.IsZero())
	assert.Equal(t, "somchai", res.User.Name)
	assert.Equal(t, domain.RoleCustomer, res.User.Role)
	// Хэш не должен утекать наружу
	assert.Empty(t, res.User.PasswordHash)

	stored := f.users.users["somchai"]
	require.NotNil(t, stored)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "correct-horse"))
}

func TestRegister_DuplicateName(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.Register(context.Background(), &RegisterReq{
		Name: "somchai", Phone: "081", Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = f.uc.Register(context.Background(), &RegisterReq{
		Name: "somchai", Phone: "082", Password: "another-pass",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, e.ErrUserAlreadyExists))
}

func TestRegister_Validation(t *testing.T) {
	f := newAuthFixture()

	testCases := []struct {
		name string
		req  *RegisterReq
	}{
		{"empty name", &RegisterReq{Name: " ", Phone: "081", Password: "correct-horse"}},
		{"empty phone", &RegisterReq{Name: "somchai", Phone: "", Password: "correct-horse"}},
		{"short password", &RegisterReq{Name: "somchai", Phone: "081", Password: "1234567"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Register(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, e.ErrValidation))
		})
	}
}

func TestLogin_HappyPath(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.Register(context.Background(), &RegisterReq{
		Name: "somchai", Phone: "081", Password: "correct-horse",
	})
	require.NoError(t, err)

	res, err := f.uc.Login(context.Background(), &LoginReq{Name: "somchai", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "somchai", res.User.Name)
	assert.Empty(t, res.User.PasswordHash)
	assert.Equal(t, 2, f.tokens.issued)
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.Login(context.Background(), &LoginReq{Name: "nobody", Password: "whatever1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, e.ErrInvalidCredentials))
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.Register(context.Background(), &RegisterReq{
		Name: "somchai", Phone: "081", Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = f.uc.Login(context.Background(), &LoginReq{Name: "somchai", Password: "wrong-horse"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, e.ErrInvalidCredentials))
}

package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/sisaket-charity/go-backend/internal/auth"
	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// AuthUseCase реализует регистрацию и вход пользователей.
type AuthUseCase struct {
	userRepo UserRepository
	tokens   TokenIssuer
	logger   logger.Logger
}

func NewAuthUC(userRepo UserRepository, tokens TokenIssuer, logger logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register создаёт учётную запись покупателя и сразу выдаёт токен.
func (a *AuthUseCase) Register(ctx context.Context, req *RegisterReq) (*AuthRes, error) {
	const op = "AuthUseCase.Register"

	if err := a.validateRegister(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user, err := a.userRepo.Create(ctx, domain.NewUser(req.Name, req.Phone, hash, domain.RoleCustomer))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return a.issueToken(op, user)
}

// Login проверяет пароль и выдаёт токен с ролью пользователя.
func (a *AuthUseCase) Login(ctx context.Context, req *LoginReq) (*AuthRes, error) {
	const op = "AuthUseCase.Login"

	user, err := a.userRepo.GetByName(ctx, req.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Не раскрываем, существует ли пользователь
			return nil, e.Wrap(op, e.ErrInvalidCredentials)
		}
		return nil, e.Wrap(op, err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	return a.issueToken(op, user)
}

func (a *AuthUseCase) issueToken(op string, user *domain.User) (*AuthRes, error) {
	token, expiresAt, err := a.tokens.Issue(user)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user.PasswordHash = ""
	return NewAuthRes(token, expiresAt, user), nil
}

func (a *AuthUseCase) validateRegister(req *RegisterReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return e.NewValidationError("phone", "is required")
	}
	if len(req.Password) < 8 {
		return e.NewValidationError("password", "must be at least 8 characters")
	}
	return nil
}

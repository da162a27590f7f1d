package pgdb

import (
	"context"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/internal/repository/pgdb/converter"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// UserRepo реализует репозиторий пользователей поверх PostgreSQL.
type UserRepo struct {
	pool *pgxpool.Pool
	conv converter.UserConverter
}

func NewUserRepo(pool *pgxpool.Pool, conv converter.UserConverter) *UserRepo {
	return &UserRepo{pool: pool, conv: conv}
}

const userColumns = `id, name, phone, password_hash, role, created_at`

// Create сохраняет нового пользователя; имя уникально.
func (u *UserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (name, phone, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns + `;
	`

	var model converter.UserModel
	err := u.pool.QueryRow(ctx, query, user.Name, user.Phone, user.PasswordHash, user.Role).Scan(
		&model.ID, &model.Name, &model.Phone, &model.PasswordHash, &model.Role, &model.CreatedAt,
	)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrUserAlreadyExists)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.conv.ToEntity(&model), nil
}

// GetByName возвращает пользователя по имени.
func (u *UserRepo) GetByName(ctx context.Context, name string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE name = $1;
	`

	var model converter.UserModel
	err := u.pool.QueryRow(ctx, query, name).Scan(
		&model.ID, &model.Name, &model.Phone, &model.PasswordHash, &model.Role, &model.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.conv.ToEntity(&model), nil
}

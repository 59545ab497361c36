package postgres

import (
	"context"
	"fmt"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/domain"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/database"
	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
)

const (
	insertUser = `INSERT INTO users (id, username, password_hash, roles, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	selectUser = `SELECT id::text, username, password_hash, roles, created_at, updated_at FROM users WHERE `
)

// UserRepository stores accounts in the users table. Usernames are unique
// through idx_users_username.
type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u. A taken username is reported as USERNAME_ALREADY_EXISTS.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateUser", insertUser)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, insertUser, u.ID, u.Username, u.PasswordHash, u.Roles, u.CreatedAt, u.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return apperrors.AlreadyExists("username")
	default:
		return fmt.Errorf("insert user: %w", err)
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "GetUserByID", "id = $1", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "GetUserByUsername", "username = $1", username)
}

// findOne loads the single user matching where. No row is USER_NOT_FOUND.
func (r *UserRepository) findOne(ctx context.Context, op, where string, arg any) (_ *domain.User, err error) {
	query := selectUser + where
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	u := new(domain.User)
	err = r.db.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

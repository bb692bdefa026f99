package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"chovha/internal/domain"
	"chovha/internal/repository"
)

const userColumns = `id, phone, first_name, last_name, email, user_type, is_verified, created_at`

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, phone, first_name, last_name, email, user_type, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Phone,
		user.FirstName,
		user.LastName,
		nullString(user.Email),
		user.UserType,
		user.IsVerified,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByPhone retrieves a user by phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return r.getOne(ctx, query, phone)
}

// GetByIDs retrieves every user whose ID is in ids.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	users := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users[user.ID] = user
	}
	return users, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(s scanner) (*domain.User, error) {
	var user domain.User
	var lastName, email sql.NullString

	if err := s.Scan(
		&user.ID,
		&user.Phone,
		&user.FirstName,
		&lastName,
		&email,
		&user.UserType,
		&user.IsVerified,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}

	user.LastName = lastName.String
	user.Email = email.String
	return &user, nil
}

// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/domain/auth"
	"agrichain/internal/infrastructure/storage/postgres"
)

const (
	usersTable         = "sys_users"
	userRolesTable     = "sys_user_roles"
	userCompaniesTable = "sys_user_companies"
)

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[auth.User](),
	}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	data := postgres.StructToMap(user)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder.Insert(usersTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("user", "email", user.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": userID}, userID.String())
}

// GetByEmail retrieves user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email}, email)
}

func (r *UserRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*auth.User, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(usersTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	user := &auth.User{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Update updates user data.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	data := postgres.StructToMap(user)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" || col == "created_at" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder.
		Update(usersTable).
		SetMap(filtered).
		Where(squirrel.Eq{"id": user.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID.String())
	}
	return nil
}

// Exists checks if email exists.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	sql := "SELECT EXISTS(SELECT 1 FROM " + usersTable + " WHERE email = $1)"

	var exists bool
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}
	return exists, nil
}

// LoadRoles loads user's role codes.
func (r *UserRepo) LoadRoles(ctx context.Context, userID id.ID) ([]string, error) {
	sql := "SELECT role_code FROM " + userRolesTable + " WHERE user_id = $1 ORDER BY role_code"

	var roles []string
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &roles, sql, userID); err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return roles, nil
}

// LoadCompanies loads IDs of companies the user's profile is attached to.
func (r *UserRepo) LoadCompanies(ctx context.Context, userID id.ID) ([]string, error) {
	sql := "SELECT company_id::text FROM " + userCompaniesTable + " WHERE user_id = $1 ORDER BY company_id"

	var companies []string
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &companies, sql, userID); err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}
	return companies, nil
}

// AttachCompany links the user to a company.
func (r *UserRepo) AttachCompany(ctx context.Context, userID, companyID id.ID) error {
	sql := `
		INSERT INTO ` + userCompaniesTable + ` (user_id, company_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, company_id) DO NOTHING
	`
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, userID, companyID); err != nil {
		return fmt.Errorf("attach company: %w", err)
	}
	return nil
}

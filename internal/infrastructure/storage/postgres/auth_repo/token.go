package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/domain/auth"
	"agrichain/internal/infrastructure/storage/postgres"
)

const tokensTable = "sys_refresh_tokens"

var _ auth.TokenRepository = (*TokenRepo)(nil)

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewTokenRepo creates a new token repository.
func NewTokenRepo(txManager *postgres.TxManager) *TokenRepo {
	return &TokenRepo{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[auth.RefreshToken](),
	}
}

// SaveRefreshToken saves a refresh token.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	data := postgres.StructToMap(token)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder.Insert(tokensTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetRefreshToken retrieves refresh token by hash.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(tokensTable).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	token := &auth.RefreshToken{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, token, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("refresh token", "hash")
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

// RevokeRefreshToken revokes a refresh token.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	return r.revoke(ctx, squirrel.Eq{"id": tokenID}, reason)
}

// RevokeAllUserTokens revokes all tokens for a user.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	return r.revoke(ctx, squirrel.Eq{"user_id": userID}, reason)
}

func (r *TokenRepo) revoke(ctx context.Context, where squirrel.Eq, reason string) error {
	q := r.builder.
		Update(tokensTable).
		Set("revoked_at", time.Now().UTC()).
		Set("revoked_reason", reason).
		Where(where).
		Where(squirrel.Eq{"revoked_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

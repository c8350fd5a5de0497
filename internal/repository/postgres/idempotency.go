package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/pkg/errors"
)

type idempotencyKeyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIdempotencyKeyRepository creates the store of Idempotency-Key headers seen on order placement
func NewIdempotencyKeyRepository(db *sql.DB, logger *zap.Logger) *idempotencyKeyRepository {
	return &idempotencyKeyRepository{db: db, logger: logger}
}

// GetByKey returns nil without error for a key never seen
func (r *idempotencyKeyRepository) GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	query := `SELECT ` + idempotencyKeyColumns + ` FROM idempotency_keys WHERE key = $1`

	found, err := scanIdempotencyKey(r.db.QueryRowContext(ctx, query, key))
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		r.logger.Error("Failed to look up idempotency key", zap.Error(err))
		return nil, err
	}
	return found, nil
}

func (r *idempotencyKeyRepository) Create(ctx context.Context, key *domain.IdempotencyKey) error {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = domain.Stamp(time.Now())
	}

	query := `INSERT INTO idempotency_keys (` + idempotencyKeyColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, key.Key, key.AccountEmail, key.OrderID, key.RequestHash, key.CreatedAt)
	if isUniqueViolation(err) {
		return &errors.ErrConflict{Message: "idempotency key already used"}
	}
	if err != nil {
		r.logger.Error("Failed to store idempotency key", zap.String("order_id", key.OrderID.String()), zap.Error(err))
		return err
	}
	return nil
}

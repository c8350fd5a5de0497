package mongo

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/pkg/errors"
)

type idempotencyKeyRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewIdempotencyKeyRepository creates a new idempotency key repository
func NewIdempotencyKeyRepository(db *mongo.Database, logger *zap.Logger) *idempotencyKeyRepository {
	return &idempotencyKeyRepository{
		coll:   db.Collection(idempotencyKeysCollection),
		logger: logger,
	}
}

func (r *idempotencyKeyRepository) GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	var doc idempotencyKeyDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get idempotency key", zap.Error(err))
		return nil, err
	}

	orderID, err := uuid.Parse(doc.OrderID)
	if err != nil {
		return nil, err
	}
	return &domain.IdempotencyKey{
		Key:          doc.Key,
		AccountEmail: doc.AccountEmail,
		OrderID:      orderID,
		RequestHash:  doc.RequestHash,
		CreatedAt:    doc.CreatedAt.UTC(),
	}, nil
}

func (r *idempotencyKeyRepository) Create(ctx context.Context, key *domain.IdempotencyKey) error {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	_, err := r.coll.InsertOne(ctx, idempotencyKeyDocument{
		Key:          key.Key,
		AccountEmail: key.AccountEmail,
		OrderID:      key.OrderID.String(),
		RequestHash:  key.RequestHash,
		CreatedAt:    key.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return &errors.ErrConflict{Message: "idempotency key already used"}
	}
	if err != nil {
		r.logger.Error("Failed to create idempotency key", zap.Error(err))
		return err
	}
	return nil
}

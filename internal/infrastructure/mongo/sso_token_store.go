package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

var _ repository.SSOTokenRepository = (*SSOTokenStore)(nil)

const ssoTokensCollection = "sso_tokens"

type ssoTokenDoc struct {
	ID        string     `bson:"_id"`
	UserID    string     `bson:"user_id"`
	TargetApp string     `bson:"target_app"`
	TokenHash string     `bson:"token_hash"`
	Nonce     string     `bson:"nonce"`
	ExpiresAt time.Time  `bson:"expires_at"`
	UsedAt    *time.Time `bson:"used_at"`
	IPAddress string     `bson:"ip_address,omitempty"`
	UserAgent string     `bson:"user_agent,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
}

func toDoc(t *entity.SSOToken) ssoTokenDoc {
	return ssoTokenDoc{
		ID: t.ID, UserID: t.UserID, TargetApp: t.TargetApp, TokenHash: t.TokenHash, Nonce: t.Nonce,
		ExpiresAt: t.ExpiresAt.UTC(), UsedAt: t.UsedAt, IPAddress: t.IPAddress, UserAgent: t.UserAgent,
		CreatedAt: t.CreatedAt.UTC(),
	}
}

func (d ssoTokenDoc) entity() *entity.SSOToken {
	return &entity.SSOToken{
		ID: d.ID, UserID: d.UserID, TargetApp: d.TargetApp, TokenHash: d.TokenHash, Nonce: d.Nonce,
		ExpiresAt: d.ExpiresAt, UsedAt: d.UsedAt, IPAddress: d.IPAddress, UserAgent: d.UserAgent,
		CreatedAt: d.CreatedAt,
	}
}

// SSOTokenStore tokens SSO en MongoDB. La purga la hace el índice TTL sobre expires_at.
type SSOTokenStore struct {
	coll *mongo.Collection
}

// NewSSOTokenStore crea los índices (token_hash único, TTL) y devuelve el almacén.
func NewSSOTokenStore(ctx context.Context, db *mongo.Database, retention time.Duration) (*SSOTokenStore, error) {
	coll := db.Collection(ssoTokensCollection)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_token_hash"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())).SetName("ttl_expires_at"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("crear índices sso_tokens: %w", err)
	}
	return &SSOTokenStore{coll: coll}, nil
}

// Create inserta el documento del token.
func (s *SSOTokenStore) Create(ctx context.Context, t *entity.SSOToken) error {
	if _, err := s.coll.InsertOne(ctx, toDoc(t)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sso token: %w", err)
	}
	return nil
}

// FindByHash nil si no existe.
func (s *SSOTokenStore) FindByHash(ctx context.Context, tokenHash string) (*entity.SSOToken, error) {
	var doc ssoTokenDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "token_hash", Value: tokenHash}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sso token: %w", err)
	}
	return doc.entity(), nil
}

// ConsumeUnused FindOneAndUpdate condicional: un solo documento puede pasar de used_at nulo a fecha.
func (s *SSOTokenStore) ConsumeUnused(ctx context.Context, tokenHash string, now time.Time) (*entity.SSOToken, error) {
	filter := bson.D{
		{Key: "token_hash", Value: tokenHash},
		{Key: "used_at", Value: nil},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "used_at", Value: now.UTC()}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc ssoTokenDoc
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume sso token: %w", err)
	}
	return doc.entity(), nil
}

// DeleteExpiredBefore purga explícita; normalmente el TTL ya lo hizo.
func (s *SSOTokenStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: cutoff.UTC()}}}})
	if err != nil {
		return 0, fmt.Errorf("delete expired sso tokens: %w", err)
	}
	return res.DeletedCount, nil
}

package credential

import (
	"context"
	"errors"
	"time"

	"attendance-svc/src/clients"
	"attendance-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, cred *Credential) error
	GetByID(ctx context.Context, id string) (*Credential, error)
	GetByCode(ctx context.Context, code string) (*Credential, error)
	ToggleLock(ctx context.Context, id string) (*Credential, error)
	LockExpired(ctx context.Context, now time.Time) (int64, error)
	GetAll(ctx context.Context) ([]*Credential, error)
	Delete(ctx context.Context, id string) error
	CountActive(ctx context.Context, now time.Time) (int64, error)
	CountLocked(ctx context.Context) (int64, error)
	CountExpired(ctx context.Context, now time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type credentialRepository struct {
	collection *mongo.Collection
}

func NewCredentialRepository(db *clients.MongoDB, collectionName string) Repository {
	return &credentialRepository{
		collection: db.Database.Collection(collectionName),
	}
}

func (r *credentialRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "valid_until", Value: 1}},
		},
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to ensure credential indexes")
	}
	return err
}

func (r *credentialRepository) Insert(ctx context.Context, cred *Credential) error {
	result, err := r.collection.InsertOne(ctx, cred)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateRecord
		}
		logrus.WithError(err).Error("Failed to insert credential")
		return models.ErrDatabaseInsert
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		cred.ID = oid
	}
	return nil
}

func (r *credentialRepository) GetByID(ctx context.Context, id string) (*Credential, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	var cred Credential
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		logrus.WithError(err).WithField("credential_id", id).Error("Failed to get credential")
		return nil, models.ErrDatabaseQuery
	}

	return &cred, nil
}

func (r *credentialRepository) GetByCode(ctx context.Context, code string) (*Credential, error) {
	var cred Credential
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		logrus.WithError(err).Error("Failed to get credential by code")
		return nil, models.ErrDatabaseQuery
	}

	return &cred, nil
}

// ToggleLock flips the locked flag in a single server-side update so
// concurrent toggles and sweeps serialize per document.
func (r *credentialRepository) ToggleLock(ctx context.Context, id string) (*Credential, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"locked": bson.M{"$not": "$locked"}}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var cred Credential
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		logrus.WithError(err).WithField("credential_id", id).Error("Failed to toggle credential lock")
		return nil, models.ErrDatabaseUpdate
	}

	return &cred, nil
}

// LockExpired batch-locks every unlocked credential past its validity window.
// The filter makes concurrent sweeps idempotent.
func (r *credentialRepository) LockExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"locked":      false,
		"valid_until": bson.M{"$lt": now},
	}
	update := bson.M{"$set": bson.M{"locked": true}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).Error("Failed to lock expired credentials")
		return 0, models.ErrDatabaseUpdate
	}

	return result.ModifiedCount, nil
}

func (r *credentialRepository) GetAll(ctx context.Context) ([]*Credential, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find credentials")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var creds []*Credential
	for cursor.Next(ctx) {
		var cred Credential
		if err := cursor.Decode(&cred); err != nil {
			logrus.WithError(err).Error("Failed to decode credential")
			continue
		}
		creds = append(creds, &cred)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return creds, nil
}

func (r *credentialRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		logrus.WithError(err).WithField("credential_id", id).Error("Failed to delete credential")
		return models.ErrDatabaseDelete
	}

	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *credentialRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	return r.count(ctx, bson.M{
		"locked":      false,
		"valid_until": bson.M{"$gte": now},
	})
}

func (r *credentialRepository) CountLocked(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{"locked": true})
}

func (r *credentialRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.count(ctx, bson.M{"valid_until": bson.M{"$lt": now}})
}

func (r *credentialRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count credentials")
		return 0, models.ErrDatabaseQuery
	}
	return count, nil
}

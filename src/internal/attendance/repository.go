package attendance

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
	Insert(ctx context.Context, session *WorkSession) error
	// FindOpen returns the newest CHECKED_IN session for the employee, or
	// nil when there is none.
	FindOpen(ctx context.Context, employeeID string) (*WorkSession, error)
	// Close sets check_out and flips status on an open session. Returns nil
	// when the session is no longer open.
	Close(ctx context.Context, id primitive.ObjectID, checkOut time.Time) (*WorkSession, error)
	FindRecentClosed(ctx context.Context, employeeID string, limit int) ([]*WorkSession, error)
	FindClosedByCheckInRange(ctx context.Context, employeeID string, from, to time.Time) ([]*WorkSession, error)
	CountOpen(ctx context.Context) (int64, error)
	CountClosedByCheckInRange(ctx context.Context, from, to time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type sessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(db *clients.MongoDB, collectionName string) Repository {
	return &sessionRepository{
		collection: db.Database.Collection(collectionName),
	}
}

// EnsureIndexes creates the partial unique index that enforces at most one
// open session per employee at the storage level, covering multi-process
// deployments where the in-process lock cannot.
func (r *sessionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "employee_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": StatusCheckedIn}),
		},
		{
			Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "check_in", Value: -1}},
		},
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to ensure session indexes")
	}
	return err
}

func (r *sessionRepository) Insert(ctx context.Context, session *WorkSession) error {
	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateRecord
		}
		logrus.WithError(err).WithField("employee_id", session.EmployeeID).Error("Failed to insert work session")
		return models.ErrDatabaseInsert
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid
	}
	return nil
}

func (r *sessionRepository) FindOpen(ctx context.Context, employeeID string) (*WorkSession, error) {
	filter := bson.M{
		"employee_id": employeeID,
		"status":      StatusCheckedIn,
	}
	// Newest first, defensive against anomalies that left more than one open.
	opts := options.FindOne().SetSort(bson.M{"check_in": -1})

	var session WorkSession
	err := r.collection.FindOne(ctx, filter, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logrus.WithError(err).WithField("employee_id", employeeID).Error("Failed to find open session")
		return nil, models.ErrDatabaseQuery
	}

	return &session, nil
}

func (r *sessionRepository) Close(ctx context.Context, id primitive.ObjectID, checkOut time.Time) (*WorkSession, error) {
	filter := bson.M{
		"_id":    id,
		"status": StatusCheckedIn,
	}
	update := bson.M{"$set": bson.M{
		"check_out": checkOut,
		"status":    StatusCheckedOut,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session WorkSession
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logrus.WithError(err).WithField("session_id", id.Hex()).Error("Failed to close work session")
		return nil, models.ErrDatabaseUpdate
	}

	return &session, nil
}

func (r *sessionRepository) FindRecentClosed(ctx context.Context, employeeID string, limit int) ([]*WorkSession, error) {
	filter := bson.M{
		"employee_id": employeeID,
		"status":      StatusCheckedOut,
		"check_out":   bson.M{"$ne": nil},
	}
	opts := options.Find().
		SetSort(bson.M{"check_out": -1}).
		SetLimit(int64(limit))

	return r.find(ctx, filter, opts)
}

func (r *sessionRepository) FindClosedByCheckInRange(ctx context.Context, employeeID string, from, to time.Time) ([]*WorkSession, error) {
	filter := bson.M{
		"employee_id": employeeID,
		"status":      StatusCheckedOut,
		"check_in":    bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.M{"check_in": 1})

	return r.find(ctx, filter, opts)
}

func (r *sessionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*WorkSession, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find work sessions")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var sessions []*WorkSession
	for cursor.Next(ctx) {
		var session WorkSession
		if err := cursor.Decode(&session); err != nil {
			logrus.WithError(err).Error("Failed to decode work session")
			continue
		}
		sessions = append(sessions, &session)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return sessions, nil
}

func (r *sessionRepository) CountOpen(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{"status": StatusCheckedIn})
}

func (r *sessionRepository) CountClosedByCheckInRange(ctx context.Context, from, to time.Time) (int64, error) {
	return r.count(ctx, bson.M{
		"status":   StatusCheckedOut,
		"check_in": bson.M{"$gte": from, "$lt": to},
	})
}

func (r *sessionRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count work sessions")
		return 0, models.ErrDatabaseQuery
	}
	return count, nil
}

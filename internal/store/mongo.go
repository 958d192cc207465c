package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/niramoy/health-assistant/internal/model"
)

const (
	chatHistoryCollection   = "chat_history"
	healthHistoryCollection = "health_history"
	userSessionsCollection  = "user_sessions"
)

// MongoStore persists sessions and health records in MongoDB.
type MongoStore struct {
	client   *mongo.Client
	chats    *mongo.Collection
	health   *mongo.Collection
	activity *mongo.Collection
}

// NewMongoStore connects to MongoDB and ensures indexes exist.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		chats:    db.Collection(chatHistoryCollection),
		health:   db.Collection(healthHistoryCollection),
		activity: db.Collection(userSessionsCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	if _, err := s.chats.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create chat history indexes: %w", err)
	}

	if _, err := s.health.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "record_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create health history indexes: %w", err)
	}

	if _, err := s.activity.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "last_activity", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create user session indexes: %w", err)
	}

	return nil
}

// CreateSession inserts an empty chat history document and its activity row.
func (s *MongoStore) CreateSession(ctx context.Context, sessionID, userID string, sessionType model.SessionType) (string, error) {
	now := time.Now().UTC()

	sess := model.Session{
		SessionID: sessionID,
		UserID:    userID,
		Type:      sessionType,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.chats.InsertOne(ctx, sess); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrSessionExists
		}
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	act := model.UserSession{
		SessionID:    sessionID,
		UserID:       userID,
		IsGuest:      userID == "",
		LastActivity: now,
		CreatedAt:    now,
	}
	if _, err := s.activity.InsertOne(ctx, act); err != nil && !mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("failed to insert user session: %w", err)
	}

	return sessionID, nil
}

// AppendMessage pushes a message onto the session's embedded message array.
func (s *MongoStore) AppendMessage(ctx context.Context, sessionID string, msg model.Message) (string, error) {
	now := time.Now().UTC()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}

	res, err := s.chats.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$push": bson.M{"messages": msg},
			"$set":  bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to append message: %w", err)
	}
	if res.MatchedCount == 0 {
		return "", ErrSessionNotFound
	}

	if _, err := s.activity.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"last_activity": now}},
	); err != nil {
		return "", fmt.Errorf("failed to update session activity: %w", err)
	}

	return sessionID, nil
}

// GetSession loads a session by identifier.
func (s *MongoStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var sess model.Session
	err := s.chats.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// ListUserSessions returns the user's sessions, newest first.
func (s *MongoStore) ListUserSessions(ctx context.Context, userID string, sessionType model.SessionType) ([]model.Session, error) {
	filter := bson.M{"user_id": userID}
	if sessionType != "" {
		filter["type"] = sessionType
	}

	cursor, err := s.chats.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var sessions []model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}

// AddRecord inserts a health record.
func (s *MongoStore) AddRecord(ctx context.Context, rec *model.HealthRecord) (string, error) {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.Must(uuid.NewV7()).String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	if _, err := s.health.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to insert health record: %w", err)
	}
	return rec.ID, nil
}

// UpdateRecord patches a record owned by userID.
func (s *MongoStore) UpdateRecord(ctx context.Context, userID, recordID string, req *model.UpdateHealthRecordRequest) (*model.HealthRecord, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Data != nil {
		set["data"] = req.Data
	}

	var rec model.HealthRecord
	err := s.health.FindOneAndUpdate(ctx,
		bson.M{"record_id": recordID, "user_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update health record: %w", err)
	}
	return &rec, nil
}

// DeleteRecord removes a record owned by userID.
func (s *MongoStore) DeleteRecord(ctx context.Context, userID, recordID string) error {
	res, err := s.health.DeleteOne(ctx, bson.M{"record_id": recordID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete health record: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListRecords returns the user's records, newest first.
func (s *MongoStore) ListRecords(ctx context.Context, userID string, recordType model.RecordType, limit int) ([]model.HealthRecord, error) {
	filter := bson.M{"user_id": userID}
	if recordType != "" {
		filter["type"] = recordType
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.health.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list health records: %w", err)
	}

	var records []model.HealthRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode health records: %w", err)
	}
	return records, nil
}

// Ping checks connectivity.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

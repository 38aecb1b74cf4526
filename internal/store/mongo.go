package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"meduhub/internal/domain"
)

// registrationDocument is the stored shape of a registration
type registrationDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Phone       string             `bson:"phone"`
	Email       string             `bson:"email"`
	State       string             `bson:"state"`
	City        string             `bson:"city"`
	InquiryType string             `bson:"inquiryType"`
	CreatedAt   time.Time          `bson:"createdAt"`
	Status      string             `bson:"status"`
	Notes       string             `bson:"notes"`
}

func (d registrationDocument) toDomain() domain.Registration {
	return domain.Registration{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Phone:       d.Phone,
		Email:       d.Email,
		State:       d.State,
		City:        d.City,
		InquiryType: domain.InquiryType(d.InquiryType),
		CreatedAt:   d.CreatedAt.UTC(),
		Status:      domain.Status(d.Status),
		Notes:       d.Notes,
	}
}

// MongoStore keeps registrations in a MongoDB collection
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	clock      Clock
}

// NewMongoStore creates a store over the named collection. A nil clock
// means SystemClock.
func NewMongoStore(client *mongo.Client, database, collection string, clock Clock) *MongoStore {
	if clock == nil {
		clock = SystemClock
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		clock:      clock,
	}
}

// EnsureIndexes creates the createdAt, email and phone indexes
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "phone", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create registration indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, reg *domain.Registration) (string, error) {
	reg.ApplyDefaults()
	// Mongo keeps millisecond precision
	reg.CreatedAt = s.clock().UTC().Truncate(time.Millisecond)

	doc := registrationDocument{
		ID:          primitive.NewObjectID(),
		Name:        reg.Name,
		Phone:       reg.Phone,
		Email:       reg.Email,
		State:       reg.State,
		City:        reg.City,
		InquiryType: string(reg.InquiryType),
		CreatedAt:   reg.CreatedAt,
		Status:      string(reg.Status),
		Notes:       reg.Notes,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert registration: %w", err)
	}

	reg.ID = doc.ID.Hex()
	return reg.ID, nil
}

func (s *MongoStore) ExistsRecent(ctx context.Context, phone, email string, since time.Time) (bool, error) {
	filter := bson.M{
		"$or":       bson.A{bson.M{"phone": phone}, bson.M{"email": email}},
		"createdAt": bson.M{"$gte": since.UTC()},
	}
	err := s.collection.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query recent registrations: %w", err)
	}
	return true, nil
}

func (s *MongoStore) FindMany(ctx context.Context, filter domain.Filter, page domain.Page) ([]domain.Registration, int64, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}
	if filter.InquiryType != nil {
		query["inquiryType"] = string(*filter.InquiryType)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch registrations: %w", err)
	}
	var docs []registrationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode registrations: %w", err)
	}

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	registrations := make([]domain.Registration, 0, len(docs))
	for _, d := range docs {
		registrations = append(registrations, d.toDomain())
	}
	return registrations, total, nil
}

func (s *MongoStore) UpdateByID(ctx context.Context, id string, upd domain.Update) (*domain.Registration, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc registrationDocument
	if upd.Empty() {
		err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	} else {
		set := bson.M{}
		if upd.Status != nil {
			set["status"] = string(*upd.Status)
		}
		if upd.Notes != nil {
			set["notes"] = *upd.Notes
		}
		err = s.collection.FindOneAndUpdate(ctx,
			bson.M{"_id": oid},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}

	reg := doc.toDomain()
	return &reg, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

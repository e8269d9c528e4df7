// Package mongostore implements store.Store on MongoDB.
//
// Each tarea is one document in a single collection; ids are BSON ObjectIDs
// generated client-side on save.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/deppfellow/tareas/internal/config"
	"github.com/deppfellow/tareas/internal/model"
	"github.com/deppfellow/tareas/internal/store"
)

// PingTimeout bounds the connectivity check performed by New.
const PingTimeout = 10 * time.Second

// tareaDocument is the BSON shape of a stored tarea.
type tareaDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Description string             `bson:"description"`
	Status      string             `bson:"status"`
	Date        *time.Time         `bson:"date,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d tareaDocument) toModel() model.Tarea {
	tarea := model.Tarea{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Status:      model.Status(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
	}
	if d.Date != nil {
		date := d.Date.UTC()
		tarea.Date = &date
	}
	return tarea
}

// Store is a MongoDB-backed store.Store.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// New connects to MongoDB, pings it and returns the store.
//
// In the local env every command is logged at debug level; in every env
// commands slower than the configured threshold are logged as warnings.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Store, error) {
	mongoCfg := cfg.Store.Mongo

	clientOptions := options.Client().
		ApplyURI(mongoCfg.URI).
		SetAppName(config.ServiceName).
		SetMonitor(newCommandMonitor(logger, cfg.Primary.Env == "local", cfg.Observability.Logging.SlowQueryThreshold))

	if mongoCfg.ConnectTimeout > 0 {
		clientOptions.SetConnectTimeout(time.Duration(mongoCfg.ConnectTimeout) * time.Second)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info().
		Str("database", mongoCfg.Database).
		Str("collection", mongoCfg.Collection).
		Msg("connected to mongo")

	return NewWithClient(client, mongoCfg.Database, mongoCfg.Collection, logger), nil
}

// NewWithClient wraps an already connected client.
func NewWithClient(client *mongo.Client, database, collection string, logger *zerolog.Logger) *Store {
	return &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
		log:        logger,
	}
}

func (s *Store) Save(ctx context.Context, tarea *model.Tarea) error {
	doc := tareaDocument{
		ID:          primitive.NewObjectID(),
		Description: tarea.Description,
		Status:      string(tarea.Status),
		Date:        tarea.Date,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return err
	}

	tarea.ID = doc.ID.Hex()
	tarea.CreatedAt = doc.CreatedAt
	return nil
}

func (s *Store) FindAll(ctx context.Context) ([]model.Tarea, error) {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}

	var docs []tareaDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	tareas := make([]model.Tarea, 0, len(docs))
	for _, doc := range docs {
		tareas = append(tareas, doc.toModel())
	}
	return tareas, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.Tarea, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNoDocument
	}
	return s.findOne(ctx, bson.M{"_id": oid}, options.FindOne())
}

// Latest returns the last document in natural (insertion) order.
func (s *Store) Latest(ctx context.Context) (*model.Tarea, error) {
	return s.findOne(ctx, bson.D{}, options.FindOne().SetSort(bson.D{{Key: "$natural", Value: -1}}))
}

func (s *Store) findOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (*model.Tarea, error) {
	var doc tareaDocument
	err := s.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNoDocument
	}
	if err != nil {
		return nil, err
	}

	tarea := doc.toModel()
	return &tarea, nil
}

func (s *Store) UpdateOne(ctx context.Context, id string, update store.Update) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	set := bson.M{"date": update.Date}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Status != nil {
		set["status"] = string(*update.Status)
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	s.log.Info().Msg("closing mongo connection")
	return s.client.Disconnect(ctx)
}

// newCommandMonitor logs driver commands through zerolog.
func newCommandMonitor(logger *zerolog.Logger, verbose bool, slowThreshold time.Duration) *event.CommandMonitor {
	finished := func(e event.CommandFinishedEvent, err error) {
		switch {
		case err != nil:
			logger.Error().
				Err(err).
				Str("command", e.CommandName).
				Int64("request_id", e.RequestID).
				Dur("duration", e.Duration).
				Msg("mongo command failed")
		case slowThreshold > 0 && e.Duration > slowThreshold:
			logger.Warn().
				Str("command", e.CommandName).
				Int64("request_id", e.RequestID).
				Dur("duration", e.Duration).
				Msg("slow mongo command")
		case verbose:
			logger.Debug().
				Str("command", e.CommandName).
				Int64("request_id", e.RequestID).
				Dur("duration", e.Duration).
				Msg("mongo command")
		}
	}

	return &event.CommandMonitor{
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			finished(e.CommandFinishedEvent, nil)
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			finished(e.CommandFinishedEvent, errors.New(e.Failure))
		},
	}
}

// Package mongostore persists groups in a MongoDB collection, one document
// per group keyed by the group ID.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/pipegraph/pkg/group"
)

const (
	DefaultDatabase   = "pipegraph"
	DefaultCollection = "groups"
)

// Config describes the MongoDB connection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// document is the BSON layout of a stored group.
type document struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	Color       string    `bson:"color"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toDocument(g group.Group) document {
	return document{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Color:       g.Color,
		CreatedAt:   g.CreatedAt.UTC(),
		UpdatedAt:   g.UpdatedAt.UTC(),
	}
}

func fromDocument(d document) group.Group {
	return group.Group{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Color:       d.Color,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// collection is the subset of *mongo.Collection the store uses.
type collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	ReplaceOne(ctx context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// Store implements group.Store on top of a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   collection
}

// New connects to MongoDB and pings the server once.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Load reads every group ordered by creation time.
func (s *Store) Load(ctx context.Context) ([]group.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "name", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find groups: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	groups := make([]group.Group, 0, len(docs))
	for _, d := range docs {
		groups = append(groups, fromDocument(d))
	}
	return groups, nil
}

// Save removes documents of groups no longer in the set, then upserts
// every group. A failed stale delete leaves the collection untouched.
func (s *Store) Save(ctx context.Context, groups []group.Group) error {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	if _, err := s.coll.DeleteMany(ctx, staleFilter(ids)); err != nil {
		return fmt.Errorf("remove stale groups: %w", err)
	}
	for _, g := range groups {
		doc := toDocument(g)
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("save group %s: %w", g.ID, err)
		}
	}
	return nil
}

// staleFilter matches documents whose ID is not in ids.
func staleFilter(ids []string) bson.M {
	return bson.M{"_id": bson.M{"$nin": ids}}
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ group.Store = (*Store)(nil)

package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/store"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	defaultDBName   = "lms"

	indexTimeout = 30 * time.Second
)

// Store is a thin adapter over a MongoDB database holding the users
// collection.
type Store struct {
	client *mongodriver.Client
	db     *mongodriver.Database
	users  *mongodriver.Collection
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// New connects to MongoDB and pings the primary. The database name comes
// from the URI path, falling back to "lms".
func New(ctx context.Context, uri string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(uri))
	return &Store{
		client: cli,
		db:     db,
		users:  db.Collection(usersCollection),
		now:    time.Now,
	}, nil
}

func (s *Store) Users() store.Users { return &usersRepo{coll: s.users, now: s.now} }

// ApplyMigrations ensures the indexes the users collection relies on:
//   - unique email, which makes concurrent activations of one address safe
//   - created_at descending for the admin user list
func (s *Store) ApplyMigrations() error {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	}

	if _, err := s.users.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// databaseFromURI extracts the database name from the mongodb URI path.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}

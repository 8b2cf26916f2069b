package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/internal/lms/store"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type usersRepo struct {
	coll *mongodriver.Collection
	now  func() time.Time
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongodriver.ErrNoDocuments):
		return store.ErrNotFound
	case mongodriver.IsDuplicateKeyError(err):
		return store.ErrAlreadyExists
	default:
		return err
	}
}

func normalise(u domain.User) domain.User {
	if u.Courses == nil {
		u.Courses = []domain.CourseRef{}
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u
}

func (r *usersRepo) findOne(ctx context.Context, filter bson.D) (domain.User, error) {
	var u domain.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return domain.User{}, mapErr(err)
	}
	return normalise(u), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := r.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Courses == nil {
		u.Courses = []domain.CourseRef{}
	}

	_, err := r.coll.InsertOne(ctx, u)
	return mapErr(err)
}

// update applies $set to one user and reports ErrNotFound when nothing matched.
func (r *usersRepo) update(ctx context.Context, userID string, set bson.D) error {
	set = append(set, bson.E{Key: "updated_at", Value: r.now().UTC()})

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID string, p store.ProfileUpdate) error {
	set := bson.D{}
	if p.Name != "" {
		set = append(set, bson.E{Key: "name", Value: p.Name})
	}
	if p.Email != "" {
		set = append(set, bson.E{Key: "email", Value: p.Email})
	}
	return r.update(ctx, userID, set)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return r.update(ctx, userID, bson.D{{Key: "password_hash", Value: newHash}})
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role string) error {
	return r.update(ctx, userID, bson.D{{Key: "role", Value: role}})
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []domain.User{}
	for cur.Next(ctx) {
		var u domain.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		users = append(users, normalise(u))
	}
	return users, cur.Err()
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: userID}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

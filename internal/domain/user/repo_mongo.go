package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/docstore"
)

// caseInsensitive matches the collation of the unique email and username
// indexes.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type userDoc struct {
	ID            string    `bson:"_id"`
	Username      string    `bson:"username"`
	Email         string    `bson:"email"`
	PasswordHash  string    `bson:"password_hash"`
	Role          string    `bson:"role"`
	FirstName     string    `bson:"first_name,omitempty"`
	LastName      string    `bson:"last_name,omitempty"`
	ContactNumber string    `bson:"contact_number,omitempty"`
	Active        bool      `bson:"active"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toDoc(u *User) userDoc {
	return userDoc{
		ID: u.ID, Username: u.Username, Email: u.Email, PasswordHash: u.PasswordHash,
		Role: u.Role, FirstName: u.FirstName, LastName: u.LastName,
		ContactNumber: u.ContactNumber, Active: u.Active,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func fromDoc(d userDoc) *User {
	return &User{
		ID: d.ID, Username: d.Username, Email: d.Email, PasswordHash: d.PasswordHash,
		Role: d.Role, FirstName: d.FirstName, LastName: d.LastName,
		ContactNumber: d.ContactNumber, Active: d.Active,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type mongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(docstore.Users)}
}

func duplicateErr(u *User, err error) error {
	if strings.Contains(err.Error(), "username") {
		return apperr.Conflict("username %s is already in use", u.Username)
	}
	return apperr.Conflict("email %s is already in use", u.Email)
}

func (r *mongoRepo) List(ctx context.Context, f Filter) ([]*User, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	items := make([]*User, 0, len(docs))
	for _, d := range docs {
		items = append(items, fromDoc(d))
	}
	return items, nil
}

func (r *mongoRepo) findOne(ctx context.Context, filter bson.M, notFound error) (*User, error) {
	var d userDoc
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetCollation(caseInsensitive)).Decode(&d)
	if docstore.IsNoDocuments(err) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return fromDoc(d), nil
}

func (r *mongoRepo) GetByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, docstore.ByID(id), apperr.NotFound("User", id))
}

func (r *mongoRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email}, apperr.NotFoundf("no user with email %s", email))
}

func (r *mongoRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, bson.M{"username": username}, apperr.NotFoundf("no user with username %s", username))
}

func (r *mongoRepo) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, toDoc(u)); err != nil {
		if docstore.IsDuplicate(err) {
			return duplicateErr(u, err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *mongoRepo) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, docstore.ByID(u.ID), toDoc(u))
	if err != nil {
		if docstore.IsDuplicate(err) {
			return duplicateErr(u, err)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User", u.ID)
	}
	return nil
}

func (r *mongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, docstore.ByID(id))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("User", id)
	}
	return nil
}

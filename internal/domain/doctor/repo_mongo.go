package doctor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/docstore"
)

type doctorDoc struct {
	ID                string    `bson:"_id"`
	UserID            string    `bson:"user_id"`
	Specialization    string    `bson:"specialization"`
	LicenseNumber     string    `bson:"license_number"`
	YearsOfExperience int       `bson:"years_of_experience"`
	Active            bool      `bson:"active"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func toDoc(d *Doctor) doctorDoc {
	return doctorDoc{
		ID: d.ID, UserID: d.UserID, Specialization: d.Specialization,
		LicenseNumber: d.LicenseNumber, YearsOfExperience: d.YearsOfExperience,
		Active: d.Active, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func fromDoc(d doctorDoc) *Doctor {
	return &Doctor{
		ID: d.ID, UserID: d.UserID, Specialization: d.Specialization,
		LicenseNumber: d.LicenseNumber, YearsOfExperience: d.YearsOfExperience,
		Active: d.Active, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type mongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(docstore.Doctors)}
}

func duplicateErr(d *Doctor, err error) error {
	if strings.Contains(err.Error(), "user_id") {
		return apperr.Conflict("user %s already has a doctor profile", d.UserID)
	}
	return apperr.Conflict("license number %s is already registered", d.LicenseNumber)
}

func (r *mongoRepo) List(ctx context.Context, f Filter) ([]*Doctor, error) {
	filter := bson.M{}
	if f.Active != nil {
		filter["active"] = *f.Active
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	var docs []doctorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode doctors: %w", err)
	}
	items := make([]*Doctor, 0, len(docs))
	for _, d := range docs {
		items = append(items, fromDoc(d))
	}
	return items, nil
}

func (r *mongoRepo) findOne(ctx context.Context, filter bson.M, notFound error) (*Doctor, error) {
	var d doctorDoc
	err := r.coll.FindOne(ctx, filter).Decode(&d)
	if docstore.IsNoDocuments(err) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return fromDoc(d), nil
}

func (r *mongoRepo) GetByID(ctx context.Context, id string) (*Doctor, error) {
	return r.findOne(ctx, docstore.ByID(id), apperr.NotFound("Doctor", id))
}

func (r *mongoRepo) GetByUserID(ctx context.Context, userID string) (*Doctor, error) {
	return r.findOne(ctx, bson.M{"user_id": userID}, apperr.NotFoundf("no doctor profile for user %s", userID))
}

func (r *mongoRepo) GetByLicense(ctx context.Context, license string) (*Doctor, error) {
	filter := bson.M{"license_number": bson.M{"$regex": "^" + regexp.QuoteMeta(license) + "$", "$options": "i"}}
	return r.findOne(ctx, filter, apperr.NotFoundf("no doctor with license number %s", license))
}

func (r *mongoRepo) Create(ctx context.Context, d *Doctor) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, toDoc(d)); err != nil {
		if docstore.IsDuplicate(err) {
			return duplicateErr(d, err)
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *mongoRepo) Update(ctx context.Context, d *Doctor) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, docstore.ByID(d.ID), toDoc(d))
	if err != nil {
		if docstore.IsDuplicate(err) {
			return duplicateErr(d, err)
		}
		return fmt.Errorf("update doctor: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Doctor", d.ID)
	}
	return nil
}

func (r *mongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, docstore.ByID(id))
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Doctor", id)
	}
	return nil
}

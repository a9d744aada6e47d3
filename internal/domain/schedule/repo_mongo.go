package schedule

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/docstore"
)

type scheduleDoc struct {
	ID         string    `bson:"_id"`
	DoctorID   string    `bson:"doctor_id,omitempty"`
	DoctorName string    `bson:"doctor_name"`
	Date       string    `bson:"date"`
	Time       string    `bson:"time"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type mongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(docstore.Schedules)}
}

func (r *mongoRepo) List(ctx context.Context, f Filter) ([]*Schedule, error) {
	filter := bson.M{}
	if f.DoctorName != "" {
		filter["doctor_name"] = bson.M{"$regex": "^" + regexp.QuoteMeta(f.DoctorName) + "$", "$options": "i"}
	}
	if f.Date != "" {
		filter["date"] = f.Date
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	var docs []scheduleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}
	items := make([]*Schedule, 0, len(docs))
	for _, d := range docs {
		s := Schedule(d)
		items = append(items, &s)
	}
	return items, nil
}

func (r *mongoRepo) GetByID(ctx context.Context, id string) (*Schedule, error) {
	var d scheduleDoc
	err := r.coll.FindOne(ctx, docstore.ByID(id)).Decode(&d)
	if docstore.IsNoDocuments(err) {
		return nil, apperr.NotFound("Schedule", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	s := Schedule(d)
	return &s, nil
}

func (r *mongoRepo) Create(ctx context.Context, s *Schedule) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, scheduleDoc(*s)); err != nil {
		if docstore.IsDuplicate(err) {
			return apperr.Conflict("schedule %s already exists", s.ID)
		}
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (r *mongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, docstore.ByID(id))
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Schedule", id)
	}
	return nil
}

func (r *mongoRepo) UnlinkDoctor(ctx context.Context, doctorID string) (int, error) {
	if doctorID == "" {
		return 0, nil
	}
	res, err := r.coll.UpdateMany(ctx, bson.M{"doctor_id": doctorID}, bson.M{
		"$unset": bson.M{"doctor_id": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, fmt.Errorf("unlink doctor from schedules: %w", err)
	}
	return int(res.ModifiedCount), nil
}

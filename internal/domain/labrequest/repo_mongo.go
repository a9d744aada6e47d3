package labrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/docstore"
)

type labRequestDoc struct {
	ID            string            `bson:"_id"`
	PatientID     string            `bson:"patient_id"`
	RequestedBy   string            `bson:"requested_by,omitempty"`
	Tests         map[string]string `bson:"tests"`
	Results       map[string]string `bson:"results"`
	Status        string            `bson:"status"`
	DateRequested string            `bson:"date_requested"`
	DateTaken     string            `bson:"date_taken,omitempty"`
	Remarks       string            `bson:"remarks,omitempty"`
	CreatedAt     time.Time         `bson:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at"`
}

func toDoc(l *LabRequest) labRequestDoc {
	return labRequestDoc{
		ID: l.ID, PatientID: l.PatientID, RequestedBy: l.RequestedBy,
		Tests: cloneMap(l.Tests), Results: cloneMap(l.Results), Status: l.Status,
		DateRequested: l.DateRequested, DateTaken: l.DateTaken, Remarks: l.Remarks,
		CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
}

func fromDoc(d labRequestDoc) *LabRequest {
	l := &LabRequest{
		ID: d.ID, PatientID: d.PatientID, RequestedBy: d.RequestedBy,
		Tests: d.Tests, Results: d.Results, Status: d.Status,
		DateRequested: d.DateRequested, DateTaken: d.DateTaken, Remarks: d.Remarks,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
	if l.Tests == nil {
		l.Tests = map[string]string{}
	}
	if l.Results == nil {
		l.Results = map[string]string{}
	}
	return l
}

type mongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(docstore.LabRequests)}
}

func (r *mongoRepo) List(ctx context.Context, f Filter) ([]*LabRequest, error) {
	filter := bson.M{}
	if f.PatientID != "" {
		filter["patient_id"] = f.PatientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.DateRequested != "" {
		filter["date_requested"] = f.DateRequested
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list lab requests: %w", err)
	}
	var docs []labRequestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode lab requests: %w", err)
	}
	items := make([]*LabRequest, 0, len(docs))
	for _, d := range docs {
		items = append(items, fromDoc(d))
	}
	return items, nil
}

func (r *mongoRepo) GetByID(ctx context.Context, id string) (*LabRequest, error) {
	var d labRequestDoc
	err := r.coll.FindOne(ctx, docstore.ByID(id)).Decode(&d)
	if docstore.IsNoDocuments(err) {
		return nil, apperr.NotFound("Lab request", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get lab request: %w", err)
	}
	return fromDoc(d), nil
}

func (r *mongoRepo) Create(ctx context.Context, l *LabRequest) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, toDoc(l)); err != nil {
		if docstore.IsDuplicate(err) {
			return apperr.Conflict("lab request %s already exists", l.ID)
		}
		return fmt.Errorf("insert lab request: %w", err)
	}
	return nil
}

func (r *mongoRepo) Update(ctx context.Context, l *LabRequest) error {
	l.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, docstore.ByID(l.ID), toDoc(l))
	if err != nil {
		return fmt.Errorf("update lab request: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Lab request", l.ID)
	}
	return nil
}

func (r *mongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, docstore.ByID(id))
	if err != nil {
		return fmt.Errorf("delete lab request: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Lab request", id)
	}
	return nil
}

func (r *mongoRepo) DeletePatient(ctx context.Context, patientID string) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"patient_id": patientID})
	if err != nil {
		return 0, fmt.Errorf("delete lab requests of patient: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (r *mongoRepo) UnlinkDoctor(ctx context.Context, doctorID string) (int, error) {
	if doctorID == "" {
		return 0, nil
	}
	res, err := r.coll.UpdateMany(ctx, bson.M{"requested_by": doctorID}, bson.M{
		"$unset": bson.M{"requested_by": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, fmt.Errorf("unlink doctor from lab requests: %w", err)
	}
	return int(res.ModifiedCount), nil
}

package appointment

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

type appointmentDoc struct {
	ID        string    `bson:"_id"`
	PatientID string    `bson:"patient_id"`
	DoctorID  string    `bson:"doctor_id,omitempty"`
	Reason    string    `bson:"reason"`
	Date      string    `bson:"date"`
	Time      string    `bson:"time"`
	Status    string    `bson:"status"`
	Notes     string    `bson:"notes,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toDoc(a *Appointment) appointmentDoc {
	return appointmentDoc{
		ID: a.ID, PatientID: a.PatientID, DoctorID: a.DoctorID, Reason: a.Reason,
		Date: a.Date, Time: a.Time, Status: a.Status, Notes: a.Notes,
		CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func fromDoc(d appointmentDoc) *Appointment {
	return &Appointment{
		ID: d.ID, PatientID: d.PatientID, DoctorID: d.DoctorID, Reason: d.Reason,
		Date: d.Date, Time: d.Time, Status: d.Status, Notes: d.Notes,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type mongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(docstore.Appointments)}
}

func (r *mongoRepo) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	filter := bson.M{}
	if f.PatientID != "" {
		filter["patient_id"] = f.PatientID
	}
	if f.DoctorID != "" {
		filter["doctor_id"] = f.DoctorID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Date != "" {
		filter["date"] = f.Date
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	var docs []appointmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	items := make([]*Appointment, 0, len(docs))
	for _, d := range docs {
		items = append(items, fromDoc(d))
	}
	return items, nil
}

func (r *mongoRepo) GetByID(ctx context.Context, id string) (*Appointment, error) {
	var d appointmentDoc
	err := r.coll.FindOne(ctx, docstore.ByID(id)).Decode(&d)
	if docstore.IsNoDocuments(err) {
		return nil, apperr.NotFound("Appointment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return fromDoc(d), nil
}

func (r *mongoRepo) Create(ctx context.Context, a *Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, toDoc(a)); err != nil {
		if docstore.IsDuplicate(err) {
			return apperr.Conflict("appointment %s already exists", a.ID)
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *mongoRepo) Update(ctx context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, docstore.ByID(a.ID), toDoc(a))
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Appointment", a.ID)
	}
	return nil
}

func (r *mongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, docstore.ByID(id))
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Appointment", id)
	}
	return nil
}

func (r *mongoRepo) DeletePatient(ctx context.Context, patientID string) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"patient_id": patientID})
	if err != nil {
		return 0, fmt.Errorf("delete appointments of patient: %w", err)
	}
	return int(res.DeletedCount), nil
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
		return 0, fmt.Errorf("unlink doctor from appointments: %w", err)
	}
	return int(res.ModifiedCount), nil
}

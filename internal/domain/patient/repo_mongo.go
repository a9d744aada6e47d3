package patient

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

type patientDoc struct {
	ID            string    `bson:"_id"`
	FirstName     string    `bson:"first_name"`
	MiddleName    string    `bson:"middle_name,omitempty"`
	LastName      string    `bson:"last_name"`
	Sex           string    `bson:"sex"`
	BirthDate     string    `bson:"birth_date"`
	CivilStatus   string    `bson:"civil_status,omitempty"`
	ContactNumber string    `bson:"contact_number,omitempty"`
	Email         string    `bson:"email,omitempty"`
	Occupation    string    `bson:"occupation,omitempty"`
	Guardian      *Guardian `bson:"guardian,omitempty"`
	Address       *Address  `bson:"address,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toDoc(p *Patient) patientDoc {
	return patientDoc{
		ID: p.ID, FirstName: p.FirstName, MiddleName: p.MiddleName, LastName: p.LastName,
		Sex: p.Sex, BirthDate: p.BirthDate, CivilStatus: p.CivilStatus,
		ContactNumber: p.ContactNumber, Email: p.Email, Occupation: p.Occupation,
		Guardian: p.Guardian, Address: p.Address,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func fromDoc(d patientDoc) *Patient {
	return &Patient{
		ID: d.ID, FirstName: d.FirstName, MiddleName: d.MiddleName, LastName: d.LastName,
		Sex: d.Sex, BirthDate: d.BirthDate, CivilStatus: d.CivilStatus,
		ContactNumber: d.ContactNumber, Email: d.Email, Occupation: d.Occupation,
		Guardian: d.Guardian, Address: d.Address,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type mongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(docstore.Patients)}
}

func (r *mongoRepo) List(ctx context.Context, f Filter) ([]*Patient, error) {
	filter := bson.M{}
	if f.LastName != "" {
		filter["last_name"] = bson.M{"$regex": "^" + regexp.QuoteMeta(f.LastName) + "$", "$options": "i"}
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	var docs []patientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}
	items := make([]*Patient, 0, len(docs))
	for _, d := range docs {
		items = append(items, fromDoc(d))
	}
	return items, nil
}

func (r *mongoRepo) GetByID(ctx context.Context, id string) (*Patient, error) {
	var d patientDoc
	err := r.coll.FindOne(ctx, docstore.ByID(id)).Decode(&d)
	if docstore.IsNoDocuments(err) {
		return nil, apperr.NotFound("Patient", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return fromDoc(d), nil
}

func (r *mongoRepo) Create(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, toDoc(p)); err != nil {
		if docstore.IsDuplicate(err) {
			return apperr.Conflict("patient %s already exists", p.ID)
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *mongoRepo) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, docstore.ByID(p.ID), toDoc(p))
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Patient", p.ID)
	}
	return nil
}

func (r *mongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, docstore.ByID(id))
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Patient", id)
	}
	return nil
}

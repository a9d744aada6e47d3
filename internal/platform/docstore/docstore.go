// Package docstore connects to MongoDB and holds helpers shared by the
// document-backed repositories.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/clinic/clinic/pkg/response"
)

// Collection names.
const (
	Patients     = "patients"
	Appointments = "appointments"
	LabRequests  = "lab_requests"
	Schedules    = "schedules"
	Doctors      = "doctors"
	Users        = "users"
)

// Connect opens a client for uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// Index is a unique index on one or more fields of a collection.
type Index struct {
	Collection string
	Fields     []string
	// Collation strength 2 makes the index case-insensitive.
	CaseInsensitive bool
}

// Indexes lists the unique constraints the document store enforces.
var Indexes = []Index{
	{Collection: Users, Fields: []string{"email"}, CaseInsensitive: true},
	{Collection: Users, Fields: []string{"username"}, CaseInsensitive: true},
	{Collection: Doctors, Fields: []string{"user_id"}},
	{Collection: Doctors, Fields: []string{"license_number"}, CaseInsensitive: true},
}

// EnsureIndexes creates the unique indexes if they do not exist.
func EnsureIndexes(ctx context.Context, db *mongo.Database, indexes []Index) error {
	for _, idx := range indexes {
		keys := bson.D{}
		for _, f := range idx.Fields {
			keys = append(keys, bson.E{Key: f, Value: 1})
		}
		opts := options.Index().SetUnique(true)
		if idx.CaseInsensitive {
			opts.SetCollation(&options.Collation{Locale: "en", Strength: 2})
		}
		_, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
		if err != nil {
			return fmt.Errorf("create index on %s %v: %w", idx.Collection, idx.Fields, err)
		}
	}
	return nil
}

// IsDuplicate reports whether err is a unique index violation.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsNoDocuments reports whether err means a single-document lookup found
// nothing.
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// ByID is the filter for a document with the given string id.
func ByID(id string) bson.M {
	return bson.M{"_id": id}
}

// HealthHandler pings MongoDB.
func HealthHandler(client *mongo.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return response.Fail(c, http.StatusServiceUnavailable, "mongodb unreachable: "+err.Error())
		}
		return response.OK(c, map[string]string{"driver": "mongo", "status": "healthy"})
	}
}

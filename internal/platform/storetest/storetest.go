// Package storetest opens throwaway Postgres schemas and Mongo databases
// for repository tests. Each opener skips the calling test when its
// connection URL is not set in the environment.
package storetest

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/docstore"
	"github.com/clinic/clinic/migrations"
)

const (
	PostgresEnv = "DATABASE_URL"
	MongoEnv    = "MONGODB_URI"
)

func scratchName() string {
	return "clinic_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Postgres returns a pool whose search_path points at a freshly migrated
// schema. The schema is dropped when the test ends.
func Postgres(t testing.TB) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(PostgresEnv)
	if url == "" {
		t.Skipf("%s not set", PostgresEnv)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := scratchName()
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatalf("parse %s: %v", PostgresEnv, err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema + ",public"
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		drop := "DROP SCHEMA IF EXISTS " + pgx.Identifier{schema}.Sanitize() + " CASCADE"
		if _, err := pool.Exec(context.Background(), drop); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		pool.Close()
	})

	if _, err := db.NewMigrator(pool, migrations.FS, schema).Up(ctx); err != nil {
		t.Fatalf("migrate %s: %v", schema, err)
	}
	return pool
}

// SeedPatient inserts a bare patient row and returns its id, for tables
// whose foreign keys need one.
func SeedPatient(t testing.TB, pool *pgxpool.Pool) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO patients (id, first_name, last_name, sex, birth_date) VALUES ($1, 'Test', 'Patient', 'female', '1990-01-01')`, id)
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	return id
}

// SeedUser inserts a doctor-role account and returns its id.
func SeedUser(t testing.TB, pool *pgxpool.Pool) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, username, email, password_hash, role) VALUES ($1, $2, $3, 'x', 'doctor')`,
		id, "dr-"+id[:8], id[:8]+"@clinic.test")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

// SeedDoctor inserts a user and its doctor profile and returns the
// doctor id.
func SeedDoctor(t testing.TB, pool *pgxpool.Pool) string {
	t.Helper()
	userID, doctorID := SeedUser(t, pool), uuid.NewString()
	if _, err := pool.Exec(context.Background(),
		`INSERT INTO doctors (id, user_id, specialization, license_number) VALUES ($1, $2, 'General Practice', $3)`,
		doctorID, userID, "LIC-"+doctorID[:8]); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return doctorID
}

// Mongo returns a scratch database with the unique indexes in place. The
// database is dropped when the test ends.
func Mongo(t testing.TB) *mongo.Database {
	t.Helper()
	uri := os.Getenv(MongoEnv)
	if uri == "" {
		t.Skipf("%s not set", MongoEnv)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := docstore.Connect(ctx, uri)
	if err != nil {
		t.Fatalf("open mongodb: %v", err)
	}
	database := client.Database(scratchName())
	t.Cleanup(func() {
		if err := database.Drop(context.Background()); err != nil {
			t.Logf("drop database %s: %v", database.Name(), err)
		}
		_ = client.Disconnect(context.Background())
	})

	if err := docstore.EnsureIndexes(ctx, database, docstore.Indexes); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return database
}

// RoundTrip encodes doc to BSON and decodes it back, returning the decoded
// value and the raw document for field checks.
func RoundTrip[T any](t testing.TB, doc T) (T, bson.Raw) {
	t.Helper()
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out, raw
}

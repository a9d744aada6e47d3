package labrequest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/storetest"
)

type backend struct {
	repo Repository
	// patient and doctor return ids the store accepts as references.
	patient func(t *testing.T) string
	doctor  func(t *testing.T) string
}

func anyID(*testing.T) string { return uuid.NewString() }

// TestRepository runs the same checks against every adapter. Postgres and
// Mongo run only when DATABASE_URL or MONGODB_URI is set.
func TestRepository(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) backend
	}{
		{"memory", func(*testing.T) backend { return backend{NewMemoryRepo(), anyID, anyID} }},
		{"postgres", func(t *testing.T) backend {
			pool := storetest.Postgres(t)
			return backend{
				repo:    NewPGRepo(pool),
				patient: func(t *testing.T) string { return storetest.SeedPatient(t, pool) },
				doctor:  func(t *testing.T) string { return storetest.SeedDoctor(t, pool) },
			}
		}},
		{"mongo", func(t *testing.T) backend { return backend{NewMongoRepo(storetest.Mongo(t)), anyID, anyID} }},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) { testRepository(t, b.open(t)) })
	}
}

func testRepository(t *testing.T, b backend) {
	ctx := context.Background()
	repo := b.repo
	p1, p2, doc := b.patient(t), b.patient(t), b.doctor(t)

	create := func(l *LabRequest) *LabRequest {
		t.Helper()
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create: %v", err)
		}
		return l
	}
	pending := create(&LabRequest{ID: "LR-2024-001", PatientID: p1, RequestedBy: doc,
		Tests: map[string]string{"cbc": "yes"}, Status: StatusPending, DateRequested: "2024-06-01"})
	done := create(&LabRequest{PatientID: p1, Tests: map[string]string{"fbs": "yes"},
		Results: map[string]string{"fbs": "5.4 mmol/L"}, Status: StatusComplete,
		DateRequested: "2024-06-02", DateTaken: "2024-06-02", Remarks: "normal"})
	other := create(&LabRequest{PatientID: p2, Tests: map[string]string{"urinalysis": "yes"},
		Results: map[string]string{}, Status: StatusPending, DateRequested: "2024-06-02"})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByID(ctx, pending.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.PatientID != p1 || got.RequestedBy != doc || got.DateRequested != "2024-06-01" || got.DateTaken != "" {
			t.Errorf("unexpected lab request %+v", got)
		}
		if !reflect.DeepEqual(got.Tests, map[string]string{"cbc": "yes"}) {
			t.Errorf("tests = %v", got.Tests)
		}
		if got.Results == nil || len(got.Results) != 0 {
			t.Errorf("nil results should read back as an empty map, got %#v", got.Results)
		}

		got, err = repo.GetByID(ctx, done.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Results["fbs"] != "5.4 mmol/L" || got.DateTaken != "2024-06-02" || got.Remarks != "normal" || got.RequestedBy != "" {
			t.Errorf("unexpected lab request %+v", got)
		}
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		dup := &LabRequest{ID: pending.ID, PatientID: p2, Tests: map[string]string{"cbc": "yes"}, Status: StatusPending, DateRequested: "2024-06-05"}
		if err := repo.Create(ctx, dup); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("list filters", func(t *testing.T) {
		tests := []struct {
			name string
			f    Filter
			want []*LabRequest
		}{
			{"all", Filter{}, []*LabRequest{pending, done, other}},
			{"patient", Filter{PatientID: p1}, []*LabRequest{pending, done}},
			{"status", Filter{Status: StatusPending}, []*LabRequest{pending, other}},
			{"date", Filter{DateRequested: "2024-06-02"}, []*LabRequest{done, other}},
			{"combined", Filter{PatientID: p2, Status: StatusComplete}, nil},
		}
		for _, tt := range tests {
			got, err := repo.List(ctx, tt.f)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if labIDs(got) != labIDs(tt.want) {
				t.Errorf("%s: got %s, want %s", tt.name, labIDs(got), labIDs(tt.want))
			}
		}
	})

	t.Run("update", func(t *testing.T) {
		l, _ := repo.GetByID(ctx, pending.ID)
		l.Results = map[string]string{"hemoglobin": "13.5"}
		l.Status, l.DateTaken = StatusComplete, "2024-06-03"
		if err := repo.Update(ctx, l); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, _ := repo.GetByID(ctx, pending.ID)
		if got.Status != StatusComplete || got.DateTaken != "2024-06-03" || got.Results["hemoglobin"] != "13.5" {
			t.Errorf("unexpected lab request after update %+v", got)
		}

		ghost := &LabRequest{ID: "LR-missing", PatientID: p1, Tests: map[string]string{"cbc": "yes"}, Status: StatusPending, DateRequested: "2024-06-01"}
		if err := repo.Update(ctx, ghost); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Update missing: expected not found, got %v", err)
		}
	})

	t.Run("unlink doctor keeps the requests", func(t *testing.T) {
		n, err := repo.UnlinkDoctor(ctx, doc)
		if err != nil || n != 1 {
			t.Fatalf("UnlinkDoctor = %d, %v; want 1", n, err)
		}
		if got, err := repo.GetByID(ctx, pending.ID); err != nil || got.RequestedBy != "" || got.Status != StatusComplete {
			t.Errorf("unexpected lab request after unlink %+v, %v", got, err)
		}
	})

	t.Run("delete patient removes only theirs", func(t *testing.T) {
		n, err := repo.DeletePatient(ctx, p1)
		if err != nil || n != 2 {
			t.Fatalf("DeletePatient = %d, %v; want 2", n, err)
		}
		got, err := repo.List(ctx, Filter{})
		if err != nil || labIDs(got) != labIDs([]*LabRequest{other}) {
			t.Errorf("remaining = %s, %v", labIDs(got), err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, other.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := repo.Delete(ctx, other.ID); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("second delete: expected not found, got %v", err)
		}
		if _, err := repo.GetByID(ctx, other.ID); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("GetByID: expected not found, got %v", err)
		}
	})
}

// labIDs lists ids sorted; lists are in creation order and two requests
// can share a timestamp.
func labIDs(items []*LabRequest) string {
	ids := make([]string, 0, len(items))
	for _, l := range items {
		ids = append(ids, l.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func TestLabRequestDoc_RoundTrip(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

	t.Run("nil results", func(t *testing.T) {
		in := &LabRequest{ID: "LR-1", PatientID: "p1", Tests: map[string]string{"cbc": "yes"},
			Status: StatusPending, DateRequested: "2024-06-01", CreatedAt: stamp, UpdatedAt: stamp}
		doc, raw := storetest.RoundTrip(t, toDoc(in))
		if raw.Lookup("results").Type != bson.TypeEmbeddedDocument {
			t.Errorf("results stored as %v, want an empty document", raw.Lookup("results").Type)
		}
		for _, key := range []string{"requested_by", "date_taken", "remarks"} {
			if _, err := raw.LookupErr(key); err == nil {
				t.Errorf("%s stored for an empty value", key)
			}
		}
		got := fromDoc(doc)
		if got.Results == nil || len(got.Results) != 0 {
			t.Errorf("results = %#v, want empty map", got.Results)
		}
		if !reflect.DeepEqual(got.Tests, in.Tests) || got.ID != "LR-1" || !got.CreatedAt.Equal(stamp) {
			t.Errorf("round trip = %+v", got)
		}
	})

	t.Run("null results in an older document", func(t *testing.T) {
		got := fromDoc(labRequestDoc{ID: "LR-2", PatientID: "p1"})
		if got.Tests == nil || got.Results == nil {
			t.Errorf("expected empty maps, got %+v", got)
		}
	})

	t.Run("completed", func(t *testing.T) {
		in := &LabRequest{ID: "LR-3", PatientID: "p1", RequestedBy: "d1",
			Tests: map[string]string{"fbs": "yes"}, Results: map[string]string{"fbs": "5.4"},
			Status: StatusComplete, DateRequested: "2024-06-01", DateTaken: "2024-06-02", Remarks: "normal",
			CreatedAt: stamp, UpdatedAt: stamp}
		doc, _ := storetest.RoundTrip(t, toDoc(in))
		got := fromDoc(doc)
		got.CreatedAt, got.UpdatedAt = in.CreatedAt, in.UpdatedAt
		if !reflect.DeepEqual(got, in) {
			t.Errorf("round trip = %+v, want %+v", got, in)
		}
	})
}

func TestWriteErr(t *testing.T) {
	l := &LabRequest{ID: "LR-1", PatientID: "p1", RequestedBy: "d1"}
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"missing requester", &pgconn.PgError{Code: "23503", ConstraintName: "lab_requests_requested_by_fkey"}, apperr.ErrInvalid, "doctor d1 does not exist"},
		{"missing patient", &pgconn.PgError{Code: "23503", ConstraintName: "lab_requests_patient_id_fkey"}, apperr.ErrInvalid, "patient p1 does not exist"},
		{"malformed id", &pgconn.PgError{Code: "22P02"}, apperr.ErrInvalid, "requested_by must be valid UUIDs"},
		{"duplicate", &pgconn.PgError{Code: "23505", ConstraintName: "lab_requests_pkey"}, apperr.ErrConflict, "LR-1 already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writeErr("insert", l, fmt.Errorf("exec: %w", tt.err))
			if !errors.Is(err, tt.kind) || !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("got %v, want %v containing %q", err, tt.kind, tt.msg)
			}
		})
	}
}

package patient

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/storetest"
)

// TestRepository runs the same checks against every adapter. Postgres and
// Mongo run only when DATABASE_URL or MONGODB_URI is set.
func TestRepository(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) Repository
	}{
		{"memory", func(*testing.T) Repository { return NewMemoryRepo() }},
		{"postgres", func(t *testing.T) Repository { return NewPGRepo(storetest.Postgres(t)) }},
		{"mongo", func(t *testing.T) Repository { return NewMongoRepo(storetest.Mongo(t)) }},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) { testRepository(t, b.open(t)) })
	}
}

func testRepository(t *testing.T, repo Repository) {
	ctx := context.Background()

	full := &Patient{
		FirstName: "Juan", MiddleName: "Santos", LastName: "Dela Cruz", Sex: SexMale, BirthDate: "1990-01-15",
		CivilStatus: "single", ContactNumber: "09171234567", Email: "juan@example.com", Occupation: "Teacher",
		Guardian: &Guardian{Name: "Maria Dela Cruz", Relationship: "Mother", ContactNumber: "09181234567"},
		Address:  &Address{ProvinceCode: "0128", CityCode: "012801", BarangayCode: "012801001", Street: "Rizal St"},
	}
	if err := repo.Create(ctx, full); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if full.ID == "" || full.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", full)
	}
	bare := &Patient{FirstName: "Rosa", LastName: "Santos", Sex: SexFemale, BirthDate: "1970-02-02"}
	if err := repo.Create(ctx, bare); err != nil {
		t.Fatalf("Create bare: %v", err)
	}

	t.Run("get keeps every field", func(t *testing.T) {
		got, err := repo.GetByID(ctx, full.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.FirstName != "Juan" || got.MiddleName != "Santos" || got.BirthDate != "1990-01-15" ||
			got.CivilStatus != "single" || got.Email != "juan@example.com" || got.Occupation != "Teacher" {
			t.Errorf("unexpected patient %+v", got)
		}
		if !reflect.DeepEqual(got.Guardian, full.Guardian) {
			t.Errorf("guardian = %+v, want %+v", got.Guardian, full.Guardian)
		}
		if !reflect.DeepEqual(got.Address, full.Address) {
			t.Errorf("address = %+v, want %+v", got.Address, full.Address)
		}
	})

	t.Run("absent guardian and address stay nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, bare.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Guardian != nil || got.Address != nil || got.MiddleName != "" {
			t.Errorf("unexpected optional fields %+v", got)
		}
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		dup := &Patient{ID: full.ID, FirstName: "X", LastName: "Y", Sex: SexMale, BirthDate: "2000-01-01"}
		if err := repo.Create(ctx, dup); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("list filters by last name ignoring case", func(t *testing.T) {
		all, err := repo.List(ctx, Filter{})
		if err != nil || len(all) != 2 {
			t.Fatalf("List all: %d, %v", len(all), err)
		}
		got, err := repo.List(ctx, Filter{LastName: "dela cruz"})
		if err != nil || len(got) != 1 || got[0].ID != full.ID {
			t.Errorf("List by last name: %+v, %v", got, err)
		}
	})

	t.Run("update replaces the record", func(t *testing.T) {
		p, err := repo.GetByID(ctx, full.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		p.LastName, p.Guardian = "Reyes", nil
		if err := repo.Update(ctx, p); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, _ := repo.GetByID(ctx, full.ID)
		if got.LastName != "Reyes" || got.Guardian != nil || got.Address == nil {
			t.Errorf("unexpected patient after update %+v", got)
		}
	})

	t.Run("missing ids are not found", func(t *testing.T) {
		for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
			if _, err := repo.GetByID(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("GetByID(%q): expected not found, got %v", id, err)
			}
			if err := repo.Delete(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("Delete(%q): expected not found, got %v", id, err)
			}
		}
		ghost := &Patient{ID: uuid.NewString(), FirstName: "X", LastName: "Y", Sex: SexMale, BirthDate: "2000-01-01"}
		if err := repo.Update(ctx, ghost); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Update: expected not found, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, bare.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.GetByID(ctx, bare.ID); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("expected deleted patient gone, got %v", err)
		}
	})
}

func TestPatientDoc_RoundTrip(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		in     *Patient
		absent []string
	}{
		{
			name: "full",
			in: &Patient{
				ID: "p1", FirstName: "Juan", MiddleName: "Santos", LastName: "Dela Cruz", Sex: SexMale,
				BirthDate: "1990-01-15", CivilStatus: "married", ContactNumber: "09171234567",
				Email: "juan@example.com", Occupation: "Driver",
				Guardian:  &Guardian{Name: "Maria", Relationship: "Mother", ContactNumber: "0918"},
				Address:   &Address{ProvinceCode: "0128", CityCode: "012801"},
				CreatedAt: stamp, UpdatedAt: stamp,
			},
			absent: []string{"address.barangay_code", "address.street"},
		},
		{
			name: "minimal",
			in: &Patient{
				ID: "p2", FirstName: "Rosa", LastName: "Santos", Sex: SexFemale, BirthDate: "1970-02-02",
				CreatedAt: stamp, UpdatedAt: stamp,
			},
			absent: []string{"middle_name", "civil_status", "contact_number", "email", "occupation", "guardian", "address"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, raw := storetest.RoundTrip(t, toDoc(tt.in))
			got := fromDoc(doc)
			if !got.CreatedAt.Equal(stamp) || !got.UpdatedAt.Equal(stamp) {
				t.Errorf("timestamps = %v / %v, want %v", got.CreatedAt, got.UpdatedAt, stamp)
			}
			got.CreatedAt, got.UpdatedAt = tt.in.CreatedAt, tt.in.UpdatedAt
			if !reflect.DeepEqual(got, tt.in) {
				t.Errorf("round trip = %+v, want %+v", got, tt.in)
			}
			if id, ok := raw.Lookup("_id").StringValueOK(); !ok || id != tt.in.ID {
				t.Errorf("_id = %q", id)
			}
			for _, key := range tt.absent {
				if _, err := raw.LookupErr(strings.Split(key, ".")...); err == nil {
					t.Errorf("%s stored for an empty value", key)
				}
			}
		})
	}
}

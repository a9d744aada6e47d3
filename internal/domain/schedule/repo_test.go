package schedule

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/storetest"
)

type backend struct {
	repo Repository
	// doctor returns an id the store accepts as a doctor reference.
	doctor func(t *testing.T) string
}

// TestRepository runs the same checks against every adapter. Postgres and
// Mongo run only when DATABASE_URL or MONGODB_URI is set.
func TestRepository(t *testing.T) {
	anyID := func(*testing.T) string { return uuid.NewString() }
	backends := []struct {
		name string
		open func(t *testing.T) backend
	}{
		{"memory", func(*testing.T) backend { return backend{NewMemoryRepo(), anyID} }},
		{"postgres", func(t *testing.T) backend {
			pool := storetest.Postgres(t)
			return backend{NewPGRepo(pool), func(t *testing.T) string { return storetest.SeedDoctor(t, pool) }}
		}},
		{"mongo", func(t *testing.T) backend { return backend{NewMongoRepo(storetest.Mongo(t)), anyID} }},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) { testRepository(t, b.open(t)) })
	}
}

func testRepository(t *testing.T, b backend) {
	ctx := context.Background()
	repo := b.repo
	doc := b.doctor(t)

	create := func(s *Schedule) *Schedule {
		t.Helper()
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
		return s
	}
	afternoon := create(&Schedule{DoctorID: doc, DoctorName: "Dr. Lim", Date: "2024-06-03", Time: "13:00"})
	morning := create(&Schedule{DoctorName: "Dr. Lim", Date: "2024-06-03", Time: "08:00"})
	earlier := create(&Schedule{DoctorName: "Dr. Santos", Date: "2024-06-01", Time: "10:00"})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByID(ctx, afternoon.ID)
		if err != nil || got.DoctorID != doc || got.DoctorName != "Dr. Lim" || got.Date != "2024-06-03" || got.Time != "13:00" {
			t.Errorf("GetByID = %+v, %v", got, err)
		}
	})

	t.Run("list", func(t *testing.T) {
		tests := []struct {
			name string
			f    Filter
			want []*Schedule
		}{
			{"ordered by date then time", Filter{}, []*Schedule{earlier, morning, afternoon}},
			{"doctor name ignoring case", Filter{DoctorName: "dr. lim"}, []*Schedule{morning, afternoon}},
			{"date", Filter{Date: "2024-06-01"}, []*Schedule{earlier}},
			{"no match", Filter{DoctorName: "Dr. Lim", Date: "2024-06-01"}, nil},
		}
		for _, tt := range tests {
			got, err := repo.List(ctx, tt.f)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if scheduleIDs(got) != scheduleIDs(tt.want) {
				t.Errorf("%s: got %s, want %s", tt.name, scheduleIDs(got), scheduleIDs(tt.want))
			}
		}
	})

	t.Run("unlink doctor keeps the name", func(t *testing.T) {
		n, err := repo.UnlinkDoctor(ctx, doc)
		if err != nil || n != 1 {
			t.Fatalf("UnlinkDoctor = %d, %v; want 1", n, err)
		}
		got, err := repo.GetByID(ctx, afternoon.ID)
		if err != nil || got.DoctorID != "" || got.DoctorName != "Dr. Lim" {
			t.Errorf("unexpected schedule after unlink %+v, %v", got, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, morning.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		for _, id := range []string{morning.ID, uuid.NewString(), "not-a-uuid"} {
			if err := repo.Delete(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("Delete(%q): expected not found, got %v", id, err)
			}
			if _, err := repo.GetByID(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("GetByID(%q): expected not found, got %v", id, err)
			}
		}
	})
}

func scheduleIDs(items []*Schedule) string {
	ids := make([]string, 0, len(items))
	for _, s := range items {
		ids = append(ids, s.ID)
	}
	return strings.Join(ids, ",")
}

func TestScheduleDoc_RoundTrip(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	in := Schedule{ID: "s1", DoctorName: "Dr. Lim", Date: "2024-06-03", Time: "08:00", CreatedAt: stamp, UpdatedAt: stamp}

	doc, raw := storetest.RoundTrip(t, scheduleDoc(in))
	got := Schedule(doc)
	got.CreatedAt, got.UpdatedAt = in.CreatedAt, in.UpdatedAt
	if got != in {
		t.Errorf("round trip = %+v, want %+v", got, in)
	}
	if _, err := raw.LookupErr("doctor_id"); err == nil {
		t.Error("doctor_id stored for an unassigned schedule")
	}
}

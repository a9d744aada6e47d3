package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/clinic/clinic/internal/domain/address"
	"github.com/clinic/clinic/internal/platform/apperr"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir, err := address.Default()
	if err != nil {
		t.Fatalf("load addresses: %v", err)
	}
	return NewService(NewMemoryRepo(), dir)
}

func TestService_CreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	in := validPatient()
	in.Address = &Address{ProvinceCode: "ILOCOS_NORTE", CityCode: "laoag_city", BarangayCode: "B001"}
	p, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected ID to be assigned")
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Address == nil || got.Address.BarangayCode != "B001" {
		t.Errorf("unexpected address: %+v", got.Address)
	}
}

func TestService_Create_Invalid(t *testing.T) {
	svc := newTestService(t)
	in := validPatient()
	in.FirstName = ""
	_, err := svc.Create(context.Background(), in)
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestService_Create_UnknownAddress(t *testing.T) {
	svc := newTestService(t)
	tests := []struct {
		name string
		addr *Address
	}{
		{"unknown province", &Address{ProvinceCode: "ATLANTIS", CityCode: "laoag_city"}},
		{"city outside province", &Address{ProvinceCode: "CEBU", CityCode: "laoag_city"}},
		{"unknown barangay", &Address{ProvinceCode: "ILOCOS_NORTE", CityCode: "laoag_city", BarangayCode: "B999"}},
		{"missing city", &Address{ProvinceCode: "ILOCOS_NORTE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validPatient()
			in.Address = tt.addr
			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, apperr.ErrInvalid) {
				t.Errorf("expected invalid, got %v", err)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, validPatient())

	phone := "09171234567"
	updated, err := svc.Update(ctx, p.ID, Patch{ContactNumber: &phone})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ContactNumber != phone || updated.FirstName != "Juan" {
		t.Errorf("unexpected patient: %+v", updated)
	}

	got, _ := svc.Get(ctx, p.ID)
	if got.ContactNumber != phone {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc := newTestService(t)
	name := "X"
	_, err := svc.Update(context.Background(), "missing", Patch{FirstName: &name})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "Patient with ID missing not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, validPatient())

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := svc.Delete(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestService_List_FilterByLastName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.Create(ctx, validPatient())
	other := validPatient()
	other.LastName = "Santos"
	svc.Create(ctx, other)

	all, _ := svc.List(ctx, Filter{})
	if len(all) != 2 {
		t.Errorf("expected 2 patients, got %d", len(all))
	}
	santos, _ := svc.List(ctx, Filter{LastName: "santos"})
	if len(santos) != 1 || santos[0].LastName != "Santos" {
		t.Errorf("unexpected filter result: %+v", santos)
	}
}

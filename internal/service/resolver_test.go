package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/ventanaops/ventana/internal/domain"
)

// fakeCatalog resolves from in-memory maps.
type fakeCatalog struct {
	byID   map[uint]*domain.Service
	byCode map[string]*domain.Service
}

func (f *fakeCatalog) GetByID(_ context.Context, id uint) (*domain.Service, error) {
	return f.byID[id], nil
}

func (f *fakeCatalog) GetByCarrierCode(_ context.Context, code string) (*domain.Service, error) {
	return f.byCode[code], nil
}

func TestFilterIdentifiersTelxius(t *testing.T) {
	kept, discarded := FilterIdentifiers("TELXIUS", []string{
		"CRT-000123", "2024", "SWX1234567", "CRT-000456", "circuito 9",
	})
	if want := []string{"CRT-000123", "CRT-000456"}; !reflect.DeepEqual(kept, want) {
		t.Errorf("kept = %v, want %v", kept, want)
	}
	if want := []string{"2024", "SWX1234567", "circuito 9"}; !reflect.DeepEqual(discarded, want) {
		t.Errorf("discarded = %v, want %v", discarded, want)
	}
}

func TestFilterIdentifiersGeneric(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		wantKept bool
	}{
		{"four digit year", "2024", false},
		{"short numeric", "10423", false},
		{"six digit numeric", "104233", true},
		{"alphanumeric", "CRT-000123", true},
		{"three digit", "042", false},
		{"five char alnum", "AB123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, discarded := FilterIdentifiers("ACME", []string{tt.id})
			if tt.wantKept && len(kept) != 1 {
				t.Errorf("id %q discarded (%v), want kept", tt.id, discarded)
			}
			if !tt.wantKept && len(discarded) != 1 {
				t.Errorf("id %q kept (%v), want discarded", tt.id, kept)
			}
		})
	}
}

func TestResolveOrderAndFallbacks(t *testing.T) {
	svc1 := &domain.Service{ID: 104233, Name: "enlace uno"}
	svc2 := &domain.Service{ID: 2, Name: "enlace dos", CarrierCode: "CRT-000123"}
	svc3 := &domain.Service{ID: 300500, Name: "enlace tres"}

	catalog := &fakeCatalog{
		byID:   map[uint]*domain.Service{104233: svc1, 300500: svc3},
		byCode: map[string]*domain.Service{"CRT-000123": svc2},
	}
	r := NewResolver(catalog)

	// 104233 resolves by operations id, CRT-000123 by verbatim carrier
	// code, SVC-300500 by stripping non-digits, CRT-999999 stays pending.
	res, err := r.Resolve(context.Background(), "ACME", []string{
		"104233", "CRT-000123", "SVC-300500", "CRT-999999",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	gotIDs := make([]uint, 0, len(res.Matched))
	for _, svc := range res.Matched {
		gotIDs = append(gotIDs, svc.ID)
	}
	if want := []uint{104233, 2, 300500}; !reflect.DeepEqual(gotIDs, want) {
		t.Errorf("matched ids = %v, want %v", gotIDs, want)
	}
	if want := []string{"CRT-999999"}; !reflect.DeepEqual(res.Pending, want) {
		t.Errorf("pending = %v, want %v", res.Pending, want)
	}
}

func TestResolveNumericPrefersOperationsID(t *testing.T) {
	// A numeric identifier that exists both as an operations id and as a
	// carrier code must resolve to the operations id.
	byIDMatch := &domain.Service{ID: 104233, Name: "por id"}
	byCodeMatch := &domain.Service{ID: 9, Name: "por codigo", CarrierCode: "104233"}

	catalog := &fakeCatalog{
		byID:   map[uint]*domain.Service{104233: byIDMatch},
		byCode: map[string]*domain.Service{"104233": byCodeMatch},
	}
	r := NewResolver(catalog)

	res, err := r.Resolve(context.Background(), "ACME", []string{"104233"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Matched) != 1 || res.Matched[0].ID != 104233 {
		t.Errorf("matched = %+v, want the operations id row", res.Matched)
	}
}

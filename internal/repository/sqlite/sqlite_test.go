package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"messprotokoll/internal/domain"
	"messprotokoll/internal/repository"
)

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func sampleProtocol(id string) *domain.Protocol {
	p := domain.NewProtocol(id)
	p.Customer = "Tool Service GmbH"
	p.Order = "0815"
	p.Position = "3"
	p.DrawingNumber = "Z-4711"

	slot := p.Slot(0)
	slot.Nominal = "12,5"
	slot.ISOFit = "H7"
	slot.UpperDeviation = "+0,018"
	slot.LowerDeviation = "+0,000"
	slot.RecomputeTarget()
	return p
}

func TestCreateAndGetProtocol(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := sampleProtocol("p1")
	assertNoError(t, repo.CreateProtocol(ctx, p))

	got, err := repo.GetProtocol(ctx, "p1")
	assertNoError(t, err)

	if got.Customer != p.Customer || got.DrawingNumber != p.DrawingNumber {
		t.Errorf("header mismatch: %+v", got)
	}
	if got.Slots[0].Nominal != "12,5" || got.Slots[0].Target != p.Slots[0].Target {
		t.Errorf("slot mismatch: %+v", got.Slots[0])
	}
}

func TestCreateProtocol_RequiresID(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.CreateProtocol(context.Background(), &domain.Protocol{}); err == nil {
		t.Error("expected error for missing ID")
	}
}

func TestCreateProtocol_DuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.CreateProtocol(ctx, sampleProtocol("p1")))
	if err := repo.CreateProtocol(ctx, sampleProtocol("p1")); err == nil {
		t.Error("expected error for duplicate ID")
	}
}

func TestGetProtocol_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetProtocol(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProtocol(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := sampleProtocol("p1")
	assertNoError(t, repo.CreateProtocol(ctx, p))

	p.Remarks = "Nacharbeit"
	p.Slot(1).Nominal = "40"
	assertNoError(t, repo.UpdateProtocol(ctx, p))

	got, err := repo.GetProtocol(ctx, "p1")
	assertNoError(t, err)
	if got.Remarks != "Nacharbeit" || got.Slots[1].Nominal != "40" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUpdateProtocol_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.UpdateProtocol(context.Background(), sampleProtocol("ghost"))
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteProtocol(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.CreateProtocol(ctx, sampleProtocol("p1")))
	assertNoError(t, repo.DeleteProtocol(ctx, "p1"))

	if _, err := repo.GetProtocol(ctx, "p1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := repo.DeleteProtocol(ctx, "p1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestListProtocols(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if protocols, err := repo.ListProtocols(ctx); err != nil || len(protocols) != 0 {
		t.Fatalf("expected empty list, got %v, %v", protocols, err)
	}

	first := sampleProtocol("p1")
	assertNoError(t, repo.CreateProtocol(ctx, first))
	time.Sleep(5 * time.Millisecond)
	second := sampleProtocol("p2")
	assertNoError(t, repo.CreateProtocol(ctx, second))

	protocols, err := repo.ListProtocols(ctx)
	assertNoError(t, err)
	if len(protocols) != 2 {
		t.Fatalf("expected 2 protocols, got %d", len(protocols))
	}
	if protocols[0].ID != "p2" {
		t.Errorf("expected newest first, got %s", protocols[0].ID)
	}
}

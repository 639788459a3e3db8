package transaction

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRecordFillsDefaults(t *testing.T) {
	repo := NewMemoryRepository()

	rec, err := repo.Record(context.Background(), Record{
		UserID:    "usr-1",
		Type:      TypeDebit,
		Amount:    5000,
		Reference: "tx-1",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected a generated id")
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("expected a creation timestamp")
	}
}

func TestHistoryPagination(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		if _, err := repo.Record(ctx, Record{
			UserID:    "usr-1",
			Type:      TypeDebit,
			Amount:    int64(1000 * (i + 1)),
			Reference: fmt.Sprintf("tx-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if _, err := repo.Record(ctx, Record{UserID: "usr-2", Type: TypeCredit, Amount: 99, Reference: "tx-other"}); err != nil {
		t.Fatalf("record other user: %v", err)
	}

	page, err := repo.History(ctx, "usr-1", 1, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page.Items) != 5 || page.Total != 7 || page.TotalPages != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[0].Reference != "tx-6" {
		t.Fatalf("expected newest first, got %s", page.Items[0].Reference)
	}

	page, err = repo.History(ctx, "usr-1", 2, 5)
	if err != nil {
		t.Fatalf("history page 2: %v", err)
	}
	if len(page.Items) != 2 || page.Items[1].Reference != "tx-0" {
		t.Fatalf("unexpected second page %+v", page)
	}

	page, err = repo.History(ctx, "usr-1", 9, 5)
	if err != nil {
		t.Fatalf("history past end: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected empty page past the end, got %d items", len(page.Items))
	}
}

func TestFindByReference(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if _, err := repo.Record(ctx, Record{UserID: "usr-1", Type: TypeDebit, Amount: 5000, Reference: "tx-1"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	rec, err := repo.FindByReference(ctx, "tx-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.Amount != 5000 || rec.UserID != "usr-1" {
		t.Fatalf("unexpected record %+v", rec)
	}

	if _, err := repo.FindByReference(ctx, "tx-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

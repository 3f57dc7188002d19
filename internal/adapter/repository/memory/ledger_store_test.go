package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iho/creditledger/internal/domain"
)

func TestLedgerStore_GetOrCreate(t *testing.T) {
	store := NewLedgerStore()

	first := store.GetOrCreate("cust-1")
	second := store.GetOrCreate("cust-1")
	if first != second {
		t.Fatal("expected the same ledger instance for the same customer")
	}
	if first.CustomerID() != "cust-1" {
		t.Fatalf("expected customer cust-1, got %s", first.CustomerID())
	}

	other := store.GetOrCreate("cust-2")
	if other == first {
		t.Fatal("expected distinct ledgers for distinct customers")
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 ledgers, got %d", store.Len())
	}
}

func TestLedgerStore_GetDoesNotCreate(t *testing.T) {
	store := NewLedgerStore()

	if _, ok := store.Get("ghost"); ok {
		t.Fatal("expected no ledger for unknown customer")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d ledgers", store.Len())
	}

	created := store.GetOrCreate("ghost")
	got, ok := store.Get("ghost")
	if !ok || got != created {
		t.Fatal("expected Get to return the created ledger")
	}
}

func TestLedgerStore_ConcurrentGetOrCreate(t *testing.T) {
	const workers = 64
	store := NewLedgerStore()

	var wg sync.WaitGroup
	results := make([]*domain.Ledger, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.GetOrCreate("contended")
		}(i)
	}
	wg.Wait()

	for i, l := range results {
		if l != results[0] {
			t.Fatalf("worker %d got a different ledger instance", i)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("expected exactly 1 ledger, got %d", store.Len())
	}
}

func TestLedgerStore_CustomerIDsSorted(t *testing.T) {
	store := NewLedgerStore()
	for _, id := range []string{"carol", "alice", "bob"} {
		store.GetOrCreate(id)
	}

	ids := store.CustomerIDs()
	want := []string{"alice", "bob", "carol"}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestLedgerStore_Clear(t *testing.T) {
	store := NewLedgerStore()
	before := store.GetOrCreate("cust-1")
	if _, err := before.ApplyCredit(context.Background(), "tx-1", domain.CategoryCash, domain.MustParseMoney("10", "USD")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.Clear()

	if store.Len() != 0 {
		t.Fatalf("expected empty store after Clear, got %d", store.Len())
	}
	after := store.GetOrCreate("cust-1")
	if after == before {
		t.Fatal("expected a fresh ledger after Clear")
	}
	balance, err := after.Balance(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Total.IsZero() {
		t.Fatalf("expected empty balance, got %s", balance.Total)
	}
}

func TestLedgerStore_AppliesOptions(t *testing.T) {
	stamp := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	store := NewLedgerStore(domain.WithClock(func() time.Time { return stamp }))

	res, err := store.GetOrCreate("cust-1").ApplyCredit(context.Background(), "tx-1", domain.CategoryPromotion, domain.MustParseMoney("1", "USD"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.LineItem.CreatedAt.Equal(stamp) {
		t.Fatalf("expected CreatedAt %v, got %v", stamp, res.LineItem.CreatedAt)
	}
}

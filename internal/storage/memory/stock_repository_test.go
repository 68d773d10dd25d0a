package memory_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func TestStockRepository_SetAndQuantity(t *testing.T) {
	repo := memory.NewStockRepository()

	if err := repo.SetQuantity("TS001", "M", 10); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	qty, err := repo.Quantity("ts001", "M")
	if err != nil {
		t.Fatalf("quantity failed: %v", err)
	}
	if qty != 10 {
		t.Fatalf("expected 10, got %d", qty)
	}
}

func TestStockRepository_MissingKeyIsZero(t *testing.T) {
	repo := memory.NewStockRepository()

	qty, err := repo.Quantity("TS001", "XL")
	if err != nil {
		t.Fatalf("quantity failed: %v", err)
	}
	if qty != 0 {
		t.Fatalf("expected 0 for missing key, got %d", qty)
	}
}

func TestStockRepository_SetNegativeRejected(t *testing.T) {
	repo := memory.NewStockRepository()

	if err := repo.SetQuantity("TS001", "M", -1); !errors.Is(err, domain.ErrStockQtyNegative) {
		t.Fatalf("expected ErrStockQtyNegative, got %v", err)
	}
}

func TestStockRepository_TotalQuantity(t *testing.T) {
	repo := memory.NewStockRepository()
	_ = repo.SetQuantity("TS001", "S", 3)
	_ = repo.SetQuantity("TS001", "M", 7)
	_ = repo.SetQuantity("JN002", "M", 100)

	total, err := repo.TotalQuantity("TS001")
	if err != nil {
		t.Fatalf("total failed: %v", err)
	}
	if total != 10 {
		t.Fatalf("expected 10, got %d", total)
	}
}

func TestStockRepository_DecreaseInsufficient(t *testing.T) {
	repo := memory.NewStockRepository()
	_ = repo.SetQuantity("TS001", "M", 5)

	err := repo.Decrease("TS001", "M", 6)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	qty, _ := repo.Quantity("TS001", "M")
	if qty != 5 {
		t.Fatalf("failed decrease must not change stock, got %d", qty)
	}
}

func TestStockRepository_ReserveAggregatesDuplicateKeys(t *testing.T) {
	repo := memory.NewStockRepository()
	_ = repo.SetQuantity("TS001", "M", 5)

	// Две строки по 3 на один ключ требуют 6 суммарно, доступно 5.
	err := repo.Reserve([]domain.StockLine{
		{ProductID: "TS001", Size: "M", Qty: 3},
		{ProductID: "ts001", Size: "M", Qty: 3},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	qty, _ := repo.Quantity("TS001", "M")
	if qty != 5 {
		t.Fatalf("failed reserve must not change stock, got %d", qty)
	}
}

func TestStockRepository_ReserveAllOrNothing(t *testing.T) {
	repo := memory.NewStockRepository()
	_ = repo.SetQuantity("TS001", "M", 10)
	_ = repo.SetQuantity("JN002", "L", 1)

	err := repo.Reserve([]domain.StockLine{
		{ProductID: "TS001", Size: "M", Qty: 2},
		{ProductID: "JN002", Size: "L", Qty: 5},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Первая строка была выполнима, но не должна быть списана.
	qty, _ := repo.Quantity("TS001", "M")
	if qty != 10 {
		t.Fatalf("expected untouched stock 10, got %d", qty)
	}
}

func TestStockRepository_ReserveReleaseSymmetry(t *testing.T) {
	repo := memory.NewStockRepository()
	_ = repo.SetQuantity("TS001", "M", 10)

	lines := []domain.StockLine{{ProductID: "TS001", Size: "M", Qty: 4}}

	if err := repo.Reserve(lines); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	qty, _ := repo.Quantity("TS001", "M")
	if qty != 6 {
		t.Fatalf("expected 6 after reserve, got %d", qty)
	}

	if err := repo.Release(lines); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	qty, _ = repo.Quantity("TS001", "M")
	if qty != 10 {
		t.Fatalf("expected 10 after release, got %d", qty)
	}
}

func TestStockRepository_ConcurrentReserveSingleWinner(t *testing.T) {
	repo := memory.NewStockRepository()
	_ = repo.SetQuantity("TS001", "M", 5)

	const workers = 8

	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Reserve([]domain.StockLine{{ProductID: "TS001", Size: "M", Qty: 5}})
			if err == nil {
				successes <- struct{}{}
			} else if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()
	close(successes)

	won := 0
	for range successes {
		won++
	}
	if won != 1 {
		t.Fatalf("expected exactly 1 successful reserve, got %d", won)
	}

	qty, _ := repo.Quantity("TS001", "M")
	if qty != 0 {
		t.Fatalf("expected 0 remaining, got %d", qty)
	}
}

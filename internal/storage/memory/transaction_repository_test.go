package memory_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func sampleTransaction(id string) (domain.TransactionHeader, []domain.TransactionLine) {
	header := domain.TransactionHeader{
		ID:            id,
		CreatedAt:     time.Now().UTC(),
		CustomerRef:   "walk-in",
		Total:         decimal.RequireFromString("39.80"),
		PaymentMethod: "CASH",
	}
	lines := []domain.TransactionLine{
		{TransactionID: id, LineNo: 1, ProductID: "TS001", Size: "M", Qty: 2, UnitPrice: decimal.RequireFromString("19.90")},
	}
	return header, lines
}

func TestTransactionRepository_NextIDSequence(t *testing.T) {
	repo := memory.NewTransactionRepository()

	first, err := repo.NextID()
	if err != nil {
		t.Fatalf("next id failed: %v", err)
	}
	if first != "S00000001" {
		t.Fatalf("expected S00000001, got %s", first)
	}

	second, _ := repo.NextID()
	if second != "S00000002" {
		t.Fatalf("expected S00000002, got %s", second)
	}
}

func TestTransactionRepository_NextIDConcurrentUnique(t *testing.T) {
	repo := memory.NewTransactionRepository()

	const n = 50

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool, n)
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := repo.NextID()
			if err != nil {
				t.Errorf("next id failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ids[id] {
				t.Errorf("duplicate id issued: %s", id)
			}
			ids[id] = true
		}()
	}
	wg.Wait()
}

func TestTransactionRepository_SaveAndRead(t *testing.T) {
	repo := memory.NewTransactionRepository()

	id, _ := repo.NextID()
	header, lines := sampleTransaction(id)

	if err := repo.Save(header, lines); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	headers, err := repo.AllHeaders()
	if err != nil {
		t.Fatalf("all headers failed: %v", err)
	}
	if len(headers) != 1 || headers[0].ID != id {
		t.Fatalf("unexpected headers: %+v", headers)
	}

	stored, err := repo.LinesFor(id)
	if err != nil {
		t.Fatalf("lines failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Qty != 2 {
		t.Fatalf("unexpected lines: %+v", stored)
	}
}

func TestTransactionRepository_SaveUpsert(t *testing.T) {
	repo := memory.NewTransactionRepository()

	id, _ := repo.NextID()
	header, lines := sampleTransaction(id)
	if err := repo.Save(header, lines); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	header.Total = decimal.RequireFromString("19.90")
	lines[0].Qty = 1
	if err := repo.Save(header, lines); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	headers, _ := repo.AllHeaders()
	if len(headers) != 1 {
		t.Fatalf("upsert must not duplicate header, got %d", len(headers))
	}
	if !headers[0].Total.Equal(decimal.RequireFromString("19.90")) {
		t.Fatalf("expected updated total, got %s", headers[0].Total.String())
	}
}

func TestTransactionRepository_ExternalIDAdvancesCounter(t *testing.T) {
	repo := memory.NewTransactionRepository()

	header, lines := sampleTransaction("S00000041")
	for i := range lines {
		lines[i].TransactionID = header.ID
	}
	if err := repo.Save(header, lines); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	next, err := repo.NextID()
	if err != nil {
		t.Fatalf("next id failed: %v", err)
	}
	if next != "S00000042" {
		t.Fatalf("expected S00000042 after external S00000041, got %s", next)
	}
}

func TestTransactionRepository_LinesForUnknownID(t *testing.T) {
	repo := memory.NewTransactionRepository()

	_, err := repo.LinesFor("S99999999")
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestTransactionRepository_SaveValidatesLineNumbers(t *testing.T) {
	repo := memory.NewTransactionRepository()

	header, lines := sampleTransaction("S00000001")
	lines[0].LineNo = 7

	if err := repo.Save(header, lines); !errors.Is(err, domain.ErrLineNoInvalid) {
		t.Fatalf("expected ErrLineNoInvalid, got %v", err)
	}
}

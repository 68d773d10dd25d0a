package app

import (
	"context"
	"testing"
)

func TestNewDependencies_Memory(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{StorageDriver: StorageDriverMemory}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Catalog == nil {
		t.Error("Catalog repository should not be nil")
	}
	if deps.Stock == nil {
		t.Error("Stock repository should not be nil")
	}
	if deps.Transactions == nil {
		t.Error("Transactions repository should not be nil")
	}
	if deps.Members == nil {
		t.Error("Members repository should not be nil")
	}
	if deps.Employees == nil {
		t.Error("Employees repository should not be nil")
	}
	if deps.Outbox == nil {
		t.Error("Outbox repository should not be nil")
	}
	if deps.Idempotency == nil {
		t.Error("Idempotency repository should not be nil")
	}
	if deps.Store != nil {
		t.Error("memory driver must not open a postgres store")
	}

	if err := deps.Close(); err != nil {
		t.Errorf("Close on memory dependencies failed: %v", err)
	}
}

func TestNewDependencies_RejectsEmptyDriver(t *testing.T) {
	// Пустой драйвер отклоняется так же, как в Config.Validate:
	// хранилище выбирается явно.
	if _, err := NewDependencies(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error for empty storage driver")
	}
}

func TestNewDependencies_RejectsUnknownDriver(t *testing.T) {
	if _, err := NewDependencies(context.Background(), Config{StorageDriver: "cassandra"}, nil); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestDependencies_CloseNil(t *testing.T) {
	var deps *Dependencies
	if err := deps.Close(); err != nil {
		t.Errorf("Close on nil dependencies failed: %v", err)
	}
}

package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "orders_tracking_code_key"}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"matching constraint", dup, "orders_tracking_code_key", true},
		{"wrapped", fmt.Errorf("insert order: %w", dup), "orders_tracking_code_key", true},
		{"any constraint", dup, "", true},
		{"other constraint", dup, "payments_order_id_key", false},
		{"other code", &pq.Error{Code: "23503"}, "", false},
		{"plain error", errors.New("duplicate key"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCheckViolation(t *testing.T) {
	if !IsCheckViolation(fmt.Errorf("update: %w", &pq.Error{Code: "23514"})) {
		t.Error("expected check violation to be detected")
	}
	if IsCheckViolation(&pq.Error{Code: "23505"}) {
		t.Error("unique violation is not a check violation")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	fk := &pq.Error{Code: "23503", Constraint: "orders_customer_id_fkey"}
	if !IsForeignKeyViolation(fmt.Errorf("insert order: %w", fk), "orders_customer_id_fkey") {
		t.Error("expected wrapped foreign key violation to be detected")
	}
	if !IsForeignKeyViolation(fk, "") {
		t.Error("empty constraint should match any foreign key")
	}
	if IsForeignKeyViolation(fk, "payments_order_id_fkey") {
		t.Error("other constraint must not match")
	}
	if IsForeignKeyViolation(&pq.Error{Code: "23505"}, "") {
		t.Error("unique violation is not a foreign key violation")
	}
}

func TestInTx_WithoutTransaction(t *testing.T) {
	if InTx(context.Background()) {
		t.Fatal("background context must not report a transaction")
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no embedded migrations")
	}
}

func TestPaymentRetryMigration(t *testing.T) {
	body, err := fs.ReadFile(migrationFS, "migrations/0002_payment_retries.sql")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"DROP CONSTRAINT IF EXISTS payments_order_id_key", "payments_order_active_key", "WHERE status IN ('pending', 'completed')"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("migration missing %q", want)
		}
	}
}

func TestAfterCommit_WithoutTransactionRunsImmediately(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func() { ran = true })
	if !ran {
		t.Fatal("callback should run immediately outside a transaction")
	}
}

func TestAfterCommit_QueuesOnTransaction(t *testing.T) {
	state := &txState{}
	ctx := context.WithValue(context.Background(), txKey{}, state)

	ran := false
	AfterCommit(ctx, func() { ran = true })
	if ran {
		t.Fatal("callback must wait for commit")
	}
	if len(state.hooks) != 1 {
		t.Fatalf("expected one queued hook, got %d", len(state.hooks))
	}
	if !InTx(ctx) {
		t.Error("InTx should report the bound transaction")
	}
}
